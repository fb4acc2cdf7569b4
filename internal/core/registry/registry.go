package registry

import (
	_ "embed"
	"fmt"
	"sort"

	"agencyctl/internal/core/domain"

	"gopkg.in/yaml.v3"
)

//go:embed resources.yaml
var resourcesYAML []byte

type registryFile struct {
	Resources []domain.Descriptor `yaml:"resources"`
}

// Registry holds every resource descriptor the admin client can manage.
type Registry struct {
	byName map[string]domain.Descriptor
	order  []string
}

// Load parses and validates the embedded resource registry. The file is part
// of the binary, so a parse failure is a build defect rather than a runtime
// condition - callers generally treat the error as fatal.
func Load() (*Registry, error) {
	return parse(resourcesYAML)
}

func parse(raw []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("registry: could not parse resources: %w", err)
	}

	if len(file.Resources) == 0 {
		return nil, fmt.Errorf("registry: no resources declared")
	}

	reg := &Registry{
		byName: make(map[string]domain.Descriptor, len(file.Resources)),
	}

	for _, desc := range file.Resources {
		if err := desc.Validate(); err != nil {
			return nil, fmt.Errorf("registry: %w", err)
		}
		if _, exists := reg.byName[desc.Name]; exists {
			return nil, fmt.Errorf("registry: duplicate resource %q", desc.Name)
		}
		reg.byName[desc.Name] = desc
		reg.order = append(reg.order, desc.Name)
	}

	return reg, nil
}

// Lookup returns the descriptor for a resource name.
func (r *Registry) Lookup(name string) (domain.Descriptor, bool) {
	desc, ok := r.byName[name]
	return desc, ok
}

// All returns every descriptor in declaration order.
func (r *Registry) All() []domain.Descriptor {
	out := make([]domain.Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns the resource names sorted alphabetically, for help output.
func (r *Registry) Names() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}
