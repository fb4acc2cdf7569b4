package domain

import (
	"errors"
	"fmt"
	"strings"
)

// FieldKind enumerates the input widgets a form can render for a field.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
	FieldNumber   FieldKind = "number"
	FieldBool     FieldKind = "bool"
	FieldSelect   FieldKind = "select"
	FieldList     FieldKind = "list"
	FieldFile     FieldKind = "file"
)

// FieldSpec describes one editable field of a resource. The same specs drive
// the form inputs and the list columns, so every entity page stays a pure
// instantiation of the shared pattern.
type FieldSpec struct {
	Name     string    `yaml:"name"`
	Label    string    `yaml:"label"`
	Kind     FieldKind `yaml:"kind"`
	Required bool      `yaml:"required"`
	Options  []string  `yaml:"options,omitempty"`
	// MinItems applies to list fields; at least one entry is enforced when > 0.
	MinItems int `yaml:"minItems,omitempty"`
	// Column marks the field for display in the list view.
	Column bool `yaml:"column,omitempty"`
	// Toggle marks a bool field as directly togglable from the list row.
	Toggle bool `yaml:"toggle,omitempty"`
}

// Descriptor identifies one manageable entity type. Descriptors come from the
// embedded registry, never from code, so adding an entity is configuration.
type Descriptor struct {
	Name           string      `yaml:"name"`
	Title          string      `yaml:"title"`
	BasePath       string      `yaml:"basePath"`
	IDField        string      `yaml:"idField"`
	SupportsUpload bool        `yaml:"supportsUpload"`
	LocalOnly      bool        `yaml:"localOnly"`
	Fields         []FieldSpec `yaml:"fields"`
	// Fallback is the opt-in offline collection shown when the initial fetch
	// fails. Most resources do not declare one.
	Fallback []Record `yaml:"fallback,omitempty"`
}

func (d Descriptor) Validate() error {
	if d.Name == "" {
		return errors.New("descriptor has no name")
	}
	if !d.LocalOnly && !strings.HasPrefix(d.BasePath, "/") {
		return fmt.Errorf("descriptor %q: basePath must start with '/'", d.Name)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("descriptor %q: at least one field is required", d.Name)
	}
	seen := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if f.Name == "" {
			return fmt.Errorf("descriptor %q: field with empty name", d.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("descriptor %q: duplicate field %q", d.Name, f.Name)
		}
		seen[f.Name] = true
		switch f.Kind {
		case FieldText, FieldTextarea, FieldNumber, FieldBool, FieldSelect, FieldList, FieldFile:
		case "":
			return fmt.Errorf("descriptor %q: field %q has no kind", d.Name, f.Name)
		default:
			return fmt.Errorf("descriptor %q: field %q has unknown kind %q", d.Name, f.Name, f.Kind)
		}
		if f.Kind == FieldSelect && len(f.Options) == 0 {
			return fmt.Errorf("descriptor %q: select field %q needs options", d.Name, f.Name)
		}
	}
	return nil
}

// Columns returns the fields flagged for list display, falling back to the
// first two fields so a sparse descriptor still renders something.
func (d Descriptor) Columns() []FieldSpec {
	var cols []FieldSpec
	for _, f := range d.Fields {
		if f.Column {
			cols = append(cols, f)
		}
	}
	if len(cols) == 0 {
		n := min(2, len(d.Fields))
		cols = d.Fields[:n]
	}
	return cols
}

// Field looks up a field spec by name.
func (d Descriptor) Field(name string) (FieldSpec, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}
