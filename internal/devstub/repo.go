package devstub

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsonv2 "encoding/json/v2"

	"encoding/json/jsontext"

	"agencyctl/internal/core/domain"
	"agencyctl/internal/core/service/resource"
	"agencyctl/internal/pkg/copier"

	"github.com/gofrs/uuid/v5"
)

const defaultFilePermissions = os.FileMode(0o644)

// Repository is the stub's storage: every resource's collection in one JSON
// file with an in-memory cache in front of it. It exists so the admin client
// can be exercised end to end without the real backend.
type Repository struct {
	filename string

	mu   sync.RWMutex
	data map[string][]domain.Record
}

func NewRepository(dataDir string) (*Repository, error) {
	repo := &Repository{
		filename: filepath.Join(dataDir, "cms.json"),
		data:     make(map[string][]domain.Record),
	}

	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *Repository) load() error {
	raw, err := os.ReadFile(r.filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("devstub: could not read %s: %w", r.filename, err)
	}
	if len(raw) == 0 {
		return nil
	}

	if err := jsonv2.Unmarshal(raw, &r.data); err != nil {
		return fmt.Errorf("devstub: could not parse %s: %w", r.filename, err)
	}
	return nil
}

// persist writes the entire in-memory cache back to the JSON file
func (r *Repository) persist() error {
	if err := os.MkdirAll(filepath.Dir(r.filename), 0o755); err != nil {
		return fmt.Errorf("devstub: could not create data directory: %w", err)
	}

	f, err := os.OpenFile(r.filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, defaultFilePermissions)
	if err != nil {
		return err
	}
	defer f.Close()

	opts := jsonv2.JoinOptions(jsontext.Multiline(true), jsontext.WithIndent("  "))
	return jsonv2.MarshalWrite(f, r.data, opts)
}

// Seed installs demo content for any resource that has none yet, so a fresh
// stub is not an empty admin panel.
func (r *Repository) Seed(seeds map[string][]domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := false
	for name, records := range seeds {
		if len(r.data[name]) > 0 {
			continue
		}
		r.data[name] = records
		changed = true
	}

	if !changed {
		return nil
	}
	return r.persist()
}

func (r *Repository) List(resourceName string) ([]domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := r.data[resourceName]
	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		copied, err := copier.DeepCopy(rec)
		if err != nil {
			log.Printf("WARN: skipping uncopyable record in %q: %v", resourceName, err)
			continue
		}
		out = append(out, copied)
	}
	return out, nil
}

func (r *Repository) Get(resourceName, idField, id string) (domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.data[resourceName] {
		if recID, ok := rec.Identity(idField); ok && recID == id {
			return copier.DeepCopy(rec)
		}
	}
	return nil, resource.ErrRecordNotFound
}

func (r *Repository) Create(resourceName, idField string, record domain.Record) (domain.Record, error) {
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", resource.ErrInvalidRecord, err.Error())
	}

	now := time.Now().UTC().Format(time.RFC3339)
	record["createdAt"] = now
	record["updatedAt"] = now

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, hasID := record.Identity(idField); hasID {
		for _, existing := range r.data[resourceName] {
			if existingID, ok := existing.Identity(idField); ok && existingID == id {
				return nil, fmt.Errorf("%w: duplicate id %s", resource.ErrInvalidRecord, id)
			}
		}
	} else {
		newUUID, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("devstub: could not generate uuid: %w", err)
		}
		record.SetID(idField, newUUID.String())
	}

	previous := r.data[resourceName]
	r.data[resourceName] = append(previous, record)

	if err := r.persist(); err != nil {
		// revert the change if saving to file fails
		r.data[resourceName] = previous
		log.Printf("ERROR: failed to persist %s: %v", r.filename, err)
		return nil, err
	}

	return record, nil
}

func (r *Repository) Update(resourceName, idField, id string, record domain.Record) (domain.Record, error) {
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", resource.ErrInvalidRecord, err.Error())
	}

	record.SetID(idField, id)
	record["updatedAt"] = time.Now().UTC().Format(time.RFC3339)

	r.mu.Lock()
	defer r.mu.Unlock()

	collection := r.data[resourceName]
	for i, existing := range collection {
		existingID, ok := existing.Identity(idField)
		if !ok || existingID != id {
			continue
		}

		if createdAt, exists := existing["createdAt"]; exists {
			record["createdAt"] = createdAt
		}

		previous := collection[i]
		collection[i] = record

		if err := r.persist(); err != nil {
			collection[i] = previous
			log.Printf("ERROR: failed to persist %s: %v", r.filename, err)
			return nil, err
		}
		return record, nil
	}

	return nil, resource.ErrRecordNotFound
}

func (r *Repository) Delete(resourceName, idField, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	collection := r.data[resourceName]
	for i, existing := range collection {
		existingID, ok := existing.Identity(idField)
		if !ok || existingID != id {
			continue
		}

		previous := collection
		r.data[resourceName] = append(append([]domain.Record{}, collection[:i]...), collection[i+1:]...)

		if err := r.persist(); err != nil {
			r.data[resourceName] = previous
			log.Printf("ERROR: failed to persist %s: %v", r.filename, err)
			return err
		}
		return nil
	}

	return resource.ErrRecordNotFound
}
