package localstore

import (
	"context"
	"fmt"
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

// Gateway is the local-only variant of the resource gateway: the same
// contract the REST adapter satisfies, persisted to a JSON file on this
// machine instead of the backend. Job applications use it because the site
// never had server-side storage for them.
type Gateway struct {
	desc     domain.Descriptor
	filename string
	assetDir string

	mu      sync.RWMutex
	records []domain.Record
	loaded  bool
}

var _ resource.Gateway = (*Gateway)(nil)

// New creates a gateway writing to <dataDir>/<resource>.json. Assets uploaded
// through it land under <dataDir>/assets.
func New(desc domain.Descriptor, dataDir string) *Gateway {
	return &Gateway{
		desc:     desc,
		filename: filepath.Join(dataDir, desc.Name+".json"),
		assetDir: filepath.Join(dataDir, "assets"),
	}
}

func (g *Gateway) load() error {
	if g.loaded {
		return nil
	}
	g.loaded = true

	raw, err := os.ReadFile(g.filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("localstore: could not read %s: %w", g.filename, err)
	}
	if len(raw) == 0 {
		return nil
	}

	if err := jsonv2.Unmarshal(raw, &g.records); err != nil {
		return fmt.Errorf("localstore: could not parse %s: %w", g.filename, err)
	}
	return nil
}

func (g *Gateway) persist() error {
	if err := os.MkdirAll(filepath.Dir(g.filename), 0o755); err != nil {
		return fmt.Errorf("localstore: could not create data directory: %w", err)
	}

	f, err := os.OpenFile(g.filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, defaultFilePermissions)
	if err != nil {
		return fmt.Errorf("localstore: could not open %s: %w", g.filename, err)
	}
	defer f.Close()

	opts := jsonv2.JoinOptions(jsontext.Multiline(true), jsontext.WithIndent("  "))
	if err := jsonv2.MarshalWrite(f, g.records, opts); err != nil {
		return fmt.Errorf("localstore: could not write %s: %w", g.filename, err)
	}
	return nil
}

func (g *Gateway) List(ctx context.Context) ([]domain.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.load(); err != nil {
		return nil, err
	}

	out := make([]domain.Record, 0, len(g.records))
	for _, rec := range g.records {
		copied, err := copier.DeepCopy(rec)
		if err != nil {
			continue
		}
		out = append(out, copied)
	}
	return out, nil
}

func (g *Gateway) GetByID(ctx context.Context, id string) (domain.Record, error) {
	if id == "" {
		return nil, resource.ErrEmptyRecordID
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.load(); err != nil {
		return nil, err
	}

	for _, rec := range g.records {
		if recID, ok := rec.Identity(g.desc.IDField); ok && recID == id {
			return copier.DeepCopy(rec)
		}
	}
	return nil, resource.ErrRecordNotFound
}

func (g *Gateway) Create(ctx context.Context, payload domain.Record) (domain.Record, error) {
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", resource.ErrInvalidRecord, err.Error())
	}

	record, err := copier.DeepCopy(payload)
	if err != nil {
		return nil, fmt.Errorf("localstore: %w", err)
	}
	delete(record, domain.AttachmentKey)

	if _, hasID := record.Identity(g.desc.IDField); !hasID {
		newUUID, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("localstore: could not generate uuid: %w", err)
		}
		record.SetID(g.desc.IDField, newUUID.String())
	}

	now := time.Now().UTC().Format(time.RFC3339)
	record["createdAt"] = now
	record["updatedAt"] = now

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.load(); err != nil {
		return nil, err
	}

	previous := g.records
	g.records = append(g.records, record)

	if err := g.persist(); err != nil {
		// revert the change if saving to file fails
		g.records = previous
		return nil, err
	}

	return copier.DeepCopy(record)
}

func (g *Gateway) Update(ctx context.Context, id string, payload domain.Record) (domain.Record, error) {
	if id == "" {
		return nil, resource.ErrEmptyRecordID
	}
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", resource.ErrInvalidRecord, err.Error())
	}

	updated, err := copier.DeepCopy(payload)
	if err != nil {
		return nil, fmt.Errorf("localstore: %w", err)
	}
	delete(updated, domain.AttachmentKey)
	updated.SetID(g.desc.IDField, id)
	updated["updatedAt"] = time.Now().UTC().Format(time.RFC3339)

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.load(); err != nil {
		return nil, err
	}

	for i, rec := range g.records {
		recID, ok := rec.Identity(g.desc.IDField)
		if !ok || recID != id {
			continue
		}

		// creation time survives the rewrite
		if createdAt, exists := rec["createdAt"]; exists {
			updated["createdAt"] = createdAt
		}

		previous := g.records[i]
		g.records[i] = updated

		if err := g.persist(); err != nil {
			g.records[i] = previous
			return nil, err
		}
		return copier.DeepCopy(updated)
	}

	return nil, resource.ErrRecordNotFound
}

func (g *Gateway) Delete(ctx context.Context, id string) error {
	if id == "" {
		return resource.ErrEmptyRecordID
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.load(); err != nil {
		return err
	}

	for i, rec := range g.records {
		recID, ok := rec.Identity(g.desc.IDField)
		if !ok || recID != id {
			continue
		}

		previous := g.records
		g.records = append(append([]domain.Record{}, g.records[:i]...), g.records[i+1:]...)

		if err := g.persist(); err != nil {
			g.records = previous
			return err
		}
		return nil
	}

	return resource.ErrRecordNotFound
}

// UploadAsset keeps the file next to the data so the record's URL stays
// resolvable offline.
func (g *Gateway) UploadAsset(ctx context.Context, filename string, content []byte) (string, error) {
	if err := os.MkdirAll(g.assetDir, 0o755); err != nil {
		return "", fmt.Errorf("localstore: could not create asset directory: %w", err)
	}

	newUUID, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("localstore: could not generate uuid: %w", err)
	}

	target := filepath.Join(g.assetDir, newUUID.String()+"-"+filepath.Base(filename))
	if err := os.WriteFile(target, content, defaultFilePermissions); err != nil {
		return "", fmt.Errorf("localstore: could not write asset: %w", err)
	}

	return "file://" + target, nil
}
