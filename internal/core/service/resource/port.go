package resource

import (
	"context"

	"agencyctl/internal/core/domain"
)

// Gateway is one resource's server-side surface. The REST adapter implements
// it over HTTP; the local adapter implements it over a JSON file for
// resources that never leave the machine. The store does not know which one
// it has.
type Gateway interface {
	List(ctx context.Context) ([]domain.Record, error)
	GetByID(ctx context.Context, id string) (domain.Record, error)
	Create(ctx context.Context, payload domain.Record) (domain.Record, error)
	Update(ctx context.Context, id string, payload domain.Record) (domain.Record, error)
	Delete(ctx context.Context, id string) error
	// UploadAsset sends a binary to the shared upload endpoint and returns the
	// public URL. It is independent of the specific resource.
	UploadAsset(ctx context.Context, filename string, content []byte) (string, error)
}

// Notifier receives the transient user-facing outcome of each operation.
// Every failed operation raises Failure exactly once.
type Notifier interface {
	Success(msg string)
	Failure(msg string)
}

// NopNotifier discards notifications. Useful for scripts and tests that only
// care about returned errors.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Failure(string) {}
