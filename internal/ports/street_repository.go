package ports

import (
	"context"
	"errors"
	"mail-route-tracker/internal/domain"
)

var (
	// ErrStreetNotFound is returned (wrapped) when a street id does not exist in the store.
	ErrStreetNotFound = errors.New("street not found")
	// ErrStreetExists is returned (wrapped) when creating a street whose id is taken.
	ErrStreetExists = errors.New("street already exists")
)

// Port: the read side the urgency engine's callers need.
type StreetSource interface {
	// Return a full snapshot of every street.
	ListStreets(ctx context.Context) ([]*domain.Street, error)
}

// Port: a document collection of streets keyed by id.
//
// Synchronization is last write wins; implementations do no conflict resolution.
type StreetRepository interface {
	StreetSource
	GetStreet(ctx context.Context, id string) (*domain.Street, error)
	// Create stores a new street. An empty ID is assigned by the store.
	CreateStreet(ctx context.Context, s *domain.Street) (*domain.Street, error)
	// Apply a field-level patch and return the updated street.
	PatchStreet(ctx context.Context, id string, patch domain.StreetPatch) (*domain.Street, error)
	DeleteStreet(ctx context.Context, id string) error
	// Subscribe pushes a full snapshot immediately and after every change.
	// It blocks until ctx is done or the feed fails.
	Subscribe(ctx context.Context, fn func([]*domain.Street)) error
}
