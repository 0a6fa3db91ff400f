package services

import (
	"context"
	"errors"
	"fmt"
	"mail-route-tracker/internal/domain"
	"mail-route-tracker/internal/ports"
	"sync"
)

// fakeRepo is an in-memory StreetRepository. Subscribe pushes the current state and
// then one snapshot per value sent on pushes.
type fakeRepo struct {
	mu      sync.Mutex
	streets map[string]*domain.Street
	order   []string

	listErr      error
	subscribeErr error
	subscribes   int
	pushes       chan struct{}
}

func newFakeRepo(streets ...*domain.Street) *fakeRepo {
	r := &fakeRepo{streets: map[string]*domain.Street{}, pushes: make(chan struct{}, 8)}
	for _, s := range streets {
		r.streets[s.ID] = s.Clone()
		r.order = append(r.order, s.ID)
	}
	return r
}

func (r *fakeRepo) ListStreets(ctx context.Context) ([]*domain.Street, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*domain.Street, 0, len(r.order))
	for _, id := range r.order {
		if s, ok := r.streets[id]; ok {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

func (r *fakeRepo) GetStreet(ctx context.Context, id string) (*domain.Street, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.streets[id]
	if !ok {
		return nil, fmt.Errorf("get street %q: %w", id, ports.ErrStreetNotFound)
	}
	return s.Clone(), nil
}

func (r *fakeRepo) CreateStreet(ctx context.Context, s *domain.Street) (*domain.Street, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.streets[s.ID] = s.Clone()
	r.order = append(r.order, s.ID)
	return s.Clone(), nil
}

func (r *fakeRepo) PatchStreet(ctx context.Context, id string, p domain.StreetPatch) (*domain.Street, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.streets[id]
	if !ok {
		return nil, fmt.Errorf("patch street %q: %w", id, ports.ErrStreetNotFound)
	}
	p.Apply(s)
	return s.Clone(), nil
}

func (r *fakeRepo) DeleteStreet(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.streets[id]; !ok {
		return fmt.Errorf("delete street %q: %w", id, ports.ErrStreetNotFound)
	}
	delete(r.streets, id)
	return nil
}

func (r *fakeRepo) Subscribe(ctx context.Context, fn func([]*domain.Street)) error {
	r.mu.Lock()
	r.subscribes++
	err := r.subscribeErr
	r.mu.Unlock()
	if err != nil {
		return err
	}

	streets, _ := r.ListStreets(ctx)
	fn(streets)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-r.pushes:
			if !ok {
				return errors.New("feed closed")
			}
			streets, _ := r.ListStreets(ctx)
			fn(streets)
		}
	}
}
