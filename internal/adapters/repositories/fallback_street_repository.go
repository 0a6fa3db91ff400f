package repositories

import (
	"context"
	"errors"
	"fmt"
	"mail-route-tracker/internal/domain"
	"mail-route-tracker/internal/platform/logger"
	"mail-route-tracker/internal/ports"
	"time"
)

// LocalStore is the offline side of a FallbackStreetRepository.
type LocalStore interface {
	ports.StreetRepository
	BulkWriter
	ReplaceAll(ctx context.Context, streets []*domain.Street) error
}

// FallbackStreetRepository serves from the primary (cloud) store and keeps a local
// mirror current. When the primary fails for any reason other than a missing street,
// the call is served from the mirror instead.
type FallbackStreetRepository struct {
	Primary ports.StreetRepository
	Local   LocalStore

	// RetryMin and RetryMax bound how often a failed primary feed is retried.
	// Zero means one second and one minute.
	RetryMin time.Duration
	RetryMax time.Duration
}

func NewFallbackStreetRepository(primary ports.StreetRepository, local LocalStore) *FallbackStreetRepository {
	return &FallbackStreetRepository{Primary: primary, Local: local}
}

func shouldFallBack(err error) bool {
	return err != nil &&
		!errors.Is(err, ports.ErrStreetNotFound) &&
		!errors.Is(err, ports.ErrStreetExists) &&
		!errors.Is(err, context.Canceled)
}

func (r *FallbackStreetRepository) retryBounds() (time.Duration, time.Duration) {
	lo, hi := r.RetryMin, r.RetryMax
	if lo <= 0 {
		lo = time.Second
	}
	if hi < lo {
		hi = max(lo, time.Minute)
	}
	return lo, hi
}

func (r *FallbackStreetRepository) mirror(op string, err error) {
	if err != nil {
		logger.Warn("local mirror write failed", "op", op, "err", err)
	}
}

func (r *FallbackStreetRepository) ListStreets(ctx context.Context) ([]*domain.Street, error) {
	streets, err := r.Primary.ListStreets(ctx)
	if shouldFallBack(err) {
		logger.Warn("primary store unavailable, serving local streets", "op", "list", "err", err)
		return r.Local.ListStreets(ctx)
	}
	if err != nil {
		return nil, err
	}

	r.mirror("list", r.Local.ReplaceAll(ctx, streets))
	return streets, nil
}

func (r *FallbackStreetRepository) GetStreet(ctx context.Context, id string) (*domain.Street, error) {
	s, err := r.Primary.GetStreet(ctx, id)
	if shouldFallBack(err) {
		logger.Warn("primary store unavailable, serving local street", "op", "get", "id", id, "err", err)
		return r.Local.GetStreet(ctx, id)
	}
	return s, err
}

func (r *FallbackStreetRepository) CreateStreet(ctx context.Context, s *domain.Street) (*domain.Street, error) {
	created, err := r.Primary.CreateStreet(ctx, s)
	if shouldFallBack(err) {
		logger.Warn("primary store unavailable, creating street locally", "err", err)
		return r.Local.CreateStreet(ctx, s)
	}
	if err != nil {
		return nil, err
	}

	r.mirror("create", r.Local.UpsertStreets(ctx, []*domain.Street{created}))
	return created, nil
}

func (r *FallbackStreetRepository) PatchStreet(ctx context.Context, id string, patch domain.StreetPatch) (*domain.Street, error) {
	updated, err := r.Primary.PatchStreet(ctx, id, patch)
	if shouldFallBack(err) {
		logger.Warn("primary store unavailable, patching street locally", "id", id, "err", err)
		return r.Local.PatchStreet(ctx, id, patch)
	}
	if err != nil {
		return nil, err
	}

	r.mirror("patch", r.Local.UpsertStreets(ctx, []*domain.Street{updated}))
	return updated, nil
}

func (r *FallbackStreetRepository) DeleteStreet(ctx context.Context, id string) error {
	err := r.Primary.DeleteStreet(ctx, id)
	if shouldFallBack(err) {
		logger.Warn("primary store unavailable, deleting street locally", "id", id, "err", err)
		return r.Local.DeleteStreet(ctx, id)
	}
	if err != nil {
		return err
	}

	if err := r.Local.DeleteStreet(ctx, id); err != nil && !errors.Is(err, ports.ErrStreetNotFound) {
		r.mirror("delete", err)
	}
	return nil
}

// Subscribe follows the primary feed and mirrors every snapshot locally. While the
// primary feed is down the local feed is followed instead and the primary is retried
// with backoff. Once the primary answers again the local feed is stopped and the
// primary feed resumes. fn is never called concurrently.
func (r *FallbackStreetRepository) Subscribe(ctx context.Context, fn func([]*domain.Street)) error {
	lo, _ := r.retryBounds()
	wait := lo

	for {
		delivered := false
		err := r.Primary.Subscribe(ctx, func(streets []*domain.Street) {
			delivered = true
			r.mirror("subscribe", r.Local.ReplaceAll(ctx, streets))
			fn(streets)
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if delivered {
			wait = lo
		}

		logger.Warn("primary change feed failed, following local store", "err", err, "retry_in", wait)
		if wait, err = r.followLocal(ctx, fn, wait); err != nil {
			return err
		}
		logger.Info("primary store reachable again, resuming its change feed")
	}
}

// followLocal forwards the local feed until a primary list call succeeds, then stops
// the local feed and returns the wait to use after the next primary failure.
func (r *FallbackStreetRepository) followLocal(ctx context.Context, fn func([]*domain.Street), wait time.Duration) (time.Duration, error) {
	_, hi := r.retryBounds()

	localCtx, stop := context.WithCancel(ctx)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- r.Local.Subscribe(localCtx, fn) }()

	for {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			<-done
			return wait, ctx.Err()
		case err := <-done:
			timer.Stop()
			if ctx.Err() != nil {
				return wait, ctx.Err()
			}
			if err == nil {
				err = errors.New("feed closed")
			}
			return wait, fmt.Errorf("local change feed: %w", err)
		case <-timer.C:
		}

		_, err := r.Primary.ListStreets(ctx)
		if err == nil {
			stop()
			<-done
			return wait, nil
		}
		wait = min(wait*2, hi)
		logger.Debug("primary store still unavailable", "err", err, "retry_in", wait)
	}
}
