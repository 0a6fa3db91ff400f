package services

import (
	"context"
	"errors"
	"mail-route-tracker/internal/domain"
	"mail-route-tracker/internal/platform/logger"
	"mail-route-tracker/internal/ports"
	"sync"
	"time"
)

// SnapshotHub keeps the latest full street snapshot pushed by a repository's change feed.
// Readers get that snapshot instead of querying the store; until the first push arrives
// they fall through to the repository.
//
// The hub is safe for concurrent use. Snapshots are replaced wholesale, never mutated.
type SnapshotHub struct {
	repo ports.StreetRepository

	retryMin time.Duration
	retryMax time.Duration

	mu      sync.RWMutex
	streets []*domain.Street
	ready   bool
	version uint64
}

func NewSnapshotHub(repo ports.StreetRepository) *SnapshotHub {
	return &SnapshotHub{repo: repo, retryMin: time.Second, retryMax: time.Minute}
}

// Run subscribes to the repository and blocks until ctx is done. A failed feed is
// retried with exponential backoff capped at one minute. The backoff starts over
// when the failed subscription had delivered snapshots.
func (h *SnapshotHub) Run(ctx context.Context) error {
	backoff := retryBackoff{min: h.retryMin, max: h.retryMax}

	for {
		before := h.Version()
		err := h.repo.Subscribe(ctx, h.replace)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			err = errors.New("feed closed")
		}
		wait := backoff.next(h.Version() != before)
		logger.Warn("snapshot feed interrupted", "err", err, "retry_in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// retryBackoff doubles the wait after each consecutive failure, up to max.
type retryBackoff struct {
	min, max time.Duration
	cur      time.Duration
}

// next returns the wait before the next attempt. delivered reports whether the
// attempt that just failed made progress, which resets the wait to min.
func (b *retryBackoff) next(delivered bool) time.Duration {
	if delivered || b.cur == 0 {
		b.cur = b.min
		return b.cur
	}
	b.cur *= 2
	if b.cur > b.max {
		b.cur = b.max
	}
	return b.cur
}

func (h *SnapshotHub) replace(streets []*domain.Street) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.streets = streets
	h.ready = true
	h.version++

	logger.Debug("snapshot replaced", "streets", len(streets), "version", h.version)
}

// ListStreets returns the latest pushed snapshot, or the repository's current state
// when nothing has been pushed yet.
func (h *SnapshotHub) ListStreets(ctx context.Context) ([]*domain.Street, error) {
	h.mu.RLock()
	streets, ready := h.streets, h.ready
	h.mu.RUnlock()

	if !ready {
		return h.repo.ListStreets(ctx)
	}
	return streets, nil
}

// Version counts the snapshots received so far.
func (h *SnapshotHub) Version() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.version
}
