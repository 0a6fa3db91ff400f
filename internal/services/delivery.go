package services

import (
	"context"
	"errors"
	"fmt"
	"mail-route-tracker/internal/domain"
	"mail-route-tracker/internal/platform/obs"
	"mail-route-tracker/internal/ports"
	"strings"
	"time"
)

var (
	// ErrDeliveryInFuture rejects delivery timestamps after the current time.
	ErrDeliveryInFuture = errors.New("delivery time is in the future")
	ErrInvalidStreetID  = errors.New("street id must be non-empty")
	ErrInvalidArea      = errors.New("area must be non-empty")
)

// MarkDelivered records a delivery of the street at the given time, optionally with the
// visit duration in minutes, and returns the updated street.
func MarkDelivered(
	ctx context.Context,
	repo ports.StreetRepository,
	id string,
	at time.Time,
	minutes *int,
	now time.Time,
) (_ *domain.Street, err error) {
	defer obs.Time(ctx, "deliveries.Mark")(&err)

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("mark delivered: %w", ErrInvalidStreetID)
	}
	if at.After(now) {
		return nil, fmt.Errorf("mark delivered: street %q: %w", id, ErrDeliveryInFuture)
	}

	// the sample is appended to the stored history inside the store's write
	updated, err := repo.PatchStreet(ctx, id, domain.RecordDelivery(at, minutes))
	if err != nil {
		return nil, fmt.Errorf("mark delivered: street %q: %w", id, err)
	}
	return updated, nil
}

// UndoDelivery clears the street's last delivery. Recorded samples are kept.
func UndoDelivery(ctx context.Context, repo ports.StreetRepository, id string) (_ *domain.Street, err error) {
	defer obs.Time(ctx, "deliveries.Undo")(&err)

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("undo delivery: %w", ErrInvalidStreetID)
	}

	s, err := repo.GetStreet(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("undo delivery: %w", err)
	}

	updated, err := repo.PatchStreet(ctx, id, s.UndoDelivery())
	if err != nil {
		return nil, fmt.Errorf("undo delivery: street %q: %w", id, err)
	}
	return updated, nil
}

// StartCycle stamps every street of the area with a new cycle start and returns how many
// streets were updated. It stops at the first failed write.
func StartCycle(ctx context.Context, repo ports.StreetRepository, area string, at time.Time) (_ int, err error) {
	defer obs.Time(ctx, "cycles.Start")(&err)

	area = strings.TrimSpace(area)
	if area == "" {
		return 0, fmt.Errorf("start cycle: %w", ErrInvalidArea)
	}

	streets, err := repo.ListStreets(ctx)
	if err != nil {
		return 0, fmt.Errorf("start cycle: list streets: %w", err)
	}

	n := 0
	for _, s := range StreetsInArea(streets, area) {
		if _, err := repo.PatchStreet(ctx, s.ID, domain.StreetPatch{CycleStartDate: &at}); err != nil {
			return n, fmt.Errorf("start cycle: street %q: %w", s.ID, err)
		}
		n++
	}
	return n, nil
}
