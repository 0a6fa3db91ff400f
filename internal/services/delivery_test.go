package services

import (
	"context"
	"errors"
	"mail-route-tracker/internal/domain"
	"mail-route-tracker/internal/ports"
	"testing"
	"time"
)

func TestMarkDelivered(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(&domain.Street{ID: "a", Name: "Ahornweg", Area: "14", DeliveryTimes: []int{10, 10}})

	minutes := 11
	at := ref.Add(-time.Hour)
	s, err := MarkDelivered(ctx, repo, "a", at, &minutes, ref)
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if s.LastDelivered == nil || !s.LastDelivered.Equal(at) {
		t.Fatalf("lastDelivered = %v, want %v", s.LastDelivered, at)
	}
	// mean 10.33 rounds down
	if s.AverageTime == nil || *s.AverageTime != 10 {
		t.Fatalf("averageTime = %v, want 10", s.AverageTime)
	}
	if Classify(s, ref) != domain.TierNormal {
		t.Fatalf("tier after delivery = %v, want normal", Classify(s, ref))
	}
}

func TestMarkDeliveredRejectsFuture(t *testing.T) {
	repo := newFakeRepo(&domain.Street{ID: "a", Area: "14"})

	_, err := MarkDelivered(context.Background(), repo, "a", ref.Add(time.Minute), nil, ref)
	if !errors.Is(err, ErrDeliveryInFuture) {
		t.Fatalf("err = %v, want ErrDeliveryInFuture", err)
	}
}

func TestMarkDeliveredUnknownStreet(t *testing.T) {
	repo := newFakeRepo()

	_, err := MarkDelivered(context.Background(), repo, "nope", ref, nil, ref)
	if !errors.Is(err, ports.ErrStreetNotFound) {
		t.Fatalf("err = %v, want ErrStreetNotFound", err)
	}
	if _, err := MarkDelivered(context.Background(), repo, "  ", ref, nil, ref); !errors.Is(err, ErrInvalidStreetID) {
		t.Fatalf("err = %v, want ErrInvalidStreetID", err)
	}
}

func TestUndoDeliveryKeepsSamples(t *testing.T) {
	last := ref.AddDate(0, 0, -2)
	repo := newFakeRepo(&domain.Street{ID: "a", Area: "14", LastDelivered: &last, DeliveryTimes: []int{8}})

	s, err := UndoDelivery(context.Background(), repo, "a")
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if s.LastDelivered != nil {
		t.Fatalf("lastDelivered = %v, want nil", s.LastDelivered)
	}
	if len(s.DeliveryTimes) != 1 {
		t.Fatalf("deliveryTimes = %v, want kept", s.DeliveryTimes)
	}
	if Classify(s, ref) != domain.TierNever {
		t.Fatal("undone street must classify as never delivered")
	}
}

func TestStartCycle(t *testing.T) {
	repo := newFakeRepo(
		&domain.Street{ID: "a", Area: "14"},
		&domain.Street{ID: "b", Area: "14"},
		&domain.Street{ID: "c", Area: "15"},
	)

	n, err := StartCycle(context.Background(), repo, "14", ref)
	if err != nil {
		t.Fatalf("start cycle: %v", err)
	}
	if n != 2 {
		t.Fatalf("updated = %d, want 2", n)
	}

	a, _ := repo.GetStreet(context.Background(), "a")
	if a.CycleStartDate == nil || !a.CycleStartDate.Equal(ref) {
		t.Fatalf("cycleStartDate = %v, want %v", a.CycleStartDate, ref)
	}
	c, _ := repo.GetStreet(context.Background(), "c")
	if c.CycleStartDate != nil {
		t.Fatal("street in another area was stamped")
	}

	if _, err := StartCycle(context.Background(), repo, "", ref); !errors.Is(err, ErrInvalidArea) {
		t.Fatalf("err = %v, want ErrInvalidArea", err)
	}
}
