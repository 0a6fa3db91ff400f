package repositories

import (
	"context"
	"errors"
	"mail-route-tracker/internal/domain"
	"mail-route-tracker/internal/ports"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"
	"time"
)

var errUnavailable = errors.New("unavailable")

func fixedTime() time.Time { return time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC) }

func ptrTime(t time.Time) *time.Time { return &t }

// flakyStore wraps a working store and fails every call while down is set.
type flakyStore struct {
	*JSONStreetStore
	down atomic.Bool
}

func (f *flakyStore) ListStreets(ctx context.Context) ([]*domain.Street, error) {
	if f.down.Load() {
		return nil, errUnavailable
	}
	return f.JSONStreetStore.ListStreets(ctx)
}

func (f *flakyStore) GetStreet(ctx context.Context, id string) (*domain.Street, error) {
	if f.down.Load() {
		return nil, errUnavailable
	}
	return f.JSONStreetStore.GetStreet(ctx, id)
}

func (f *flakyStore) CreateStreet(ctx context.Context, s *domain.Street) (*domain.Street, error) {
	if f.down.Load() {
		return nil, errUnavailable
	}
	return f.JSONStreetStore.CreateStreet(ctx, s)
}

func (f *flakyStore) PatchStreet(ctx context.Context, id string, p domain.StreetPatch) (*domain.Street, error) {
	if f.down.Load() {
		return nil, errUnavailable
	}
	return f.JSONStreetStore.PatchStreet(ctx, id, p)
}

func (f *flakyStore) DeleteStreet(ctx context.Context, id string) error {
	if f.down.Load() {
		return errUnavailable
	}
	return f.JSONStreetStore.DeleteStreet(ctx, id)
}

func (f *flakyStore) Subscribe(ctx context.Context, fn func([]*domain.Street)) error {
	if f.down.Load() {
		return errUnavailable
	}
	return f.JSONStreetStore.Subscribe(ctx, fn)
}

func newFallbackFixture(t *testing.T) (*FallbackStreetRepository, *flakyStore, *JSONStreetStore) {
	t.Helper()

	dir := t.TempDir()
	cloud, err := NewJSONStreetStore(filepath.Join(dir, "cloud.json"))
	if err != nil {
		t.Fatalf("open cloud: %v", err)
	}
	local, err := NewJSONStreetStore(filepath.Join(dir, "local.json"))
	if err != nil {
		t.Fatalf("open local: %v", err)
	}

	primary := &flakyStore{JSONStreetStore: cloud}
	return NewFallbackStreetRepository(primary, local), primary, local
}

func TestFallbackMirrorsPrimaryWrites(t *testing.T) {
	ctx := context.Background()
	repo, _, local := newFallbackFixture(t)

	s, err := repo.CreateStreet(ctx, &domain.Street{ID: "a", Name: "Ahornweg", Area: "14"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := local.GetStreet(ctx, s.ID); err != nil {
		t.Fatalf("local mirror missing created street: %v", err)
	}

	minutes := 12
	if _, err := repo.PatchStreet(ctx, s.ID, domain.RecordDelivery(fixedTime(), &minutes)); err != nil {
		t.Fatalf("patch: %v", err)
	}
	mirrored, _ := local.GetStreet(ctx, s.ID)
	if mirrored.LastDelivered == nil || len(mirrored.DeliveryTimes) != 1 {
		t.Fatalf("local mirror not patched: %+v", mirrored)
	}

	if err := repo.DeleteStreet(ctx, s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := local.GetStreet(ctx, s.ID); !errors.Is(err, ports.ErrStreetNotFound) {
		t.Fatalf("local mirror still has deleted street: %v", err)
	}
}

func TestFallbackServesLocalWhenPrimaryDown(t *testing.T) {
	ctx := context.Background()
	repo, primary, _ := newFallbackFixture(t)

	if _, err := repo.CreateStreet(ctx, &domain.Street{ID: "a", Name: "Ahornweg", Area: "14"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	primary.down.Store(true)

	streets, err := repo.ListStreets(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(streets) != 1 || streets[0].ID != "a" {
		t.Fatalf("streets = %v, want local copy of a", streets)
	}

	updated, err := repo.PatchStreet(ctx, "a", domain.StreetPatch{LastDelivered: ptrTime(fixedTime())})
	if err != nil {
		t.Fatalf("patch while down: %v", err)
	}
	if updated.LastDelivered == nil {
		t.Fatal("expected local patch to apply")
	}
}

func TestFallbackDoesNotMaskNotFound(t *testing.T) {
	repo, _, local := newFallbackFixture(t)

	// present locally but absent from the primary: the primary answer wins
	if err := local.UpsertStreets(context.Background(), []*domain.Street{{ID: "ghost", Name: "Ghost", Area: "1"}}); err != nil {
		t.Fatalf("seed local: %v", err)
	}

	if _, err := repo.GetStreet(context.Background(), "ghost"); !errors.Is(err, ports.ErrStreetNotFound) {
		t.Fatalf("err = %v, want ErrStreetNotFound", err)
	}
}

func TestFallbackSubscribeFollowsLocalWhenPrimaryFeedFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, primary, local := newFallbackFixture(t)
	_ = local.UpsertStreets(ctx, []*domain.Street{{ID: "a", Name: "Ahornweg", Area: "14"}})
	primary.down.Store(true)

	snapshots := make(chan []*domain.Street, 4)
	go func() { _ = repo.Subscribe(ctx, func(s []*domain.Street) { snapshots <- s }) }()

	if first := receiveSnapshot(t, snapshots); len(first) != 1 {
		t.Fatalf("initial snapshot len = %d, want 1", len(first))
	}
}

func streetIDs(streets []*domain.Street) []string {
	ids := make([]string, len(streets))
	for i, s := range streets {
		ids[i] = s.ID
	}
	return ids
}

func TestFallbackSubscribeReturnsToPrimaryWhenItRecovers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, primary, local := newFallbackFixture(t)
	repo.RetryMin = 10 * time.Millisecond
	repo.RetryMax = 20 * time.Millisecond

	_ = local.UpsertStreets(ctx, []*domain.Street{{ID: "a", Name: "Ahornweg", Area: "14"}})
	_ = primary.JSONStreetStore.UpsertStreets(ctx, []*domain.Street{{ID: "b", Name: "Birkenweg", Area: "14"}})
	primary.down.Store(true)

	snapshots := make(chan []*domain.Street, 8)
	done := make(chan error, 1)
	go func() { done <- repo.Subscribe(ctx, func(s []*domain.Street) { snapshots <- s }) }()

	if ids := streetIDs(receiveSnapshot(t, snapshots)); !slices.Equal(ids, []string{"a"}) {
		t.Fatalf("snapshot while down = %v, want local [a]", ids)
	}

	primary.down.Store(false)
	for {
		if ids := streetIDs(receiveSnapshot(t, snapshots)); slices.Equal(ids, []string{"b"}) {
			break
		}
	}
	if _, err := local.GetStreet(ctx, "b"); err != nil {
		t.Fatalf("primary snapshot not mirrored locally: %v", err)
	}

	// the local feed is stopped: a local-only write reaches nobody
	_ = local.UpsertStreets(ctx, []*domain.Street{{ID: "x", Name: "Xantener Weg", Area: "14"}})
	select {
	case s := <-snapshots:
		t.Fatalf("unexpected snapshot after recovery: %v", streetIDs(s))
	case <-time.After(100 * time.Millisecond):
	}

	// while primary writes are forwarded
	_, _ = primary.JSONStreetStore.CreateStreet(ctx, &domain.Street{ID: "c", Name: "Cedernweg", Area: "14"})
	if ids := streetIDs(receiveSnapshot(t, snapshots)); !slices.Equal(ids, []string{"b", "c"}) {
		t.Fatalf("snapshot after primary write = %v, want [b c]", ids)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("subscribe returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscribe did not stop")
	}
}

func TestFallbackListSkipsUnchangedMirror(t *testing.T) {
	ctx := context.Background()
	repo, _, local := newFallbackFixture(t)

	if _, err := repo.CreateStreet(ctx, &domain.Street{ID: "a", Name: "Ahornweg", Area: "14"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.ListStreets(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}

	// a rewrite of the mirror would recreate the file
	if err := os.Remove(local.path); err != nil {
		t.Fatalf("remove mirror file: %v", err)
	}
	if _, err := repo.ListStreets(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := os.Stat(local.path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("mirror rewritten on unchanged list, stat err = %v", err)
	}
}
