package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mail-route-tracker/internal/adapters/notify"
	"mail-route-tracker/internal/domain"
	"mail-route-tracker/internal/platform/logger"
	"mail-route-tracker/internal/ports"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const jsonStoreVersion = 1

type jsonStoreFile struct {
	Version int         `json:"version"`
	Streets []streetDoc `json:"streets"`
}

// JSONStreetStore keeps the whole street collection in one local JSON file.
// It is the local-storage fallback for the cloud store and works standalone for
// single-device use. Every write rewrites the file atomically.
type JSONStreetStore struct {
	path     string
	notifier ports.ChangeNotifier

	mu      sync.RWMutex
	streets map[string]*domain.Street
}

// NewJSONStreetStore loads the file at path, starting empty when it does not exist yet.
func NewJSONStreetStore(path string) (*JSONStreetStore, error) {
	s := &JSONStreetStore{
		path:     path,
		notifier: notify.NewLocalNotifier(),
		streets:  make(map[string]*domain.Street),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("json street store: read %q: %w", path, err)
	}

	var file jsonStoreFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("json street store: parse %q: %w", path, err)
	}
	for _, d := range file.Streets {
		if strings.TrimSpace(d.ID) == "" {
			continue
		}
		s.streets[d.ID] = fromDoc(d)
	}

	return s, nil
}

// save writes the collection to a temp file and renames it over the old one.
// Callers hold the write lock.
func (s *JSONStreetStore) save() error {
	ids := make([]string, 0, len(s.streets))
	for id := range s.streets {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	file := jsonStoreFile{Version: jsonStoreVersion, Streets: make([]streetDoc, 0, len(ids))}
	for _, id := range ids {
		file.Streets = append(file.Streets, toDoc(s.streets[id]))
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename %q: %w", tmp, err)
	}
	return nil
}

func (s *JSONStreetStore) announce(ctx context.Context) {
	if err := s.notifier.Publish(ctx); err != nil {
		logger.Warn("json store change notification failed", "err", err)
	}
}

func (s *JSONStreetStore) snapshot() []*domain.Street {
	out := make([]*domain.Street, 0, len(s.streets))
	for _, st := range s.streets {
		out = append(out, st.Clone())
	}
	slices.SortFunc(out, func(a, b *domain.Street) int {
		if c := strings.Compare(a.Area, b.Area); c != 0 {
			return c
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (s *JSONStreetStore) ListStreets(ctx context.Context) ([]*domain.Street, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(), nil
}

func (s *JSONStreetStore) GetStreet(ctx context.Context, id string) (*domain.Street, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.streets[id]
	if !ok {
		return nil, fmt.Errorf("get street %q: %w", id, ports.ErrStreetNotFound)
	}
	return st.Clone(), nil
}

func (s *JSONStreetStore) CreateStreet(ctx context.Context, st *domain.Street) (*domain.Street, error) {
	if st == nil {
		return nil, errors.New("create street: street is nil")
	}

	created := st.Clone()
	if created.ID == "" {
		created.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.streets[created.ID]; ok {
		return nil, fmt.Errorf("create street %q: %w", created.ID, ports.ErrStreetExists)
	}
	s.streets[created.ID] = created
	if err := s.save(); err != nil {
		delete(s.streets, created.ID)
		return nil, fmt.Errorf("create street %q: %w", created.ID, err)
	}

	s.announce(ctx)
	return created.Clone(), nil
}

func (s *JSONStreetStore) PatchStreet(ctx context.Context, id string, patch domain.StreetPatch) (*domain.Street, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.streets[id]
	if !ok {
		return nil, fmt.Errorf("patch street %q: %w", id, ports.ErrStreetNotFound)
	}

	updated := current.Clone()
	patch.Apply(updated)
	s.streets[id] = updated
	if err := s.save(); err != nil {
		s.streets[id] = current
		return nil, fmt.Errorf("patch street %q: %w", id, err)
	}

	s.announce(ctx)
	return updated.Clone(), nil
}

func (s *JSONStreetStore) DeleteStreet(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.streets[id]
	if !ok {
		return fmt.Errorf("delete street %q: %w", id, ports.ErrStreetNotFound)
	}

	delete(s.streets, id)
	if err := s.save(); err != nil {
		s.streets[id] = current
		return fmt.Errorf("delete street %q: %w", id, err)
	}

	s.announce(ctx)
	return nil
}

func (s *JSONStreetStore) UpsertStreets(ctx context.Context, streets []*domain.Street) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := make(map[string]*domain.Street, len(s.streets))
	for id, st := range s.streets {
		prev[id] = st
	}

	for _, st := range streets {
		if st == nil || strings.TrimSpace(st.ID) == "" {
			s.streets = prev
			return errors.New("upsert streets: street with empty id")
		}
		s.streets[st.ID] = st.Clone()
	}

	if err := s.save(); err != nil {
		s.streets = prev
		return fmt.Errorf("upsert streets: %w", err)
	}

	s.announce(ctx)
	return nil
}

// ReplaceAll swaps the whole collection for the given snapshot. Used to mirror the
// cloud store so the fallback is current when the cloud becomes unreachable. A snapshot
// equal to the stored collection writes nothing and announces nothing.
func (s *JSONStreetStore) ReplaceAll(ctx context.Context, streets []*domain.Street) error {
	next := make(map[string]*domain.Street, len(streets))
	for _, st := range streets {
		if st == nil || strings.TrimSpace(st.ID) == "" {
			continue
		}
		next[st.ID] = st.Clone()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sameStreets(s.streets, next) {
		return nil
	}

	prev := s.streets
	s.streets = next
	if err := s.save(); err != nil {
		s.streets = prev
		return fmt.Errorf("replace streets: %w", err)
	}

	s.announce(ctx)
	return nil
}

func sameStreets(a, b map[string]*domain.Street) bool {
	if len(a) != len(b) {
		return false
	}
	for id, st := range a {
		if !st.Equal(b[id]) {
			return false
		}
	}
	return true
}

// Subscribe pushes the current collection and then one snapshot per local write.
func (s *JSONStreetStore) Subscribe(ctx context.Context, fn func([]*domain.Street)) error {
	changes, err := s.notifier.Listen(ctx)
	if err != nil {
		return fmt.Errorf("subscribe streets: %w", err)
	}

	streets, _ := s.ListStreets(ctx)
	fn(streets)

	for range changes {
		streets, _ := s.ListStreets(ctx)
		fn(streets)
	}
	return ctx.Err()
}
