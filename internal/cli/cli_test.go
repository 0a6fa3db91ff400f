package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"mail-route-tracker/internal/adapters/repositories"
	"mail-route-tracker/internal/api/dto"
	"mail-route-tracker/internal/domain"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	storePath := filepath.Join(dir, "streets.json")
	walkPath := filepath.Join(dir, "walk.yaml")

	t.Setenv("STORE", "json")
	t.Setenv("LOCAL_STORE_PATH", storePath)
	t.Setenv("WALK_ORDER_PATH", walkPath)
	t.Setenv("LOG_FILE", "")

	if err := os.WriteFile(walkPath, []byte("areas:\n  \"14\": [a, c, b]\n"), 0o600); err != nil {
		t.Fatalf("write walk order: %v", err)
	}

	store, err := repositories.NewJSONStreetStore(storePath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	ago := func(days int) *time.Time {
		d := testNow.AddDate(0, 0, -days)
		return &d
	}
	err = store.UpsertStreets(context.Background(), []*domain.Street{
		{ID: "a", Name: "Ahornweg", Area: "14", LastDelivered: ago(3)},
		{ID: "b", Name: "Birkenweg", Area: "14", IsBig: true, LastDelivered: ago(15)},
		{ID: "c", Name: "Cedernweg", Area: "14"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd(func() time.Time { return testNow })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func worklistIDs(t *testing.T, out string) []string {
	t.Helper()

	var res dto.WorklistResponse
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode worklist: %v\n%s", err, out)
	}
	ids := make([]string, len(res.Entries))
	for i, e := range res.Entries {
		ids[i] = e.Street.ID
	}
	return ids
}

func TestWorklistCommand(t *testing.T) {
	setupStore(t)

	out, err := run(t, "worklist", "14", "--format", "json")
	if err != nil {
		t.Fatalf("worklist: %v", err)
	}
	if got := strings.Join(worklistIDs(t, out), ","); got != "c,b,a" {
		t.Fatalf("order = %s, want c,b,a", got)
	}

	out, err = run(t, "worklist", "14", "-o", "-f", "json")
	if err != nil {
		t.Fatalf("optimized worklist: %v", err)
	}
	if got := strings.Join(worklistIDs(t, out), ","); got != "a,c,b" {
		t.Fatalf("optimized order = %s, want a,c,b", got)
	}

	out, err = run(t, "worklist", "14")
	if err != nil {
		t.Fatalf("text worklist: %v", err)
	}
	if !strings.Contains(out, "Cedernweg") || !strings.Contains(out, "NEVER") {
		t.Fatalf("text output missing entries:\n%s", out)
	}
}

func TestDeliverAndUndoCommands(t *testing.T) {
	setupStore(t)

	out, err := run(t, "deliver", "a", "--minutes", "12", "-f", "json")
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	var street dto.StreetResponse
	if err := json.Unmarshal([]byte(out), &street); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if street.AverageTime == nil || *street.AverageTime != 12 {
		t.Fatalf("average_time = %v, want 12", street.AverageTime)
	}

	if _, err := run(t, "undo", "a"); err != nil {
		t.Fatalf("undo: %v", err)
	}
	out, _ = run(t, "worklist", "14", "-f", "json")
	// a is now never delivered and sorts by name among the never tier
	if got := strings.Join(worklistIDs(t, out), ","); got != "a,c,b" {
		t.Fatalf("order after undo = %s, want a,c,b", got)
	}

	if _, err := run(t, "deliver", "a", "--minutes", "0"); err == nil {
		t.Fatal("expected error for zero minutes")
	}
	if _, err := run(t, "deliver", "a", "--at", "2026-03-21T09:00:00Z"); err == nil {
		t.Fatal("expected error for future delivery")
	}
	if _, err := run(t, "deliver", "missing"); err == nil {
		t.Fatal("expected error for unknown street")
	}
}

func TestForecastAndCycleCommands(t *testing.T) {
	setupStore(t)

	out, err := run(t, "forecast", "14", "--weeks", "2", "-f", "json")
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	var fc dto.ForecastResponse
	if err := json.Unmarshal([]byte(out), &fc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fc.Days) != 14 || fc.Days[0].Date != "2026-03-20" {
		t.Fatalf("forecast = %d days starting %q", len(fc.Days), fc.Days[0].Date)
	}

	if _, err := run(t, "forecast", "14", "--weeks", "9"); err == nil {
		t.Fatal("expected error for weeks out of range")
	}

	out, err = run(t, "cycle", "14", "-f", "json")
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	var cycle dto.CycleResponse
	if err := json.Unmarshal([]byte(out), &cycle); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cycle.Streets != 3 {
		t.Fatalf("cycle streets = %d, want 3", cycle.Streets)
	}
}

func TestRootFlagValidation(t *testing.T) {
	setupStore(t)

	if _, err := run(t, "streets", "--format", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, err := run(t, "worklist", "14", "--date", "20-03-2026"); err == nil {
		t.Fatal("expected error for bad date")
	}

	out, err := run(t, "groups", "14", "--date", "2026-03-30")
	if err != nil {
		t.Fatalf("groups: %v", err)
	}
	if !strings.Contains(out, "Ahornweg") {
		t.Fatalf("groups output missing streets:\n%s", out)
	}
}
