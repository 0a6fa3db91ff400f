package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"mail-route-tracker/internal/domain"
	"os"
	"strings"
)

// Populate a store with streets from a JSON file of street documents.
// Existing streets with the same id are replaced.
func SeedFromJSON(ctx context.Context, w BulkWriter, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed streets: read %q: %w", jsonPath, err)
	}

	var data []streetDoc
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed streets: parse json: %w", err)
	}

	streets := make([]*domain.Street, 0, len(data))
	seen := make(map[string]struct{}, len(data))
	for i, item := range data {
		item.ID = strings.TrimSpace(item.ID)
		if item.ID == "" {
			return 0, fmt.Errorf("seed streets: item at index %d: id cannot be empty", i+1)
		}
		if _, ok := seen[item.ID]; ok {
			return 0, fmt.Errorf("seed streets: item at index %d: duplicate id %q", i+1, item.ID)
		}
		seen[item.ID] = struct{}{}

		item.Name = strings.TrimSpace(item.Name)
		item.Area = strings.TrimSpace(item.Area)
		if item.Name == "" || item.Area == "" {
			return 0, fmt.Errorf("seed streets: item %q: name and area cannot be empty", item.ID)
		}
		streets = append(streets, fromDoc(item))
	}

	if err := w.UpsertStreets(ctx, streets); err != nil {
		return 0, fmt.Errorf("seed streets: %w", err)
	}

	return len(streets), nil
}
