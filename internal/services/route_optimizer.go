package services

import (
	"mail-route-tracker/internal/domain"
	"slices"
	"time"

	"golang.org/x/text/language"
)

// NeverDeliveredDays stands in for the age of a street that was never delivered
// when the heuristic compares ages. It is far above any realistic day count.
const NeverDeliveredDays = 999

// Reorder the day's streets along the area's known walking path.
//
// Streets on the configured path come first, in path order. Streets missing from
// the path (or every street, when the area has no path) follow in heuristic order:
// big streets first, then the longest-undelivered, then name.
// Only the presentation order changes; tiers and stored fields are untouched.
func OptimizeRoute(
	streets []*domain.Street,
	area string,
	walkOrder domain.WalkOrder,
	ref time.Time,
) []*domain.Street {
	return OptimizeRouteIn(streets, area, walkOrder, ref, DefaultCollation)
}

// OptimizeRouteIn is OptimizeRoute with names collated for the given language.
func OptimizeRouteIn(
	streets []*domain.Street,
	area string,
	walkOrder domain.WalkOrder,
	ref time.Time,
	tag language.Tag,
) []*domain.Street {
	if len(streets) == 0 {
		return []*domain.Street{}
	}

	names := nameOrder(tag)
	index := walkOrder.Index(area)

	onPath := make([]*domain.Street, 0, len(streets))
	offPath := make([]*domain.Street, 0, len(streets))
	for _, s := range streets {
		if s == nil {
			continue
		}
		if _, ok := index[s.ID]; ok {
			onPath = append(onPath, s)
		} else {
			offPath = append(offPath, s)
		}
	}

	slices.SortStableFunc(onPath, func(a, b *domain.Street) int {
		return index[a.ID] - index[b.ID]
	})

	// Tie-breakers keep the heuristic order deterministic.
	slices.SortStableFunc(offPath, func(a, b *domain.Street) int {
		if a.IsBig != b.IsBig {
			if a.IsBig {
				return -1
			}
			return 1
		}
		da, db := heuristicAge(a, ref), heuristicAge(b, ref)
		if da != db {
			return db - da
		}
		return names(a.Name, b.Name)
	})

	return append(onPath, offPath...)
}

func heuristicAge(s *domain.Street, ref time.Time) int {
	if s.LastDelivered == nil {
		return NeverDeliveredDays
	}
	return DaysSince(*s.LastDelivered, ref)
}
