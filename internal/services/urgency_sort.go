package services

import (
	"mail-route-tracker/internal/domain"
	"slices"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultCollation orders street names when the caller does not pick a language.
// The route areas are German postal districts.
var DefaultCollation = language.German

// nameOrder returns a locale-aware comparison for street names.
// Collators are not safe for concurrent use, so every sort builds its own.
func nameOrder(tag language.Tag) func(a, b string) int {
	c := collate.New(tag)
	return c.CompareString
}

type rankedStreet struct {
	street *domain.Street
	tier   domain.Tier
	days   int
}

func rankStreets(streets []*domain.Street, ref time.Time) []rankedStreet {
	out := make([]rankedStreet, 0, len(streets))
	for _, s := range streets {
		if s == nil {
			continue
		}
		r := rankedStreet{street: s, tier: Classify(s, ref)}
		if s.LastDelivered != nil {
			r.days = DaysSince(*s.LastDelivered, ref)
		}
		out = append(out, r)
	}
	return out
}

// compareWithinTier orders by days since delivery (older first), big streets first,
// then name ascending.
func compareWithinTier(a, b rankedStreet, names func(a, b string) int) int {
	if a.days != b.days {
		return b.days - a.days
	}
	if a.street.IsBig != b.street.IsBig {
		if a.street.IsBig {
			return -1
		}
		return 1
	}
	return names(a.street.Name, b.street.Name)
}

// SortByUrgency returns the streets in descending urgency: tier rank, then days since
// delivery, big before small, then name. The input slice is not modified.
func SortByUrgency(streets []*domain.Street, ref time.Time) []*domain.Street {
	return SortByUrgencyIn(streets, ref, DefaultCollation)
}

// SortByUrgencyIn is SortByUrgency with names collated for the given language.
func SortByUrgencyIn(streets []*domain.Street, ref time.Time, tag language.Tag) []*domain.Street {
	names := nameOrder(tag)
	ranked := rankStreets(streets, ref)

	slices.SortStableFunc(ranked, func(a, b rankedStreet) int {
		if a.tier != b.tier {
			return b.tier.Rank() - a.tier.Rank()
		}
		return compareWithinTier(a, b, names)
	})

	out := make([]*domain.Street, len(ranked))
	for i, r := range ranked {
		out[i] = r.street
	}
	return out
}

// GroupByUrgency partitions the streets into tiers, each ordered like SortByUrgency.
// Every tier is present in the result, possibly empty.
func GroupByUrgency(streets []*domain.Street, ref time.Time) domain.TierGroups {
	return GroupByUrgencyIn(streets, ref, DefaultCollation)
}

// GroupByUrgencyIn is GroupByUrgency with names collated for the given language.
func GroupByUrgencyIn(streets []*domain.Street, ref time.Time, tag language.Tag) domain.TierGroups {
	names := nameOrder(tag)

	buckets := make(map[domain.Tier][]rankedStreet, len(domain.Tiers))
	for _, r := range rankStreets(streets, ref) {
		buckets[r.tier] = append(buckets[r.tier], r)
	}

	groups := make(domain.TierGroups, len(domain.Tiers))
	for _, t := range domain.Tiers {
		b := buckets[t]
		slices.SortStableFunc(b, func(x, y rankedStreet) int {
			return compareWithinTier(x, y, names)
		})

		group := make([]*domain.Street, len(b))
		for i, r := range b {
			group[i] = r.street
		}
		groups[t] = group
	}
	return groups
}
