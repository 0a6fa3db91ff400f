package domain

// Tier is the urgency classification of a street relative to a reference date.
type Tier int

const (
	TierNormal Tier = iota
	TierWarning
	TierUrgent
	TierCritical
	TierNever
)

// Tiers lists every tier in descending urgency, the order worklists are presented in.
var Tiers = []Tier{TierNever, TierCritical, TierUrgent, TierWarning, TierNormal}

// Rank orders tiers by urgency; a higher rank sorts first.
func (t Tier) Rank() int { return int(t) }

func (t Tier) String() string {
	switch t {
	case TierNever:
		return "never"
	case TierCritical:
		return "critical"
	case TierUrgent:
		return "urgent"
	case TierWarning:
		return "warning"
	case TierNormal:
		return "normal"
	}
	return "unknown"
}

// ParseTier maps a tier name back to its value.
func ParseTier(s string) (Tier, bool) {
	for _, t := range Tiers {
		if t.String() == s {
			return t, true
		}
	}
	return TierNormal, false
}

// TierGroups partitions streets by tier, each group already ordered.
type TierGroups map[Tier][]*Street

// Flatten concatenates the groups in rank order.
func (g TierGroups) Flatten() []*Street {
	n := 0
	for _, t := range Tiers {
		n += len(g[t])
	}

	out := make([]*Street, 0, n)
	for _, t := range Tiers {
		out = append(out, g[t]...)
	}
	return out
}

// Counts returns the number of streets per tier name.
func (g TierGroups) Counts() map[string]int {
	out := make(map[string]int, len(Tiers))
	for _, t := range Tiers {
		out[t.String()] = len(g[t])
	}
	return out
}
