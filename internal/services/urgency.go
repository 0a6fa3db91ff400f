package services

import (
	"mail-route-tracker/internal/domain"
	"time"
)

// Calendar-day thresholds for the worklist tiers.
const (
	CriticalDays = 14
	UrgentDays   = 10
	WarningDays  = 7
)

// ComplianceBusinessDays is the business-day limit of the compliance variant.
const ComplianceBusinessDays = 14

const day = 24 * time.Hour

// DaysSince returns the whole calendar days between last and ref, weekends included.
// The distance is absolute, so a timestamp after ref still yields a non-negative count.
func DaysSince(last, ref time.Time) int {
	d := ref.Sub(last)
	if d < 0 {
		d = -d
	}
	return int(d / day)
}

// Classify maps a street to its urgency tier at the reference time.
// A street without a last delivery is always TierNever.
func Classify(s *domain.Street, ref time.Time) domain.Tier {
	if s == nil || s.LastDelivered == nil {
		return domain.TierNever
	}
	return tierForDays(DaysSince(*s.LastDelivered, ref))
}

func tierForDays(days int) domain.Tier {
	switch {
	case days >= CriticalDays:
		return domain.TierCritical
	case days >= UrgentDays:
		return domain.TierUrgent
	case days >= WarningDays:
		return domain.TierWarning
	}
	return domain.TierNormal
}

// BusinessDaysSince counts the Monday-to-Friday calendar dates after last up to and
// including ref, in ref's location. It is 0 when ref is not after last.
func BusinessDaysSince(last, ref time.Time) int {
	loc := ref.Location()
	from := dateOf(last.In(loc))
	to := dateOf(ref)
	if !to.After(from) {
		return 0
	}

	n := 0
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			n++
		}
	}
	return n
}

// ComplianceOverdue is the business-day variant of the critical tier: a street is overdue
// when it was never delivered or ComplianceBusinessDays business days have passed.
// It is reported next to the calendar tier and never changes it.
func ComplianceOverdue(s *domain.Street, ref time.Time) bool {
	if s == nil || s.LastDelivered == nil {
		return true
	}
	return BusinessDaysSince(*s.LastDelivered, ref) >= ComplianceBusinessDays
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
