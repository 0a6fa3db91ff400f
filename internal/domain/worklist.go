package domain

import "time"

// WorklistEntry is one street on the day's worklist along with its derived urgency data.
type WorklistEntry struct {
	Street            *Street
	Tier              Tier
	DaysSince         int
	ComplianceOverdue bool
	EstimatedMinutes  int
}

// Worklist is the ordered set of streets presented to the worker for one area and day.
type Worklist struct {
	Area           string
	Date           time.Time
	Optimized      bool
	Entries        []WorklistEntry
	TierCounts     map[string]int
	EstimatedTotal int
}
