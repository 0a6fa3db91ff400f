package domain

import (
	"math"
	"slices"
	"strings"
	"time"
)

// Street is one delivery segment tracked independently for urgency.
//
// Only the delivery bookkeeping fields (LastDelivered, DeliveryTimes, AverageTime,
// CycleStartDate) change after a street is seeded. A nil LastDelivered means the
// street has never been delivered.
type Street struct {
	ID             string
	Name           string
	Area           string
	IsBig          bool
	LastDelivered  *time.Time
	DeliveryTimes  []int
	AverageTime    *int
	CycleStartDate *time.Time
}

// Clone returns a deep copy so callers can apply patches without touching a shared snapshot.
func (s *Street) Clone() *Street {
	if s == nil {
		return nil
	}

	c := *s
	c.DeliveryTimes = slices.Clone(s.DeliveryTimes)
	if s.LastDelivered != nil {
		t := *s.LastDelivered
		c.LastDelivered = &t
	}
	if s.AverageTime != nil {
		a := *s.AverageTime
		c.AverageTime = &a
	}
	if s.CycleStartDate != nil {
		t := *s.CycleStartDate
		c.CycleStartDate = &t
	}
	return &c
}

// Delivered reports whether the street has a last delivery timestamp.
func (s *Street) Delivered() bool { return s.LastDelivered != nil }

// Equal reports whether both streets hold the same values. Timestamps compare as instants.
func (s *Street) Equal(o *Street) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.ID == o.ID && s.Name == o.Name && s.Area == o.Area && s.IsBig == o.IsBig &&
		equalTime(s.LastDelivered, o.LastDelivered) &&
		slices.Equal(s.DeliveryTimes, o.DeliveryTimes) &&
		equalInt(s.AverageTime, o.AverageTime) &&
		equalTime(s.CycleStartDate, o.CycleStartDate)
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// RecordDelivery builds the patch for marking a street delivered at the given time.
// A positive duration sample is appended to whatever history the store holds when the
// patch is applied; a nil or non-positive sample leaves the history untouched.
func RecordDelivery(at time.Time, minutes *int) StreetPatch {
	p := StreetPatch{LastDelivered: &at}
	if minutes != nil && *minutes > 0 {
		m := *minutes
		p.AppendSample = &m
	}
	return p
}

// UndoDelivery builds the patch that clears the last delivery. Samples are kept.
func (s *Street) UndoDelivery() StreetPatch {
	return StreetPatch{ClearLastDelivered: true}
}

// AverageMinutes returns the rounded arithmetic mean of the samples, or nil when there are none.
func AverageMinutes(samples []int) *int {
	if len(samples) == 0 {
		return nil
	}

	sum := 0
	for _, v := range samples {
		sum += v
	}
	avg := int(math.Round(float64(sum) / float64(len(samples))))
	return &avg
}

// StreetPatch is a field-level update to a street. Nil fields are left unchanged.
type StreetPatch struct {
	LastDelivered      *time.Time
	ClearLastDelivered bool
	DeliveryTimes      []int
	// AppendSample adds one duration sample to the stored history.
	AppendSample       *int
	AverageTime        *int
	CycleStartDate     *time.Time
}

// Empty reports whether the patch changes nothing.
func (p StreetPatch) Empty() bool {
	return p.LastDelivered == nil && !p.ClearLastDelivered && p.DeliveryTimes == nil &&
		p.AppendSample == nil && p.AverageTime == nil && p.CycleStartDate == nil
}

// Apply writes the patch into s.
func (p StreetPatch) Apply(s *Street) {
	switch {
	case p.ClearLastDelivered:
		s.LastDelivered = nil
	case p.LastDelivered != nil:
		t := *p.LastDelivered
		s.LastDelivered = &t
	}

	if p.DeliveryTimes != nil {
		s.DeliveryTimes = slices.Clone(p.DeliveryTimes)
		s.AverageTime = AverageMinutes(s.DeliveryTimes)
	}
	if p.AppendSample != nil && *p.AppendSample > 0 {
		times := make([]int, 0, len(s.DeliveryTimes)+1)
		times = append(times, s.DeliveryTimes...)
		s.DeliveryTimes = append(times, *p.AppendSample)
		s.AverageTime = AverageMinutes(s.DeliveryTimes)
	}
	if p.AverageTime != nil {
		a := *p.AverageTime
		s.AverageTime = &a
	}
	if p.CycleStartDate != nil {
		t := *p.CycleStartDate
		s.CycleStartDate = &t
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a stored ISO 8601 timestamp. Empty or malformed input yields nil,
// which the classifier treats as never delivered.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// FormatTimestamp is the inverse of ParseTimestamp; nil becomes the empty string.
func FormatTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
