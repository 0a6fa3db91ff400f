package repositories

import (
	"context"
	"mail-route-tracker/internal/domain"
)

// BulkWriter is implemented by stores that can insert or replace many streets at once.
type BulkWriter interface {
	UpsertStreets(ctx context.Context, streets []*domain.Street) error
}

// streetDoc is the document shape of a street in JSON files and seeds.
// Timestamps are ISO 8601 strings; empty means absent.
type streetDoc struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Area           string `json:"area"`
	IsBig          bool   `json:"isBig"`
	LastDelivered  string `json:"lastDelivered,omitempty"`
	DeliveryTimes  []int  `json:"deliveryTimes,omitempty"`
	AverageTime    *int   `json:"averageTime,omitempty"`
	CycleStartDate string `json:"cycleStartDate,omitempty"`
}

func toDoc(s *domain.Street) streetDoc {
	return streetDoc{
		ID:             s.ID,
		Name:           s.Name,
		Area:           s.Area,
		IsBig:          s.IsBig,
		LastDelivered:  domain.FormatTimestamp(s.LastDelivered),
		DeliveryTimes:  s.DeliveryTimes,
		AverageTime:    s.AverageTime,
		CycleStartDate: domain.FormatTimestamp(s.CycleStartDate),
	}
}

// fromDoc converts a document to a street. The cached average is recomputed from the
// samples so a stale stored value never leaks into the engine.
func fromDoc(d streetDoc) *domain.Street {
	s := &domain.Street{
		ID:             d.ID,
		Name:           d.Name,
		Area:           d.Area,
		IsBig:          d.IsBig,
		LastDelivered:  domain.ParseTimestamp(d.LastDelivered),
		DeliveryTimes:  append([]int(nil), d.DeliveryTimes...),
		AverageTime:    d.AverageTime,
		CycleStartDate: domain.ParseTimestamp(d.CycleStartDate),
	}
	if len(s.DeliveryTimes) > 0 {
		s.AverageTime = domain.AverageMinutes(s.DeliveryTimes)
	}
	return s
}
