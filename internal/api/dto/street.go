package dto

import (
	"mail-route-tracker/internal/domain"
	"time"
)

type StreetResponse struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Area           string     `json:"area"`
	IsBig          bool       `json:"is_big"`
	LastDelivered  *time.Time `json:"last_delivered"`
	DeliveryTimes  []int      `json:"delivery_times"`
	AverageTime    *int       `json:"average_time"`
	CycleStartDate *time.Time `json:"cycle_start_date"`
}

type ListStreetsResponse struct {
	Streets []StreetResponse `json:"streets"`
}

type CreateStreetRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Area  string `json:"area"`
	IsBig bool   `json:"is_big"`
}

type DeliveryRequest struct {
	Minutes     *int       `json:"minutes"`
	DeliveredAt *time.Time `json:"delivered_at"`
}

type CycleResponse struct {
	Area    string    `json:"area"`
	Started time.Time `json:"started"`
	Streets int       `json:"streets"`
}

func NewStreetResponse(s *domain.Street) StreetResponse {
	times := s.DeliveryTimes
	if times == nil {
		times = []int{}
	}
	return StreetResponse{
		ID:             s.ID,
		Name:           s.Name,
		Area:           s.Area,
		IsBig:          s.IsBig,
		LastDelivered:  s.LastDelivered,
		DeliveryTimes:  times,
		AverageTime:    s.AverageTime,
		CycleStartDate: s.CycleStartDate,
	}
}

func NewStreetResponses(streets []*domain.Street) []StreetResponse {
	out := make([]StreetResponse, 0, len(streets))
	for _, s := range streets {
		out = append(out, NewStreetResponse(s))
	}
	return out
}
