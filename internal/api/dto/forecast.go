package dto

import (
	"mail-route-tracker/internal/domain"
	"time"
)

type ForecastDayResponse struct {
	Date                 string   `json:"date"`
	EstimatedStreets     int      `json:"estimated_streets"`
	EstimatedTimeMinutes int      `json:"estimated_time_minutes"`
	Difficulty           string   `json:"difficulty"`
	UrgentCount          int      `json:"urgent_count"`
	Recommendations      []string `json:"recommendations"`
}

type ForecastResponse struct {
	Area  string                `json:"area"`
	Weeks int                   `json:"weeks"`
	Days  []ForecastDayResponse `json:"days"`
}

type InsightsResponse struct {
	Area           string   `json:"area,omitempty"`
	EnoughData     bool     `json:"enough_data"`
	SampledStreets int      `json:"sampled_streets"`
	OverallAverage float64  `json:"overall_average_minutes"`
	FastStreets    int      `json:"fast_streets"`
	SlowStreets    int      `json:"slow_streets"`
	Insights       []string `json:"insights"`
}

func NewForecastResponse(area string, weeks int, days []domain.WorkloadForecast) ForecastResponse {
	res := ForecastResponse{
		Area:  area,
		Weeks: weeks,
		Days:  make([]ForecastDayResponse, 0, len(days)),
	}
	for _, d := range days {
		res.Days = append(res.Days, ForecastDayResponse{
			Date:                 d.Date.Format(time.DateOnly),
			EstimatedStreets:     d.EstimatedStreets,
			EstimatedTimeMinutes: d.EstimatedTime,
			Difficulty:           string(d.Difficulty),
			UrgentCount:          d.UrgentCount,
			Recommendations:      d.Recommendations,
		})
	}
	return res
}

func NewInsightsResponse(area string, p domain.PatternAnalysis) InsightsResponse {
	return InsightsResponse{
		Area:           area,
		EnoughData:     p.EnoughData,
		SampledStreets: p.SampledStreets,
		OverallAverage: p.OverallAverage,
		FastStreets:    p.FastStreets,
		SlowStreets:    p.SlowStreets,
		Insights:       p.Insights,
	}
}
