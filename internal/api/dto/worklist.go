package dto

import (
	"mail-route-tracker/internal/domain"
	"time"
)

type WorklistEntryResponse struct {
	Street            StreetResponse `json:"street"`
	Tier              string         `json:"tier"`
	DaysSince         *int           `json:"days_since"`
	ComplianceOverdue bool           `json:"compliance_overdue"`
	EstimatedMinutes  int            `json:"estimated_minutes"`
}

type WorklistResponse struct {
	Area                  string                  `json:"area"`
	Date                  time.Time               `json:"date"`
	Optimized             bool                    `json:"optimized"`
	TierCounts            map[string]int          `json:"tier_counts"`
	EstimatedTotalMinutes int                     `json:"estimated_total_minutes"`
	Entries               []WorklistEntryResponse `json:"entries"`
}

type TierGroupResponse struct {
	Tier    string           `json:"tier"`
	Streets []StreetResponse `json:"streets"`
}

type GroupsResponse struct {
	Area   string              `json:"area"`
	Date   time.Time           `json:"date"`
	Groups []TierGroupResponse `json:"groups"`
}

func NewWorklistResponse(wl *domain.Worklist) WorklistResponse {
	res := WorklistResponse{
		Area:                  wl.Area,
		Date:                  wl.Date,
		Optimized:             wl.Optimized,
		TierCounts:            wl.TierCounts,
		EstimatedTotalMinutes: wl.EstimatedTotal,
		Entries:               make([]WorklistEntryResponse, 0, len(wl.Entries)),
	}
	for _, e := range wl.Entries {
		entry := WorklistEntryResponse{
			Street:            NewStreetResponse(e.Street),
			Tier:              e.Tier.String(),
			ComplianceOverdue: e.ComplianceOverdue,
			EstimatedMinutes:  e.EstimatedMinutes,
		}
		// never-delivered streets have no day count
		if e.Street.LastDelivered != nil {
			days := e.DaysSince
			entry.DaysSince = &days
		}
		res.Entries = append(res.Entries, entry)
	}
	return res
}

// NewGroupsResponse lists every tier in display order, empty ones included.
func NewGroupsResponse(area string, date time.Time, g domain.TierGroups) GroupsResponse {
	res := GroupsResponse{
		Area:   area,
		Date:   date,
		Groups: make([]TierGroupResponse, 0, len(domain.Tiers)),
	}
	for _, t := range domain.Tiers {
		res.Groups = append(res.Groups, TierGroupResponse{
			Tier:    t.String(),
			Streets: NewStreetResponses(g[t]),
		})
	}
	return res
}
