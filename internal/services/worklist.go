package services

import (
	"context"
	"fmt"
	"mail-route-tracker/internal/domain"
	"mail-route-tracker/internal/platform/obs"
	"mail-route-tracker/internal/ports"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
)

type WorklistRequest struct {
	Area      string
	Date      time.Time
	Optimize  bool
	WalkOrder domain.WalkOrder
	Collation language.Tag
}

// StreetsInArea returns the streets of one area in input order.
func StreetsInArea(streets []*domain.Street, area string) []*domain.Street {
	out := make([]*domain.Street, 0, len(streets))
	for _, s := range streets {
		if s != nil && s.Area == area {
			out = append(out, s)
		}
	}
	return out
}

// BuildWorklist loads the current snapshot and produces the day's worklist for one area:
// urgency order by default, or the walking path order when Optimize is set.
func BuildWorklist(
	ctx context.Context,
	req WorklistRequest,
	source ports.StreetSource,
) (_ *domain.Worklist, err error) {
	defer obs.Time(ctx, "worklist.Build")(&err)

	area := strings.TrimSpace(req.Area)
	if area == "" {
		return nil, fmt.Errorf("build worklist: %w", ErrInvalidArea)
	}

	streets, err := source.ListStreets(ctx)
	if err != nil {
		return nil, fmt.Errorf("build worklist: list streets: %w", err)
	}

	tag := req.Collation
	if tag == language.Und {
		tag = DefaultCollation
	}

	inArea := StreetsInArea(streets, area)
	ordered := SortByUrgencyIn(inArea, req.Date, tag)
	if req.Optimize {
		ordered = OptimizeRouteIn(ordered, area, req.WalkOrder, req.Date, tag)
	}

	wl := &domain.Worklist{
		Area:       area,
		Date:       req.Date,
		Optimized:  req.Optimize,
		Entries:    make([]domain.WorklistEntry, 0, len(ordered)),
		TierCounts: make(map[string]int, len(domain.Tiers)),
	}
	for _, t := range domain.Tiers {
		wl.TierCounts[t.String()] = 0
	}

	total := 0.0
	for _, s := range ordered {
		e := domain.WorklistEntry{
			Street:            s,
			Tier:              Classify(s, req.Date),
			ComplianceOverdue: ComplianceOverdue(s, req.Date),
		}
		if s.LastDelivered != nil {
			e.DaysSince = DaysSince(*s.LastDelivered, req.Date)
		}
		minutes := EstimateStreetMinutes(s)
		e.EstimatedMinutes = int(math.Round(minutes))
		total += minutes

		wl.TierCounts[e.Tier.String()]++
		wl.Entries = append(wl.Entries, e)
	}
	wl.EstimatedTotal = int(math.Round(total))

	return wl, nil
}

// GroupArea loads the snapshot and groups one area's streets by tier.
func GroupArea(
	ctx context.Context,
	source ports.StreetSource,
	area string,
	date time.Time,
	tag language.Tag,
) (_ domain.TierGroups, err error) {
	defer obs.Time(ctx, "worklist.Group")(&err)

	area = strings.TrimSpace(area)
	if area == "" {
		return nil, fmt.Errorf("group area: %w", ErrInvalidArea)
	}
	streets, err := source.ListStreets(ctx)
	if err != nil {
		return nil, fmt.Errorf("group area: list streets: %w", err)
	}
	if tag == language.Und {
		tag = DefaultCollation
	}
	return GroupByUrgencyIn(StreetsInArea(streets, area), date, tag), nil
}

// ForecastArea loads the snapshot and forecasts one area.
func ForecastArea(
	ctx context.Context,
	source ports.StreetSource,
	area string,
	weeksAhead int,
	today time.Time,
) (_ []domain.WorkloadForecast, err error) {
	defer obs.Time(ctx, "forecast.Area")(&err)

	area = strings.TrimSpace(area)
	if area == "" {
		return nil, fmt.Errorf("forecast area: %w", ErrInvalidArea)
	}
	streets, err := source.ListStreets(ctx)
	if err != nil {
		return nil, fmt.Errorf("forecast area: list streets: %w", err)
	}
	return ForecastWorkload(streets, area, weeksAhead, today), nil
}

// AnalyzeArea runs the duration pattern analysis, over one area or all streets when
// area is empty.
func AnalyzeArea(ctx context.Context, source ports.StreetSource, area string) (_ domain.PatternAnalysis, err error) {
	defer obs.Time(ctx, "insights.Analyze")(&err)

	streets, err := source.ListStreets(ctx)
	if err != nil {
		return domain.PatternAnalysis{}, fmt.Errorf("analyze area: list streets: %w", err)
	}
	if area != "" {
		streets = StreetsInArea(streets, area)
	}
	return AnalyzePatterns(streets), nil
}
