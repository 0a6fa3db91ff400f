package services

import (
	"fmt"
	"mail-route-tracker/internal/domain"
	"math"
	"slices"
	"time"
)

const (
	// A street is due once this share of the nominal interval has elapsed.
	nominalIntervalDays = 7
	dueFraction         = 0.8

	defaultBigMinutes   = 15
	defaultSmallMinutes = 10

	splitStreetCount = 15

	fastFactor = 0.8
	slowFactor = 1.5
)

// ForecastWorkload projects the area's workload for weeksAhead*7 consecutive calendar
// days starting at today, one entry per day in chronological order.
func ForecastWorkload(
	streets []*domain.Street,
	area string,
	weeksAhead int,
	today time.Time,
) []domain.WorkloadForecast {
	if weeksAhead <= 0 {
		return []domain.WorkloadForecast{}
	}

	inArea := StreetsInArea(streets, area)
	minutes := make(map[*domain.Street]float64, len(inArea))
	for _, s := range inArea {
		minutes[s] = EstimateStreetMinutes(s)
	}

	days := weeksAhead * 7
	out := make([]domain.WorkloadForecast, 0, days)
	for i := 0; i < days; i++ {
		d := today.AddDate(0, 0, i)

		count, urgent := 0, 0
		total := 0.0
		for _, s := range inArea {
			due, isUrgent := dueOn(s, d)
			if !due {
				continue
			}
			count++
			total += minutes[s]
			if isUrgent {
				urgent++
			}
		}

		difficulty := classifyDifficulty(count, urgent)
		out = append(out, domain.WorkloadForecast{
			Date:             d,
			EstimatedStreets: count,
			EstimatedTime:    int(math.Round(total)),
			Difficulty:       difficulty,
			UrgentCount:      urgent,
			Recommendations:  recommend(count, urgent, difficulty),
		})
	}

	return out
}

// dueOn reports whether the street needs a visit on d and whether it is urgent then.
// Streets never delivered are always due and count as urgent.
func dueOn(s *domain.Street, d time.Time) (due bool, urgent bool) {
	if s.LastDelivered == nil {
		return true, true
	}

	elapsed := DaysSince(*s.LastDelivered, d)
	if float64(elapsed) < dueFraction*nominalIntervalDays {
		return false, false
	}
	return true, elapsed >= UrgentDays
}

func classifyDifficulty(count, urgent int) domain.Difficulty {
	ratio := float64(urgent) / float64(max(count, 1))
	switch {
	case count <= 5 && ratio < 0.3:
		return domain.DifficultyEasy
	case count <= 10 && ratio < 0.5:
		return domain.DifficultyMedium
	}
	return domain.DifficultyHard
}

func recommend(count, urgent int, difficulty domain.Difficulty) []string {
	recs := []string{}
	if urgent > 0 {
		recs = append(recs, fmt.Sprintf("Prioritize the %d urgent street(s) first", urgent))
	}
	if difficulty == domain.DifficultyHard {
		recs = append(recs, "Heavy day: start early")
		if count > splitStreetCount {
			recs = append(recs, "Consider splitting the round across two days")
		}
	}
	if difficulty == domain.DifficultyEasy {
		recs = append(recs, "Light day: good opportunity for maintenance rounds")
	}
	if count == 0 {
		recs = append(recs, "No streets due: free day")
	}
	return recs
}

// EstimateStreetMinutes estimates one visit: the median of the recorded samples,
// else the cached average, else a default by street size.
func EstimateStreetMinutes(s *domain.Street) float64 {
	if len(s.DeliveryTimes) > 0 {
		return median(s.DeliveryTimes)
	}
	if s.AverageTime != nil {
		return float64(*s.AverageTime)
	}
	if s.IsBig {
		return defaultBigMinutes
	}
	return defaultSmallMinutes
}

func median(samples []int) float64 {
	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}

func mean(samples []int) float64 {
	sum := 0
	for _, v := range samples {
		sum += v
	}
	return float64(sum) / float64(len(samples))
}

// AnalyzePatterns summarizes recorded delivery durations. Streets without samples are
// ignored; with none at all the result carries a fixed not-enough-data insight.
func AnalyzePatterns(streets []*domain.Street) domain.PatternAnalysis {
	averages := make([]float64, 0, len(streets))
	for _, s := range streets {
		if s == nil || len(s.DeliveryTimes) == 0 {
			continue
		}
		averages = append(averages, mean(s.DeliveryTimes))
	}

	if len(averages) == 0 {
		return domain.PatternAnalysis{
			Insights: []string{"Not enough delivery data yet"},
		}
	}

	overall := 0.0
	for _, a := range averages {
		overall += a
	}
	overall /= float64(len(averages))

	fast, slow := 0, 0
	for _, a := range averages {
		switch {
		case a < overall*fastFactor:
			fast++
		case a > overall*slowFactor:
			slow++
		}
	}

	insights := []string{
		fmt.Sprintf("Average delivery time is %.0f minutes across %d streets", overall, len(averages)),
	}
	if fast > 0 {
		insights = append(insights, fmt.Sprintf("%d street(s) are consistently faster than average", fast))
	}
	if slow > 0 {
		insights = append(insights, fmt.Sprintf("%d street(s) take much longer than average; plan extra time", slow))
	}
	if fast == 0 && slow == 0 {
		insights = append(insights, "Delivery times are consistent across streets")
	}

	return domain.PatternAnalysis{
		EnoughData:     true,
		SampledStreets: len(averages),
		OverallAverage: overall,
		FastStreets:    fast,
		SlowStreets:    slow,
		Insights:       insights,
	}
}
