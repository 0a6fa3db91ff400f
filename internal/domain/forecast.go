package domain

import "time"

// Difficulty is the qualitative load of a forecast day.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// WorkloadForecast is the projected workload for one calendar day.
// It is derived from the current street snapshot and never persisted.
type WorkloadForecast struct {
	Date             time.Time
	EstimatedStreets int
	EstimatedTime    int
	Difficulty       Difficulty
	UrgentCount      int
	Recommendations  []string
}

// PatternAnalysis summarizes historical delivery durations across streets.
type PatternAnalysis struct {
	EnoughData     bool
	SampledStreets int
	OverallAverage float64
	FastStreets    int
	SlowStreets    int
	Insights       []string
}
