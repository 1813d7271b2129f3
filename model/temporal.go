package model

import "time"

// AdoptionPhase classifies an entity's current citation dynamics.
type AdoptionPhase string

const (
	PhaseEmerging  AdoptionPhase = "emerging"
	PhaseGrowing   AdoptionPhase = "growing"
	PhaseMature    AdoptionPhase = "mature"
	PhaseDeclining AdoptionPhase = "declining"
)

// DailyMetrics is a single per-(entity,date) citation observation.
type DailyMetrics struct {
	EntityID      string
	Date          time.Time
	CitationCount int
	Velocity      float64
	Momentum      float64
	AdoptionPhase AdoptionPhase
	Rank          *int
}

// TrendSnapshot is a materialized summary of adoption-phase distribution and
// the current hot-topic list at a point in time.
type TrendSnapshot struct {
	CapturedAt        time.Time
	PhaseDistribution map[AdoptionPhase]int
	HotTopics         []string
}
