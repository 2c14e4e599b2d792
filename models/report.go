package models

import (
	"time"
)

// Severity is the ordinal damage-intensity label reported by the analysis
// service. Ordering: None < Minor < Moderate < Severe.
type Severity string

const (
	SeverityNone     Severity = "None"
	SeverityMinor    Severity = "Minor"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
)

// Rank maps a severity onto its position in the ordering. Unknown values
// rank as None.
func (s Severity) Rank() int {
	switch s {
	case SeverityMinor:
		return 1
	case SeverityModerate:
		return 2
	case SeveritySevere:
		return 3
	default:
		return 0
	}
}

// MaxSeverity returns the more severe of a and b; ties keep a.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// NormalizeSeverity folds free-form severity strings from the analysis
// service onto the known labels. Anything unrecognized becomes None.
func NormalizeSeverity(raw string) Severity {
	switch raw {
	case "Minor", "minor":
		return SeverityMinor
	case "Moderate", "moderate":
		return SeverityModerate
	case "Severe", "severe":
		return SeveritySevere
	default:
		return SeverityNone
	}
}

// DamageObservation is one detected defect on the vehicle.
type DamageObservation struct {
	Kind        string   `json:"kind"`
	Location    string   `json:"location"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// CostRange is an estimated repair cost band in a single currency.
type CostRange struct {
	Min      int    `json:"min"`
	Max      int    `json:"max"`
	Currency string `json:"currency"`
}

// UnitAnalysisResult is the normalized outcome of analyzing one image.
type UnitAnalysisResult struct {
	HasVehicle      bool                `json:"has_vehicle"`
	HasDamage       bool                `json:"has_damage"`
	OverallSeverity Severity            `json:"overall_severity"`
	ConfidenceScore int                 `json:"confidence_score"`
	Observations    []DamageObservation `json:"observations"`
	AffectedAreas   []string            `json:"affected_areas"`
	EstimatedCost   CostRange           `json:"estimated_cost"`
	Recommendations []string            `json:"recommendations"`
	Summary         string              `json:"summary"`
	AnnotatedImage  string              `json:"annotated_image,omitempty"`
}

// UnitContext pairs a unit result with its position in the original
// frame/image sequence and the source image it was computed from.
type UnitContext struct {
	Index        int                `json:"index"`
	ImageDataURI string             `json:"image_data_uri"`
	Result       UnitAnalysisResult `json:"result"`
}

// TaggedObservation is an observation stamped with the index of the unit
// it came from.
type TaggedObservation struct {
	DamageObservation
	UnitIndex int `json:"unit_index"`
}

// CombinedReport is the roll-up of a whole batch. It is recomputed in full
// on every batch run and never mutated afterwards.
type CombinedReport struct {
	ID                string              `json:"id"`
	TotalUnits        int                 `json:"total_units"`
	UnitsWithDamage   int                 `json:"units_with_damage"`
	OverallSeverity   Severity            `json:"overall_severity"`
	AverageConfidence int                 `json:"average_confidence"`
	AllObservations   []TaggedObservation `json:"all_observations"`
	UniqueDamageKinds []string            `json:"unique_damage_kinds"`
	AffectedAreas     []string            `json:"affected_areas"`
	EstimatedCost     CostRange           `json:"estimated_cost"`
	Recommendations   []string            `json:"recommendations"`
	Summary           string              `json:"summary"`
	UnitContexts      []UnitContext       `json:"unit_contexts"`
	CreatedAt         time.Time           `json:"created_at"`
}
