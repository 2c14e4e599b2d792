package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Samartha120/Vechile-Damage-Detection/models"
)

// Combine rolls a non-empty sequence of unit analyses up into one report.
// It is pure and synchronous: no network calls, no failure modes.
func Combine(units []models.UnitContext) *models.CombinedReport {
	combined := &models.CombinedReport{
		ID:              uuid.New().String(),
		TotalUnits:      len(units),
		OverallSeverity: models.SeverityNone,
		UnitContexts:    units,
		CreatedAt:       time.Now(),
	}

	var confidenceSum int
	seenKinds := map[string]bool{}
	seenAreas := map[string]bool{}
	seenRecs := map[string]bool{}

	for _, unit := range units {
		r := unit.Result

		if r.HasDamage {
			combined.UnitsWithDamage++
		}
		confidenceSum += r.ConfidenceScore
		combined.OverallSeverity = models.MaxSeverity(combined.OverallSeverity, r.OverallSeverity)

		for _, obs := range r.Observations {
			combined.AllObservations = append(combined.AllObservations, models.TaggedObservation{
				DamageObservation: obs,
				UnitIndex:         unit.Index,
			})
			if !seenKinds[obs.Kind] {
				seenKinds[obs.Kind] = true
				combined.UniqueDamageKinds = append(combined.UniqueDamageKinds, obs.Kind)
			}
		}

		for _, area := range r.AffectedAreas {
			if !seenAreas[area] {
				seenAreas[area] = true
				combined.AffectedAreas = append(combined.AffectedAreas, area)
			}
		}

		for _, rec := range r.Recommendations {
			if !seenRecs[rec] {
				seenRecs[rec] = true
				combined.Recommendations = append(combined.Recommendations, rec)
			}
		}

		// Worst-case floor: the highest minimum and highest maximum seen
		// across units. The resulting range can invert when units disagree;
		// that is reported as-is.
		if r.EstimatedCost.Min > combined.EstimatedCost.Min {
			combined.EstimatedCost.Min = r.EstimatedCost.Min
		}
		if r.EstimatedCost.Max > combined.EstimatedCost.Max {
			combined.EstimatedCost.Max = r.EstimatedCost.Max
		}
		if combined.EstimatedCost.Currency == "" && r.EstimatedCost.Currency != "" {
			combined.EstimatedCost.Currency = r.EstimatedCost.Currency
		}
	}

	if combined.EstimatedCost.Currency == "" {
		combined.EstimatedCost.Currency = "INR"
	}
	combined.AverageConfidence = int(math.Round(float64(confidenceSum) / float64(len(units))))
	combined.Summary = synthesizeSummary(combined)

	return combined
}

func synthesizeSummary(r *models.CombinedReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyzed %d image%s of the vehicle. ", r.TotalUnits, plural(r.TotalUnits))

	if r.UnitsWithDamage == 0 {
		b.WriteString("No damage was detected in any of them. ")
	} else {
		fmt.Fprintf(&b, "Damage was detected in %d image%s, with %d observation%s overall. ",
			r.UnitsWithDamage, plural(r.UnitsWithDamage),
			len(r.AllObservations), plural(len(r.AllObservations)))
	}

	if len(r.UniqueDamageKinds) > 0 {
		fmt.Fprintf(&b, "Damage types found (%d): %s. ",
			len(r.UniqueDamageKinds), strings.Join(r.UniqueDamageKinds, ", "))
	}
	if len(r.AffectedAreas) > 0 {
		fmt.Fprintf(&b, "Affected areas: %s. ", strings.Join(r.AffectedAreas, ", "))
	}

	fmt.Fprintf(&b, "Overall severity: %s.", r.OverallSeverity)
	return b.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
