package report

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Samartha120/Vechile-Damage-Detection/models"
)

func unit(index int, result models.UnitAnalysisResult) models.UnitContext {
	return models.UnitContext{
		Index:        index,
		ImageDataURI: fmt.Sprintf("data:image/jpeg;base64,dW5pdC0%d", index),
		Result:       result,
	}
}

func damaged(severity models.Severity, kind, area string) models.UnitAnalysisResult {
	return models.UnitAnalysisResult{
		HasVehicle:      true,
		HasDamage:       true,
		OverallSeverity: severity,
		ConfidenceScore: 80,
		Observations: []models.DamageObservation{
			{Kind: kind, Location: area, Severity: severity, Description: kind + " on " + area},
		},
		AffectedAreas: []string{area},
	}
}

func clean() models.UnitAnalysisResult {
	return models.UnitAnalysisResult{
		HasVehicle:      true,
		OverallSeverity: models.SeverityNone,
		ConfidenceScore: 90,
	}
}

func TestCombineBasicCounts(t *testing.T) {
	units := []models.UnitContext{
		unit(0, clean()),
		unit(1, damaged(models.SeverityMinor, "scratch", "left door")),
		unit(2, damaged(models.SeveritySevere, "dent", "hood")),
	}

	combined := Combine(units)

	require.Equal(t, 3, combined.TotalUnits)
	require.Equal(t, len(combined.UnitContexts), combined.TotalUnits)
	require.Equal(t, 2, combined.UnitsWithDamage)
	require.LessOrEqual(t, combined.UnitsWithDamage, combined.TotalUnits)
	require.Len(t, combined.AllObservations, 2)
	require.Equal(t, models.SeveritySevere, combined.OverallSeverity)
	require.NotEmpty(t, combined.ID)
}

func TestCombineObservationTagging(t *testing.T) {
	units := []models.UnitContext{
		unit(0, damaged(models.SeverityMinor, "scratch", "left door")),
		unit(2, damaged(models.SeverityModerate, "dent", "hood")),
	}

	combined := Combine(units)

	total := 0
	for _, u := range units {
		total += len(u.Result.Observations)
	}
	require.Len(t, combined.AllObservations, total)

	// Tags are the units' original indices, not positions in this slice.
	require.Equal(t, 0, combined.AllObservations[0].UnitIndex)
	require.Equal(t, 2, combined.AllObservations[1].UnitIndex)
}

func TestCombineAverageConfidenceRounds(t *testing.T) {
	a := clean()
	a.ConfidenceScore = 80
	b := clean()
	b.ConfidenceScore = 85

	combined := Combine([]models.UnitContext{unit(0, a), unit(1, b)})
	require.Equal(t, 83, combined.AverageConfidence) // round(82.5)
}

func TestCombineSeverityIsTrueMax(t *testing.T) {
	forward := []models.UnitContext{
		unit(0, damaged(models.SeverityMinor, "scratch", "door")),
		unit(1, damaged(models.SeveritySevere, "dent", "hood")),
	}
	reversed := []models.UnitContext{forward[1], forward[0]}

	a := Combine(forward)
	b := Combine(reversed)
	require.Equal(t, a.OverallSeverity, b.OverallSeverity)
	require.Equal(t, models.SeveritySevere, a.OverallSeverity)

	for _, u := range forward {
		require.GreaterOrEqual(t, a.OverallSeverity.Rank(), u.Result.OverallSeverity.Rank())
	}
}

func TestCombineDeduplicatesSets(t *testing.T) {
	units := []models.UnitContext{
		unit(0, damaged(models.SeverityMinor, "scratch", "left door")),
		unit(1, damaged(models.SeverityMinor, "scratch", "left door")),
		unit(2, damaged(models.SeverityModerate, "dent", "hood")),
	}

	combined := Combine(units)
	require.ElementsMatch(t, []string{"scratch", "dent"}, combined.UniqueDamageKinds)
	require.ElementsMatch(t, []string{"left door", "hood"}, combined.AffectedAreas)
}

func TestCombineRecommendationsFirstOccurrenceOrder(t *testing.T) {
	a := clean()
	a.Recommendations = []string{"wash the car", "wax the hood"}
	b := clean()
	b.Recommendations = []string{"wax the hood", "check tire pressure"}

	combined := Combine([]models.UnitContext{unit(0, a), unit(1, b)})
	require.Equal(t,
		[]string{"wash the car", "wax the hood", "check tire pressure"},
		combined.Recommendations)
}

func TestCombineCostRollUpIsMaxOfMinsAndMaxOfMaxes(t *testing.T) {
	a := damaged(models.SeverityMinor, "scratch", "door")
	a.EstimatedCost = models.CostRange{Min: 5000, Max: 25000, Currency: "INR"}
	b := damaged(models.SeveritySevere, "dent", "hood")
	b.EstimatedCost = models.CostRange{Min: 25000, Max: 100000, Currency: "INR"}

	combined := Combine([]models.UnitContext{unit(0, a), unit(1, b)})
	require.Equal(t, 25000, combined.EstimatedCost.Min)
	require.Equal(t, 100000, combined.EstimatedCost.Max)
	require.Equal(t, "INR", combined.EstimatedCost.Currency)
}

func TestCombineCostInversionIsPreserved(t *testing.T) {
	// One unit reports a larger min than the other unit's max. The roll-up
	// reports min > max without correcting it.
	a := damaged(models.SeverityMinor, "scratch", "door")
	a.EstimatedCost = models.CostRange{Min: 50000, Max: 60000, Currency: "INR"}
	b := damaged(models.SeverityMinor, "chip", "hood")
	b.EstimatedCost = models.CostRange{Min: 100, Max: 200, Currency: "INR"}

	combined := Combine([]models.UnitContext{unit(0, a), unit(1, b)})
	require.Equal(t, 50000, combined.EstimatedCost.Min)
	require.Equal(t, 60000, combined.EstimatedCost.Max)
}

func TestCombineCurrencyDefaultsWhenAbsent(t *testing.T) {
	combined := Combine([]models.UnitContext{unit(0, clean())})
	require.Equal(t, "INR", combined.EstimatedCost.Currency)
}

func TestCombineCurrencyFirstNonEmptyWins(t *testing.T) {
	a := clean()
	b := damaged(models.SeverityMinor, "scratch", "door")
	b.EstimatedCost.Currency = "USD"

	combined := Combine([]models.UnitContext{unit(0, a), unit(1, b)})
	require.Equal(t, "USD", combined.EstimatedCost.Currency)
}

func TestCombineSummaryMentionsTheNumbers(t *testing.T) {
	units := []models.UnitContext{
		unit(0, clean()),
		unit(1, damaged(models.SeverityMinor, "scratch", "left door")),
		unit(2, damaged(models.SeveritySevere, "dent", "hood")),
	}

	combined := Combine(units)
	require.Contains(t, combined.Summary, "3 images")
	require.Contains(t, combined.Summary, "2 images")
	require.Contains(t, combined.Summary, "scratch, dent")
	require.Contains(t, combined.Summary, "left door, hood")
	require.Contains(t, combined.Summary, "Severe")
}

func TestCombineSummaryCleanBatch(t *testing.T) {
	combined := Combine([]models.UnitContext{unit(0, clean()), unit(1, clean())})
	require.Equal(t, 0, combined.UnitsWithDamage)
	require.Contains(t, combined.Summary, "No damage was detected")
	require.Contains(t, combined.Summary, "None")
}
