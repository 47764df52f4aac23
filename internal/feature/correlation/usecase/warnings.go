package usecase

import (
	"math"
	"time"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
)

// EvaluateWarnings flags reliability concerns about an aggregate.
// The result follows the order of entity.AllWarnings and is never nil.
func EvaluateWarnings(total int, confidence float64, occurrences []entity.HistoricalOccurrence, dist entity.OutcomeDistribution, asOf time.Time, rules entity.WarningRules) []entity.Warning {
	out := []entity.Warning{}
	for _, w := range entity.AllWarnings {
		var hit bool
		switch w {
		case entity.WarningFewExamples:
			hit = total < rules.MinExamples
		case entity.WarningLowConfidence:
			hit = confidence < rules.MinConfidence
		case entity.WarningOldExamples:
			hit = hasOldExamples(occurrences, asOf, rules.MaxAgeYears)
		case entity.WarningScatteredDistribution:
			hit = isScattered(dist, rules.MinDirectionalSpread)
		}
		if hit {
			out = append(out, w)
		}
	}
	return out
}

func hasOldExamples(occurrences []entity.HistoricalOccurrence, asOf time.Time, maxAgeYears int) bool {
	if len(occurrences) == 0 {
		return false
	}
	oldest := occurrences[0].Date
	for _, o := range occurrences[1:] {
		if o.Date.Before(oldest) {
			oldest = o.Date
		}
	}
	return oldest.Before(entity.Day(asOf).AddDate(-maxAgeYears, 0, 0))
}

// isScattered reports near-balanced up and down mass, which carries no directional signal.
func isScattered(dist entity.OutcomeDistribution, minSpread float64) bool {
	total := dist.Total()
	if total == 0 {
		return false
	}
	up := float64(dist.Up()) / float64(total)
	down := float64(dist.Down()) / float64(total)
	return math.Abs(up-down) < minSpread
}
