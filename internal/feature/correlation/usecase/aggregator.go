package usecase

import (
	"gonum.org/v1/gonum/stat"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
)

// Aggregate turns the occurrences' forward returns into a distribution and a prediction.
// It reports false when there are no occurrences; callers must treat that as
// "no historical pattern", not as a zero-confidence prediction.
func Aggregate(occurrences []entity.HistoricalOccurrence, edges entity.BucketEdges) (entity.HistoricalPatterns, bool) {
	total := len(occurrences)
	if total == 0 {
		return entity.HistoricalPatterns{}, false
	}

	returns := make([]float64, total)
	var dist entity.OutcomeDistribution
	var ups, downs []float64
	for i, o := range occurrences {
		returns[i] = o.ForwardReturn
		dist.Add(edges.Classify(o.ForwardReturn))
		switch {
		case o.ForwardReturn > 0:
			ups = append(ups, o.ForwardReturn)
		case o.ForwardReturn < 0:
			downs = append(downs, o.ForwardReturn)
		}
	}
	avg := stat.Mean(returns, nil)

	direction := entity.DirectionUp
	agreeing := ups
	switch {
	case len(downs) > len(ups):
		direction, agreeing = entity.DirectionDown, downs
	case len(downs) == len(ups) && avg < 0:
		direction, agreeing = entity.DirectionDown, downs
	}

	expected := avg
	if len(agreeing) > 0 {
		expected = stat.Mean(agreeing, nil)
	}

	return entity.HistoricalPatterns{
		TotalSimilarOccurrences: total,
		AvgFutureReturn:         avg,
		Distribution:            dist,
		Prediction: entity.Prediction{
			Direction:      direction,
			ExpectedReturn: expected,
			Confidence:     float64(len(agreeing)) / float64(total) * 100,
		},
	}, true
}
