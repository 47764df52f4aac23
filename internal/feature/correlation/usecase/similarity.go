package usecase

import (
	"math"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
)

// Similarity scores how alike two fingerprints are, in [0,1].
//
// The score blends the Jaccard overlap of the matched symbol sets with the mean closeness
// (1 - |c1-c2|, floored at 0) of the coefficients of the shared symbols. Without shared
// symbols only the Jaccard term applies, which is then 0.
func Similarity(a, b entity.CorrelationSet, p entity.SimilarityParams) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	cb := b.Coefficients()

	inter := 0
	closeness := 0.0
	// iterate the slice, not a map, so the float sum has a fixed order
	for _, m := range a {
		y, ok := cb[m.Symbol]
		if !ok {
			continue
		}
		inter++
		closeness += 1 - math.Min(math.Abs(m.Correlation-y), 1)
	}
	union := len(a) + len(cb) - inter
	jaccard := float64(inter) / float64(union)
	if inter == 0 {
		return jaccard
	}
	return p.JaccardWeight*jaccard + (1-p.JaccardWeight)*closeness/float64(inter)
}
