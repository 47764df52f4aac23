package usecase

import (
	"sort"

	"github.com/ZyrticX/DELTA-MIX/internal/feature/correlation/domain/entity"
)

// TopK returns up to k occurrences, most similar first; ties go to the most recent date.
// The input slice is not modified.
func TopK(occurrences []entity.HistoricalOccurrence, k int) []entity.HistoricalOccurrence {
	out := make([]entity.HistoricalOccurrence, len(occurrences))
	copy(out, occurrences)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Date.After(out[j].Date)
	})
	if k >= 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
