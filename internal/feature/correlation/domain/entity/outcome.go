package entity

import "fmt"

// Bucket labels a forward return by size and sign.
type Bucket uint8

const (
	StrongDown Bucket = iota
	ModerateDown
	Neutral
	ModerateUp
	StrongUp
)

var bucketNames = [...]string{"strong_down", "moderate_down", "neutral", "moderate_up", "strong_up"}

func (b Bucket) String() string {
	if int(b) < len(bucketNames) {
		return bucketNames[b]
	}
	return fmt.Sprintf("Bucket(%d)", b)
}

// Classify places a percent return into its bucket. Buckets are contiguous and exhaustive.
func (e BucketEdges) Classify(ret float64) Bucket {
	switch {
	case ret <= -e.Strong:
		return StrongDown
	case ret <= -e.Moderate:
		return ModerateDown
	case ret < e.Moderate:
		return Neutral
	case ret < e.Strong:
		return ModerateUp
	default:
		return StrongUp
	}
}

// OutcomeDistribution counts forward returns per bucket.
type OutcomeDistribution struct {
	StrongDown   int `json:"strong_down"`
	ModerateDown int `json:"moderate_down"`
	Neutral      int `json:"neutral"`
	ModerateUp   int `json:"moderate_up"`
	StrongUp     int `json:"strong_up"`
}

// Add counts one outcome in bucket b.
func (d *OutcomeDistribution) Add(b Bucket) {
	switch b {
	case StrongDown:
		d.StrongDown++
	case ModerateDown:
		d.ModerateDown++
	case Neutral:
		d.Neutral++
	case ModerateUp:
		d.ModerateUp++
	case StrongUp:
		d.StrongUp++
	default:
		panic(fmt.Sprintf("entity: unknown bucket %d", b))
	}
}

// Total is the number of counted outcomes.
func (d OutcomeDistribution) Total() int {
	return d.StrongDown + d.ModerateDown + d.Neutral + d.ModerateUp + d.StrongUp
}

// Up is the count of moderate and strong up outcomes.
func (d OutcomeDistribution) Up() int {
	return d.ModerateUp + d.StrongUp
}

// Down is the count of moderate and strong down outcomes.
func (d OutcomeDistribution) Down() int {
	return d.ModerateDown + d.StrongDown
}

// Direction is the sign of a forward move.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	// DirectionNeutral only describes realised moves of exactly zero; predictions are never neutral.
	DirectionNeutral Direction = "neutral"
)

// DirectionOf returns the sign of a percent return.
func DirectionOf(ret float64) Direction {
	switch {
	case ret > 0:
		return DirectionUp
	case ret < 0:
		return DirectionDown
	default:
		return DirectionNeutral
	}
}

// Prediction is the headline call derived from the historical outcomes.
type Prediction struct {
	Direction      Direction `json:"direction"`
	ExpectedReturn float64   `json:"expected_return"` // percent
	Confidence     float64   `json:"confidence"`      // 0-100
}

// HistoricalPatterns is the aggregate over all similar occurrences.
type HistoricalPatterns struct {
	TotalSimilarOccurrences int                 `json:"total_similar_occurrences"`
	AvgFutureReturn         float64             `json:"avg_future_return"`
	Distribution            OutcomeDistribution `json:"distribution"`
	Prediction              Prediction          `json:"prediction"`
}
