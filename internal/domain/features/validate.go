package features

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidFeatures marks a feature record rejected before scoring.
var ErrInvalidFeatures = errors.New("invalid features")

// fields enumerates the record in declared order for validation reporting.
func (s Set) fields() []struct {
	name  string
	value float64
} {
	return []struct {
		name  string
		value float64
	}{
		{"source_count", s.SourceCount},
		{"avg_credibility", s.AvgCredibility},
		{"source_diversity", s.SourceDiversity},
		{"consensus_percentage", s.ConsensusPercentage},
		{"conflict_count", s.ConflictCount},
		{"time_since_event_hours", s.TimeSinceEventHours},
		{"category_confidence", s.CategoryConfidence},
		{"historical_accuracy", s.HistoricalAccuracy},
		{"data_consistency_score", s.DataConsistencyScore},
		{"social_sentiment", s.SocialSentiment},
	}
}

// Validate rejects a feature record carrying NaN or infinite values.
func (s Set) Validate() error {
	for _, f := range s.fields() {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: field %s is not finite", ErrInvalidFeatures, f.name)
		}
	}
	return nil
}

// Normalize returns a corrected copy of the record: negative values are
// clamped to 0 and the ratio/percentage fields are clamped to a maximum of
// 1.0. Count and age fields keep their magnitude.
func (s Set) Normalize() Set {
	n := s
	n.SourceCount = math.Max(0, n.SourceCount)
	n.AvgCredibility = clamp01(n.AvgCredibility)
	n.SourceDiversity = math.Max(0, n.SourceDiversity)
	n.ConsensusPercentage = clamp01(n.ConsensusPercentage)
	n.ConflictCount = math.Max(0, n.ConflictCount)
	n.TimeSinceEventHours = math.Max(0, n.TimeSinceEventHours)
	n.CategoryConfidence = clamp01(n.CategoryConfidence)
	n.HistoricalAccuracy = clamp01(n.HistoricalAccuracy)
	n.DataConsistencyScore = clamp01(n.DataConsistencyScore)
	n.SocialSentiment = clamp01(n.SocialSentiment)
	return n
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
