// Package features turns raw source evidence, a classification and request
// metadata into the fixed 10-field numeric record consumed by the
// confidence scorer.
package features

import (
	"fmt"
	"math"
	"time"

	"github.com/predictlink/verdict/internal/domain/classify"
	"github.com/predictlink/verdict/internal/domain/model"
)

// Neutral defaults applied when evidence or metadata is missing.
const (
	defaultCredibility        = 0.5
	defaultHistoricalAccuracy = 0.85
	defaultSocialSentiment    = 0.5
	// consistencyEpsilon offsets the mean to avoid division by zero.
	consistencyEpsilon = 1e-6
)

const secondsPerHour = 3600

// Set is the fixed numeric feature record for one evaluation. It is built
// once per evaluation and never mutated afterwards; Normalize returns a
// corrected copy instead of editing in place.
type Set struct {
	SourceCount          float64 `json:"source_count"`
	AvgCredibility       float64 `json:"avg_credibility"`
	SourceDiversity      float64 `json:"source_diversity"`
	ConsensusPercentage  float64 `json:"consensus_percentage"`
	ConflictCount        float64 `json:"conflict_count"`
	TimeSinceEventHours  float64 `json:"time_since_event_hours"`
	CategoryConfidence   float64 `json:"category_confidence"`
	HistoricalAccuracy   float64 `json:"historical_accuracy"`
	DataConsistencyScore float64 `json:"data_consistency_score"`
	SocialSentiment      float64 `json:"social_sentiment"`
}

// Extractor builds feature records. The clock is injectable for tests.
type Extractor struct {
	now func() time.Time
}

// Option applies a configuration option to the Extractor.
type Option func(*Extractor)

// WithClock sets the time source used for event-age computation.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// NewExtractor creates an extractor with configuration options.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract builds the feature record from source evidence, the event's
// classification and optional metadata overrides. The returned record is
// already normalized: the [0,1] clamp is applied once here, at construction
// time, so every downstream consumer sees the same canonical values.
func (e *Extractor) Extract(sources []model.Source, classification classify.Result, metadata map[string]float64) Set {
	now := float64(e.now().UnixNano()) / 1e9

	consensus, conflicts := consensusOf(sources)

	s := Set{
		SourceCount:          float64(len(sources)),
		AvgCredibility:       AvgCredibility(sources),
		SourceDiversity:      float64(SourceDiversity(sources)),
		ConsensusPercentage:  consensus,
		ConflictCount:        float64(conflicts),
		TimeSinceEventHours:  hoursSince(sources, now),
		CategoryConfidence:   classification.Confidence,
		HistoricalAccuracy:   metadataOr(metadata, "historical_accuracy", defaultHistoricalAccuracy),
		DataConsistencyScore: dataConsistency(sources),
		SocialSentiment:      metadataOr(metadata, "social_sentiment", defaultSocialSentiment),
	}
	return s.Normalize()
}

// AvgCredibility is the mean source credibility with a 0.5 neutral prior for
// missing values. The mean over an empty set is defined as 0.5 to avoid NaN
// propagation.
func AvgCredibility(sources []model.Source) float64 {
	if len(sources) == 0 {
		return defaultCredibility
	}
	sum := 0.0
	for _, s := range sources {
		if s.Credibility != nil {
			sum += *s.Credibility
		} else {
			sum += defaultCredibility
		}
	}
	return sum / float64(len(sources))
}

// SourceDiversity counts distinct source types.
func SourceDiversity(sources []model.Source) int {
	types := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		types[s.Type] = struct{}{}
	}
	return len(types)
}

// consensusOf computes the consensus percentage and conflict count over the
// outcomes reported by sources. Ties among most-frequent outcomes resolve to
// the first-encountered outcome in source order. No reported outcomes means
// consensus 1.0: there is no evidence of disagreement.
func consensusOf(sources []model.Source) (consensus float64, conflicts int) {
	counts := make(map[string]int)
	var order []string
	total := 0
	for _, s := range sources {
		if s.Data.Outcome == nil {
			continue
		}
		key := fmt.Sprintf("%v", s.Data.Outcome)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
		total++
	}

	if total == 0 {
		return 1.0, 0
	}

	best := 0
	for _, key := range order {
		if counts[key] > best {
			best = counts[key]
		}
	}
	consensus = float64(best) / float64(total)

	if len(counts) > 1 {
		conflicts = len(counts) - 1
	}
	return consensus, conflicts
}

// hoursSince returns the age in hours of the earliest source observation.
// With no sources the event age is zero.
func hoursSince(sources []model.Source, now float64) float64 {
	earliest := now
	for _, s := range sources {
		ts := s.Timestamp
		if ts <= 0 {
			ts = now
		}
		if ts < earliest {
			earliest = ts
		}
	}
	return (now - earliest) / secondsPerHour
}

// dataConsistency measures agreement among numeric source values as
// 1 - stddev/mean. Fewer than two values means the data is too sparse to
// disagree, which counts as full consistency.
func dataConsistency(sources []model.Source) float64 {
	var values []float64
	for _, s := range sources {
		if s.Data.Value != nil {
			values = append(values, *s.Data.Value)
		}
	}
	if len(values) < 2 {
		return 1.0
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	return 1.0 - math.Sqrt(variance)/(mean+consistencyEpsilon)
}

func metadataOr(metadata map[string]float64, key string, def float64) float64 {
	if metadata == nil {
		return def
	}
	if v, ok := metadata[key]; ok {
		return v
	}
	return def
}
