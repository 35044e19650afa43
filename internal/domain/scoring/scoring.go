// Package scoring defines the contract for the confidence scoring
// collaborator: a black-box synchronous mapping from a feature record to a
// confidence score and recommendation. The production models (tree
// ensemble + neural estimator) live outside this service; EnsembleScorer
// is the in-process stand-in satisfying the same contract.
package scoring

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/predictlink/verdict/internal/domain/features"
)

// Default scoring configuration constants.
const (
	defaultMinLatency = 5 * time.Millisecond
	defaultMaxLatency = 25 * time.Millisecond
	defaultRandomSeed = 42
)

// Recommendation thresholds on the blended confidence score.
const (
	approveThreshold = 0.8
	reviewThreshold  = 0.5
)

// Blend weights between the tree-ensemble estimate and the neural estimate.
const (
	xgbBlendWeight = 0.6
	nnBlendWeight  = 0.4
)

// Result contains the score for one feature record.
type Result struct {
	ConfidenceScore float64 `json:"confidence_score"`
	Recommendation  string  `json:"recommendation"`
}

// ModelStatus reports readiness of the underlying model artifacts.
type ModelStatus struct {
	XGBLoaded bool
	NNLoaded  bool
	Device    string
}

// Scorer computes a confidence score from a feature record. Implementations
// may be computationally expensive; callers route heavy evaluations through
// a worker pool rather than running them inline.
type Scorer interface {
	// Score computes a score, honoring ctx for cancellation.
	Score(ctx context.Context, f features.Set) (Result, error)

	// Ready reports whether the scorer is initialized and able to score.
	Ready() bool

	// Status reports per-artifact readiness for health probes.
	Status() ModelStatus
}

// EnsembleScorer implements Scorer with a deterministic blend of a linear
// (tree-ensemble style) estimate and a squashed (neural style) estimate.
type EnsembleScorer struct {
	xgbPath string
	nnPath  string
	device  string

	xgbLoaded bool
	nnLoaded  bool

	// Simulated inference latency range. The rng is guarded because
	// workers score concurrently.
	minLatency time.Duration
	maxLatency time.Duration
	rngMu      sync.Mutex
	rng        *rand.Rand
}

// NewEnsembleScorer creates a scorer with configuration options. The model
// artifacts are considered loaded when their paths are configured; real
// artifact deserialization is the host's concern.
func NewEnsembleScorer(opts ...Option) *EnsembleScorer {
	s := &EnsembleScorer{
		device:     "cpu",
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		rng:        rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible latency
	}

	for _, opt := range opts {
		opt(s)
	}

	s.xgbLoaded = s.xgbPath != ""
	s.nnLoaded = s.nnPath != ""

	return s
}

// Ready reports whether both sub-models are loaded.
func (s *EnsembleScorer) Ready() bool {
	return s.xgbLoaded && s.nnLoaded
}

// Status reports per-artifact readiness.
func (s *EnsembleScorer) Status() ModelStatus {
	return ModelStatus{XGBLoaded: s.xgbLoaded, NNLoaded: s.nnLoaded, Device: s.device}
}

// Score validates the record, simulates inference latency and computes the
// blended confidence score.
func (s *EnsembleScorer) Score(ctx context.Context, f features.Set) (Result, error) {
	if !s.Ready() {
		return Result{}, ErrNotReady
	}
	if err := f.Validate(); err != nil {
		return Result{}, fmt.Errorf("score rejected: %w", err)
	}

	// Simulate model inference latency.
	latency := s.minLatency
	if s.maxLatency > s.minLatency {
		s.rngMu.Lock()
		latency += time.Duration(s.rng.Int63n(int64(s.maxLatency - s.minLatency)))
		s.rngMu.Unlock()
	}
	select {
	case <-ctx.Done():
		return Result{}, fmt.Errorf("context cancelled: %w", ctx.Err())
	case <-time.After(latency):
	}

	linear := linearEstimate(f)
	squashed := 1 / (1 + math.Exp(-6*(linear-0.5)))

	score := clamp01(xgbBlendWeight*linear + nnBlendWeight*squashed)

	return Result{
		ConfidenceScore: score,
		Recommendation:  recommend(score),
	}, nil
}

// linearEstimate is the weighted evidence blend: credibility and consensus
// dominate, conflicts and staleness penalize.
func linearEstimate(f features.Set) float64 {
	countSignal := math.Min(f.SourceCount/10, 1)
	diversitySignal := math.Min(f.SourceDiversity/5, 1)
	conflictPenalty := math.Min(f.ConflictCount/5, 1)
	stalenessPenalty := math.Min(f.TimeSinceEventHours/168, 1)

	v := 0.24*f.AvgCredibility +
		0.20*f.ConsensusPercentage +
		0.14*f.HistoricalAccuracy +
		0.12*f.DataConsistencyScore +
		0.10*f.CategoryConfidence +
		0.06*f.SocialSentiment +
		0.07*countSignal +
		0.07*diversitySignal -
		0.08*conflictPenalty -
		0.08*stalenessPenalty

	return clamp01(v)
}

func recommend(score float64) string {
	switch {
	case score >= approveThreshold:
		return "approve"
	case score >= reviewThreshold:
		return "manual_review"
	default:
		return "reject"
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
