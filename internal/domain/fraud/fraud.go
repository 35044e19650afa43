// Package fraud maps a proposal's feature set to an anomaly score, explicit
// rule-based risk factors and an overall risk tier. The anomaly model is
// fit on a representative population (baseline or the observed window) and
// scoring is a stateless read-only operation against the fitted model.
package fraud

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/predictlink/verdict/pkg/logger"
	"github.com/predictlink/verdict/pkg/metrics"
)

// Risk tiers, ordered minimal < low < medium < high. Unknown marks the safe
// default returned when assessment fails internally.
const (
	RiskMinimal = "minimal"
	RiskLow     = "low"
	RiskMedium  = "medium"
	RiskHigh    = "high"
	RiskUnknown = "unknown"
)

// Recommendations.
const (
	RecommendApprove      = "approve"
	RecommendReject       = "reject"
	RecommendManualReview = "manual_review"
)

// Anomaly-score thresholds per risk tier.
const (
	lowRiskThreshold    = 0.3
	mediumRiskThreshold = 0.6
	highRiskThreshold   = 0.8
)

// Risk factor tags.
const (
	FactorLowConfidence         = "low_confidence"
	FactorInsufficientSources   = "insufficient_sources"
	FactorPrematureSubmission   = "premature_submission"
	FactorLowProposerReputation = "low_proposer_reputation"
	FactorLowSourceDiversity    = "low_source_diversity"
	FactorLowConsensus          = "low_consensus"
	FactorSuspiciousTiming      = "suspicious_timing"
	FactorCoordinationSuspected = "coordination_suspected"
)

// Default detector configuration.
const (
	defaultNumTrees      = 100
	defaultContamination = 0.1
	defaultSeed          = 42
	defaultBaselineSize  = 512
	featureDim           = 8
)

// Proposal carries the (individually optional) inputs of one assessment.
// Nil fields take documented defaults; absence also disables the
// corresponding rule check.
type Proposal struct {
	ConfidenceScore    *float64 `json:"confidence_score,omitempty"`
	SourceCount        int      `json:"source_count"`
	TimeSinceEvent     *float64 `json:"time_since_event,omitempty"`
	ProposerReputation *float64 `json:"proposer_reputation,omitempty"`
	SourceDiversity    *float64 `json:"source_diversity,omitempty"`
	ConsensusLevel     *float64 `json:"consensus_level,omitempty"`
	TimingAnomaly      *float64 `json:"timing_anomaly,omitempty"`
	PatternSimilarity  *float64 `json:"pattern_similarity,omitempty"`
}

// Assessment is the fraud verdict for one proposal.
type Assessment struct {
	IsFraudulent   bool     `json:"is_fraudulent"`
	AnomalyScore   float64  `json:"anomaly_score"`
	RiskLevel      string   `json:"risk_level"`
	RiskFactors    []string `json:"risk_factors"`
	Confidence     float64  `json:"confidence"`
	Recommendation string   `json:"recommendation"`
}

// Detector assesses proposals against a fitted anomaly model plus explicit
// rule checks. Safe for concurrent use; Refit swaps the model atomically.
type Detector struct {
	mu     sync.RWMutex
	forest *isolationForest

	numTrees      int
	contamination float64
	seed          int64
	baselineSize  int
	skipBaseline  bool

	log logger.Logger
}

// New creates a detector. Unless WithoutBaselineFit is given, the anomaly
// model is fit immediately on a deterministic baseline population so the
// detector is usable before any observed samples exist.
func New(opts ...Option) *Detector {
	d := &Detector{
		numTrees:      defaultNumTrees,
		contamination: defaultContamination,
		seed:          defaultSeed,
		baselineSize:  defaultBaselineSize,
		log:           logger.Get().Named("fraud"),
	}

	for _, opt := range opts {
		opt(d)
	}

	if !d.skipBaseline {
		rng := rand.New(rand.NewSource(d.seed)) //nolint:gosec // deterministic seed for reproducible fitting
		d.forest = fitForest(baselinePopulation(rng, d.baselineSize), d.numTrees, d.contamination, rng)
	}

	return d
}

// Assess evaluates one proposal. It never fails: any internal error is
// absorbed and replaced with the safe default assessment.
func (d *Detector) Assess(ctx context.Context, p Proposal) (a Assessment) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error(ctx, "fraud assessment panicked; returning safe default", logger.Any("cause", r))
			metrics.RecordFraudFallback()
			a = safeDefault()
		}
	}()

	d.mu.RLock()
	forest := d.forest
	d.mu.RUnlock()

	if forest == nil {
		d.log.Warn(ctx, "anomaly model not fitted; returning safe default")
		metrics.RecordFraudFallback()
		return safeDefault()
	}

	raw := forest.predict(d.Vector(p))
	score := float64(raw+1) / 2 // {-1,+1} -> {0,1}; outlier scores 1

	factors := riskFactors(p)
	level := riskLevel(score, factors)
	fraudulent := score > highRiskThreshold

	recommendation := RecommendApprove
	if fraudulent {
		recommendation = RecommendReject
	}

	metrics.RecordFraudAssessment(level)

	return Assessment{
		IsFraudulent: fraudulent,
		AnomalyScore: score,
		RiskLevel:    level,
		RiskFactors:  factors,
		// Decisiveness of the verdict, not its correctness: peaks when
		// the score is extreme, zero at the midpoint.
		Confidence:     1 - math.Abs(score-0.5)*2,
		Recommendation: recommendation,
	}
}

// Refit replaces the anomaly model with one fit on the given population.
// Samples must be 8-dimensional feature vectors.
func (d *Detector) Refit(ctx context.Context, samples [][]float64) error {
	if len(samples) == 0 {
		return ErrEmptyPopulation
	}
	for _, s := range samples {
		if len(s) != featureDim {
			return ErrBadSampleDim
		}
	}

	rng := rand.New(rand.NewSource(d.seed)) //nolint:gosec // deterministic seed for reproducible fitting
	forest := fitForest(samples, d.numTrees, d.contamination, rng)

	d.mu.Lock()
	d.forest = forest
	d.mu.Unlock()

	metrics.RecordModelRefit()
	d.log.Info(ctx, "anomaly model refit", logger.Int("population", len(samples)))
	return nil
}

// Vector assembles the 8-scalar feature vector with per-field defaults for
// absent values.
func (d *Detector) Vector(p Proposal) []float64 {
	return vector(p)
}

func vector(p Proposal) []float64 {
	return []float64{
		orDefault(p.ConfidenceScore, 0.5),
		float64(p.SourceCount),
		orDefault(p.TimeSinceEvent, 1.0),
		orDefault(p.ProposerReputation, 0.5),
		orDefault(p.SourceDiversity, 1.0),
		orDefault(p.ConsensusLevel, 0.5),
		orDefault(p.TimingAnomaly, 0.0),
		orDefault(p.PatternSimilarity, 0.0),
	}
}

// riskFactors runs the rule checks. Absent fields default so that the
// corresponding check passes.
func riskFactors(p Proposal) []string {
	factors := []string{}

	if orDefault(p.ConfidenceScore, 1.0) < 0.5 {
		factors = append(factors, FactorLowConfidence)
	}
	if p.SourceCount < 2 {
		factors = append(factors, FactorInsufficientSources)
	}
	if orDefault(p.TimeSinceEvent, 100) < 0.1 {
		factors = append(factors, FactorPrematureSubmission)
	}
	if orDefault(p.ProposerReputation, 1.0) < 0.3 {
		factors = append(factors, FactorLowProposerReputation)
	}
	if orDefault(p.SourceDiversity, 10) < 2 {
		factors = append(factors, FactorLowSourceDiversity)
	}
	if orDefault(p.ConsensusLevel, 1.0) < 0.5 {
		factors = append(factors, FactorLowConsensus)
	}
	if orDefault(p.TimingAnomaly, 0.0) > 0.7 {
		factors = append(factors, FactorSuspiciousTiming)
	}
	if orDefault(p.PatternSimilarity, 0.0) > 0.8 {
		factors = append(factors, FactorCoordinationSuspected)
	}

	return factors
}

// criticalFactors escalate the risk tier to high regardless of the
// anomaly score.
var criticalFactors = map[string]bool{
	FactorCoordinationSuspected: true,
	FactorSuspiciousTiming:      true,
	FactorLowProposerReputation: true,
}

func riskLevel(score float64, factors []string) string {
	hasCritical := false
	for _, f := range factors {
		if criticalFactors[f] {
			hasCritical = true
			break
		}
	}

	switch {
	case score > highRiskThreshold || hasCritical:
		return RiskHigh
	case score > mediumRiskThreshold || len(factors) >= 3:
		return RiskMedium
	case score > lowRiskThreshold || len(factors) >= 1:
		return RiskLow
	default:
		return RiskMinimal
	}
}

// safeDefault is the neutral assessment returned on internal failure.
func safeDefault() Assessment {
	return Assessment{
		IsFraudulent:   false,
		AnomalyScore:   0.5,
		RiskLevel:      RiskUnknown,
		RiskFactors:    []string{},
		Confidence:     0.0,
		Recommendation: RecommendManualReview,
	}
}

// neutralShare is the fraction of the baseline population pinned to the
// all-defaults feature vector. The anchor keeps a proposal with every field
// absent inside the fitted inlier region: the duplicates form an unsplittable
// cluster, so the neutral point always terminates in a large leaf with a long
// expected path and scores well below the contamination-quantile threshold.
const neutralShare = 8

// baselinePopulation generates a deterministic population of plausible
// legitimate proposals covering typical ranges of every feature, anchored
// at the all-defaults vector.
func baselinePopulation(rng *rand.Rand, n int) [][]float64 {
	population := make([][]float64, n)
	for i := range population {
		if i%neutralShare == 0 {
			population[i] = vector(Proposal{})
			continue
		}
		population[i] = []float64{
			0.3 + 0.6*rng.Float64(),      // confidence_score
			float64(rng.Intn(9)),         // source_count
			rng.Float64() * 48,           // time_since_event (hours)
			0.2 + 0.7*rng.Float64(),      // proposer_reputation
			float64(rng.Intn(5)),         // source_diversity
			0.3 + 0.7*rng.Float64(),      // consensus_level
			rng.Float64() * 0.5,          // timing_anomaly
			rng.Float64() * 0.5,          // pattern_similarity
		}
	}
	return population
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
