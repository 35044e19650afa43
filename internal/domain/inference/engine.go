// Package inference composes classification, feature extraction,
// confidence scoring and fraud assessment into per-event results, wrapping
// every unit of work in a time-bound cache and fanning batches across a
// bounded worker pool.
package inference

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/predictlink/verdict/internal/adapters/cache"
	"github.com/predictlink/verdict/internal/adapters/mq/queue"
	"github.com/predictlink/verdict/internal/adapters/mq/worker"
	"github.com/predictlink/verdict/internal/adapters/repository"
	"github.com/predictlink/verdict/internal/domain/classify"
	"github.com/predictlink/verdict/internal/domain/features"
	"github.com/predictlink/verdict/internal/domain/fraud"
	"github.com/predictlink/verdict/internal/domain/model"
	"github.com/predictlink/verdict/internal/domain/scoring"
	"github.com/predictlink/verdict/pkg/logger"
	"github.com/predictlink/verdict/pkg/metrics"
)

// cacheKeyDescriptionLen bounds the description prefix in the cache key.
// The key is a heuristic fingerprint, not a content hash: two requests
// sharing event id, prefix and source count collide.
const cacheKeyDescriptionLen = 50

// Result is the merged per-event output. Transient; the core persists
// nothing beyond the cache window.
type Result struct {
	EventID        string           `json:"event_id"`
	Classification classify.Result  `json:"classification"`
	Confidence     scoring.Result   `json:"confidence"`
	FraudDetection fraud.Assessment `json:"fraud_detection"`
	Timestamp      time.Time        `json:"timestamp"`
}

// ClassificationReport is the classify-only output: the category decision
// plus a summary of the evidence it was derived from.
type ClassificationReport struct {
	EventID         string          `json:"event_id"`
	Classification  classify.Result `json:"classification"`
	SourceCount     int             `json:"source_count"`
	AvgCredibility  float64         `json:"avg_credibility"`
	SourceDiversity int             `json:"source_diversity"`
}

// BatchItem is one outcome of a batch evaluation: either a result or an
// error, never both.
type BatchItem struct {
	EventID string
	Result  *Result
	Err     error
}

// BatchResult reports all outcomes of a batch in submission order.
type BatchResult struct {
	Items      []BatchItem
	Total      int
	Successful int
}

// Engine is the cached concurrent orchestrator.
type Engine struct {
	extractor *features.Extractor
	scorer    scoring.Scorer
	detector  *fraud.Detector
	history   repository.Store

	cache *cache.Cache
	queue *queue.InMemoryQueue
	pool  *worker.Pool

	cacheTTL    time.Duration
	workerCount int
	queueSize   int

	started bool
	log     logger.Logger
	now     func() time.Time
}

// New creates an engine around the given collaborators. Call Start before
// evaluating.
func New(scorer scoring.Scorer, detector *fraud.Detector, opts ...Option) *Engine {
	e := &Engine{
		scorer:      scorer,
		detector:    detector,
		cacheTTL:    5 * time.Minute,
		workerCount: 4,
		queueSize:   1024,
		log:         logger.Get().Named("inference"),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.extractor = features.NewExtractor(features.WithClock(e.now))
	e.cache = cache.New(cache.WithTTL(e.cacheTTL), cache.WithClock(e.now))

	return e
}

// Start brings up the task queue and worker pool.
func (e *Engine) Start(ctx context.Context) {
	if e.started {
		return
	}
	e.queue = queue.NewInMemoryQueue(queue.WithCapacity(e.queueSize))
	e.pool = worker.NewPool(e.workerCount, e.queue)
	e.pool.Start(ctx)
	e.started = true
}

// Stop shuts down the pool and queue.
func (e *Engine) Stop(ctx context.Context) {
	if !e.started {
		return
	}
	_ = e.pool.Shutdown(ctx)
	e.started = false
}

// Evaluate runs one evaluation through the cache and worker pool.
// Concurrent requests with identical cache keys share one computation.
func (e *Engine) Evaluate(ctx context.Context, req model.AnalysisRequest) (Result, error) {
	if !e.started {
		return Result{}, ErrNotStarted
	}

	key := CacheKey(req)
	value, _, err := e.cache.Do(ctx, key, func(ctx context.Context) (any, error) {
		return e.submit(ctx, req)
	})
	if err != nil {
		return Result{}, err
	}

	result, ok := value.(Result)
	if !ok {
		return Result{}, fmt.Errorf("unexpected cached value for key %q", key)
	}
	return result, nil
}

// EvaluateBatch dispatches every request concurrently; the worker pool
// bounds actual parallelism. A single item's failure never cancels its
// siblings: it is captured and reported inline.
func (e *Engine) EvaluateBatch(ctx context.Context, reqs []model.AnalysisRequest) BatchResult {
	n := len(reqs)
	metrics.RecordBatchSize(n)

	items := make([]BatchItem, n)
	done := make(chan int, n)

	for i, req := range reqs {
		go func(i int, req model.AnalysisRequest) {
			result, err := e.Evaluate(ctx, req)
			if err != nil {
				items[i] = BatchItem{EventID: req.EventID, Err: err}
				metrics.RecordBatchItemFailure()
			} else {
				items[i] = BatchItem{EventID: req.EventID, Result: &result}
			}
			done <- i
		}(i, req)
	}
	for range reqs {
		<-done
	}

	successful := 0
	for _, item := range items {
		if item.Err == nil {
			successful++
		}
	}

	e.log.Info(ctx, "batch evaluation complete",
		logger.Int("total", n),
		logger.Int("successful", successful),
		logger.Int("failed", n-successful),
	)

	return BatchResult{Items: items, Total: n, Successful: successful}
}

// submit schedules the pipeline on the worker pool and waits for its
// outcome.
func (e *Engine) submit(ctx context.Context, req model.AnalysisRequest) (any, error) {
	reply := make(chan queue.Outcome, 1)
	task := queue.Task{
		EventID: req.EventID,
		Execute: func(ctx context.Context) (any, error) {
			return e.run(ctx, req)
		},
		Reply: reply,
	}

	if ok := e.queue.Enqueue(ctx, task); !ok {
		return nil, fmt.Errorf("event %s: %w", req.EventID, ErrBackpressure)
	}

	select {
	case outcome := <-reply:
		return outcome.Value, outcome.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run executes the full pipeline for one request: classify, extract
// features, score confidence and assess fraud, then merge.
func (e *Engine) run(ctx context.Context, req model.AnalysisRequest) (Result, error) {
	start := time.Now()

	if strings.TrimSpace(req.Description) == "" {
		metrics.RecordEvaluationError()
		return Result{}, fmt.Errorf("event %s: %w", req.EventID, ErrEmptyDescription)
	}

	classification := classify.Classify(req.Description)
	metrics.RecordClassification(classification.PrimaryCategory)

	feats := e.extractor.Extract(req.Sources, classification, req.Metadata)

	scoreStart := time.Now()
	confidence, err := e.scorer.Score(ctx, feats)
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Milliseconds()))
	if err != nil {
		// No safe numeric default exists for confidence; surface the
		// failure with enough context for retry routing.
		metrics.RecordScoringError()
		metrics.RecordEvaluationError()
		return Result{}, fmt.Errorf("event %s: confidence scoring failed: %w", req.EventID, err)
	}

	proposal := e.proposal(req, feats, confidence.ConfidenceScore)
	assessment := e.detector.Assess(ctx, proposal)

	if e.history != nil {
		e.history.Add(ctx, e.detector.Vector(proposal))
	}

	metrics.RecordEvaluation()
	metrics.RecordEvaluationLatency(float64(time.Since(start).Milliseconds()))

	return Result{
		EventID:        req.EventID,
		Classification: classification,
		Confidence:     confidence,
		FraudDetection: assessment,
		Timestamp:      e.now().UTC(),
	}, nil
}

// proposal assembles the fraud assessor's input: pipeline-computed signals
// where available, metadata-supplied signals otherwise.
func (e *Engine) proposal(req model.AnalysisRequest, feats features.Set, confidenceScore float64) fraud.Proposal {
	diversity := feats.SourceDiversity
	consensus := feats.ConsensusPercentage
	age := feats.TimeSinceEventHours

	return fraud.Proposal{
		ConfidenceScore:    &confidenceScore,
		SourceCount:        len(req.Sources),
		TimeSinceEvent:     &age,
		ProposerReputation: req.MetadataValue("proposer_reputation"),
		SourceDiversity:    &diversity,
		ConsensusLevel:     &consensus,
		TimingAnomaly:      req.MetadataValue("timing_anomaly"),
		PatternSimilarity:  req.MetadataValue("pattern_similarity"),
	}
}

// CacheKey is the deterministic fingerprint of a request: event id, the
// first 50 characters of the description, and the source count.
func CacheKey(req model.AnalysisRequest) string {
	desc := req.Description
	if runes := []rune(desc); len(runes) > cacheKeyDescriptionLen {
		desc = string(runes[:cacheKeyDescriptionLen])
	}
	return req.EventID + "_" + desc + "_" + strconv.Itoa(len(req.Sources))
}

// CacheLen reports the number of live cache entries, for stats.
func (e *Engine) CacheLen() int {
	return e.cache.Len()
}

// QueueLen reports the number of queued tasks, for stats.
func (e *Engine) QueueLen(ctx context.Context) int {
	if e.queue == nil {
		return 0
	}
	return e.queue.Len(ctx)
}

// PoolSize reports the worker pool size, for stats.
func (e *Engine) PoolSize() int {
	if e.pool == nil {
		return 0
	}
	return e.pool.Size()
}
