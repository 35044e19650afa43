// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/predictlink/verdict/internal/adapters/repository"
	"github.com/predictlink/verdict/internal/domain/classify"
	"github.com/predictlink/verdict/internal/domain/features"
	"github.com/predictlink/verdict/internal/domain/fraud"
	"github.com/predictlink/verdict/internal/domain/inference"
	"github.com/predictlink/verdict/internal/domain/model"
	"github.com/predictlink/verdict/internal/domain/scoring"
	"github.com/predictlink/verdict/pkg/logger"
	"github.com/predictlink/verdict/pkg/metrics"
)

// refitMinSamples is the smallest observed window worth refitting on.
// Below it the baseline model stays in place.
const refitMinSamples = 64

// Service implements the API dependencies for the event decision system.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine   *inference.Engine
	scorer   scoring.Scorer
	detector *fraud.Detector
	history  repository.Store

	// Configuration
	workerCount   int
	queueSize     int
	cacheTTL      time.Duration
	maxBatchSize  int
	device        string
	xgbModelPath  string
	nnModelPath   string
	contamination float64
	historySize   int
	refitInterval time.Duration

	// State
	started bool
	stopCh  chan struct{}
	refitWG sync.WaitGroup

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the evaluation queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithCacheTTL sets the result cache lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithMaxBatchSize sets the largest accepted batch.
func WithMaxBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxBatchSize = size
		}
	}
}

// WithDevice sets the inference device label.
func WithDevice(device string) Option {
	return func(s *Service) {
		if device != "" {
			s.device = device
		}
	}
}

// WithModelPaths sets the scorer's model artifact paths.
func WithModelPaths(xgb, nn string) Option {
	return func(s *Service) {
		s.xgbModelPath = xgb
		s.nnModelPath = nn
	}
}

// WithContamination sets the expected anomaly fraction for fraud fitting.
func WithContamination(c float64) Option {
	return func(s *Service) {
		if c > 0 && c < 0.5 {
			s.contamination = c
		}
	}
}

// WithHistorySize sets the observed-population window capacity.
func WithHistorySize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.historySize = size
		}
	}
}

// WithRefitInterval sets how often the fraud model refits from the
// observed window. Zero disables periodic refits.
func WithRefitInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval >= 0 {
			s.refitInterval = interval
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   4,
		queueSize:     1024,
		cacheTTL:      5 * time.Minute,
		maxBatchSize:  32,
		device:        "cpu",
		xgbModelPath:  "models/xgboost/confidence_model.json",
		nnModelPath:   "models/neural/confidence_model.pt",
		contamination: 0.1,
		historySize:   2048,
		refitInterval: 5 * time.Minute,
		stopCh:        make(chan struct{}),
		logger:        nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting decision service...")

	// Initialize components
	s.history = repository.NewRingStore(
		repository.WithCapacity(s.historySize),
	)
	s.scorer = scoring.NewEnsembleScorer(
		scoring.WithModelPaths(s.xgbModelPath, s.nnModelPath),
		scoring.WithDevice(s.device),
	)

	s.detector = fraud.New(
		fraud.WithContamination(s.contamination),
	)

	s.engine = inference.New(s.scorer, s.detector,
		inference.WithWorkerCount(s.workerCount),
		inference.WithQueueCapacity(s.queueSize),
		inference.WithCacheTTL(s.cacheTTL),
		inference.WithHistory(s.history),
	)
	s.engine.Start(ctx)

	if s.refitInterval > 0 {
		s.refitWG.Add(1)
		go s.refitLoop()
	}

	s.started = true
	s.logger.Info(ctx, "decision service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.String("cacheTTL", s.cacheTTL.String()),
		logger.String("device", s.device),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping decision service...")

	// Signal refit loop to stop
	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}
	s.refitWG.Wait()

	if s.engine != nil {
		s.engine.Stop(context.Background())
	}

	s.started = false
	s.logger.Info(context.Background(), "decision service stopped")
}

// refitLoop periodically refits the fraud model against the observed
// window so the notion of "normal" tracks live traffic.
func (s *Service) refitLoop() {
	defer s.refitWG.Done()

	ticker := time.NewTicker(s.refitInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refitOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

func (s *Service) refitOnce(ctx context.Context) {
	count := s.history.Count(ctx)
	if count < refitMinSamples {
		s.logger.Debug(ctx, "skipping fraud model refit, window too small",
			logger.Int("samples", count),
			logger.Int("minimum", refitMinSamples),
		)
		return
	}

	if err := s.detector.Refit(ctx, s.history.Samples(ctx)); err != nil {
		s.logger.Warn(ctx, "fraud model refit failed",
			logger.Error(err),
			logger.Int("samples", count),
		)
		return
	}

	s.logger.Info(ctx, "fraud model refit complete",
		logger.Int("samples", count),
	)
}

// Analyze runs the full decision pipeline for one event.
func (s *Service) Analyze(ctx context.Context, req model.AnalysisRequest) (inference.Result, error) {
	return s.engine.Evaluate(ctx, req)
}

// AnalyzeBatch evaluates up to maxBatchSize events concurrently with
// per-item error isolation.
func (s *Service) AnalyzeBatch(ctx context.Context, reqs []model.AnalysisRequest) (inference.BatchResult, error) {
	if len(reqs) == 0 {
		return inference.BatchResult{Items: []inference.BatchItem{}}, nil
	}
	if len(reqs) > s.maxBatchSize {
		return inference.BatchResult{}, fmt.Errorf("%w: got %d, limit %d", ErrBatchTooLarge, len(reqs), s.maxBatchSize)
	}
	return s.engine.EvaluateBatch(ctx, reqs), nil
}

// Classify runs the keyword classifier alone and summarizes the sources
// without scoring them.
func (s *Service) Classify(ctx context.Context, req model.AnalysisRequest) inference.ClassificationReport {
	result := classify.Classify(req.Description)
	metrics.RecordClassification(result.PrimaryCategory)

	return inference.ClassificationReport{
		EventID:         req.EventID,
		Classification:  result,
		SourceCount:     len(req.Sources),
		AvgCredibility:  features.AvgCredibility(req.Sources),
		SourceDiversity: features.SourceDiversity(req.Sources),
	}
}

// Confidence scores a caller-supplied feature vector directly.
func (s *Service) Confidence(ctx context.Context, f features.Set) (scoring.Result, error) {
	return s.scorer.Score(ctx, f)
}

// AssessFraud runs the anomaly assessor on a caller-supplied proposal.
func (s *Service) AssessFraud(ctx context.Context, p fraud.Proposal) fraud.Assessment {
	return s.detector.Assess(ctx, p)
}

// ModelStatus reports scorer readiness and artifact state.
func (s *Service) ModelStatus() scoring.ModelStatus {
	return s.scorer.Status()
}

// MaxBatchSize returns the configured batch limit.
func (s *Service) MaxBatchSize() int {
	return s.maxBatchSize
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"maxBatchSize": s.maxBatchSize,
		"device":       s.device,
	}

	if s.started {
		queueLen := s.engine.QueueLen(ctx)
		cacheLen := s.engine.CacheLen()
		windowLen := s.history.Count(ctx)

		stats["queueLength"] = queueLen
		stats["cacheEntries"] = cacheLen
		stats["populationWindow"] = windowLen

		// Update metrics
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateCacheSize(cacheLen)
		metrics.UpdateWorkerActiveCount(s.engine.PoolSize())
	}

	return stats
}
