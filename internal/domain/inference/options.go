package inference

import (
	"time"

	"github.com/predictlink/verdict/internal/adapters/repository"
	"github.com/predictlink/verdict/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithCacheTTL sets the result cache lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl >= 0 {
			e.cacheTTL = ttl
		}
	}
}

// WithWorkerCount sets the evaluation pool size.
func WithWorkerCount(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workerCount = n
		}
	}
}

// WithQueueCapacity sets the task queue capacity.
func WithQueueCapacity(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.queueSize = n
		}
	}
}

// WithHistory sets the population window recording observed proposals.
func WithHistory(store repository.Store) Option {
	return func(e *Engine) {
		e.history = store
	}
}

// WithClock sets the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}
