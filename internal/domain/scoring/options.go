package scoring

import "time"

// Option applies a configuration option to the EnsembleScorer.
type Option func(*EnsembleScorer)

// WithModelPaths sets the model artifact locations. Empty paths leave the
// corresponding sub-model unloaded.
func WithModelPaths(xgbPath, nnPath string) Option {
	return func(s *EnsembleScorer) {
		s.xgbPath = xgbPath
		s.nnPath = nnPath
	}
}

// WithDevice selects the scoring backend device.
func WithDevice(device string) Option {
	return func(s *EnsembleScorer) {
		if device != "" {
			s.device = device
		}
	}
}

// WithLatencyRange sets the simulated inference latency range.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *EnsembleScorer) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}
