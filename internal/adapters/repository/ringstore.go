package repository

import (
	"context"
	"sync"

	"github.com/predictlink/verdict/pkg/metrics"
)

// Default window configuration constants.
const (
	defaultCapacity = 2048
)

// RingStore implements Store as a fixed-capacity ring buffer. Old samples
// age out as new ones arrive, keeping the window representative of recent
// traffic.
type RingStore struct {
	mu       sync.RWMutex
	buf      [][]float64
	next     int
	count    int
	capacity int
}

// Option applies a configuration option to the RingStore.
type Option func(*RingStore)

// WithCapacity sets the window capacity.
func WithCapacity(n int) Option {
	return func(s *RingStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// NewRingStore creates a ring store with configuration options.
func NewRingStore(opts ...Option) *RingStore {
	s := &RingStore{
		capacity: defaultCapacity,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.buf = make([][]float64, s.capacity)

	return s
}

// Add records one observed sample, evicting the oldest when full. The
// sample is copied so callers may reuse their slice.
func (s *RingStore) Add(ctx context.Context, sample []float64) {
	cp := make([]float64, len(sample))
	copy(cp, sample)

	s.mu.Lock()
	s.buf[s.next] = cp
	s.next = (s.next + 1) % s.capacity
	if s.count < s.capacity {
		s.count++
	}
	n := s.count
	s.mu.Unlock()

	metrics.UpdatePopulationSize(n)
}

// Samples returns a copy of the current window, oldest first.
func (s *RingStore) Samples(ctx context.Context) [][]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([][]float64, 0, s.count)
	start := s.next - s.count
	if start < 0 {
		start += s.capacity
	}
	for i := 0; i < s.count; i++ {
		out = append(out, s.buf[(start+i)%s.capacity])
	}
	return out
}

// Count returns the number of samples currently held.
func (s *RingStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}
