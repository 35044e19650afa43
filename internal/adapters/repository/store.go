// Package repository defines the observed-population store feeding anomaly
// model refits.
package repository

import "context"

// Store keeps a bounded window of recently observed fraud feature vectors.
type Store interface {
	// Add records one observed sample, evicting the oldest when full.
	Add(ctx context.Context, sample []float64)

	// Samples returns a copy of the current window, oldest first.
	Samples(ctx context.Context) [][]float64

	// Count returns the number of samples currently held.
	Count(ctx context.Context) int
}
