package inference

import "errors"

// Sentinel error kinds for this package.
var (
	ErrNotStarted       = errors.New("engine not started")
	ErrEmptyDescription = errors.New("missing description")
	ErrBackpressure     = errors.New("evaluation queue full")
)
