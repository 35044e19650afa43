package scoring

import "errors"

// Sentinel error kinds for this package.
var (
	ErrNotReady = errors.New("scorer not initialized")
)
