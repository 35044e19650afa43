package fraud

import "errors"

// Sentinel error kinds for this package.
var (
	ErrEmptyPopulation = errors.New("empty fitting population")
	ErrBadSampleDim    = errors.New("sample dimension mismatch")
)
