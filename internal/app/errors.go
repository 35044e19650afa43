package service

import "errors"

// Sentinel error kinds for this package.
var (
	ErrBatchTooLarge = errors.New("batch size exceeds limit")
)
