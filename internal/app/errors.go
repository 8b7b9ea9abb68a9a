package service

import "errors"

// Sentinel kinds returned by Service operations.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrBackpressure  = errors.New("backpressure")
	ErrEmptyBatch    = errors.New("empty batch")
	ErrBatchTooLarge = errors.New("batch too large")
	ErrTimeout       = errors.New("plan timed out")
)
