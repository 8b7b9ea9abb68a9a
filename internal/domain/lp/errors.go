package lp

import "errors"

// Sentinel kinds for problem and backend errors.
var (
	ErrMalformedProblem = errors.New("malformed linear program")
	ErrSolverFailed     = errors.New("lp solver failed")
)
