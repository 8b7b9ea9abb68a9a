package service

import (
	"time"

	"github.com/okian/studyplan/internal/domain/lp"
	"github.com/okian/studyplan/internal/domain/model"
	"github.com/okian/studyplan/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of plan workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending batch jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithCacheSize sets the plan cache size. Zero disables the cache.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.cacheSize = size
		}
	}
}

// WithMaxBatchSize caps the number of requests accepted by PlanBatch.
func WithMaxBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxBatchSize = size
		}
	}
}

// WithSolverTolerance sets the tolerance of the default simplex solver.
func WithSolverTolerance(tol float64) Option {
	return func(s *Service) {
		if tol > 0 {
			s.tolerance = tol
		}
	}
}

// WithSolver replaces the default simplex solver.
func WithSolver(solver lp.Solver) Option {
	return func(s *Service) {
		if solver != nil {
			s.solver = solver
		}
	}
}

// WithSolveTimeout bounds how long PlanBatch waits for its results.
func WithSolveTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.solveTimeout = d
		}
	}
}

// WithDefaults sets the request used for fields a client leaves out.
func WithDefaults(req model.Request) Option {
	return func(s *Service) {
		s.defaults = req
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
