// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/studyplan/internal/adapters/mq/queue"
	workerpool "github.com/okian/studyplan/internal/adapters/mq/worker"
	"github.com/okian/studyplan/internal/adapters/solver/gonumlp"
	"github.com/okian/studyplan/internal/domain/lp"
	"github.com/okian/studyplan/internal/domain/model"
	"github.com/okian/studyplan/internal/domain/optimizer"
	"github.com/okian/studyplan/internal/domain/plancache"
	"github.com/okian/studyplan/pkg/logger"
	"github.com/okian/studyplan/pkg/metrics"
)

// planner runs the optimizer behind the optional cache. Workers and the
// synchronous path share it.
type planner struct {
	optimizer *optimizer.Optimizer
	cache     plancache.Cache

	optimal    atomic.Int64
	infeasible atomic.Int64
}

func (p *planner) Plan(ctx context.Context, req model.Request) model.Result {
	if p.cache != nil {
		if res, ok := p.cache.Get(ctx, req); ok {
			p.count(res)
			return res
		}
	}

	res := p.optimizer.Solve(ctx, req)
	if p.cache != nil {
		p.cache.Put(ctx, req, res)
	}
	p.count(res)
	return res
}

func (p *planner) count(res model.Result) {
	if res.IsOptimal() {
		p.optimal.Add(1)
	} else {
		p.infeasible.Add(1)
	}
}

// Service implements the API dependencies for the study plan optimizer.
type Service struct {
	mu sync.RWMutex

	// Core components
	solver     lp.Solver
	planner    *planner
	jobQueue   *jobqueue.InMemoryQueue
	workerPool *workerpool.Pool

	// Configuration
	workerCount  int
	queueSize    int
	cacheSize    int
	maxBatchSize int
	tolerance    float64
	solveTimeout time.Duration
	defaults     model.Request

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU(),
		queueSize:    10_000,
		cacheSize:    4096,
		maxBatchSize: 256,
		tolerance:    1e-10,
		solveTimeout: 5 * time.Second,
		defaults:     model.DefaultRequest(),
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.solver == nil {
		s.solver = gonumlp.New(gonumlp.WithTolerance(s.tolerance))
	}
	s.planner = &planner{
		optimizer: optimizer.New(s.solver, optimizer.WithLogger(s.logger.Named("optimizer"))),
	}
	if s.cacheSize > 0 {
		s.planner.cache = plancache.NewInMemoryCache(plancache.WithMaxSize(s.cacheSize))
	}

	return s
}

// Start initializes and starts the batch components. Workers outlive ctx
// cancellation and run until Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting study plan service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.jobQueue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s.planner,
		workerpool.WithPoolLogger(s.logger.Named("worker-pool")),
	)
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "study plan service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("cacheSize", s.cacheSize),
		logger.Int("maxBatchSize", s.maxBatchSize),
	)
	return nil
}

// Stop gracefully shuts down the service, draining queued jobs.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping study plan service...")

	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "study plan service stopped")
}

// Defaults returns the request used for fields a client leaves out.
func (s *Service) Defaults() model.Request {
	return s.defaults
}

// MaxBatchSize returns the largest batch PlanBatch accepts.
func (s *Service) MaxBatchSize() int {
	return s.maxBatchSize
}

// Plan solves a single request synchronously.
func (s *Service) Plan(ctx context.Context, req model.Request) (model.Result, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	if !started {
		return model.Result{}, ErrNotStarted
	}
	return s.planner.Plan(ctx, req), nil
}

// PlanBatch solves reqs concurrently on the worker pool and returns the
// results in request order.
func (s *Service) PlanBatch(ctx context.Context, reqs []model.Request) ([]model.Result, error) {
	switch {
	case len(reqs) == 0:
		return nil, ErrEmptyBatch
	case len(reqs) > s.maxBatchSize:
		return nil, fmt.Errorf("%w: %d requests, limit %d", ErrBatchTooLarge, len(reqs), s.maxBatchSize)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}

	metrics.RecordBatch(len(reqs))

	batchID := uuid.NewString()
	reply := make(chan model.JobResult, len(reqs))
	for i, req := range reqs {
		job := model.Job{
			ID:      fmt.Sprintf("%s-%d", batchID, i),
			Index:   i,
			Request: req,
			Reply:   reply,
		}
		if err := s.jobQueue.Enqueue(ctx, job); err != nil {
			s.logger.Warn(ctx, "batch rejected",
				logger.String("batchID", batchID),
				logger.Int("enqueued", i),
				logger.Error(err),
			)
			return nil, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.solveTimeout)
	defer cancel()

	results := make([]model.Result, len(reqs))
	for range reqs {
		select {
		case r := <-reply:
			results[r.Index] = r.Result
		case <-waitCtx.Done():
			metrics.RecordErrorByComponent("service", "batch_timeout")
			return nil, fmt.Errorf("%w: batch %s: %w", ErrTimeout, batchID, waitCtx.Err())
		}
	}
	return results, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"cacheSize":    s.cacheSize,
		"maxBatchSize": s.maxBatchSize,
		"optimal":      s.planner.optimal.Load(),
		"infeasible":   s.planner.infeasible.Load(),
	}

	if s.planner.cache != nil {
		stats["cacheEntries"] = s.planner.cache.Size()
	}

	if s.started {
		stats["queueLength"] = s.jobQueue.Len(context.Background())
		stats["processed"] = s.workerPool.Processed()
		metrics.UpdateWorkerCount(s.workerPool.Size())
	}

	return stats
}
