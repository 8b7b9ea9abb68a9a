package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/okian/studyplan/internal/app"
	"github.com/okian/studyplan/internal/adapters/solver/gonumlp"
	"github.com/okian/studyplan/internal/domain/lp"
	"github.com/okian/studyplan/internal/domain/model"
	"github.com/okian/studyplan/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const eps = 1e-6

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// blockingSolver waits for release before delegating to the simplex solver.
type blockingSolver struct {
	release chan struct{}
}

func (b *blockingSolver) Solve(ctx context.Context, p *lp.Problem) (lp.Solution, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
		return lp.Solution{Status: lp.StatusNotSolved}, ctx.Err()
	}
	return gonumlp.New().Solve(ctx, p)
}

func withTotal(total float64) model.Request {
	r := model.DefaultRequest()
	r.TotalTime = total
	return r
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Defaults(), ShouldResemble, model.DefaultRequest())
			So(svc.MaxBatchSize(), ShouldEqual, 256)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		defaults := model.NewRequest(8, 0, 0, 0, 0, 2, 2, 2, 2)
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(500),
			service.WithCacheSize(0),
			service.WithMaxBatchSize(4),
			service.WithSolverTolerance(1e-9),
			service.WithSolveTimeout(time.Second),
			service.WithDefaults(defaults),
			service.WithLogger(logger.Get()),
		)

		Convey("Then the options are applied", func() {
			So(svc.Defaults(), ShouldResemble, defaults)
			So(svc.MaxBatchSize(), ShouldEqual, 4)
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 500)
			So(stats["cacheSize"], ShouldEqual, 0)
			_, cached := stats["cacheEntries"]
			So(cached, ShouldBeFalse)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When planning before start", func() {
			_, err := svc.Plan(ctx, model.DefaultRequest())
			_, batchErr := svc.PlanBatch(ctx, []model.Request{model.DefaultRequest()})

			Convey("Then it reports the service is not started", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(batchErr, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When starting the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["queueLength"], ShouldEqual, 0)
			})

			Convey("And starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When stopping a started service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				_, err := svc.Plan(ctx, model.DefaultRequest())
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})

			Convey("And it can be started again", func() {
				So(svc.Start(ctx), ShouldBeNil)
				defer svc.Stop()
				res, err := svc.Plan(ctx, model.DefaultRequest())
				So(err, ShouldBeNil)
				So(res.IsOptimal(), ShouldBeTrue)
			})
		})

		Convey("When the start context is cancelled", func() {
			startCtx, stop := context.WithCancel(ctx)
			So(svc.Start(startCtx), ShouldBeNil)
			defer svc.Stop()
			stop()

			Convey("Then the workers keep serving batches", func() {
				res, err := svc.PlanBatch(ctx, []model.Request{model.DefaultRequest()})
				So(err, ShouldBeNil)
				So(res[0].Effectiveness, ShouldAlmostEqual, 32, eps)
			})
		})
	})
}

func TestService_Plan(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When planning the default request", func() {
			res, err := svc.Plan(ctx, model.DefaultRequest())

			Convey("Then the optimal allocation is returned", func() {
				So(err, ShouldBeNil)
				So(res.IsOptimal(), ShouldBeTrue)
				So(res.Effectiveness, ShouldAlmostEqual, 32, eps)
				So(res.Hours.Of(model.Math), ShouldAlmostEqual, 4, eps)
				So(res.Hours.Of(model.Chemistry), ShouldAlmostEqual, 4, eps)
				So(res.Hours.Total(), ShouldAlmostEqual, 10, eps)
			})

			Convey("And the same request is served from the cache", func() {
				again, err := svc.Plan(ctx, model.DefaultRequest())
				So(err, ShouldBeNil)
				So(again, ShouldResemble, res)
				So(svc.GetStats()["cacheEntries"], ShouldEqual, int64(1))
				So(svc.GetStats()["optimal"], ShouldEqual, int64(2))
			})
		})

		Convey("When the minimums exceed the available time", func() {
			res, err := svc.Plan(ctx, withTotal(5))

			Convey("Then the result is infeasible, not an error", func() {
				So(err, ShouldBeNil)
				So(res.IsOptimal(), ShouldBeFalse)
				So(res.Message, ShouldEqual, model.InfeasibleMessage)
				So(res.SolverStatus, ShouldEqual, lp.StatusInfeasible)
				So(svc.GetStats()["infeasible"], ShouldEqual, int64(1))
			})
		})
	})
}

func TestService_PlanBatch(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithMaxBatchSize(8),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a mixed batch is submitted", func() {
			reqs := []model.Request{withTotal(10), withTotal(5), withTotal(20), withTotal(10)}
			res, err := svc.PlanBatch(ctx, reqs)

			Convey("Then results come back in request order", func() {
				So(err, ShouldBeNil)
				So(res, ShouldHaveLength, 4)
				So(res[0].Effectiveness, ShouldAlmostEqual, 32, eps)
				So(res[1].IsOptimal(), ShouldBeFalse)
				So(res[2].Effectiveness, ShouldAlmostEqual, 42, eps)
				So(res[3].Effectiveness, ShouldAlmostEqual, 32, eps)
				So(svc.GetStats()["processed"], ShouldEqual, int64(4))
			})
		})

		Convey("When the batch is empty", func() {
			_, err := svc.PlanBatch(ctx, nil)
			So(errors.Is(err, service.ErrEmptyBatch), ShouldBeTrue)
		})

		Convey("When the batch is over the limit", func() {
			_, err := svc.PlanBatch(ctx, make([]model.Request, 9))
			So(errors.Is(err, service.ErrBatchTooLarge), ShouldBeTrue)
		})
	})
}

func TestService_PlanBatchLimits(t *testing.T) {
	Convey("Given a service whose solver is stalled", t, func() {
		solver := &blockingSolver{release: make(chan struct{})}
		ctx := context.Background()

		Convey("When a batch overflows the queue", func() {
			svc := service.New(
				service.WithSolver(solver),
				service.WithWorkerCount(1),
				service.WithQueueSize(1),
				service.WithCacheSize(0),
			)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()
			defer close(solver.release)

			reqs := []model.Request{withTotal(1), withTotal(2), withTotal(3), withTotal(4), withTotal(5)}
			_, err := svc.PlanBatch(ctx, reqs)

			Convey("Then it is rejected with backpressure", func() {
				So(errors.Is(err, service.ErrBackpressure), ShouldBeTrue)
			})
		})

		Convey("When a batch outlives the solve timeout", func() {
			svc := service.New(
				service.WithSolver(solver),
				service.WithWorkerCount(1),
				service.WithSolveTimeout(50*time.Millisecond),
			)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()
			defer close(solver.release)

			_, err := svc.PlanBatch(ctx, []model.Request{model.DefaultRequest()})

			Convey("Then it fails with a timeout", func() {
				So(errors.Is(err, service.ErrTimeout), ShouldBeTrue)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})
}
