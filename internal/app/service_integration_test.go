package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	service "github.com/okian/studyplan/internal/app"
	"github.com/okian/studyplan/internal/domain/model"
	"github.com/okian/studyplan/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a service with concurrent callers", t, func() {
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithQueueSize(1000),
			service.WithCacheSize(16),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When many goroutines plan and batch at once", func() {
			const goroutines = 16
			var wg sync.WaitGroup
			errs := make(chan error, goroutines*2)
			bad := make(chan model.Result, goroutines*8)

			for g := 0; g < goroutines; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					req := withTotal(float64(6 + g%10))

					res, err := svc.Plan(ctx, req)
					if err != nil {
						errs <- err
						return
					}
					if !consistent(req, res) {
						bad <- res
					}

					batch := []model.Request{req, withTotal(10), withTotal(3)}
					results, err := svc.PlanBatch(ctx, batch)
					if err != nil {
						errs <- err
						return
					}
					for i, r := range results {
						if !consistent(batch[i], r) {
							bad <- r
						}
					}
				}(g)
			}
			wg.Wait()
			close(errs)
			close(bad)

			Convey("Then every call succeeds with a consistent result", func() {
				var failures []error
				for err := range errs {
					failures = append(failures, err)
				}
				So(failures, ShouldBeEmpty)

				var wrong []model.Result
				for r := range bad {
					wrong = append(wrong, r)
				}
				So(wrong, ShouldBeEmpty)
			})

			Convey("And the cache stays within its bound", func() {
				So(svc.GetStats()["cacheEntries"], ShouldBeLessThanOrEqualTo, int64(16))
			})
		})
	})
}

// consistent checks a result against the request's constraints.
func consistent(req model.Request, res model.Result) bool {
	if !res.IsOptimal() {
		// Only the infeasible inputs used here: minimums sum to 6.
		return req.TotalTime < 6 && res.Message == model.InfeasibleMessage
	}
	if res.Hours.Total() > req.TotalTime+eps {
		return false
	}
	for _, s := range model.Subjects() {
		h := res.Hours.Of(s)
		if h < req.Min.Of(s)-eps || h > req.Max.Of(s)+eps {
			return false
		}
	}
	diff := scoring.Effectiveness(res.Hours) - res.Effectiveness
	return diff < eps && diff > -eps
}
