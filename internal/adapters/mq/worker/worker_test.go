package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	worker "github.com/okian/studyplan/internal/adapters/mq/worker"
	"github.com/okian/studyplan/internal/domain/lp"
	model "github.com/okian/studyplan/internal/domain/model"
	"github.com/okian/studyplan/internal/domain/scoring"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	jobs chan model.Job
	once sync.Once
}

func newMockQueue(size int) *mockQueue {
	return &mockQueue{jobs: make(chan model.Job, size)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan model.Job {
	return mq.jobs
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

// mockPlanner echoes each request's total time into Physics.
type mockPlanner struct {
	mu    sync.Mutex
	calls int
	delay time.Duration
}

func (mp *mockPlanner) Plan(ctx context.Context, req model.Request) model.Result {
	mp.mu.Lock()
	mp.calls++
	mp.mu.Unlock()

	if mp.delay > 0 {
		select {
		case <-time.After(mp.delay):
		case <-ctx.Done():
		}
	}
	if req.TotalTime < 0 {
		return model.Infeasible(lp.StatusInfeasible)
	}
	h := model.Hours{req.TotalTime, 0, 0, 0}
	return model.Optimal(h, scoring.Effectiveness(h))
}

func (mp *mockPlanner) callCount() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.calls
}

func jobWithTotal(id string, index int, total float64, reply chan<- model.JobResult) model.Job {
	req := model.DefaultRequest()
	req.TotalTime = total
	return model.Job{ID: id, Index: index, Request: req, Reply: reply}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		q := newMockQueue(10)
		planner := &mockPlanner{}
		w := worker.NewInMemoryWorker(q, planner, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		reply := make(chan model.JobResult, 2)
		q.jobs <- jobWithTotal("a", 0, 3, reply)
		q.jobs <- jobWithTotal("b", 1, -1, reply)
		_ = q.Close()

		w.Run(ctx)

		convey.Convey("Then every job gets a reply tagged with its id and index", func() {
			got := map[string]model.JobResult{}
			for i := 0; i < 2; i++ {
				r := <-reply
				got[r.ID] = r
			}
			convey.So(got["a"].Index, convey.ShouldEqual, 0)
			convey.So(got["a"].Result.IsOptimal(), convey.ShouldBeTrue)
			convey.So(got["a"].Result.Hours.Of(model.Physics), convey.ShouldEqual, 3)
			convey.So(got["a"].Result.Effectiveness, convey.ShouldEqual, 6)
			convey.So(got["b"].Index, convey.ShouldEqual, 1)
			convey.So(got["b"].Result.IsOptimal(), convey.ShouldBeFalse)
			convey.So(got["b"].Result.Message, convey.ShouldEqual, model.InfeasibleMessage)
		})
	})

	convey.Convey("Given a job whose reply channel is full", t, func() {
		q := newMockQueue(2)
		planner := &mockPlanner{}
		w := worker.NewInMemoryWorker(q, planner)

		reply := make(chan model.JobResult) // unbuffered, nobody reading
		q.jobs <- jobWithTotal("dropped", 0, 1, reply)
		q.jobs <- jobWithTotal("silent", 1, 1, nil)
		_ = q.Close()

		done := make(chan struct{})
		go func() {
			w.Run(context.Background())
			close(done)
		}()

		convey.Convey("Then the worker does not block", func() {
			blocked := false
			select {
			case <-done:
			case <-time.After(time.Second):
				blocked = true
			}
			convey.So(blocked, convey.ShouldBeFalse)
			convey.So(planner.callCount(), convey.ShouldEqual, 2)
		})
	})

	convey.Convey("Given a running worker", t, func() {
		q := newMockQueue(1)
		w := worker.NewInMemoryWorker(q, &mockPlanner{})
		go w.Run(context.Background())

		convey.Convey("When it is shut down", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		q := newMockQueue(100)
		planner := &mockPlanner{}
		p := worker.NewPool(4, q, planner)
		convey.So(p.Size(), convey.ShouldEqual, 4)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p.Start(ctx)

		convey.Convey("When a batch is submitted", func() {
			const n = 50
			reply := make(chan model.JobResult, n)
			for i := 0; i < n; i++ {
				q.jobs <- jobWithTotal("job", i, float64(i), reply)
			}

			results := make([]model.Result, n)
			for i := 0; i < n; i++ {
				select {
				case r := <-reply:
					results[r.Index] = r.Result
				case <-time.After(2 * time.Second):
					t.Fatal("timed out waiting for results")
				}
			}

			convey.Convey("Then each result lands at its own index", func() {
				for i := 0; i < n; i++ {
					convey.So(results[i].Hours.Of(model.Physics), convey.ShouldEqual, float64(i))
				}
				convey.So(p.Processed(), convey.ShouldEqual, n)
			})

			convey.Convey("And shutdown drains cleanly", func() {
				convey.So(p.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a pool with a non-positive worker count", t, func() {
		p := worker.NewPool(0, newMockQueue(1), &mockPlanner{})

		convey.So(p.Size(), convey.ShouldBeGreaterThan, 0)
	})

	convey.Convey("Given a pool stuck on a slow job", t, func() {
		q := newMockQueue(1)
		planner := &mockPlanner{delay: time.Minute}
		p := worker.NewPool(1, q, planner)

		runCtx, stop := context.WithCancel(context.Background())
		defer stop()
		p.Start(runCtx)
		q.jobs <- jobWithTotal("slow", 0, 1, nil)

		// Let the worker pick the job up.
		for planner.callCount() == 0 {
			time.Sleep(time.Millisecond)
		}

		convey.Convey("When shutdown runs out of time", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			err := p.Shutdown(ctx)

			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
