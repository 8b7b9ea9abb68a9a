package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/okian/studyplan/internal/adapters/http/api"
	service "github.com/okian/studyplan/internal/app"
	"github.com/okian/studyplan/internal/domain/lp"
	"github.com/okian/studyplan/internal/domain/model"
	"github.com/okian/studyplan/internal/domain/scoring"
	"github.com/okian/studyplan/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies answers with Physics set to the total time, or an
// infeasible result when the total is below the sum of minimums.
type mockDependencies struct {
	last     []model.Request
	planErr  error
	batchErr error
	maxBatch int
}

func (m *mockDependencies) answer(req model.Request) model.Result {
	if req.TotalTime < req.Min.Total() {
		return model.Infeasible(lp.StatusInfeasible)
	}
	h := model.Hours{req.TotalTime, 0, 0, 0}
	return model.Optimal(h, scoring.Effectiveness(h))
}

func (m *mockDependencies) Plan(_ context.Context, req model.Request) (model.Result, error) {
	m.last = []model.Request{req}
	if m.planErr != nil {
		return model.Result{}, m.planErr
	}
	return m.answer(req), nil
}

func (m *mockDependencies) PlanBatch(_ context.Context, reqs []model.Request) ([]model.Result, error) {
	m.last = reqs
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([]model.Result, len(reqs))
	for i, r := range reqs {
		out[i] = m.answer(r)
	}
	return out, nil
}

func (m *mockDependencies) Defaults() model.Request { return model.DefaultRequest() }

func (m *mockDependencies) MaxBatchSize() int {
	if m.maxBatch == 0 {
		return 4
	}
	return m.maxBatch
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDependencies) *http.ServeMux {
	mux := http.NewServeMux()
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}})
	server.Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	RequestID string            `json:"request_id"`
	Fields    map[string]string `json:"fields"`
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("Then the health endpoint serves metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And the stats endpoint serves JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, true)
		})

		Convey("And the defaults endpoint lists every field", func() {
			w := do(mux, http.MethodGet, "/plan/defaults", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var in types.PlanInput
			So(json.Unmarshal(w.Body.Bytes(), &in), ShouldBeNil)
			So(in.Request(model.Request{}), ShouldResemble, model.DefaultRequest())
		})

		Convey("And wrong methods are rejected", func() {
			So(do(mux, http.MethodGet, "/plan", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(do(mux, http.MethodGet, "/plans", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(do(mux, http.MethodPost, "/plan/defaults", "{}").Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(do(mux, http.MethodPost, "/stats", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestPlanHandler_Post(t *testing.T) {
	Convey("Given a plan endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When the body is empty JSON", func() {
			w := do(mux, http.MethodPost, "/plan", "{}")

			Convey("Then the defaults are solved", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.last[0], ShouldResemble, model.DefaultRequest())

				var v types.PlanView
				So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
				So(v.Status, ShouldEqual, "Optimal")
				So(v.SolverStatus, ShouldEqual, "Optimal")
				So(v.Hours["Physics"], ShouldEqual, 10)
				So(*v.Effectiveness, ShouldEqual, 20)
			})

			Convey("And a request id is issued and echoed", func() {
				id := w.Header().Get(api.RequestIDHeader)
				_, err := uuid.Parse(id)
				So(err, ShouldBeNil)

				var v types.PlanView
				So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
				So(v.RequestID, ShouldEqual, id)
			})
		})

		Convey("When the client supplies its own request id", func() {
			id := uuid.NewString()
			req := httptest.NewRequest(http.MethodPost, "/plan", strings.NewReader("{}"))
			req.Header.Set(api.RequestIDHeader, id)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, id)
		})

		Convey("When some fields are given", func() {
			w := do(mux, http.MethodPost, "/plan", `{"total_time": 12, "min_math": 0}`)

			Convey("Then they override the defaults", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.last[0].TotalTime, ShouldEqual, 12)
				So(deps.last[0].Min.Of(model.Math), ShouldEqual, 0)
				So(deps.last[0].Max.Of(model.Math), ShouldEqual, 4)
			})
		})

		Convey("When the constraints cannot be met", func() {
			w := do(mux, http.MethodPost, "/plan", `{"total_time": 3}`)

			Convey("Then the infeasible result is still a 200", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var v types.PlanView
				So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
				So(v.Status, ShouldEqual, "Infeasible")
				So(v.Message, ShouldEqual, model.InfeasibleMessage)
				So(v.Hours, ShouldBeNil)
				So(v.Effectiveness, ShouldBeNil)
			})
		})

		Convey("When a field is negative", func() {
			w := do(mux, http.MethodPost, "/plan", `{"total_time": -1, "max_math": -2}`)

			Convey("Then the failures are reported per field", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body errorBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Code, ShouldEqual, "validation_failed")
				So(body.Fields["total_time"], ShouldEqual, "total_time must be 0 or greater")
				So(body.Fields, ShouldContainKey, "max_math")
				So(body.RequestID, ShouldNotBeEmpty)
				So(deps.last, ShouldBeNil)
			})
		})

		Convey("When the JSON is malformed", func() {
			w := do(mux, http.MethodPost, "/plan", `{"total_time": `)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body has an unknown field", func() {
			w := do(mux, http.MethodPost, "/plan", `{"total_hours": 5}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body is missing", func() {
			w := do(mux, http.MethodPost, "/plan", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("Given a service that fails", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{service.ErrNotStarted, http.StatusServiceUnavailable, "unavailable"},
			{fmt.Errorf("%w: slow", service.ErrTimeout), http.StatusGatewayTimeout, "timeout"},
			{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		}
		for _, tc := range cases {
			Convey("When it returns "+tc.err.Error(), func() {
				mux := newMux(&mockDependencies{planErr: tc.err})
				w := do(mux, http.MethodPost, "/plan", "{}")

				So(w.Code, ShouldEqual, tc.status)
				var body errorBody
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Code, ShouldEqual, tc.code)
			})
		}
	})
}

func TestPlanHandler_Batch(t *testing.T) {
	Convey("Given a batch endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When a valid batch is posted", func() {
			w := do(mux, http.MethodPost, "/plans",
				`{"requests": [{"total_time": 6}, {"total_time": 2}, {}]}`)

			Convey("Then results come back in order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var v types.BatchView
				So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
				So(v.RequestID, ShouldEqual, w.Header().Get(api.RequestIDHeader))
				So(v.Results, ShouldHaveLength, 3)
				So(v.Results[0].Hours["Physics"], ShouldEqual, 6)
				So(v.Results[1].Status, ShouldEqual, "Infeasible")
				So(v.Results[2].Hours["Physics"], ShouldEqual, 10)
				So(deps.last[2], ShouldResemble, model.DefaultRequest())
			})
		})

		Convey("When the batch is empty", func() {
			w := do(mux, http.MethodPost, "/plans", `{"requests": []}`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
			var body errorBody
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body.Fields, ShouldContainKey, "requests")
		})

		Convey("When the batch is over the limit", func() {
			w := do(mux, http.MethodPost, "/plans",
				`{"requests": [{}, {}, {}, {}, {}]}`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
			var body errorBody
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body.Code, ShouldEqual, "batch_too_large")
			So(deps.last, ShouldBeNil)
		})

		Convey("When one entry is invalid", func() {
			w := do(mux, http.MethodPost, "/plans",
				`{"requests": [{}, {"min_physics": -1}]}`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
			var body errorBody
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body.Fields, ShouldContainKey, "requests[1].min_physics")
		})

		Convey("When the queue is saturated", func() {
			deps.batchErr = fmt.Errorf("%w: queue full", service.ErrBackpressure)
			w := do(mux, http.MethodPost, "/plans", `{"requests": [{}]}`)

			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given API errors", t, func() {
		cause := errors.New("eof")

		Convey("Then kinds and causes are both reachable", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: eof")
		})

		Convey("And a bare kind reads cleanly", func() {
			err := api.NewKind("api.op", api.ErrBackpressure)
			So(errors.Is(err, api.ErrBackpressure), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: backpressure")
		})

		Convey("And Wrap classifies as internal", func() {
			err := api.Wrap("api.op", cause)
			So(errors.Is(err, api.ErrInternal), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
		})
	})
}
