package api

import (
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/studyplan/internal/app"
	"github.com/okian/studyplan/internal/domain/model"
	"github.com/okian/studyplan/internal/domain/types"
)

// PlanHandler serves the plan endpoints.
type PlanHandler struct {
	deps Dependencies
}

// NewPlanHandler creates a new plan handler.
func NewPlanHandler(deps Dependencies) *PlanHandler {
	return &PlanHandler{deps: deps}
}

// HandlePostPlan handles POST /plan requests.
func (h *PlanHandler) HandlePostPlan(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_plan"
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
		return
	}

	var in PlanInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if fields := validateStruct(in); fields != nil {
		writeFieldErrors(w, r, http.StatusBadRequest, "validation_failed", NewKind(op, ErrBadRequest), fields)
		return
	}

	res, err := h.deps.Plan(r.Context(), in.Request(h.deps.Defaults()))
	if err != nil {
		h.writeServiceError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewPlanView(RequestIDFrom(r.Context()), res))
}

// HandlePostPlans handles POST /plans requests.
func (h *PlanHandler) HandlePostPlans(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_plans"
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
		return
	}

	var in BatchInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if fields := validateStruct(in); fields != nil {
		writeFieldErrors(w, r, http.StatusBadRequest, "validation_failed", NewKind(op, ErrBadRequest), fields)
		return
	}
	if limit := h.deps.MaxBatchSize(); len(in.Requests) > limit {
		err := fmt.Errorf("batch holds %d requests, limit is %d", len(in.Requests), limit)
		writeError(w, r, http.StatusBadRequest, "batch_too_large", WrapKind(op, ErrBadRequest, err))
		return
	}

	defaults := h.deps.Defaults()
	reqs := make([]model.Request, len(in.Requests))
	for i, pi := range in.Requests {
		reqs[i] = pi.Request(defaults)
	}

	results, err := h.deps.PlanBatch(r.Context(), reqs)
	if err != nil {
		h.writeServiceError(w, r, op, err)
		return
	}

	out := BatchView{
		RequestID: RequestIDFrom(r.Context()),
		Results:   make([]PlanView, len(results)),
	}
	for i, res := range results {
		out.Results[i] = types.NewPlanView("", res)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetDefaults handles GET /plan/defaults requests.
func (h *PlanHandler) HandleGetDefaults(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_defaults"
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
		return
	}
	writeJSON(w, http.StatusOK, types.InputFromRequest(h.deps.Defaults()))
}

// writeServiceError maps service failures onto HTTP statuses.
func (h *PlanHandler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, r, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrEmptyBatch), errors.Is(err, service.ErrBatchTooLarge):
		writeError(w, r, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, r, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	case errors.Is(err, service.ErrTimeout):
		writeError(w, r, http.StatusGatewayTimeout, "timeout", WrapKind(op, ErrTimeout, err))
	default:
		writeError(w, r, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
