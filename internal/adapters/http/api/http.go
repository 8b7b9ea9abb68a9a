// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/studyplan/internal/domain/model"
	"github.com/okian/studyplan/internal/domain/types"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Plan solves one request.
	Plan(ctx context.Context, req model.Request) (model.Result, error)

	// PlanBatch solves many requests and returns results in request order.
	PlanBatch(ctx context.Context, reqs []model.Request) ([]model.Result, error)

	// Defaults is the request used for omitted fields.
	Defaults() model.Request

	// MaxBatchSize caps POST /plans.
	MaxBatchSize() int
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	planHandler   *PlanHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		planHandler:   NewPlanHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/plan", MetricsMiddleware(RequestIDMiddleware(s.planHandler.HandlePostPlan), "plan"))
	mux.HandleFunc("/plans", MetricsMiddleware(RequestIDMiddleware(s.planHandler.HandlePostPlans), "plans"))
	mux.HandleFunc("/plan/defaults", MetricsMiddleware(RequestIDMiddleware(s.planHandler.HandleGetDefaults), "plan_defaults"))
}

type errorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	RequestID string            `json:"request_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	writeFieldErrors(w, r, status, code, err, nil)
}

func writeFieldErrors(w http.ResponseWriter, r *http.Request, status int, code string, err error, fields map[string]string) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{
		Code:      code,
		Message:   msg,
		RequestID: RequestIDFrom(r.Context()),
		Fields:    fields,
	})
}

// decodeJSON reads a single JSON document into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid json: %w", err)
	}
	if dec.More() {
		return errors.New("request body must hold a single json object")
	}
	return nil
}

// Wire shapes re-exported for handler signatures.
type (
	PlanInput  = types.PlanInput
	BatchInput = types.BatchInput
	PlanView   = types.PlanView
	BatchView  = types.BatchView
)
