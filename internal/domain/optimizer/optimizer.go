// Package optimizer turns a study plan request into a linear program, hands it
// to an lp.Solver and reads the answer back.
//
// Variables are the hours per subject, bounded below by zero only. The
// per-subject minimum and maximum are kept as explicit named rows so the
// solver reports them as constraints rather than variable bounds.
package optimizer

import (
	"context"
	"math"
	"time"

	"github.com/okian/studyplan/internal/domain/lp"
	"github.com/okian/studyplan/internal/domain/model"
	"github.com/okian/studyplan/internal/domain/scoring"
	"github.com/okian/studyplan/pkg/logger"
	"github.com/okian/studyplan/pkg/metrics"
)

// Names carried by the formulated problem.
const (
	ProblemName         = "Study_Plan_Optimization_Single_Student"
	ObjectiveName       = "Maximize Study Effectiveness"
	TotalTimeConstraint = "Total Available Time"
)

// MinConstraint names the floor row of s.
func MinConstraint(s model.Subject) string {
	return "Minimum " + s.String() + " Study Hours"
}

// MaxConstraint names the ceiling row of s.
func MaxConstraint(s model.Subject) string {
	return "Maximum " + s.String() + " Study Hours"
}

// Optimizer solves study plan requests. It keeps no per-request state and is
// safe for concurrent use as long as its Solver is.
type Optimizer struct {
	solver lp.Solver
	logger logger.Logger
}

// New creates an optimizer on top of solver.
func New(solver lp.Solver, opts ...Option) *Optimizer {
	o := &Optimizer{
		solver: solver,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Formulate builds the linear program for req: four variables, one
// total-time row, then a minimum and a maximum row per subject.
func Formulate(req model.Request) *lp.Problem {
	p := lp.NewProblem(ProblemName, lp.Maximize)
	subjects := model.Subjects()
	weights := make([]float64, len(subjects))
	for i, s := range subjects {
		p.AddVariable(s.String(), 0, math.Inf(1))
		weights[i] = scoring.Weight(s)
	}
	p.SetObjective(ObjectiveName, weights)

	all := make([]float64, len(subjects))
	for i := range all {
		all[i] = 1
	}
	p.AddConstraint(TotalTimeConstraint, all, lp.LessEqual, req.TotalTime)

	for _, s := range subjects {
		p.AddConstraint(MinConstraint(s), unit(len(subjects), int(s)), lp.GreaterEqual, req.Min.Of(s))
	}
	for _, s := range subjects {
		p.AddConstraint(MaxConstraint(s), unit(len(subjects), int(s)), lp.LessEqual, req.Max.Of(s))
	}
	return p
}

// Interpret maps a solver answer onto the two user-facing outcomes. Every
// non-optimal status collapses to the infeasible message.
func Interpret(sol lp.Solution) model.Result {
	if !sol.IsOptimal() || len(sol.Values) != len(model.Subjects()) {
		status := sol.Status
		if status == lp.StatusOptimal {
			status = lp.StatusUndefined
		}
		return model.Infeasible(status)
	}
	var hours model.Hours
	for _, s := range model.Subjects() {
		hours[s] = sol.Value(int(s))
	}
	return model.Optimal(hours, sol.Objective)
}

// Solve formulates, solves and interprets req. It never fails: solver errors
// are logged and reported as an infeasible result.
func (o *Optimizer) Solve(ctx context.Context, req model.Request) model.Result {
	start := time.Now()
	sol, err := o.solver.Solve(ctx, Formulate(req))
	latencyMs := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		metrics.RecordErrorByComponent("optimizer", "solver_error")
		o.logger.Error(ctx, "solver failed",
			logger.String("status", sol.Status.String()),
			logger.Error(err),
		)
	}

	res := Interpret(sol)
	metrics.RecordPlanSolved(res.SolverStatus.String())
	metrics.RecordSolveLatency(latencyMs)

	o.logger.Debug(ctx, "plan solved",
		logger.String("outcome", res.Outcome.String()),
		logger.String("solver_status", res.SolverStatus.String()),
		logger.Float64("effectiveness", res.Effectiveness),
		logger.Float64("latency_ms", latencyMs),
	)
	return res
}

func unit(n, i int) []float64 {
	v := make([]float64, n)
	v[i] = 1
	return v
}
