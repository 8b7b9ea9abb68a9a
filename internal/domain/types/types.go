// Package types contains the wire shapes shared by the HTTP API and the CLI.
package types

import "github.com/okian/studyplan/internal/domain/model"

// PlanInput is the body of POST /plan. Nil fields take the configured defaults.
type PlanInput struct {
	TotalTime    *float64 `json:"total_time,omitempty" validate:"omitempty,gte=0"`
	MinPhysics   *float64 `json:"min_physics,omitempty" validate:"omitempty,gte=0"`
	MinChemistry *float64 `json:"min_chemistry,omitempty" validate:"omitempty,gte=0"`
	MinBiology   *float64 `json:"min_biology,omitempty" validate:"omitempty,gte=0"`
	MinMath      *float64 `json:"min_math,omitempty" validate:"omitempty,gte=0"`
	MaxPhysics   *float64 `json:"max_physics,omitempty" validate:"omitempty,gte=0"`
	MaxChemistry *float64 `json:"max_chemistry,omitempty" validate:"omitempty,gte=0"`
	MaxBiology   *float64 `json:"max_biology,omitempty" validate:"omitempty,gte=0"`
	MaxMath      *float64 `json:"max_math,omitempty" validate:"omitempty,gte=0"`
}

// BatchInput is the body of POST /plans.
type BatchInput struct {
	Requests []PlanInput `json:"requests" validate:"required,min=1,dive"`
}

// Request fills the gaps in in from defaults.
func (in PlanInput) Request(defaults model.Request) model.Request {
	r := defaults
	pick(&r.TotalTime, in.TotalTime)
	pick(&r.Min[model.Physics], in.MinPhysics)
	pick(&r.Min[model.Chemistry], in.MinChemistry)
	pick(&r.Min[model.Biology], in.MinBiology)
	pick(&r.Min[model.Math], in.MinMath)
	pick(&r.Max[model.Physics], in.MaxPhysics)
	pick(&r.Max[model.Chemistry], in.MaxChemistry)
	pick(&r.Max[model.Biology], in.MaxBiology)
	pick(&r.Max[model.Math], in.MaxMath)
	return r
}

func pick(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// InputFromRequest spells out every field of r.
func InputFromRequest(r model.Request) PlanInput {
	f := func(v float64) *float64 { return &v }
	return PlanInput{
		TotalTime:    f(r.TotalTime),
		MinPhysics:   f(r.Min.Of(model.Physics)),
		MinChemistry: f(r.Min.Of(model.Chemistry)),
		MinBiology:   f(r.Min.Of(model.Biology)),
		MinMath:      f(r.Min.Of(model.Math)),
		MaxPhysics:   f(r.Max.Of(model.Physics)),
		MaxChemistry: f(r.Max.Of(model.Chemistry)),
		MaxBiology:   f(r.Max.Of(model.Biology)),
		MaxMath:      f(r.Max.Of(model.Math)),
	}
}

// PlanView is the JSON rendering of a plan result.
type PlanView struct {
	RequestID     string             `json:"request_id,omitempty"`
	Status        string             `json:"status"`
	SolverStatus  string             `json:"solver_status"`
	Hours         map[string]float64 `json:"hours,omitempty"`
	Effectiveness *float64           `json:"effectiveness,omitempty"`
	Message       string             `json:"message,omitempty"`
}

// NewPlanView renders res. Hours and effectiveness are present only for
// optimal results; the message only for the others.
func NewPlanView(requestID string, res model.Result) PlanView {
	v := PlanView{
		RequestID:    requestID,
		Status:       res.Outcome.String(),
		SolverStatus: res.SolverStatus.String(),
	}
	if res.IsOptimal() {
		eff := res.Effectiveness
		v.Hours = res.Hours.Map()
		v.Effectiveness = &eff
	} else {
		v.Message = res.Message
	}
	return v
}

// Optimal reports whether the view carries an allocation.
func (v PlanView) Optimal() bool {
	return v.Status == model.OutcomeOptimal.String()
}

// BatchView is the response of POST /plans, in request order.
type BatchView struct {
	RequestID string     `json:"request_id,omitempty"`
	Results   []PlanView `json:"results"`
}
