package model

import "github.com/okian/studyplan/internal/domain/lp"

// InfeasibleMessage is shown for every non-optimal solve.
const InfeasibleMessage = "No optimal solution found, please adjust the constraints."

// Outcome is the collapsed result kind.
type Outcome int

const (
	OutcomeInfeasible Outcome = iota
	OutcomeOptimal
)

func (o Outcome) String() string {
	if o == OutcomeOptimal {
		return "Optimal"
	}
	return "Infeasible"
}

// Result is the output of one optimization: either an optimal allocation or
// an infeasibility message. SolverStatus keeps the backend's finer status
// (e.g. Unbounded) for callers that care; Outcome is what users see.
type Result struct {
	Outcome       Outcome
	Hours         Hours
	Effectiveness float64
	Message       string
	SolverStatus  lp.Status
}

// Optimal builds the optimal variant.
func Optimal(hours Hours, effectiveness float64) Result {
	return Result{
		Outcome:       OutcomeOptimal,
		Hours:         hours,
		Effectiveness: effectiveness,
		SolverStatus:  lp.StatusOptimal,
	}
}

// Infeasible builds the non-optimal variant, recording the solver status.
func Infeasible(status lp.Status) Result {
	return Result{
		Outcome:      OutcomeInfeasible,
		Message:      InfeasibleMessage,
		SolverStatus: status,
	}
}

// IsOptimal reports whether r carries an allocation.
func (r Result) IsOptimal() bool { return r.Outcome == OutcomeOptimal }
