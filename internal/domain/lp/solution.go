package lp

// Status reports the outcome of a solve.
type Status int

const (
	StatusNotSolved Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
	StatusUndefined
)

var statusNames = [...]string{
	StatusNotSolved:  "Not Solved",
	StatusOptimal:    "Optimal",
	StatusInfeasible: "Infeasible",
	StatusUnbounded:  "Unbounded",
	StatusUndefined:  "Undefined",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return statusNames[StatusUndefined]
	}
	return statusNames[s]
}

// Solution contains the result of solving a Problem.
type Solution struct {
	Status Status

	// Values holds one value per Problem variable. Only meaningful when
	// Status is StatusOptimal.
	Values []float64

	// Objective is the objective value at Values, in the problem's own sense.
	Objective float64
}

// IsOptimal returns true if the solution is optimal.
func (s Solution) IsOptimal() bool { return s.Status == StatusOptimal }

// IsInfeasible returns true if no point satisfies the constraints.
func (s Solution) IsInfeasible() bool { return s.Status == StatusInfeasible }

// IsUnbounded returns true if the objective can be improved without limit.
func (s Solution) IsUnbounded() bool { return s.Status == StatusUnbounded }

// Value returns the value of the variable at index, or 0 when out of range.
func (s Solution) Value(index int) float64 {
	if index < 0 || index >= len(s.Values) {
		return 0
	}
	return s.Values[index]
}
