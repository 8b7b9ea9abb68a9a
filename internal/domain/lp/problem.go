// Package lp defines the contract between problem formulation and a linear
// programming backend.
//
// A Problem is assembled by domain code and handed to a Solver. Backends are
// free to convert it to whatever canonical form they need.
package lp

import (
	"context"
	"fmt"
	"math"
)

// Sense is the optimization direction.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

// Relation is the comparison operator of a constraint row.
type Relation int

const (
	LessEqual Relation = iota
	GreaterEqual
	Equal
)

func (r Relation) String() string {
	switch r {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	default:
		return "?"
	}
}

// Variable is a continuous decision variable. Use math.Inf for open bounds.
type Variable struct {
	Name  string
	Lower float64
	Upper float64
}

// Constraint is a named linear row: Coefs·x Relation RHS.
// Coefs is dense and indexed like Problem.Variables.
type Constraint struct {
	Name     string
	Coefs    []float64
	Relation Relation
	RHS      float64
}

// Problem is a linear program in general bounded form.
type Problem struct {
	Name          string
	Sense         Sense
	Variables     []Variable
	ObjectiveName string
	Objective     []float64
	Constraints   []Constraint
}

// NewProblem returns an empty problem with the given name and sense.
func NewProblem(name string, sense Sense) *Problem {
	return &Problem{Name: name, Sense: sense}
}

// AddVariable appends a variable and returns its column index.
func (p *Problem) AddVariable(name string, lower, upper float64) int {
	p.Variables = append(p.Variables, Variable{Name: name, Lower: lower, Upper: upper})
	return len(p.Variables) - 1
}

// SetObjective sets the objective coefficients, one per variable.
func (p *Problem) SetObjective(name string, coefs []float64) {
	p.ObjectiveName = name
	p.Objective = append([]float64(nil), coefs...)
}

// AddConstraint appends a named constraint row. coefs is copied.
func (p *Problem) AddConstraint(name string, coefs []float64, rel Relation, rhs float64) {
	p.Constraints = append(p.Constraints, Constraint{
		Name:     name,
		Coefs:    append([]float64(nil), coefs...),
		Relation: rel,
		RHS:      rhs,
	})
}

// Validate checks that the problem is dimensionally consistent.
func (p *Problem) Validate() error {
	n := len(p.Variables)
	if n == 0 {
		return fmt.Errorf("%w: no variables", ErrMalformedProblem)
	}
	if len(p.Objective) != n {
		return fmt.Errorf("%w: objective has %d coefficients for %d variables", ErrMalformedProblem, len(p.Objective), n)
	}
	for _, v := range p.Variables {
		if math.IsNaN(v.Lower) || math.IsNaN(v.Upper) {
			return fmt.Errorf("%w: variable %q has NaN bound", ErrMalformedProblem, v.Name)
		}
	}
	for _, c := range p.Constraints {
		if len(c.Coefs) != n {
			return fmt.Errorf("%w: constraint %q has %d coefficients for %d variables", ErrMalformedProblem, c.Name, len(c.Coefs), n)
		}
	}
	return nil
}

// Evaluate returns the objective value at x.
func (p *Problem) Evaluate(x []float64) float64 {
	var sum float64
	for j, c := range p.Objective {
		if j < len(x) {
			sum += c * x[j]
		}
	}
	return sum
}

// Solver solves linear programs.
type Solver interface {
	// Solve returns a Solution whose Status tells whether Values are usable.
	// A non-nil error reports a backend failure; the Solution then carries
	// StatusUndefined.
	Solve(ctx context.Context, p *Problem) (Solution, error)
}
