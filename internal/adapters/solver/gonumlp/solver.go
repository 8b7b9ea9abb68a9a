// Package gonumlp implements lp.Solver on top of gonum's simplex routine.
//
// gonum solves the standard form
//
//	minimize cᵀy  s.t.  Ay = b, y >= 0
//
// so every Problem is rewritten before the call: finite lower bounds are
// shifted to zero, free variables are split into a positive and a negative
// part, finite upper bounds become rows and inequality rows receive a slack or
// surplus column. Maximization is handled by negating the costs.
package gonumlp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	convexlp "gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/okian/studyplan/internal/domain/lp"
)

const defaultTolerance = 1e-10

// Solver is a pure Go lp.Solver. It holds no per-solve state and is safe for
// concurrent use.
type Solver struct {
	tolerance float64
}

// New creates a solver with the given options.
func New(opts ...Option) *Solver {
	s := &Solver{tolerance: defaultTolerance}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tolerance returns the numerical tolerance passed to the simplex routine.
func (s *Solver) Tolerance() float64 { return s.tolerance }

// Solve implements lp.Solver.
func (s *Solver) Solve(ctx context.Context, p *lp.Problem) (sol lp.Solution, err error) {
	if err := ctx.Err(); err != nil {
		return lp.Solution{Status: lp.StatusNotSolved}, fmt.Errorf("solve cancelled: %w", err)
	}
	if err := p.Validate(); err != nil {
		return lp.Solution{Status: lp.StatusUndefined}, err
	}

	// gonum panics on shape problems it considers programmer errors.
	defer func() {
		if r := recover(); r != nil {
			sol = lp.Solution{Status: lp.StatusUndefined}
			err = fmt.Errorf("%w: %v", lp.ErrSolverFailed, r)
		}
	}()

	sf, status := toStandardForm(p, s.tolerance)
	if status != lp.StatusNotSolved {
		return lp.Solution{Status: status}, nil
	}

	y := make([]float64, sf.cols)
	if len(sf.b) > 0 {
		if len(sf.b) > len(sf.active) {
			return lp.Solution{Status: lp.StatusUndefined},
				fmt.Errorf("%w: %d independent rows over %d columns", lp.ErrSolverFailed, len(sf.b), len(sf.active))
		}

		c := make([]float64, len(sf.active))
		a := mat.NewDense(len(sf.b), len(sf.active), nil)
		for k, col := range sf.active {
			c[k] = sf.c[col]
			for i := range sf.b {
				a.Set(i, k, sf.a[i][col])
			}
		}

		_, x, err := convexlp.Simplex(c, a, sf.b, s.tolerance, nil)
		switch {
		case errors.Is(err, convexlp.ErrInfeasible):
			return lp.Solution{Status: lp.StatusInfeasible}, nil
		case errors.Is(err, convexlp.ErrUnbounded):
			return lp.Solution{Status: lp.StatusUnbounded}, nil
		case err != nil:
			return lp.Solution{Status: lp.StatusUndefined}, fmt.Errorf("%w: %w", lp.ErrSolverFailed, err)
		}
		for k, col := range sf.active {
			y[col] = x[k]
		}
	}

	values := sf.recover(y)
	return lp.Solution{
		Status:    lp.StatusOptimal,
		Values:    values,
		Objective: p.Evaluate(values),
	}, nil
}

// part maps one original variable onto standard-form columns:
// x = shift + y[pos] - y[neg].
type part struct {
	shift float64
	pos   int
	neg   int // -1 when the variable is not split
}

type standardForm struct {
	parts  []part
	cols   int
	c      []float64
	a      [][]float64
	b      []float64
	active []int // columns handed to the simplex routine
}

func (sf *standardForm) recover(y []float64) []float64 {
	x := make([]float64, len(sf.parts))
	for j, pt := range sf.parts {
		x[j] = pt.shift + y[pt.pos]
		if pt.neg >= 0 {
			x[j] -= y[pt.neg]
		}
	}
	return x
}

type row struct {
	coefs []float64
	rel   lp.Relation
	rhs   float64
}

// toStandardForm rewrites p. The returned status is StatusNotSolved when the
// simplex routine still has to run, or a terminal status detected while
// rewriting (trivially infeasible rows, unbounded free columns).
func toStandardForm(p *lp.Problem, tol float64) (*standardForm, lp.Status) {
	sf := &standardForm{parts: make([]part, len(p.Variables))}

	sign := 1.0
	if p.Sense == lp.Maximize {
		sign = -1
	}

	var costs []float64
	for j, v := range p.Variables {
		pt := part{pos: sf.cols, neg: -1}
		costs = append(costs, sign*p.Objective[j])
		sf.cols++
		if math.IsInf(v.Lower, -1) {
			pt.neg = sf.cols
			costs = append(costs, -sign*p.Objective[j])
			sf.cols++
		} else {
			pt.shift = v.Lower
		}
		sf.parts[j] = pt
	}

	rows := make([]row, 0, len(p.Constraints)+len(p.Variables))
	for _, c := range p.Constraints {
		rows = append(rows, row{coefs: c.Coefs, rel: c.Relation, rhs: c.RHS})
	}
	for j, v := range p.Variables {
		if math.IsInf(v.Upper, 1) {
			continue
		}
		unit := make([]float64, len(p.Variables))
		unit[j] = 1
		rows = append(rows, row{coefs: unit, rel: lp.LessEqual, rhs: v.Upper})
	}

	// Translate rows onto y and drop the ones that cannot bind.
	type yrow struct {
		coefs []float64
		rel   lp.Relation
		rhs   float64
	}
	var yrows []yrow
	slacks := 0
	for _, r := range rows {
		if math.IsNaN(r.rhs) {
			return sf, lp.StatusUndefined
		}
		if math.IsInf(r.rhs, 0) {
			vacuous := (r.rel == lp.LessEqual && r.rhs > 0) || (r.rel == lp.GreaterEqual && r.rhs < 0)
			if vacuous {
				continue
			}
			return sf, lp.StatusInfeasible
		}
		coefs := make([]float64, sf.cols)
		rhs := r.rhs
		zero := true
		for j, a := range r.coefs {
			if a == 0 {
				continue
			}
			pt := sf.parts[j]
			rhs -= a * pt.shift
			coefs[pt.pos] += a
			if pt.neg >= 0 {
				coefs[pt.neg] -= a
			}
			zero = false
		}
		if zero {
			ok := (r.rel == lp.LessEqual && rhs >= -tol) ||
				(r.rel == lp.GreaterEqual && rhs <= tol) ||
				(r.rel == lp.Equal && math.Abs(rhs) <= tol)
			if !ok {
				return sf, lp.StatusInfeasible
			}
			continue
		}
		if r.rel != lp.Equal {
			slacks++
		}
		yrows = append(yrows, yrow{coefs: coefs, rel: r.rel, rhs: rhs})
	}

	structural := sf.cols
	total := structural + slacks
	sf.c = make([]float64, total)
	copy(sf.c, costs)
	slack := structural
	for _, r := range yrows {
		coefs := make([]float64, total)
		copy(coefs, r.coefs)
		switch r.rel {
		case lp.LessEqual:
			coefs[slack] = 1
			slack++
		case lp.GreaterEqual:
			coefs[slack] = -1
			slack++
		}
		sf.a = append(sf.a, coefs)
		sf.b = append(sf.b, r.rhs)
	}
	sf.cols = total

	// Columns untouched by any row sit at zero unless their cost pulls them
	// to infinity.
	for col := 0; col < total; col++ {
		used := false
		for i := range sf.a {
			if sf.a[i][col] != 0 {
				used = true
				break
			}
		}
		if used {
			sf.active = append(sf.active, col)
			continue
		}
		if sf.c[col] < -tol {
			return sf, lp.StatusUnbounded
		}
	}

	return sf, lp.StatusNotSolved
}
