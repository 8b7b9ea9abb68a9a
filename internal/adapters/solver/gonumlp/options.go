package gonumlp

// Option applies a configuration option to the Solver.
type Option func(*Solver)

// WithTolerance sets the numerical tolerance of the simplex routine.
// Non-positive values keep the default.
func WithTolerance(tol float64) Option {
	return func(s *Solver) {
		if tol > 0 {
			s.tolerance = tol
		}
	}
}
