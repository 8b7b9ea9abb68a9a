package optimizer

import "github.com/okian/studyplan/pkg/logger"

// Option applies a configuration option to the Optimizer.
type Option func(*Optimizer)

// WithLogger sets a custom logger for the optimizer.
func WithLogger(l logger.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.logger = l
		}
	}
}
