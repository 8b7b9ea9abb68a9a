// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and the environment.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"runtime"

	"github.com/okian/studyplan/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of plan workers serving batch solves.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory plan job queue.
	QueueSize int `koanf:"queue_size"`

	// CacheSize bounds the plan memo cache; 0 disables caching.
	CacheSize int `koanf:"cache_size"`

	// MaxBatchSize caps the number of requests in POST /plans.
	MaxBatchSize int `koanf:"max_batch_size"`

	// SolverTolerance is the numerical tolerance of the simplex routine.
	SolverTolerance float64 `koanf:"solver_tolerance"`

	// SolveTimeoutMS bounds how long a batch waits for its results.
	SolveTimeoutMS int `koanf:"solve_timeout_ms"`

	// Defaults are the values used for fields a client leaves out.
	Defaults PlanDefaults `koanf:"defaults"`
}

// PlanDefaults mirrors the nine plan inputs.
type PlanDefaults struct {
	TotalTime    float64 `koanf:"total_time"`
	MinPhysics   float64 `koanf:"min_physics"`
	MinChemistry float64 `koanf:"min_chemistry"`
	MinBiology   float64 `koanf:"min_biology"`
	MinMath      float64 `koanf:"min_math"`
	MaxPhysics   float64 `koanf:"max_physics"`
	MaxChemistry float64 `koanf:"max_chemistry"`
	MaxBiology   float64 `koanf:"max_biology"`
	MaxMath      float64 `koanf:"max_math"`
}

// Request converts the defaults into a plan request.
func (d PlanDefaults) Request() model.Request {
	return model.NewRequest(d.TotalTime,
		d.MinPhysics, d.MinChemistry, d.MinBiology, d.MinMath,
		d.MaxPhysics, d.MaxChemistry, d.MaxBiology, d.MaxMath)
}

func defaultsFrom(r model.Request) PlanDefaults {
	return PlanDefaults{
		TotalTime:    r.TotalTime,
		MinPhysics:   r.Min.Of(model.Physics),
		MinChemistry: r.Min.Of(model.Chemistry),
		MinBiology:   r.Min.Of(model.Biology),
		MinMath:      r.Min.Of(model.Math),
		MaxPhysics:   r.Max.Of(model.Physics),
		MaxChemistry: r.Max.Of(model.Chemistry),
		MaxBiology:   r.Max.Of(model.Biology),
		MaxMath:      r.Max.Of(model.Math),
	}
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		WorkerCount:     runtime.NumCPU(),
		QueueSize:       10_000,
		CacheSize:       4096,
		MaxBatchSize:    256,
		SolverTolerance: 1e-10,
		SolveTimeoutMS:  5000,
		Defaults:        defaultsFrom(model.DefaultRequest()),
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.CacheSize < 0:
		return fmt.Errorf("%w: cache_size must not be negative", ErrInvalidConfig)
	case c.MaxBatchSize < 1:
		return fmt.Errorf("%w: max_batch_size must be positive", ErrInvalidConfig)
	case c.SolverTolerance < 0:
		return fmt.Errorf("%w: solver_tolerance must not be negative", ErrInvalidConfig)
	case c.SolveTimeoutMS < 1:
		return fmt.Errorf("%w: solve_timeout_ms must be positive", ErrInvalidConfig)
	}

	d := c.Defaults.Request()
	if d.TotalTime < 0 {
		return fmt.Errorf("%w: defaults.total_time must not be negative", ErrInvalidConfig)
	}
	for _, s := range model.Subjects() {
		if d.Min.Of(s) < 0 || d.Max.Of(s) < 0 {
			return fmt.Errorf("%w: defaults for %s must not be negative", ErrInvalidConfig, s)
		}
	}
	return nil
}
