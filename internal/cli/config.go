// Package cli implements the studyplan command: read the nine plan inputs
// from flags, solve locally or against a running service, and print the plan.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/okian/studyplan/internal/domain/model"
)

// Default configuration constants.
const (
	defaultTimeout   = 30 * time.Second
	defaultTolerance = 1e-10
)

// Config holds configuration for one invocation.
type Config struct {
	BaseURL   string        // Service URL; empty solves in-process
	Request   model.Request // Plan inputs
	JSON      bool          // Print the JSON view instead of text
	Timeout   time.Duration // HTTP request timeout
	Tolerance float64       // Simplex tolerance for local solves
	Verbose   bool          // Enable debug logging on stderr
}

// ErrHelp is returned by ParseFlags when -h or -help was given.
var ErrHelp = flag.ErrHelp

// ParseFlags reads args into a Config. Plan flags default to defaults.
func ParseFlags(args []string, defaults model.Request, output io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("studyplan", flag.ContinueOnError)
	fs.SetOutput(output)

	cfg := &Config{Request: defaults}
	fs.Float64Var(&cfg.Request.TotalTime, "total", defaults.TotalTime, "Total available time (hours/day)")
	for _, s := range model.Subjects() {
		fs.Float64Var(&cfg.Request.Min[s], "min-"+flagName(s), defaults.Min.Of(s), "Minimum hours for "+s.String())
		fs.Float64Var(&cfg.Request.Max[s], "max-"+flagName(s), defaults.Max.Of(s), "Maximum hours for "+s.String())
	}
	fs.StringVar(&cfg.BaseURL, "url", "", "Base URL of a running service (default: solve in-process)")
	fs.BoolVar(&cfg.JSON, "json", false, "Print the result as JSON")
	fs.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	fs.Float64Var(&cfg.Tolerance, "tolerance", defaultTolerance, "Simplex tolerance for in-process solves")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		_, _ = fmt.Fprint(output, usageHeader)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Request.TotalTime < 0 {
		return errors.New("total must not be negative")
	}
	for _, s := range model.Subjects() {
		if c.Request.Min.Of(s) < 0 || c.Request.Max.Of(s) < 0 {
			return fmt.Errorf("hours for %s must not be negative", s)
		}
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

func flagName(s model.Subject) string {
	switch s {
	case model.Physics:
		return "physics"
	case model.Chemistry:
		return "chemistry"
	case model.Biology:
		return "biology"
	default:
		return "math"
	}
}

const usageHeader = `Study Plan Optimizer
====================

Allocates daily study hours across Physics, Chemistry, Biology and Math to
maximize total study effectiveness.

Usage:
  studyplan [options]

Examples:
  # Solve the default plan in-process
  studyplan

  # More time, and let Math take up to 6 hours
  studyplan -total 12 -max-math 6

  # Ask a running service and print JSON
  studyplan -url http://localhost:9080 -json

Options:
`
