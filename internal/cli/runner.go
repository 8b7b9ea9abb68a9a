package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/okian/studyplan/internal/adapters/solver/gonumlp"
	"github.com/okian/studyplan/internal/domain/optimizer"
	"github.com/okian/studyplan/internal/domain/types"
	"github.com/okian/studyplan/pkg/logger"
)

// ErrNoPlan is returned when the solve did not produce an optimal plan.
// Its message is the user-facing infeasibility text.
var ErrNoPlan = errors.New("no plan")

type noPlanError struct {
	message string
}

func (e *noPlanError) Error() string { return e.message }
func (e *noPlanError) Unwrap() error { return ErrNoPlan }

// Run solves cfg.Request and writes the result to out.
func Run(ctx context.Context, cfg *Config, out io.Writer, log logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}

	view, err := solve(ctx, cfg, log)
	if err != nil {
		return err
	}

	log.Debug(ctx, "plan ready",
		logger.String("status", view.Status),
		logger.String("solver_status", view.SolverStatus),
		logger.Bool("remote", cfg.BaseURL != ""),
	)

	if cfg.JSON {
		if err := RenderJSON(out, view); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if !view.Optimal() {
		return &noPlanError{message: view.Message}
	}
	if !cfg.JSON {
		if err := RenderText(out, view); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func solve(ctx context.Context, cfg *Config, log logger.Logger) (types.PlanView, error) {
	if cfg.BaseURL != "" {
		log.Debug(ctx, "solving remotely", logger.String("baseURL", cfg.BaseURL))
		view, err := newHTTPClient(cfg.BaseURL, cfg.Timeout).Plan(ctx, cfg.Request)
		if err != nil {
			return types.PlanView{}, fmt.Errorf("remote solve failed: %w", err)
		}
		return view, nil
	}

	log.Debug(ctx, "solving in-process", logger.Float64("tolerance", cfg.Tolerance))
	opt := optimizer.New(
		gonumlp.New(gonumlp.WithTolerance(cfg.Tolerance)),
		optimizer.WithLogger(log.Named("optimizer")),
	)
	return types.NewPlanView("", opt.Solve(ctx, cfg.Request)), nil
}
