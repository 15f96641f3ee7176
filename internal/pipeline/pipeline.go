package pipeline

import (
	"context"
	"log/slog"

	"github.com/mdreorg/mdreorg/internal/model"
)

// Step defines the interface that all pipeline phases implement.
// Steps execute in sequence; each receives the run report accumulated by
// the previous phases.
//
// Design decision: We use an interface rather than function types because
// steps carry configuration state (root, workers, plan) and a Name() for
// logging, and it stays extensible.
type Step interface {
	// Do executes the phase. It reads what earlier phases materialized
	// on the report and fills in its own output. A returned error stops
	// the pipeline: later phases depend on this one having completed.
	Do(ctx context.Context, report *model.RunReport) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in strict order.
//
// Unlike a scanning pipeline where failed probes can be skipped, every
// phase here is a prerequisite of the next — a failed plan validation
// must stop the run before any move — so the pipeline always stops at
// the first error.
type Pipeline struct {
	// steps contains the ordered phases to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a Pipeline with the given options.
// Steps are added with AddSteps after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddSteps appends phases to the pipeline in execution order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all phases in sequence, stopping at the first error.
// Cancellation is checked between phases; a phase that performs long
// filesystem walks also checks the context itself.
func (p *Pipeline) Execute(ctx context.Context, report *model.RunReport) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step", "step", step.Name(), "root", report.Root)

		if err := step.Do(ctx, report); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"root", report.Root,
				"error", err,
			)
			return err
		}

		report.PerformedSteps = append(report.PerformedSteps, step.Name())
	}

	return nil
}

// StepCount returns the number of phases in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all phases in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
