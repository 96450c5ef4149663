package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/boilthesea/cleanvid/internal/errkind"
	"github.com/boilthesea/cleanvid/internal/logging"
	"github.com/boilthesea/cleanvid/internal/plan"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

// Executor runs a plan's invocations in order. Each invocation blocks
// until its tool exits; stage N's output file is stage N+1's input, so
// there is nothing to parallelize inside one job.
type Executor struct {
	logger *slog.Logger
	run    commandRunner
}

// NewExecutor constructs an executor.
func NewExecutor(logger *slog.Logger) *Executor {
	return &Executor{
		logger: logging.NewComponentLogger(logger, "ffmpeg"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (e *Executor) WithCommandRunner(r commandRunner) {
	if e != nil && r != nil {
		e.run = r
	}
}

// Execute runs one invocation to completion. A non-zero exit aborts
// the whole job; the captured error text is preserved for the caller.
func (e *Executor) Execute(ctx context.Context, inv plan.Invocation) error {
	e.logger.Debug("running external tool",
		logging.String("purpose", inv.Purpose),
		logging.String("binary", inv.Binary),
		logging.Int("arg_count", len(inv.Args)),
	)
	if err := e.run(ctx, inv.Binary, inv.Args...); err != nil {
		return errkind.Wrap(errkind.ErrExternalTool, "ffmpeg", inv.Purpose,
			fmt.Sprintf("%s invocation failed", inv.Binary), err)
	}
	return nil
}

// ExecuteAll runs the invocations in order, stopping at the first
// failure. No stage is ever retried.
func (e *Executor) ExecuteAll(ctx context.Context, invocations []plan.Invocation) error {
	for _, inv := range invocations {
		if err := e.Execute(ctx, inv); err != nil {
			return err
		}
	}
	return nil
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
