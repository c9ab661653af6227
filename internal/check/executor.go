package check

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/packship/packship/internal/constants"
	"github.com/packship/packship/internal/errors"
)

// Executor runs check commands sequentially, stopping on first failure.
// No result is ever retried or swallowed: a failing command fails the
// invoking workflow.
type Executor struct {
	runner     CommandRunner
	timeout    time.Duration
	liveOutput io.Writer // Optional: if set, streams command output in real-time
}

// NewExecutor creates a check executor with the default command runner.
func NewExecutor(timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = constants.DefaultCheckTimeout
	}
	return &Executor{
		runner:  &DefaultCommandRunner{},
		timeout: timeout,
	}
}

// NewExecutorWithRunner creates an executor with a custom runner (for testing).
func NewExecutorWithRunner(timeout time.Duration, runner CommandRunner) *Executor {
	if timeout <= 0 {
		timeout = constants.DefaultCheckTimeout
	}
	return &Executor{
		runner:  runner,
		timeout: timeout,
	}
}

// SetLiveOutput configures the executor to stream command output in real-time.
// When set, stdout and stderr are written to w as they are produced.
func (e *Executor) SetLiveOutput(w io.Writer) {
	e.liveOutput = w
}

// Run executes the stage's commands in workDir. All collected results are
// returned even when a command fails; the error wraps ErrCheckFailed so
// callers can gate on it.
func (e *Executor) Run(ctx context.Context, stage Stage, commands []string, workDir string) ([]Result, error) {
	results := make([]Result, 0, len(commands))

	for i, cmd := range commands {
		// Check for context cancellation between commands
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		result, err := e.runSingle(ctx, stage, cmd, workDir, i+1, len(commands))
		if result != nil {
			results = append(results, *result)
		}
		if err != nil {
			return results, err
		}
	}

	return results, nil
}

// RunStages executes stages in order, stopping at the first failing stage.
func (e *Executor) RunStages(ctx context.Context, commandsByStage map[Stage][]string, stages []Stage, workDir string) ([]Result, error) {
	var all []Result
	for _, stage := range stages {
		results, err := e.Run(ctx, stage, commandsByStage[stage], workDir)
		all = append(all, results...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

// runSingle executes one command with timeout handling.
func (e *Executor) runSingle(ctx context.Context, stage Stage, command, workDir string, cmdNum, totalCmds int) (*Result, error) {
	log := zerolog.Ctx(ctx)

	if workDir != "" {
		if _, err := os.Stat(workDir); os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrCheckFailed, "work directory missing: %s", workDir)
		}
	}

	log.Info().
		Str("stage", stage.String()).
		Str("command", command).
		Int("command_num", cmdNum).
		Int("total_commands", totalCmds).
		Msg("executing check command")

	cmdCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	startedAt := time.Now()
	stdout, stderr, exitCode, runErr := e.executeCommand(cmdCtx, command, workDir)
	completedAt := time.Now()

	result := &Result{
		Stage:       stage,
		Command:     command,
		Success:     runErr == nil,
		ExitCode:    exitCode,
		Stdout:      stdout,
		Stderr:      stderr,
		DurationMs:  completedAt.Sub(startedAt).Milliseconds(),
		StartedAt:   startedAt,
		CompletedAt: completedAt,
	}

	if runErr != nil {
		result.Error = runErr.Error()

		// Distinguish our timeout from an external cancellation.
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if cmdCtx.Err() == context.DeadlineExceeded {
			return result, errors.Wrapf(errors.ErrCheckFailed,
				"%s command timed out after %s: %s", stage, e.timeout, command)
		}

		log.Error().
			Str("stage", stage.String()).
			Str("command", command).
			Int("exit_code", exitCode).
			Str("stderr", stderr).
			Msg("check command failed")
		return result, errors.Wrapf(errors.ErrCheckFailed,
			"%s command exited %d: %s", stage, exitCode, command)
	}

	log.Debug().
		Str("stage", stage.String()).
		Str("command", command).
		Int64("duration_ms", result.DurationMs).
		Msg("check command passed")
	return result, nil
}

// executeCommand runs the command and returns raw output.
func (e *Executor) executeCommand(ctx context.Context, command, workDir string) (stdout, stderr string, exitCode int, runErr error) {
	if e.liveOutput != nil {
		if liveRunner, ok := e.runner.(LiveOutputRunner); ok {
			return liveRunner.RunWithLiveOutput(ctx, workDir, command, e.liveOutput)
		}
	}
	return e.runner.Run(ctx, workDir, command)
}
