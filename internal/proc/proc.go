// Package proc runs external commands with bounded timeouts. It is the
// single place in the codebase that spawns subprocesses; both the health
// prober and the recovery executor go through it.
package proc

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Output holds the captured result of a finished command.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Combined returns stdout and stderr joined in that order. Tools that
// decorate their stdout with banners often print the useful payload on
// either stream, so callers parse the combination.
func (out Output) Combined() string {
	if out.Stderr == "" {
		return out.Stdout
	}
	return out.Stdout + "\n" + out.Stderr
}

// Runner is the contract used to execute an external command. A fake
// implementation is used in tests; OSRunner is used everywhere else.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, argv ...string) (Output, error)
}

// RunnerFunc allows using a plain function as a Runner.
type RunnerFunc func(ctx context.Context, timeout time.Duration, argv ...string) (Output, error)

// Run implements the Runner interface.
func (f RunnerFunc) Run(
	ctx context.Context,
	timeout time.Duration,
	argv ...string,
) (Output, error) {
	return f(ctx, timeout, argv...)
}

// OSRunner executes commands on the host via os/exec.
type OSRunner struct{}

// Run executes argv with the given timeout. The returned error is non-nil
// when the command could not be spawned, exceeded its timeout, or exited
// with a non-zero code; captured output is returned in every case so that
// callers can fold diagnostics into their own error reports.
func (OSRunner) Run(
	ctx context.Context,
	timeout time.Duration,
	argv ...string,
) (Output, error) {
	if len(argv) == 0 {
		return Output{}, fmt.Errorf("proc: empty command")
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	startedAt := time.Now()
	runErr := cmd.Run()

	out := Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(startedAt),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		out.ExitCode = -1
		return out, fmt.Errorf("proc: %s timed out after %s", argv[0], timeout)
	}

	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			out.ExitCode = exitErr.ExitCode()
			return out, fmt.Errorf(
				"proc: %s exited with code %d", argv[0], out.ExitCode,
			)
		}
		out.ExitCode = -1
		return out, fmt.Errorf("proc: could not run %s: %w", argv[0], runErr)
	}

	return out, nil
}
