package core

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// Invocation is one external process launch.
type Invocation struct {
	Stage string // capture, compare or composite
	Slug  string
	Name  string
	Args  []string
}

func (inv Invocation) String() string {
	return strings.TrimSpace(inv.Name + " " + strings.Join(inv.Args, " "))
}

// Result is the outcome of an Invocation. Err is nil only for a zero exit.
type Result struct {
	Invocation Invocation
	Output     string
	ExitCode   int
	Err        error
	Duration   time.Duration
}

// OK reports whether the process exited cleanly.
func (r Result) OK() bool { return r.Err == nil }

// Executor runs invocations. Run blocks until the process is gone;
// the session calls it from its own goroutine per invocation.
type Executor interface {
	Run(ctx context.Context, inv Invocation) Result
}

// ProcessExecutor runs invocations as local processes.
type ProcessExecutor struct {
	Timeout time.Duration // 0 means no limit
}

func NewExecutor(timeout time.Duration) *ProcessExecutor {
	return &ProcessExecutor{Timeout: timeout}
}

// Run executes a single invocation and returns its combined output and exit status.
func (e *ProcessExecutor) Run(ctx context.Context, inv Invocation) Result {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, inv.Name, inv.Args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Invocation: inv,
		Output:     out.String(),
		Err:        err,
		Duration:   time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
	}
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		res.Err = errors.Join(err, ctxErr)
	}
	return res
}
