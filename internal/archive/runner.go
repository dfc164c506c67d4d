package archive

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

type ExecRunner struct {
	timeout time.Duration
}

// NewExecRunner returns a runner that resolves tools through PATH. A zero
// timeout leaves the child process bounded only by ctx.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{timeout: timeout}
}

func (r *ExecRunner) Run(ctx context.Context, cmd Command) ExecutionOutcome {
	if cmd.IsZero() {
		return ExecutionOutcome{ExitCode: -1, Err: errors.New("empty command")}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	argv := cmd.Argv()
	output, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err == nil {
		return ExecutionOutcome{Succeeded: true, Output: string(output)}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			err = fmt.Errorf("%s timed out after %s: %w", argv[0], r.timeout, ctxErr)
		} else {
			err = fmt.Errorf("%s interrupted: %w", argv[0], ctxErr)
		}
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	return ExecutionOutcome{
		Output:   string(output),
		ExitCode: exitCode,
		Err:      err,
	}
}
