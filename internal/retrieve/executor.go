package retrieve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"sfperms/internal/logging"
)

// Executor is the interface for command execution.
type Executor interface {
	// Execute runs a command. A non-zero exit is reported in the Result,
	// not as an error; the error is reserved for failing to start it.
	Execute(ctx context.Context, cmd Command) (*Result, error)
}

// DirectExecutor executes commands on the host using os/exec. The child
// inherits the full environment so the sf CLI finds its auth store.
type DirectExecutor struct {
	DefaultTimeout time.Duration
	MaxOutputBytes int64
}

// NewDirectExecutor creates a direct executor with the given default timeout.
func NewDirectExecutor(timeout time.Duration) *DirectExecutor {
	return &DirectExecutor{
		DefaultTimeout: timeout,
		MaxOutputBytes: 10 * 1024 * 1024,
	}
}

// Execute runs a command directly on the host.
func (e *DirectExecutor) Execute(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("binary is required")
	}

	timer := logging.StartTimer(logging.CategoryRetrieve, cmd.CommandString())
	defer timer.Stop()

	timeout := e.DefaultTimeout
	if cmd.Timeout > 0 {
		timeout = cmd.Timeout
	}
	execCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	execCmd := exec.CommandContext(execCtx, cmd.Binary, cmd.Arguments...)
	execCmd.Dir = cmd.WorkingDirectory
	execCmd.Env = append(os.Environ(), cmd.Environment...)
	execCmd.WaitDelay = 2 * time.Second

	var stdoutBuf, stderrBuf bytes.Buffer
	stdoutLimited := &limitedWriter{w: &stdoutBuf, max: e.MaxOutputBytes}
	stderrLimited := &limitedWriter{w: &stderrBuf, max: e.MaxOutputBytes}
	execCmd.Stdout = stdoutLimited
	execCmd.Stderr = stderrLimited

	logging.RetrieveDebug("executing: %s (dir=%s, timeout=%s)", cmd.CommandString(), cmd.WorkingDirectory, timeout)

	start := time.Now()
	err := execCmd.Run()

	result := &Result{
		ExitCode:  -1,
		Stdout:    stdoutBuf.String(),
		Stderr:    stderrBuf.String(),
		Duration:  time.Since(start),
		Truncated: stdoutLimited.truncated || stderrLimited.truncated,
	}

	if err == nil {
		result.ExitCode = 0
		return result, nil
	}

	switch {
	case errors.Is(execCtx.Err(), context.DeadlineExceeded):
		result.Killed = true
		result.KillReason = fmt.Sprintf("timeout after %s", timeout)
		logging.RetrieveWarn("command killed (timeout): %s after %s", cmd.Binary, timeout)
	case errors.Is(execCtx.Err(), context.Canceled):
		result.Killed = true
		result.KillReason = "context canceled"
	default:
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			logging.RetrieveError("command failed to start: %s - %v", cmd.Binary, err)
			return nil, fmt.Errorf("run %s: %w", cmd.Binary, err)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	return result, nil
}

// limitedWriter is an io.Writer that limits total bytes written.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if lw.max <= 0 {
		written, err := lw.w.Write(p)
		lw.written += int64(written)
		return written, err
	}

	if lw.written >= lw.max {
		lw.truncated = true
		return n, nil // Pretend we wrote it
	}

	remaining := lw.max - lw.written
	if int64(n) > remaining {
		lw.truncated = true
		written, err := lw.w.Write(p[:remaining])
		lw.written += int64(written)
		return n, err // Original length avoids "short write" errors
	}

	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}
