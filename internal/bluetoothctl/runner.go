// Package bluetoothctl runs the BlueZ command-line tool and exposes the
// small argument vocabulary bl-connect relies on.
//
// The Runner interface is the only seam between connection policy and the
// operating system, so everything above it can be exercised without a
// Bluetooth daemon.
package bluetoothctl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTool is the BlueZ control utility looked up in PATH.
const DefaultTool = "bluetoothctl"

// waitDelay bounds how long Run waits for output pipes after the tool is
// killed, in case a grandchild still holds them open.
const waitDelay = 2 * time.Second

// Result is the outcome of a single tool invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the tool exited with status zero.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Runner invokes the Bluetooth control tool with the given arguments.
//
// A non-zero exit status is reported through Result.ExitCode and is not an
// error. An error means the tool could not be run at all or ctx ended first.
type Runner interface {
	Run(ctx context.Context, args ...string) (*Result, error)
}

// ExecRunner runs the tool as a plain child process with separate stdout and
// stderr buffers.
type ExecRunner struct {
	Tool   string
	logger *logrus.Logger
}

// NewExecRunner creates an ExecRunner for tool. An empty tool selects DefaultTool.
func NewExecRunner(tool string, logger *logrus.Logger) *ExecRunner {
	if tool == "" {
		tool = DefaultTool
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &ExecRunner{Tool: tool, logger: logger}
}

// Run executes the tool and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, r.Tool, args...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.WithFields(logrus.Fields{
		"tool": r.Tool,
		"args": args,
	}).Debug("Running external tool")

	err := cmd.Run()
	res := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err := exitStatus(ctx, err, res); err != nil {
		return nil, fmt.Errorf("failed to run %s: %w", r.Tool, err)
	}

	r.logger.WithFields(logrus.Fields{
		"tool":      r.Tool,
		"exit_code": res.ExitCode,
	}).Debug("External tool finished")

	return res, nil
}

// exitStatus folds an *exec.ExitError into res.ExitCode. Any other failure,
// or an exit caused by ctx ending, is returned.
func exitStatus(ctx context.Context, err error, res *Result) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return nil
	}
	return err
}

// DevicesArgs lists known devices: "<tool> devices".
func DevicesArgs() []string {
	return []string{"devices"}
}

// ConnectArgs connects to address, letting the tool give up after timeout:
// "<tool> --timeout <secs> connect <address>". Partial seconds round up.
func ConnectArgs(address string, timeout time.Duration) []string {
	secs := int((timeout + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return []string{"--timeout", strconv.Itoa(secs), "connect", address}
}

// DisconnectArgs disconnects the active device: "<tool> disconnect".
func DisconnectArgs() []string {
	return []string{"disconnect"}
}

// NewRunner creates the Runner used by the CLI.
// This is a variable so that it can be overridden in tests.
var NewRunner = func(tool string, usePTY bool, logger *logrus.Logger) Runner {
	if usePTY {
		return NewPTYRunner(tool, logger)
	}
	return NewExecRunner(tool, logger)
}
