package bluetoothctl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// PTYRunner runs the tool attached to a pseudo-terminal.
//
// Some bluetoothctl builds only emit asynchronous events such as
// "[NEW] Transport" when stdout is a terminal. Output from stdout and stderr
// is merged into Result.Stdout.
type PTYRunner struct {
	Tool   string
	logger *logrus.Logger
}

// NewPTYRunner creates a PTYRunner for tool. An empty tool selects DefaultTool.
func NewPTYRunner(tool string, logger *logrus.Logger) *PTYRunner {
	if tool == "" {
		tool = DefaultTool
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &PTYRunner{Tool: tool, logger: logger}
}

// Run executes the tool on a fresh PTY and collects everything it writes
// until it exits.
func (r *PTYRunner) Run(ctx context.Context, args ...string) (*Result, error) {
	master, slave, err := openRawPTY()
	if err != nil {
		return nil, err
	}
	defer master.Close()

	cmd := exec.CommandContext(ctx, r.Tool, args...)
	cmd.Stdin = slave
	cmd.Stdout = slave
	cmd.Stderr = slave
	// Own session with the PTY as controlling terminal; Cancel kills the group.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}

	r.logger.WithFields(logrus.Fields{
		"tool": r.Tool,
		"args": args,
		"tty":  slave.Name(),
	}).Debug("Running external tool on PTY")

	if err := cmd.Start(); err != nil {
		_ = slave.Close()
		return nil, fmt.Errorf("failed to run %s: %w", r.Tool, err)
	}
	// The child holds its own copy; closing ours lets the master see EIO on exit.
	_ = slave.Close()

	var out bytes.Buffer
	drained := make(chan error, 1)
	go func() {
		drained <- drainPTY(&out, master)
	}()

	waitErr := cmd.Wait()

	var copyErr error
	select {
	case copyErr = <-drained:
	case <-time.After(waitDelay):
		// A process that left the group still holds the slave open
		r.logger.WithField("tool", r.Tool).Debug("PTY still open after tool exit, closing")
		_ = master.Close()
		<-drained
	}

	res := &Result{Stdout: out.String()}
	if err := exitStatus(ctx, waitErr, res); err != nil {
		return nil, fmt.Errorf("failed to run %s: %w", r.Tool, err)
	}
	if copyErr != nil {
		return nil, fmt.Errorf("failed to read %s output: %w", r.Tool, copyErr)
	}

	r.logger.WithFields(logrus.Fields{
		"tool":      r.Tool,
		"exit_code": res.ExitCode,
	}).Debug("External tool finished")

	return res, nil
}

// openRawPTY opens a PTY pair and puts the slave in raw mode so output is not
// rewritten with CRLF line endings or echoed input.
func openRawPTY() (master *os.File, slave *os.File, err error) {
	master, slave, err = pty.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create PTY (check permissions and available PTY devices): %w", err)
	}
	if _, err := term.MakeRaw(int(slave.Fd())); err != nil {
		ptyPath := slave.Name()
		_ = master.Close()
		_ = slave.Close()
		return nil, nil, fmt.Errorf("failed to set PTY %s to raw mode: %w", ptyPath, err)
	}
	return master, slave, nil
}

// drainPTY copies master into w until the slave side is gone. Linux reports
// a hung-up PTY as EIO, which is the normal end of output here.
func drainPTY(w io.Writer, master *os.File) error {
	_, err := io.Copy(w, master)
	if err == nil || errors.Is(err, unix.EIO) {
		return nil
	}
	return err
}
