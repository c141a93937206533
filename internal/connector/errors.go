package connector

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	// ErrExternalTool indicates the Bluetooth control tool failed or could not be run.
	ErrExternalTool = errors.New("external tool error")

	// ErrParse indicates a device entry did not contain a MAC address.
	ErrParse = errors.New("parse error")

	// ErrConnectionFailed indicates every connection attempt was used up without
	// a transport being created.
	ErrConnectionFailed = errors.New("connection failed")
)

// ExternalToolError reports a non-zero exit from the tool, or a failure to
// start it (Err set).
type ExternalToolError struct {
	Op       string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExternalToolError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to %s", e.Op)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
		return b.String()
	}
	fmt.Fprintf(&b, ": %q exited with status %d", strings.Join(e.Args, " "), e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		fmt.Fprintf(&b, ": %s", stderr)
	}
	return b.String()
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

func (e *ExternalToolError) Is(target error) bool { return target == ErrExternalTool }

// ParseError reports a device entry with no MAC address in it.
type ParseError struct {
	Entry string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no MAC address found in device entry %q", e.Entry)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ConnectionFailedError reports that the retry loop ended without success.
// Attempts is the number of connect invocations actually performed.
type ConnectionFailedError struct {
	Address     MacAddress
	Attempts    int
	MaxAttempts int
	Last        *ConnectionAttempt
}

func (e *ConnectionFailedError) Error() string {
	return fmt.Sprintf("failed to connect to %s after %d attempts", e.Address, e.Attempts)
}

func (e *ConnectionFailedError) Is(target error) bool { return target == ErrConnectionFailed }
