// Package connector implements the connect and disconnect flows on top of a
// bluetoothctl.Runner.
//
// Connecting is a bounded retry loop: each attempt runs the tool's connect
// command and inspects its output for a newly created transport.
//
//	Idle -> Attempting(i) -> Connected(i) | Attempting(i+1) | Failed
package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/srg/blconnect/internal/bluetoothctl"
	"github.com/srg/blconnect/pkg/config"
)

// ProgressCallback is called before every connection attempt.
type ProgressCallback func(address MacAddress, attempt, maxAttempts int)

// Options configures which devices are targeted and how hard to try.
// Empty TargetNames select config.DefaultTargetNames.
type Options struct {
	TargetNames    []string
	MaxAttempts    int           `default:"5"`
	ConnectTimeout time.Duration `default:"5s"`
}

// ConnectionAttempt is the raw outcome of one connect invocation.
type ConnectionAttempt struct {
	Number   int
	ExitCode int
	Output   string
}

// ConnectionResult describes a successful connection.
type ConnectionResult struct {
	Address     MacAddress
	Attempts    int
	MaxAttempts int
	History     []ConnectionAttempt
}

// Connector drives the Bluetooth control tool through a Runner.
type Connector struct {
	runner bluetoothctl.Runner
	opts   Options
	logger *logrus.Logger
}

// New creates a Connector. Zero-valued options fall back to their defaults.
func New(runner bluetoothctl.Runner, opts *Options, logger *logrus.Logger) *Connector {
	if logger == nil {
		logger = logrus.New()
	}
	var o Options
	if opts != nil {
		o = *opts
	}
	defaults.SetDefaults(&o)
	if len(o.TargetNames) == 0 {
		o.TargetNames = append([]string(nil), config.DefaultTargetNames...)
	}

	return &Connector{
		runner: runner,
		opts:   o,
		logger: logger,
	}
}

// Options returns the effective options.
func (c *Connector) Options() Options {
	return c.opts
}

// ListDevices returns the devices known to the Bluetooth controller.
func (c *Connector) ListDevices(ctx context.Context) ([]DeviceEntry, error) {
	args := bluetoothctl.DevicesArgs()
	res, err := c.runner.Run(ctx, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ExternalToolError{Op: "get bluetooth devices", Args: args, Err: err}
	}
	if !res.Success() {
		return nil, &ExternalToolError{
			Op:       "get bluetooth devices",
			Args:     args,
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
		}
	}

	entries := parseDeviceList(res.Stdout)
	c.logger.WithField("device_count", len(entries)).Debug("Listed bluetooth devices")
	return entries, nil
}

// FindTargets keeps the entries naming one of the configured targets.
func (c *Connector) FindTargets(entries []DeviceEntry) []DeviceEntry {
	var targets []DeviceEntry
	for _, entry := range entries {
		if entry.Matches(c.opts.TargetNames) {
			targets = append(targets, entry)
		}
	}
	return targets
}

// AttemptConnect tries to connect to address until a transport is created.
//
// The loop runs attempts 1 through maxAttempts-1, so at most maxAttempts-1
// invocations are made. On exhaustion it returns a *ConnectionFailedError
// whose Attempts equals the number of invocations performed.
func (c *Connector) AttemptConnect(ctx context.Context, address MacAddress, maxAttempts int, progress ProgressCallback) (*ConnectionResult, error) {
	if progress == nil {
		progress = func(MacAddress, int, int) {} // No-op callback
	}

	args := bluetoothctl.ConnectArgs(address.String(), c.opts.ConnectTimeout)
	history := make([]ConnectionAttempt, 0, max(maxAttempts-1, 0))

	for i := 1; i < maxAttempts; i++ {
		progress(address, i, maxAttempts)

		res, err := c.runner.Run(ctx, args...)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &ExternalToolError{Op: fmt.Sprintf("connect to %s", address), Args: args, Err: err}
		}

		attempt := ConnectionAttempt{Number: i, ExitCode: res.ExitCode, Output: res.Stdout}
		history = append(history, attempt)

		fields := logrus.Fields{
			"address":      address,
			"attempt":      i,
			"max_attempts": maxAttempts,
			"exit_code":    res.ExitCode,
		}

		if res.Success() && IsTransportCreated(res.Stdout) {
			c.logger.WithFields(fields).Info("Transport created")
			return &ConnectionResult{
				Address:     address,
				Attempts:    i,
				MaxAttempts: maxAttempts,
				History:     history,
			}, nil
		}
		c.logger.WithFields(fields).Debug("Connection attempt did not create a transport")
	}

	failure := &ConnectionFailedError{
		Address:     address,
		Attempts:    len(history),
		MaxAttempts: maxAttempts,
	}
	if len(history) > 0 {
		failure.Last = &history[len(history)-1]
	}
	c.logger.WithFields(logrus.Fields{
		"address":  address,
		"attempts": failure.Attempts,
	}).Warn("Giving up on connection")
	return nil, failure
}

// ConnectTargets runs the connect flow: list devices, keep the targets and
// connect to each in listing order. The first failure aborts the flow.
// An empty result means no target device is known to the controller.
func (c *Connector) ConnectTargets(ctx context.Context, progress ProgressCallback) ([]*ConnectionResult, error) {
	entries, err := c.ListDevices(ctx)
	if err != nil {
		return nil, err
	}

	targets := c.FindTargets(entries)
	if len(targets) == 0 {
		c.logger.WithField("targets", c.opts.TargetNames).Warn("No matching device found")
		return nil, nil
	}

	results := make([]*ConnectionResult, 0, len(targets))
	for _, entry := range targets {
		address, err := ExtractAddress(entry)
		if err != nil {
			return results, err
		}

		res, err := c.AttemptConnect(ctx, address, c.opts.MaxAttempts, progress)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Disconnect asks the tool to drop the active connection. Its exit status is
// not checked; only a failure to run the tool is reported.
func (c *Connector) Disconnect(ctx context.Context) error {
	args := bluetoothctl.DisconnectArgs()
	res, err := c.runner.Run(ctx, args...)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ExternalToolError{Op: "disconnect", Args: args, Err: err}
	}

	c.logger.WithField("exit_code", res.ExitCode).Debug("Disconnect requested")
	return nil
}
