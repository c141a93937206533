package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/blconnect/internal/bluetoothctl"
	"github.com/srg/blconnect/internal/connector"
	"github.com/srg/blconnect/pkg/config"
)

var (
	disconnectFlag bool
	deviceNames    []string
	maxAttempts    int
	connectTimeout time.Duration
	toolName       string
	usePTY         bool
	noColor        bool
	verbose        bool
)

func registerRootFlags() {
	defaults := config.DefaultConfig()

	rootCmd.Flags().BoolVar(&disconnectFlag, "disconnect", false, "Disconnect from device.")
	rootCmd.Flags().IntVar(&maxAttempts, "attempts", defaults.MaxAttempts, "Configured connection attempts (at most attempts-1 connects are made)")
	rootCmd.Flags().DurationVar(&connectTimeout, "timeout", defaults.ConnectTimeout, "Timeout passed to each bluetoothctl connect")
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	// Shared with subcommands
	rootCmd.PersistentFlags().StringArrayVar(&deviceNames, "device", defaults.TargetNames, "Target device name or alias, repeat for several (substring match)")
	rootCmd.PersistentFlags().StringVar(&toolName, "tool", defaults.Tool, "Bluetooth control tool to invoke")
	rootCmd.PersistentFlags().BoolVar(&usePTY, "pty", defaults.UsePTY, "Run the tool on a pseudo-terminal")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output (same as --log-level=debug)")
}

// loadConfig builds the effective configuration from flags and validates it.
func loadConfig(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	cfg := config.DefaultConfig()
	cfg.Tool = toolName
	cfg.TargetNames = deviceNames
	cfg.MaxAttempts = maxAttempts
	cfg.ConnectTimeout = connectTimeout
	cfg.UsePTY = usePTY

	level, err := resolveLogLevel(cmd, "verbose")
	if err != nil {
		return nil, nil, err
	}
	cfg.LogLevel = level

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	if noColor {
		color.NoColor = true
	}

	return cfg, configureLogger(cfg, cmd.ErrOrStderr()), nil
}

func newConnector(cfg *config.Config, logger *logrus.Logger) *connector.Connector {
	runner := bluetoothctl.NewRunner(cfg.Tool, cfg.UsePTY, logger)
	return connector.New(runner, &connector.Options{
		TargetNames:    cfg.TargetNames,
		MaxAttempts:    cfg.MaxAttempts,
		ConnectTimeout: cfg.ConnectTimeout,
	}, logger)
}

// signalContext cancels on Ctrl+C so a running bluetoothctl is killed.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	ctx, stop := signalContext(cmd)
	defer stop()

	c := newConnector(cfg, logger)
	if disconnectFlag {
		return c.Disconnect(ctx)
	}
	return runConnect(ctx, cmd.OutOrStdout(), c, cfg)
}

func runConnect(ctx context.Context, out io.Writer, c *connector.Connector, cfg *config.Config) error {
	progress := NewAttemptPrinter(out, isTerminal(out))
	results, err := c.ConnectTargets(ctx, progress.Callback())
	progress.Stop()
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Fprintf(out, "No known device matches %s\n", strings.Join(cfg.TargetNames, ", "))
		return nil
	}

	success := color.New(color.FgGreen)
	for _, res := range results {
		success.Fprintf(out, "Successfully connected to %s\n", res.Address)
		fmt.Fprintf(out, "Number of tries: %d out of %d allowed tries\n", res.Attempts, res.MaxAttempts)
	}
	return nil
}
