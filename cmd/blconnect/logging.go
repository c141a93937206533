package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/blconnect/pkg/config"
)

// resolveLogLevel reads --log-level, falling back to the verbose flag.
// Without either the level stays at panic, which keeps normal runs silent.
func resolveLogLevel(cmd *cobra.Command, verboseFlagName string) (logrus.Level, error) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	switch logLevelStr {
	case "":
		if v, _ := cmd.Flags().GetBool(verboseFlagName); v {
			return logrus.DebugLevel, nil
		}
		return logrus.PanicLevel, nil
	case "debug":
		return logrus.DebugLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "warn":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.PanicLevel, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", logLevelStr)
	}
}

// configureLogger creates the logger for cfg writing to w, so log lines never
// interleave with the progress line on stdout.
func configureLogger(cfg *config.Config, w io.Writer) *logrus.Logger {
	logger := cfg.NewLogger()
	logger.SetOutput(w)
	return logger
}
