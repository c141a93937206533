package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd connects to the target headphones, or disconnects with --disconnect
var rootCmd = &cobra.Command{
	Use:   "bl-connect",
	Short: "Handle connection to bluetooth devices",
	Long: `Handle connection to bluetooth devices.

Looks up the target device among the devices known to bluetoothctl and keeps
retrying "bluetoothctl connect" until an audio transport is created or the
attempts run out. With --disconnect, drops the active connection instead.

By default the target is a Sony WH-1000XM3 (including its LE_ alias); use
--device to target something else.`,
	Args:    cobra.NoArgs,
	Version: formatVersion(version),
	RunE:    runRoot,
}

func main() {
	os.Exit(execute(os.Stderr))
}

// execute runs the command tree and returns the process exit status.
func execute(stderr io.Writer) int {
	if err := rootCmd.Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %s\n", FormatUserError(err))
		return 1
	}
	return 0
}

func init() {
	// Silence Cobra's "Error:" prefix - execute() prints clean errors
	rootCmd.SilenceErrors = true
	rootCmd.SetVersionTemplate(fmt.Sprintf("bl-connect {{.Version}} (commit %s, built %s)\n", commit, date))

	rootCmd.AddCommand(listCmd)

	registerRootFlags()
	registerListFlags()
}
