package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/blconnect/internal/connector"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List Bluetooth devices known to the controller",
	Long: `List the devices bluetoothctl knows about, with their addresses and
whether they match one of the target names used by the connect flow.

Devices are printed in the order bluetoothctl reports them.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listFormat      string
	listTargetsOnly bool
)

var listFormats = []string{"table", "json", "yaml"}

func registerListFlags() {
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format (table, json, yaml)")
	listCmd.Flags().BoolVar(&listTargetsOnly, "targets-only", false, "Only show target devices")
}

// deviceView is one listed device, keyed by address in the output.
type deviceView struct {
	Name   string `json:"name" yaml:"name"`
	Target bool   `json:"target" yaml:"target"`
}

func runList(cmd *cobra.Command, args []string) error {
	isValidFormat := false
	for _, format := range listFormats {
		if listFormat == format {
			isValidFormat = true
			break
		}
	}
	if !isValidFormat {
		return fmt.Errorf("invalid format '%s': must be one of %v", listFormat, listFormats)
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	ctx, stop := signalContext(cmd)
	defer stop()

	c := newConnector(cfg, logger)
	entries, err := c.ListDevices(ctx)
	if err != nil {
		return err
	}

	devices := collectDevices(entries, cfg.TargetNames, listTargetsOnly, logger)

	out := cmd.OutOrStdout()
	switch listFormat {
	case "json":
		return displayDevicesJSON(out, devices)
	case "yaml":
		return displayDevicesYAML(out, devices)
	default:
		return displayDevicesTable(out, devices)
	}
}

// collectDevices indexes entries by address, keeping listing order. Entries
// without an address are skipped and the first entry wins for a repeated one.
func collectDevices(entries []connector.DeviceEntry, targets []string, targetsOnly bool, logger *logrus.Logger) *orderedmap.OrderedMap[string, deviceView] {
	devices := orderedmap.New[string, deviceView]()
	for _, entry := range entries {
		address, err := connector.ExtractAddress(entry)
		if err != nil {
			logger.WithError(err).Debug("Skipping device entry")
			continue
		}

		isTarget := entry.Matches(targets)
		if targetsOnly && !isTarget {
			continue
		}
		if _, exists := devices.Get(address.String()); exists {
			logger.WithFields(logrus.Fields{
				"address": address,
				"entry":   entry,
			}).Debug("Skipping duplicate device entry")
			continue
		}
		devices.Set(address.String(), deviceView{Name: entry.Name(), Target: isTarget})
	}
	return devices
}

func displayDevicesTable(w io.Writer, devices *orderedmap.OrderedMap[string, deviceView]) error {
	if devices.Len() == 0 {
		fmt.Fprintln(w, "No devices found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tNAME\tTARGET")

	for pair := devices.Oldest(); pair != nil; pair = pair.Next() {
		target := ""
		if pair.Value.Target {
			target = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", pair.Key, pair.Value.Name, target)
	}

	return tw.Flush()
}

func displayDevicesJSON(w io.Writer, devices *orderedmap.OrderedMap[string, deviceView]) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(devices)
}

func displayDevicesYAML(w io.Writer, devices *orderedmap.OrderedMap[string, deviceView]) error {
	// Build the mapping node by hand so keys keep listing order
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for pair := devices.Oldest(); pair != nil; pair = pair.Next() {
		var value yaml.Node
		if err := value.Encode(pair.Value); err != nil {
			return fmt.Errorf("failed to encode device %s: %w", pair.Key, err)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Key},
			&value,
		)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(root); err != nil {
		return err
	}
	return encoder.Close()
}
