// Copyright 2025 The winrig Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/winrig/winrig"
	"github.com/winrig/winrig/plugin"
	pl "github.com/winrig/winrig/probe/list"
)

func newReportCmd() *cobra.Command {
	var (
		probeNames []string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report the developer tooling installed on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			probes, err := pl.FromNames(probeNames)
			if err != nil {
				return err
			}
			cfg := &winrig.ScanConfig{
				Probes:       probes,
				Capabilities: hostCapabilities(),
				ScanRoot:     systemRoot(),
			}
			// Explicitly selected probes must be able to run here;
			// the defaults are just filtered down to what the host
			// supports.
			if cmd.Flags().Changed("probes") {
				if err := cfg.ValidatePluginRequirements(); err != nil {
					return err
				}
			}
			result := winrig.New().Scan(cmd.Context(), cfg)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printReport(out, result)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&probeNames, "probes", []string{"default"}, "Probes or probe collections to run")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the scan result as JSON")
	return cmd
}

func printReport(w io.Writer, result *winrig.ScanResult) {
	duration := result.EndTime.Sub(result.StartTime).Round(time.Millisecond)
	fmt.Fprintf(w, "winrig %s finished in %v: %s\n", result.Version, duration, formatStatus(result.Status))
	for _, status := range result.PluginStatus {
		fmt.Fprintf(w, "  %s v%d: %s\n", status.Name, status.Version, formatStatus(status.Status))
	}
	packages := result.Inventory.Packages
	if len(packages) == 0 {
		fmt.Fprintln(w, "No packages found.")
		return
	}
	fmt.Fprintf(w, "Found %d packages:\n", len(packages))
	for _, pkg := range packages {
		line := pkg.Name
		if pkg.Version != "" {
			line += " " + pkg.Version
		}
		if p := pkg.PURL(); p != nil {
			line += " (" + p.String() + ")"
		}
		fmt.Fprintf(w, "  %s\n", line)
	}
}

func formatStatus(status *plugin.RunStatus) string {
	text := status.Status.String()
	switch status.Status {
	case plugin.StatusSucceeded:
		text = color.GreenString(text)
	case plugin.StatusPartiallySucceeded:
		text = color.YellowString(text)
	case plugin.StatusFailed:
		text = color.RedString(text)
		if status.FailureReason != "" {
			text += ": " + status.FailureReason
		}
	}
	return text
}
