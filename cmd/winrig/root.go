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
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/winrig/winrig/log"
	"github.com/winrig/winrig/plugin"
	"github.com/winrig/winrig/version"
)

func newRootCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "winrig",
		Short: "winrig administers Windows developer machines",
		Long: "winrig inspects and administers Windows developer machines: it enumerates\n" +
			"Visual Studio instances through the setup configuration API, reports the\n" +
			"installed tooling, and automates common configuration chores such as symbol\n" +
			"paths, tool downloads and project file edits.",
		Version:       version.WinrigVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetLogger(&log.StderrLogger{Verbose: verbose})
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.AddCommand(newVSCmd())
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newSymbolsCmd())
	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newHashCmd())
	cmd.AddCommand(newTreediffCmd())
	cmd.AddCommand(newEnvCmd())
	cmd.AddCommand(newProjCmd())
	return cmd
}

// hostCapabilities describes the machine the binary runs on. All
// capabilities are enabled when running as a binary.
func hostCapabilities() *plugin.Capabilities {
	hostOS := plugin.OSUnknown
	switch runtime.GOOS {
	case "windows":
		hostOS = plugin.OSWindows
	case "linux":
		hostOS = plugin.OSLinux
	case "darwin":
		hostOS = plugin.OSMac
	}
	return &plugin.Capabilities{
		OS:            hostOS,
		Network:       plugin.NetworkOnline,
		RunningSystem: true,
	}
}

// systemRoot returns the scan root for the running system, e.g. C:\ on
// Windows and / elsewhere.
func systemRoot() string {
	if runtime.GOOS != "windows" {
		return "/"
	}
	if drive := os.Getenv("SystemDrive"); drive != "" {
		return drive + `\`
	}
	return `C:\`
}
