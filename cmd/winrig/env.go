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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/winrig/winrig/batchenv"
)

func newEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Capture batch script environments",
	}
	cmd.AddCommand(newEnvRunCmd())
	return cmd
}

func newEnvRunCmd() *cobra.Command {
	var changes bool
	cmd := &cobra.Command{
		Use:   "run <script.bat> [script args] [-- command [args]]",
		Short: "Run a command in the environment a batch script sets up",
		Long: "env run executes the batch script, captures the environment it leaves\n" +
			"behind and runs the command after -- in that environment. Without a\n" +
			"command it prints how the script changed the environment.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scriptArgs := args
			var command []string
			if i := cmd.ArgsLenAtDash(); i >= 0 {
				scriptArgs, command = args[:i], args[i:]
			}
			if len(scriptArgs) == 0 {
				return fmt.Errorf("missing batch script to capture the environment from")
			}
			env, err := batchenv.Capture(cmd.Context(), scriptArgs[0], scriptArgs[1:]...)
			if err != nil {
				return err
			}
			if len(command) == 0 || changes {
				base := batchenv.ParseBlock([]byte(strings.Join(os.Environ(), "\n")))
				out := cmd.OutOrStdout()
				diffs := batchenv.Diff(base, env)
				if len(diffs) == 0 {
					fmt.Fprintln(out, "No environment changes.")
				}
				for _, change := range diffs {
					printEnvChange(out, change)
				}
			}
			if len(command) > 0 {
				return batchenv.Run(cmd.Context(), env, command[0], command[1:]...)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&changes, "changes", false, "Print the environment changes even when running a command")
	return cmd
}

func printEnvChange(w io.Writer, change batchenv.Change) {
	switch change.Kind {
	case batchenv.Added:
		fmt.Fprintf(w, "%s %s=%s\n", color.GreenString("+"), change.Name, change.New)
	case batchenv.Changed:
		fmt.Fprintf(w, "%s %s=%s\n", color.YellowString("~"), change.Name, change.New)
	case batchenv.Removed:
		fmt.Fprintf(w, "%s %s\n", color.RedString("-"), change.Name)
	}
}
