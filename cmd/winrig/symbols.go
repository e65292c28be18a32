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

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/winrig/winrig/symbols"
)

func newSymbolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "Configure debugger symbol-server settings",
	}
	cmd.AddCommand(newSymbolsSetCmd())
	cmd.AddCommand(newSymbolsShowCmd())
	return cmd
}

// symbolsFlags registers the flags shared by the symbols subcommands
// and wires them into cfg.
func symbolsFlags(cmd *cobra.Command, cfg *symbols.Config) {
	cmd.Flags().StringVar(&cfg.DebuggerKey, "debugger-key", "", "Registry key of a debugger to also configure")
	cmd.Flags().StringVar(&cfg.SettingsFile, "settings-file", "", "Settings file to also write the symbol path to")
}

func newSymbolsSetCmd() *cobra.Command {
	var (
		cfg      symbols.Config
		cache    string
		servers  []string
		paths    []string
		clearAll bool
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the symbol path for the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := &symbols.Settings{
				CachePath:  cache,
				Servers:    servers,
				ExtraPaths: paths,
			}
			if clearAll {
				settings = &symbols.Settings{}
			}
			if err := symbols.Apply(cfg, settings); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if expr := settings.Expression(); expr != "" {
				fmt.Fprintf(out, "%s=%s\n", symbols.SymbolPathVar, expr)
			} else {
				fmt.Fprintln(out, "Symbol configuration cleared.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cache, "cache", "", "Local directory downloaded symbols are cached in")
	cmd.Flags().StringSliceVar(&servers, "server", []string{symbols.MicrosoftSymbolServer}, "Symbol servers to download from")
	cmd.Flags().StringSliceVar(&paths, "path", nil, "Extra directories searched for symbols as-is")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Remove the symbol configuration instead of setting it")
	symbolsFlags(cmd, &cfg)
	return cmd
}

func newSymbolsShowCmd() *cobra.Command {
	var cfg symbols.Config
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the configured symbol paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := symbols.Show(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printSetting(out, symbols.SymbolPathVar, state.EnvironmentExpression)
			if cfg.DebuggerKey != "" {
				printSetting(out, "Debugger path", state.DebuggerPath)
				printSetting(out, "Debugger cache", state.DebuggerCache)
			}
			if cfg.SettingsFile != "" {
				printSetting(out, "Settings file", state.FileExpression)
			}
			return nil
		},
	}
	symbolsFlags(cmd, &cfg)
	return cmd
}

func printSetting(w io.Writer, name, value string) {
	if value == "" {
		value = color.New(color.FgHiBlack).Sprint("(not set)")
	}
	fmt.Fprintf(w, "%-20s %s\n", name+":", value)
}
