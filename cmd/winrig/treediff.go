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
	"github.com/winrig/winrig/treediff"
)

func newTreediffCmd() *cobra.Command {
	var (
		excludes     []string
		withDiffs    bool
		maxDiffBytes int64
	)
	cmd := &cobra.Command{
		Use:   "treediff <old> <new>",
		Short: "Compare two directory trees file by file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			compiled, err := treediff.CompileExcludes(excludes)
			if err != nil {
				return err
			}
			changes, err := treediff.Compare(cmd.Context(), treediff.Config{
				OldRoot:      args[0],
				NewRoot:      args[1],
				Exclude:      compiled,
				WithDiffs:    withDiffs,
				MaxDiffBytes: maxDiffBytes,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(changes) == 0 {
				fmt.Fprintln(out, "Trees are identical.")
				return nil
			}
			for _, change := range changes {
				printChange(out, change)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&excludes, "exclude", nil, "Glob patterns of paths to skip")
	cmd.Flags().BoolVar(&withDiffs, "diff", false, "Print unified diffs for modified text files")
	cmd.Flags().Int64Var(&maxDiffBytes, "max-diff-bytes", 0, "Largest file size eligible for diffs, 0 uses the default")
	return cmd
}

func printChange(w io.Writer, change treediff.Change) {
	switch change.Kind {
	case treediff.Added:
		fmt.Fprintf(w, "%s %s (%d bytes)\n", color.GreenString("A"), change.Path, change.NewSize)
	case treediff.Removed:
		fmt.Fprintf(w, "%s %s\n", color.RedString("D"), change.Path)
	case treediff.Modified:
		fmt.Fprintf(w, "%s %s (%d -> %d bytes)\n", color.YellowString("M"), change.Path, change.OldSize, change.NewSize)
		if change.Binary {
			fmt.Fprintln(w, "  binary file, diff skipped")
		}
		if change.Diff != "" {
			fmt.Fprint(w, change.Diff)
		}
	}
}
