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

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/winrig/winrig/hashutil"
	"go.uber.org/multierr"
)

func newHashCmd() *cobra.Command {
	var (
		algorithm string
		verify    string
	)
	cmd := &cobra.Command{
		Use:   "hash <file>...",
		Short: "Compute or verify file hashes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alg := hashutil.Algorithm(algorithm)
			out := cmd.OutOrStdout()
			if verify != "" {
				if len(args) != 1 {
					return fmt.Errorf("--verify checks exactly one file, got %d", len(args))
				}
				if err := hashutil.VerifyFile(alg, args[0], verify); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s\n", color.GreenString("OK"), args[0])
				return nil
			}
			var errs error
			for _, path := range args {
				digest, err := hashutil.SumFile(alg, path)
				if err != nil {
					errs = multierr.Append(errs, err)
					continue
				}
				fmt.Fprintf(out, "%s  %s\n", digest, path)
			}
			return errs
		},
	}
	cmd.Flags().StringVar(&algorithm, "algorithm", string(hashutil.SHA256), "Hash algorithm: sha256, sha1 or md5")
	cmd.Flags().StringVar(&verify, "verify", "", "Expected digest to verify the file against")
	return cmd
}
