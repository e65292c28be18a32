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
	"github.com/winrig/winrig/fetch"
	"github.com/winrig/winrig/version"
)

func newFetchCmd() *cobra.Command {
	var (
		dest        string
		cache       string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "fetch <manifest.toml>",
		Short: "Download and unpack the tools listed in a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := fetch.LoadManifest(args[0])
			if err != nil {
				return err
			}
			cfg := fetch.Config{
				DestDir:     dest,
				CacheDir:    cache,
				UserAgent:   "winrig/" + version.WinrigVersion,
				Concurrency: concurrency,
			}
			results, err := fetch.Run(cmd.Context(), cfg, manifest)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, result := range results {
				verb := color.New(color.FgHiBlack).Sprint("up to date")
				if result.Downloaded {
					verb = color.GreenString("downloaded")
				}
				fmt.Fprintf(out, "%s %s -> %s\n", verb, result.Tool.Name, result.Dir)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dest, "dest", "", "Directory tools are installed under")
	cmd.Flags().StringVar(&cache, "cache", "", "Directory downloaded archives are cached in")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Maximum parallel downloads, 0 uses the default")
	cmd.MarkFlagRequired("dest")
	return cmd
}
