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
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/winrig/winrig/vssetup"
)

func newVSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vs",
		Short: "Inspect Visual Studio installations",
	}
	cmd.AddCommand(newVSListCmd())
	return cmd
}

func newVSListCmd() *cobra.Command {
	var (
		locale            uint32
		includeIncomplete bool
		packages          bool
		sorted            bool
		newest            bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List Visual Studio instances installed on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := vssetup.DefaultConfig()
			cfg.Locale = locale
			cfg.IncludeIncomplete = includeIncomplete
			cfg.IncludePackages = packages
			instances, err := vssetup.Instances(cfg)
			if err != nil {
				return err
			}
			if newest {
				if n := vssetup.Newest(instances); n != nil {
					instances = []*vssetup.Instance{n}
				}
			} else if sorted {
				vssetup.SortByVersion(instances)
			}
			out := cmd.OutOrStdout()
			if len(instances) == 0 {
				fmt.Fprintln(out, "No Visual Studio instances found.")
				return nil
			}
			for i, instance := range instances {
				if i > 0 {
					fmt.Fprintln(out)
				}
				printInstance(out, instance, packages)
			}
			return nil
		},
	}
	cmd.Flags().Uint32Var(&locale, "locale", 0, "LCID for localized display names, 0 uses the user default")
	cmd.Flags().BoolVar(&includeIncomplete, "include-incomplete", false, "Include instances whose installation did not complete")
	cmd.Flags().BoolVar(&packages, "packages", false, "Enumerate the packages registered to each instance")
	cmd.Flags().BoolVar(&sorted, "sort", false, "Sort instances by descending installation version")
	cmd.Flags().BoolVar(&newest, "newest", false, "Print only the instance with the highest installation version")
	return cmd
}

func printInstance(w io.Writer, instance *vssetup.Instance, withPackages bool) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "Instance %s\n", instance.ID)
	state := instance.State.String()
	if instance.State.IsComplete() {
		state = color.GreenString(state)
	} else {
		state = color.YellowString(state)
	}
	fmt.Fprintf(w, "  State:               %s\n", state)
	fmt.Fprintf(w, "  InstallationVersion: %s\n", instance.InstallationVersion)
	fmt.Fprintf(w, "  InstallationPath:    %s\n", instance.InstallationPath)
	if instance.ProductName != "" {
		fmt.Fprintf(w, "  ProductName:         %s\n", instance.ProductName)
	}
	if instance.DisplayName != "" {
		fmt.Fprintf(w, "  DisplayName:         %s\n", instance.DisplayName)
	}
	if instance.Description != "" {
		fmt.Fprintf(w, "  Description:         %s\n", instance.Description)
	}
	if withPackages {
		printRefs(w, "Products", instance.Products)
		printRefs(w, "Workloads", instance.Workloads)
		printRefs(w, "Components", instance.Components)
		printRefs(w, "Vsix", instance.Vsix)
		printRefs(w, "Exe", instance.Exe)
		printRefs(w, "Msi", instance.Msi)
		printRefs(w, "Msu", instance.Msu)
		printRefs(w, "Group", instance.Group)
		printRefs(w, "WindowsFeature", instance.WindowsFeature)
		printRefs(w, "OtherPackages", instance.OtherPackages)
	}
}

func printRefs(w io.Writer, name string, refs []*vssetup.PackageReference) {
	fmt.Fprintf(w, "  %s (%d):\n", name, len(refs))
	for _, ref := range refs {
		fmt.Fprintf(w, "    %s\n", formatRef(ref))
	}
}

// formatRef renders a package reference as "ID Version (chip, language,
// branch)", leaving out whatever the instance did not record.
func formatRef(ref *vssetup.PackageReference) string {
	var b strings.Builder
	b.WriteString(ref.ID)
	if ref.Version != "" {
		b.WriteString(" ")
		b.WriteString(ref.Version)
	}
	var details []string
	for _, d := range []string{ref.Chip, ref.Language, ref.Branch} {
		if d != "" {
			details = append(details, d)
		}
	}
	if ref.IsExtension {
		details = append(details, "extension")
	}
	if len(details) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(details, ", "))
		b.WriteString(")")
	}
	return b.String()
}
