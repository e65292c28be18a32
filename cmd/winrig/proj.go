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
	"strings"

	"github.com/spf13/cobra"
	"github.com/winrig/winrig/proj"
)

func newProjCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proj",
		Short: "Edit MSBuild project files",
	}
	cmd.AddCommand(newProjSetPropertyCmd())
	cmd.AddCommand(newProjRemovePropertyCmd())
	cmd.AddCommand(newProjAddItemCmd())
	return cmd
}

func newProjSetPropertyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-property <project> <Name=Value>...",
		Short: "Set properties in a project file",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			properties, err := parsePairs(args[1:])
			if err != nil {
				return err
			}
			if err := proj.Apply(args[0], proj.Edit{SetProperties: properties}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s.\n", args[0])
			return nil
		},
	}
	return cmd
}

func newProjRemovePropertyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove-property <project> <name>...",
		Short: "Remove properties from a project file",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := proj.Apply(args[0], proj.Edit{RemoveProperties: args[1:]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s.\n", args[0])
			return nil
		},
	}
	return cmd
}

func newProjAddItemCmd() *cobra.Command {
	var metadata []string
	cmd := &cobra.Command{
		Use:   "add-item <project> <type> <include>...",
		Short: "Add items to a project file",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := parsePairs(metadata)
			if err != nil {
				return err
			}
			var items []proj.Item
			for _, include := range args[2:] {
				items = append(items, proj.Item{
					Type:     args[1],
					Include:  include,
					Metadata: meta,
				})
			}
			if err := proj.Apply(args[0], proj.Edit{AddItems: items}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s.\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&metadata, "metadata", nil, "Item metadata as Name=Value, repeatable")
	return cmd
}

func parsePairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	result := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%q is not of the form Name=Value", pair)
		}
		result[name] = value
	}
	return result, nil
}
