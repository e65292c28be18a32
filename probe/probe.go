// Copyright 2024 The winrig Authors
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

// Package probe provides winrig's standalone machine probes: plugins
// that read system state directly, e.g. through a system API or by
// executing a command.
package probe

import (
	"context"
	"path/filepath"

	"github.com/winrig/winrig/inventory"
	"github.com/winrig/winrig/plugin"
)

// Probe is the interface all machine probes implement.
type Probe interface {
	plugin.Plugin

	// Probe reads the machine state this probe is responsible for.
	Probe(ctx context.Context, input *Input) (inventory.Inventory, error)
}

// Config for running probes.
type Config struct {
	Probes   []Probe
	ScanRoot string
}

// Input provides probes with information about the run.
type Input struct {
	// ScanRoot is the absolute root directory of the scan.
	ScanRoot string
}

// Run executes the configured probes in order. A failing probe is
// reported through its status and does not abort the run.
func Run(ctx context.Context, config *Config) (inventory.Inventory, []*plugin.Status, error) {
	var statuses []*plugin.Status

	scanRoot, err := filepath.Abs(config.ScanRoot)
	if err != nil {
		return inventory.Inventory{}, nil, err
	}
	input := &Input{ScanRoot: scanRoot}

	inv := inventory.Inventory{}
	for _, p := range config.Probes {
		if ctx.Err() != nil {
			return inventory.Inventory{}, nil, ctx.Err()
		}

		pInv, err := p.Probe(ctx, input)
		if err != nil {
			statuses = append(statuses, plugin.StatusFromErr(p, err))
			continue
		}
		for _, pkg := range pInv.Packages {
			pkg.Plugins = append(pkg.Plugins, p.Name())
		}
		inv.Append(pInv)
		statuses = append(statuses, plugin.StatusFromErr(p, nil))
	}

	return inv, statuses, nil
}
