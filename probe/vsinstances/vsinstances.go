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

// Package vsinstances probes Visual Studio installations through the
// Setup Configuration service.
package vsinstances

import (
	"context"

	"github.com/winrig/winrig/inventory"
	"github.com/winrig/winrig/plugin"
	"github.com/winrig/winrig/probe"
	"github.com/winrig/winrig/purl"
	"github.com/winrig/winrig/vssetup"
)

// Name of the probe.
const Name = "windows/vsinstances"

// Probe finds Visual Studio instances on the machine.
type Probe struct {
	cfg vssetup.Config
}

// New returns a probe that enumerates with the given configuration.
func New(cfg vssetup.Config) *Probe {
	return &Probe{cfg: cfg}
}

// NewDefault returns the probe with default enumeration settings.
func NewDefault() *Probe {
	return New(vssetup.DefaultConfig())
}

// Name of the probe.
func (p *Probe) Name() string { return Name }

// Version of the probe.
func (p *Probe) Version() int { return 0 }

// Requirements of the probe.
func (p *Probe) Requirements() *plugin.Capabilities {
	return &plugin.Capabilities{OS: plugin.OSWindows, RunningSystem: true}
}

// Probe enumerates the installed instances. A machine without the
// setup configuration service yields an empty inventory.
func (p *Probe) Probe(ctx context.Context, _ *probe.Input) (inventory.Inventory, error) {
	if ctx.Err() != nil {
		return inventory.Inventory{}, ctx.Err()
	}

	instances, err := vssetup.Instances(p.cfg)
	if err != nil {
		return inventory.Inventory{}, err
	}

	inv := inventory.Inventory{}
	for _, instance := range instances {
		inv.Packages = append(inv.Packages, &inventory.Package{
			Name:          instance.ID,
			Version:       instance.InstallationVersion,
			PURLType:      purl.TypeGeneric,
			PURLNamespace: purl.NamespaceMicrosoft,
			Locations:     []string{instance.InstallationPath},
			Metadata:      instance,
		})
		for _, extension := range instance.Vsix {
			inv.Packages = append(inv.Packages, &inventory.Package{
				Name:     extension.ID,
				Version:  extension.Version,
				PURLType: purl.TypeVSIX,
				Metadata: extension,
			})
		}
	}
	return inv, nil
}
