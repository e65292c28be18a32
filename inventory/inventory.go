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

// Package inventory stores the machine-report types winrig probes return.
package inventory

import (
	"github.com/winrig/winrig/purl"
)

// Package is one piece of installed software found on the machine.
type Package struct {
	// A human-readable name of the package. Probes that know a stable
	// identifier (e.g. a product ID) put it here and keep display strings in
	// the Metadata.
	Name string
	// The installed version.
	Version string
	// PURLType is the package url type emitted for this package, one of the
	// purl.Type* constants.
	PURLType string
	// PURLNamespace is the purl namespace, e.g. "microsoft". May be empty.
	PURLNamespace string
	// Paths related to the package, e.g. its installation directory.
	Locations []string
	// Names of the probes that found this package. Set by the runner.
	Plugins []string
	// Probe-specific structured data about the package.
	Metadata any
}

// PURL returns the package url of the package, or nil if the probe that
// produced it doesn't emit purls.
func (p *Package) PURL() *purl.PackageURL {
	if p.PURLType == "" {
		return nil
	}
	return &purl.PackageURL{
		Type:      p.PURLType,
		Namespace: p.PURLNamespace,
		Name:      p.Name,
		Version:   p.Version,
	}
}

// Inventory is the aggregate result of a probe run.
type Inventory struct {
	Packages []*Package
}

// Append adds one or more inventories to the current one.
func (i *Inventory) Append(other ...Inventory) {
	for _, o := range other {
		i.Packages = append(i.Packages, o.Packages...)
	}
}

// IsEmpty returns true if the inventory holds nothing.
func (i Inventory) IsEmpty() bool {
	return len(i.Packages) == 0
}
