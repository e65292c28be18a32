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

// Package purl builds package url strings (https://github.com/package-url/purl-spec)
// for the package types winrig reports. It is a thin convenience layer over the
// reference packageurl-go implementation.
package purl

import (
	"github.com/package-url/packageurl-go"
)

// Package types emitted by winrig probes.
const (
	// TypeGeneric is a pkg:generic purl, used for software without an
	// ecosystem-specific type (installed IDE instances, fetched tools).
	TypeGeneric = "generic"
	// TypeVSIX is a pkg:vsix purl for Visual Studio extension packages.
	TypeVSIX = "vsix"
	// TypeWinget is a pkg:winget purl.
	TypeWinget = "winget"
)

// NamespaceMicrosoft is the purl namespace for Microsoft-published packages.
const NamespaceMicrosoft = "microsoft"

// PackageURL is the struct representation of the parts that make a package url.
type PackageURL struct {
	Type      string
	Namespace string
	Name      string
	Version   string
}

// String renders the purl in its canonical string form.
func (p PackageURL) String() string {
	purl := packageurl.PackageURL{
		Type:      p.Type,
		Namespace: p.Namespace,
		Name:      p.Name,
		Version:   p.Version,
	}
	return (&purl).String()
}
