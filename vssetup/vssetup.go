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

// Package vssetup enumerates Visual Studio instances through the Setup
// Configuration service and reports each instance together with its
// installed packages, grouped by package type.
package vssetup

import (
	"fmt"
	"strings"

	"github.com/winrig/winrig/log"
)

// InstanceState describes the installation state of a Visual Studio
// instance as reported by the Setup Configuration service.
//
// Except for StateComplete, the value is a bitmask and individual flags
// are tested with Has. StateComplete is a sentinel, not a flag set:
// compare it with IsComplete (or ==), never bitwise.
type InstanceState uint32

const (
	// StateNone indicates no reliable state could be determined.
	StateNone InstanceState = 0

	// StateLocal indicates the instance directory exists on disk.
	StateLocal InstanceState = 1

	// StateRegistered indicates the instance has a registered product.
	StateRegistered InstanceState = 2

	// StateNoRebootRequired indicates no reboot is pending for the
	// instance.
	StateNoRebootRequired InstanceState = 4

	// StateComplete marks a completely installed instance. The service
	// reports it as a sentinel equal to the largest signed 32-bit value
	// rather than as a combination of the flags above.
	StateComplete InstanceState = 1<<31 - 1
)

// IsComplete reports whether the state is the completed-install sentinel.
func (s InstanceState) IsComplete() bool {
	return s == StateComplete
}

// Has reports whether every flag in mask is set. It always returns false
// for the StateComplete sentinel, which carries no individual flags.
func (s InstanceState) Has(mask InstanceState) bool {
	if s.IsComplete() {
		return false
	}
	return s&mask == mask
}

func (s InstanceState) String() string {
	if s.IsComplete() {
		return "Complete"
	}
	if s == StateNone {
		return "None"
	}
	var parts []string
	rest := s
	for _, f := range []struct {
		bit  InstanceState
		name string
	}{
		{StateLocal, "Local"},
		{StateRegistered, "Registered"},
		{StateNoRebootRequired, "NoRebootRequired"},
	} {
		if s&f.bit != 0 {
			parts = append(parts, f.name)
			rest &^= f.bit
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%X", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// PackageReference identifies a single package that is part of an
// instance. Only ID is always present; the remaining fields are empty
// when the service does not report them.
type PackageReference struct {
	// Branch is the release branch the package was built from.
	Branch string
	// Chip is the processor architecture the package targets.
	Chip string
	// ID is the package identifier, unique within an instance.
	ID string
	// IsExtension reports whether the package is a VSIX extension.
	IsExtension bool
	// Language is the language-locale of the package.
	Language string
	// UniqueID is the fully qualified package identifier.
	UniqueID string
	// Version is the package version.
	Version string
}

// Instance is one installed (or partially installed) Visual Studio
// instance. The package slices preserve the order in which the service
// enumerated the packages and are only populated when enumeration was
// asked to include packages.
type Instance struct {
	// ID is the unique instance identifier, e.g. a8f722a3.
	ID string
	// State is the installation state reported by the service.
	State InstanceState
	// InstallationVersion is the version of the installed product.
	InstallationVersion string
	// InstallationPath is the root directory of the instance.
	InstallationPath string
	// ProductName is the identifier of the product package, e.g.
	// Microsoft.VisualStudio.Product.Community. Empty when the instance
	// has no product reference.
	ProductName string
	// Description is the localized description of the product.
	Description string
	// DisplayName is the localized name of the product.
	DisplayName string

	// Products holds the product packages of the instance, normally
	// exactly one.
	Products []*PackageReference
	// Workloads holds the installed workload packages.
	Workloads []*PackageReference
	// Components holds the installed component packages.
	Components []*PackageReference
	// Vsix holds the installed VSIX extension packages.
	Vsix []*PackageReference
	// Exe holds the installed EXE payload packages.
	Exe []*PackageReference
	// Msi holds the installed MSI payload packages.
	Msi []*PackageReference
	// Msu holds the installed MSU payload packages.
	Msu []*PackageReference
	// Group holds the installed package groups.
	Group []*PackageReference
	// WindowsFeature holds the installed Windows feature packages.
	WindowsFeature []*PackageReference
	// OtherPackages holds every package whose type is not one of the
	// known categories above.
	OtherPackages []*PackageReference
}

// PackageCount returns the total number of packages across all
// categories.
func (i *Instance) PackageCount() int {
	n := 0
	for _, refs := range [][]*PackageReference{
		i.Products, i.Workloads, i.Components, i.Vsix, i.Exe,
		i.Msi, i.Msu, i.Group, i.WindowsFeature, i.OtherPackages,
	} {
		n += len(refs)
	}
	return n
}

// addPackage files ref into the category collection matching typeTag.
// The tag comparison is case-insensitive; unrecognized tags land in
// OtherPackages.
func (i *Instance) addPackage(typeTag string, ref *PackageReference) {
	switch strings.ToUpper(typeTag) {
	case "PRODUCT":
		i.Products = append(i.Products, ref)
	case "WORKLOAD":
		i.Workloads = append(i.Workloads, ref)
	case "COMPONENT":
		i.Components = append(i.Components, ref)
	case "VSIX":
		i.Vsix = append(i.Vsix, ref)
	case "EXE":
		i.Exe = append(i.Exe, ref)
	case "MSI":
		i.Msi = append(i.Msi, ref)
	case "MSU":
		i.Msu = append(i.Msu, ref)
	case "GROUP":
		i.Group = append(i.Group, ref)
	case "WINDOWSFEATURE":
		i.WindowsFeature = append(i.WindowsFeature, ref)
	default:
		log.Debugf("vssetup: package %q has unrecognized type %q", ref.ID, typeTag)
		i.OtherPackages = append(i.OtherPackages, ref)
	}
}
