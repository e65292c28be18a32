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

// Package mocksetup provides a mock implementation of the vssetup
// provider interfaces for testing.
package mocksetup

import (
	"github.com/winrig/winrig/vssetup"
)

// MockOpener implements vssetup.Opener.
type MockOpener struct {
	// Provider is returned by Open when Err is nil.
	Provider *MockProvider
	// Err is returned by Open when set, e.g. vssetup.ErrNotInstalled.
	Err error
}

// Open implements vssetup.Opener.Open.
func (o *MockOpener) Open() (vssetup.Provider, error) {
	if o.Err != nil {
		return nil, o.Err
	}
	return o.Provider, nil
}

// MockProvider implements vssetup.Provider.
type MockProvider struct {
	// Complete holds the instances reported by EnumInstances.
	Complete []*MockInstance
	// All holds the instances reported by EnumAllInstances.
	All []*MockInstance
	// EnumErr makes both enumeration constructors fail.
	EnumErr error
	// NextErr makes the first Next call of any enumerator fail.
	NextErr error
	// Released records whether Release was called.
	Released bool
}

// EnumInstances implements vssetup.Provider.EnumInstances.
func (p *MockProvider) EnumInstances() (vssetup.InstanceEnumerator, error) {
	if p.EnumErr != nil {
		return nil, p.EnumErr
	}
	return &mockEnumerator{instances: p.Complete, nextErr: p.NextErr}, nil
}

// EnumAllInstances implements vssetup.Provider.EnumAllInstances.
func (p *MockProvider) EnumAllInstances() (vssetup.InstanceEnumerator, error) {
	if p.EnumErr != nil {
		return nil, p.EnumErr
	}
	return &mockEnumerator{instances: p.All, nextErr: p.NextErr}, nil
}

// Release implements vssetup.Provider.Release.
func (p *MockProvider) Release() { p.Released = true }

type mockEnumerator struct {
	instances []*MockInstance
	nextErr   error
	pos       int
}

func (e *mockEnumerator) Next(n int) ([]vssetup.InstanceRecord, error) {
	if e.nextErr != nil {
		return nil, e.nextErr
	}
	var records []vssetup.InstanceRecord
	for len(records) < n && e.pos < len(e.instances) {
		records = append(records, e.instances[e.pos])
		e.pos++
	}
	return records, nil
}

func (e *mockEnumerator) Release() {}

// MockInstance implements vssetup.InstanceRecord.
type MockInstance struct {
	// IID is the instance identifier.
	IID string
	// IVersion is the installation version.
	IVersion string
	// IPath is the installation path.
	IPath string
	// IState is the raw installation state value.
	IState uint32
	// IName is the display name, regardless of requested locale.
	IName string
	// IDescription is the description, regardless of requested locale.
	IDescription string
	// IProduct is the product reference; nil means absent.
	IProduct *MockPackage
	// IPackages are the package references in enumeration order.
	IPackages []*MockPackage

	// Err makes every accessor fail.
	Err error
	// GotLocale records the locale passed to DisplayName or
	// Description, for asserting locale pass-through.
	GotLocale uint32
	// Released records whether Release was called.
	Released bool
}

// InstanceID implements vssetup.InstanceRecord.InstanceID.
func (m *MockInstance) InstanceID() (string, error) { return m.IID, m.Err }

// InstallationVersion implements vssetup.InstanceRecord.InstallationVersion.
func (m *MockInstance) InstallationVersion() (string, error) { return m.IVersion, m.Err }

// InstallationPath implements vssetup.InstanceRecord.InstallationPath.
func (m *MockInstance) InstallationPath() (string, error) { return m.IPath, m.Err }

// State implements vssetup.InstanceRecord.State.
func (m *MockInstance) State() (uint32, error) { return m.IState, m.Err }

// DisplayName implements vssetup.InstanceRecord.DisplayName.
func (m *MockInstance) DisplayName(locale uint32) (string, error) {
	m.GotLocale = locale
	return m.IName, m.Err
}

// Description implements vssetup.InstanceRecord.Description.
func (m *MockInstance) Description(locale uint32) (string, error) {
	m.GotLocale = locale
	return m.IDescription, m.Err
}

// Product implements vssetup.InstanceRecord.Product.
func (m *MockInstance) Product() (vssetup.PackageRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.IProduct == nil {
		return nil, nil
	}
	return m.IProduct, nil
}

// Packages implements vssetup.InstanceRecord.Packages.
func (m *MockInstance) Packages() ([]vssetup.PackageRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	records := make([]vssetup.PackageRecord, 0, len(m.IPackages))
	for _, p := range m.IPackages {
		records = append(records, p)
	}
	return records, nil
}

// Release implements vssetup.InstanceRecord.Release.
func (m *MockInstance) Release() { m.Released = true }

// MockPackage implements vssetup.PackageRecord.
type MockPackage struct {
	// PID is the package identifier.
	PID string
	// PVersion is the package version.
	PVersion string
	// PChip is the target architecture.
	PChip string
	// PLanguage is the package language-locale.
	PLanguage string
	// PBranch is the release branch.
	PBranch string
	// PUniqueID is the fully qualified identifier.
	PUniqueID string
	// PType is the raw package type tag.
	PType string
	// PIsExtension marks VSIX extensions.
	PIsExtension bool

	// Err makes every accessor fail.
	Err error
	// Released records whether Release was called.
	Released bool
}

// ID implements vssetup.PackageRecord.ID.
func (m *MockPackage) ID() (string, error) { return m.PID, m.Err }

// Version implements vssetup.PackageRecord.Version.
func (m *MockPackage) Version() (string, error) { return m.PVersion, m.Err }

// Chip implements vssetup.PackageRecord.Chip.
func (m *MockPackage) Chip() (string, error) { return m.PChip, m.Err }

// Language implements vssetup.PackageRecord.Language.
func (m *MockPackage) Language() (string, error) { return m.PLanguage, m.Err }

// Branch implements vssetup.PackageRecord.Branch.
func (m *MockPackage) Branch() (string, error) { return m.PBranch, m.Err }

// UniqueID implements vssetup.PackageRecord.UniqueID.
func (m *MockPackage) UniqueID() (string, error) { return m.PUniqueID, m.Err }

// TypeTag implements vssetup.PackageRecord.TypeTag.
func (m *MockPackage) TypeTag() (string, error) { return m.PType, m.Err }

// IsExtension implements vssetup.PackageRecord.IsExtension.
func (m *MockPackage) IsExtension() (bool, error) { return m.PIsExtension, m.Err }

// Release implements vssetup.PackageRecord.Release.
func (m *MockPackage) Release() { m.Released = true }
