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

package vssetup

import "errors"

// ErrNotInstalled is returned by an Opener when the Setup Configuration
// service is not available on the machine, which means no Visual Studio
// product (or a version too old to register the service) is installed.
var ErrNotInstalled = errors.New("setup configuration service not installed")

// Opener acquires a connection to the Setup Configuration service.
type Opener interface {
	// Open connects to the service. It returns ErrNotInstalled when the
	// service does not exist on the machine; any other error means the
	// service exists but could not be used.
	Open() (Provider, error)
}

// Provider is an open connection to the Setup Configuration service.
type Provider interface {
	// EnumInstances starts an enumeration of completely installed
	// instances.
	EnumInstances() (InstanceEnumerator, error)

	// EnumAllInstances starts an enumeration of all known instances,
	// including incomplete or broken installations.
	EnumAllInstances() (InstanceEnumerator, error)

	// Release frees the connection. The provider must not be used
	// afterwards.
	Release()
}

// InstanceEnumerator walks the instances known to the service.
type InstanceEnumerator interface {
	// Next returns up to n further instance records. An empty result
	// with a nil error means the enumeration is exhausted.
	Next(n int) ([]InstanceRecord, error)

	// Release frees the enumerator.
	Release()
}

// InstanceRecord is a raw per-instance handle. Accessors mirror the
// service's property getters; the caller owns the record until Release.
type InstanceRecord interface {
	// InstanceID returns the unique identifier of the instance.
	InstanceID() (string, error)

	// InstallationVersion returns the version of the installed product.
	InstallationVersion() (string, error)

	// InstallationPath returns the root path of the instance.
	InstallationPath() (string, error)

	// State returns the raw installation state value.
	State() (uint32, error)

	// DisplayName returns the product name localized for the given
	// locale identifier; zero selects the user's default locale.
	DisplayName(locale uint32) (string, error)

	// Description returns the product description localized for the
	// given locale identifier; zero selects the user's default locale.
	Description(locale uint32) (string, error)

	// Product returns the primary product package reference, or
	// (nil, nil) when the instance does not have one.
	Product() (PackageRecord, error)

	// Packages returns the package references registered to the
	// instance, in service enumeration order.
	Packages() ([]PackageRecord, error)

	// Release frees the record.
	Release()
}

// PackageRecord is a raw package reference handle.
type PackageRecord interface {
	// ID returns the package identifier.
	ID() (string, error)

	// Version returns the package version.
	Version() (string, error)

	// Chip returns the target processor architecture.
	Chip() (string, error)

	// Language returns the language-locale of the package.
	Language() (string, error)

	// Branch returns the release branch of the package.
	Branch() (string, error)

	// UniqueID returns the fully qualified package identifier.
	UniqueID() (string, error)

	// TypeTag returns the raw package type string, e.g. "Workload".
	TypeTag() (string, error)

	// IsExtension reports whether the package is a VSIX extension.
	IsExtension() (bool, error)

	// Release frees the record.
	Release()
}
