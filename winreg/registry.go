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

// Package winreg abstracts the Windows registry behind small interfaces
// so callers can be tested against an in-memory registry and, on
// Windows, run against the live one. Unlike a plain read facade it also
// carries the write operations the configuration tooling needs.
package winreg

import "errors"

// ErrNotExist is returned when a requested key or value does not exist.
var ErrNotExist = errors.New("registry key or value does not exist")

// Well-known hive names accepted by Registry implementations.
const (
	// HKLM is HKEY_LOCAL_MACHINE.
	HKLM = "HKLM"
	// HKCU is HKEY_CURRENT_USER.
	HKCU = "HKCU"
	// HKU is HKEY_USERS.
	HKU = "HKU"
)

// Opener opens a registry. It exists to delay the open until the caller
// actually needs registry access.
type Opener interface {
	Open() (Registry, error)
}

// Registry represents an open registry.
type Registry interface {
	// OpenKey opens an existing key for reading. It returns ErrNotExist
	// when the key is absent.
	OpenKey(hive string, path string) (Key, error)

	// CreateKey opens a key for reading and writing, creating it and
	// any missing parents first.
	CreateKey(hive string, path string) (Key, error)

	// Close closes the registry.
	Close() error
}

// Key represents a single registry key.
type Key interface {
	// Name returns the path the key was opened with.
	Name() string

	// Close closes the key.
	Close() error

	// SubkeyNames returns the names of the direct subkeys.
	SubkeyNames() ([]string, error)

	// Value returns the named value. The data is loaded lazily; a
	// missing value surfaces as ErrNotExist from the data accessors or
	// from Value itself, depending on the implementation.
	Value(name string) (Value, error)

	// ValueBytes directly returns the content (as bytes) of the named
	// value.
	ValueBytes(name string) ([]byte, error)

	// ValueString directly returns the content (as string) of the named
	// value. Integer values are formatted in decimal.
	ValueString(name string) (string, error)

	// Values returns all values of the key.
	Values() ([]Value, error)

	// SetString stores a REG_SZ value.
	SetString(name string, value string) error

	// SetDWord stores a REG_DWORD value.
	SetDWord(name string, value uint32) error

	// DeleteValue removes the named value. It returns ErrNotExist when
	// the value is absent.
	DeleteValue(name string) error
}

// Value represents a value inside a specific key.
type Value interface {
	// Name returns the name of the value.
	Name() string

	// Data returns the raw data of the value.
	Data() ([]byte, error)

	// DataString returns the data of the value as a string.
	DataString() (string, error)
}
