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

// Package mockregistry provides an in-memory implementation of the
// winreg interfaces, including the write operations, for testing.
package mockregistry

import (
	"encoding/binary"
	"strconv"

	"github.com/winrig/winrig/winreg"
)

// Opener is an opener for the mock registry.
type Opener struct {
	// Registry is returned by Open when Err is nil.
	Registry *MockRegistry
	// Err makes Open fail.
	Err error
}

// NewOpener creates a new Opener for the mock registry.
func NewOpener(registry *MockRegistry) *Opener {
	return &Opener{Registry: registry}
}

// Open implements winreg.Opener.Open.
func (o *Opener) Open() (winreg.Registry, error) {
	if o.Err != nil {
		return nil, o.Err
	}
	return o.Registry, nil
}

// MockRegistry mocks registry access. Keys are addressed by
// "HIVE\path\to\key", so the same registry can carry keys from several
// hives.
type MockRegistry struct {
	Keys map[string]*MockKey
}

func composite(hive, path string) string {
	return hive + `\` + path
}

// OpenKey implements winreg.Registry.OpenKey.
func (r *MockRegistry) OpenKey(hive string, path string) (winreg.Key, error) {
	if key, ok := r.Keys[composite(hive, path)]; ok {
		return key, nil
	}
	return nil, winreg.ErrNotExist
}

// CreateKey implements winreg.Registry.CreateKey. Created keys become
// visible in Keys so tests can assert on them.
func (r *MockRegistry) CreateKey(hive string, path string) (winreg.Key, error) {
	name := composite(hive, path)
	if key, ok := r.Keys[name]; ok {
		return key, nil
	}
	if r.Keys == nil {
		r.Keys = make(map[string]*MockKey)
	}
	key := &MockKey{KName: path}
	r.Keys[name] = key
	return key, nil
}

// Close implements winreg.Registry.Close.
func (r *MockRegistry) Close() error {
	return nil
}

// MockKey mocks a winreg.Key.
type MockKey struct {
	// KName is the path the key reports from Name.
	KName string
	// KSubkeys lists the names of the direct subkeys.
	KSubkeys []string
	// KValues holds the values of the key, in order.
	KValues []*MockValue
	// WriteErr makes every write operation fail.
	WriteErr error
}

// Name implements winreg.Key.Name.
func (k *MockKey) Name() string {
	return k.KName
}

// Close implements winreg.Key.Close.
func (k *MockKey) Close() error {
	return nil
}

// SubkeyNames implements winreg.Key.SubkeyNames.
func (k *MockKey) SubkeyNames() ([]string, error) {
	return k.KSubkeys, nil
}

// Value implements winreg.Key.Value.
func (k *MockKey) Value(name string) (winreg.Value, error) {
	for _, value := range k.KValues {
		if value.VName == name {
			return value, nil
		}
	}
	return nil, winreg.ErrNotExist
}

// ValueBytes implements winreg.Key.ValueBytes.
func (k *MockKey) ValueBytes(name string) ([]byte, error) {
	value, err := k.Value(name)
	if err != nil {
		return nil, err
	}
	return value.Data()
}

// ValueString implements winreg.Key.ValueString.
func (k *MockKey) ValueString(name string) (string, error) {
	value, err := k.Value(name)
	if err != nil {
		return "", err
	}
	return value.DataString()
}

// Values implements winreg.Key.Values.
func (k *MockKey) Values() ([]winreg.Value, error) {
	values := make([]winreg.Value, 0, len(k.KValues))
	for _, value := range k.KValues {
		values = append(values, value)
	}
	return values, nil
}

// SetString implements winreg.Key.SetString.
func (k *MockKey) SetString(name string, value string) error {
	if k.WriteErr != nil {
		return k.WriteErr
	}
	k.put(&MockValue{VName: name, VData: []byte(value), VDataString: value})
	return nil
}

// SetDWord implements winreg.Key.SetDWord.
func (k *MockKey) SetDWord(name string, value uint32) error {
	if k.WriteErr != nil {
		return k.WriteErr
	}
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, value)
	k.put(&MockValue{VName: name, VData: data, VDataString: strconv.FormatUint(uint64(value), 10)})
	return nil
}

// DeleteValue implements winreg.Key.DeleteValue.
func (k *MockKey) DeleteValue(name string) error {
	if k.WriteErr != nil {
		return k.WriteErr
	}
	for i, value := range k.KValues {
		if value.VName == name {
			k.KValues = append(k.KValues[:i], k.KValues[i+1:]...)
			return nil
		}
	}
	return winreg.ErrNotExist
}

func (k *MockKey) put(v *MockValue) {
	for i, value := range k.KValues {
		if value.VName == v.VName {
			k.KValues[i] = v
			return
		}
	}
	k.KValues = append(k.KValues, v)
}

// MockValue mocks a winreg.Value.
type MockValue struct {
	// VName is the value name.
	VName string
	// VData is the raw data returned by Data.
	VData []byte
	// VDataString is the string form returned by DataString.
	VDataString string
}

// Name implements winreg.Value.Name.
func (v *MockValue) Name() string {
	return v.VName
}

// Data implements winreg.Value.Data.
func (v *MockValue) Data() ([]byte, error) {
	return v.VData, nil
}

// DataString implements winreg.Value.DataString.
func (v *MockValue) DataString() (string, error) {
	return v.VDataString, nil
}
