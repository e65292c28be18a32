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

//go:build windows

package winreg

import (
	"errors"
	"fmt"
	"strconv"

	winregistry "golang.org/x/sys/windows/registry"
)

// LiveOpener opens the live registry of the running system.
type LiveOpener struct{}

// NewLiveOpener returns an opener for the live registry.
func NewLiveOpener() *LiveOpener {
	return &LiveOpener{}
}

// DefaultOpener returns the live registry opener.
func DefaultOpener() Opener { return NewLiveOpener() }

// Open implements Opener.Open.
func (o *LiveOpener) Open() (Registry, error) {
	return &LiveRegistry{}, nil
}

// LiveRegistry accesses the running system's registry through
// golang.org/x/sys/windows/registry.
type LiveRegistry struct{}

func rootKey(hive string) (winregistry.Key, error) {
	switch hive {
	case HKLM:
		return winregistry.LOCAL_MACHINE, nil
	case HKCU:
		return winregistry.CURRENT_USER, nil
	case HKU:
		return winregistry.USERS, nil
	default:
		return 0, fmt.Errorf("unsupported hive: %s", hive)
	}
}

// OpenKey implements Registry.OpenKey.
func (r *LiveRegistry) OpenKey(hive string, path string) (Key, error) {
	root, err := rootKey(hive)
	if err != nil {
		return nil, err
	}
	key, err := winregistry.OpenKey(root, path, winregistry.QUERY_VALUE|winregistry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, liveErr(err)
	}
	return &LiveKey{key: &key, name: path}, nil
}

// CreateKey implements Registry.CreateKey. The key is opened with write
// access; missing parents are created along the way.
func (r *LiveRegistry) CreateKey(hive string, path string) (Key, error) {
	root, err := rootKey(hive)
	if err != nil {
		return nil, err
	}
	key, _, err := winregistry.CreateKey(root, path,
		winregistry.QUERY_VALUE|winregistry.ENUMERATE_SUB_KEYS|winregistry.SET_VALUE)
	if err != nil {
		return nil, liveErr(err)
	}
	return &LiveKey{key: &key, name: path}, nil
}

// Close implements Registry.Close. The live registry holds no handle of
// its own, so this is a no-op.
func (r *LiveRegistry) Close() error {
	return nil
}

// LiveKey wraps an open winregistry.Key.
type LiveKey struct {
	key  *winregistry.Key
	name string
}

// Name implements Key.Name.
func (k *LiveKey) Name() string {
	return k.name
}

// Close implements Key.Close.
func (k *LiveKey) Close() error {
	return k.key.Close()
}

// SubkeyNames implements Key.SubkeyNames.
func (k *LiveKey) SubkeyNames() ([]string, error) {
	names, err := k.key.ReadSubKeyNames(0)
	if err != nil {
		return nil, liveErr(err)
	}
	return names, nil
}

// Value implements Key.Value. The data is read when the Value's
// accessors are called.
func (k *LiveKey) Value(name string) (Value, error) {
	return &LiveValue{name: name, key: k.key}, nil
}

// ValueBytes implements Key.ValueBytes.
func (k *LiveKey) ValueBytes(name string) ([]byte, error) {
	value, err := k.Value(name)
	if err != nil {
		return nil, err
	}
	return value.Data()
}

// ValueString implements Key.ValueString.
func (k *LiveKey) ValueString(name string) (string, error) {
	value, err := k.Value(name)
	if err != nil {
		return "", err
	}
	return value.DataString()
}

// Values implements Key.Values.
func (k *LiveKey) Values() ([]Value, error) {
	valueNames, err := k.key.ReadValueNames(0)
	if err != nil {
		return nil, liveErr(err)
	}
	var values []Value
	for _, valueName := range valueNames {
		values = append(values, &LiveValue{name: valueName, key: k.key})
	}
	return values, nil
}

// SetString implements Key.SetString.
func (k *LiveKey) SetString(name string, value string) error {
	return liveErr(k.key.SetStringValue(name, value))
}

// SetDWord implements Key.SetDWord.
func (k *LiveKey) SetDWord(name string, value uint32) error {
	return liveErr(k.key.SetDWordValue(name, value))
}

// DeleteValue implements Key.DeleteValue.
func (k *LiveKey) DeleteValue(name string) error {
	return liveErr(k.key.DeleteValue(name))
}

// LiveValue lazily reads one value of an open key.
type LiveValue struct {
	name string
	key  *winregistry.Key
}

// Name implements Value.Name.
func (v *LiveValue) Name() string {
	return v.name
}

// Data implements Value.Data. The first read determines the required
// buffer size.
func (v *LiveValue) Data() ([]byte, error) {
	size, _, err := v.key.GetValue(v.name, nil)
	if err != nil {
		return nil, liveErr(err)
	}
	buffer := make([]byte, size)
	if _, _, err = v.key.GetValue(v.name, buffer); err != nil {
		return nil, liveErr(err)
	}
	return buffer, nil
}

// DataString implements Value.DataString. String types are returned
// as-is; integer types are formatted in decimal.
func (v *LiveValue) DataString() (string, error) {
	val, valtype, err := v.key.GetStringValue(v.name)
	if err == nil || valtype == winregistry.SZ || valtype == winregistry.EXPAND_SZ {
		return val, liveErr(err)
	}
	if !errors.Is(err, winregistry.ErrUnexpectedType) {
		return "", liveErr(err)
	}

	switch valtype {
	case winregistry.DWORD, winregistry.QWORD:
		val, _, err := v.key.GetIntegerValue(v.name)
		return strconv.FormatUint(val, 10), liveErr(err)
	default:
		return "", fmt.Errorf("unsupported value type: %v for value %q", valtype, v.name)
	}
}

// liveErr maps the library's not-exist error onto ErrNotExist so
// callers can test for absence without importing x/sys.
func liveErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, winregistry.ErrNotExist) {
		return ErrNotExist
	}
	return err
}
