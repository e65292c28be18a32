// Copyright 2025 The winrig Authors
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

package fetch

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

// Manifest lists the tool archives to download and unpack.
type Manifest struct {
	Tools []Tool `toml:"tool"`
}

// Tool describes one downloadable archive.
type Tool struct {
	// Name identifies the tool; it doubles as the default install
	// directory name and the cached archive name.
	Name string `toml:"name"`
	// URL is the archive location. Only zip archives are supported.
	URL string `toml:"url"`
	// SHA256 is the expected hex digest of the archive. Empty skips
	// verification and disables the digest-based download shortcut.
	SHA256 string `toml:"sha256"`
	// Dir overrides the install directory name under the destination
	// root.
	Dir string `toml:"dir"`
	// StripPrefix is removed from the front of every archive entry
	// path, typically to drop a wrapper directory.
	StripPrefix string `toml:"strip-prefix"`
}

// InstallDir returns the directory name the tool unpacks into.
func (t Tool) InstallDir() string {
	if t.Dir != "" {
		return t.Dir
	}
	return t.Name
}

// LoadManifest reads and validates a TOML manifest. Validation findings
// are aggregated so one pass reports every broken entry.
func LoadManifest(path string) (*Manifest, error) {
	var manifest Manifest
	if _, err := toml.DecodeFile(path, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if err := manifest.validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return &manifest, nil
}

func (m *Manifest) validate() error {
	var err error
	if len(m.Tools) == 0 {
		return fmt.Errorf("no [[tool]] entries")
	}
	seen := make(map[string]bool, len(m.Tools))
	for i, tool := range m.Tools {
		switch {
		case tool.Name == "":
			err = multierr.Append(err, fmt.Errorf("tool %d: missing name", i))
		case seen[tool.Name]:
			err = multierr.Append(err, fmt.Errorf("tool %q: duplicate name", tool.Name))
		default:
			seen[tool.Name] = true
		}
		if tool.URL == "" {
			err = multierr.Append(err, fmt.Errorf("tool %d (%s): missing url", i, tool.Name))
		}
	}
	return err
}
