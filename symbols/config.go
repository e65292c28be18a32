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

package symbols

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/winrig/winrig/log"
	"github.com/winrig/winrig/winreg"
)

// Registry value names under the Visual Studio debugger key.
const (
	debuggerPathValue  = "SymbolPath"
	debuggerCacheValue = "SymbolCacheDir"
	debuggerUseMSValue = "SymbolUseMSSymbolServers"
)

// JSON paths written into the settings file.
const (
	filePathKey    = "symbols.path"
	fileCacheKey   = "symbols.cachePath"
	fileServersKey = "symbols.servers"
)

// defaultEnvironmentKey is the per-user environment block.
const defaultEnvironmentKey = "Environment"

// Config selects the sinks Apply writes to and Show reads from. All
// registry keys are under HKCU.
type Config struct {
	// Registry opens the registry; nil selects the platform default.
	Registry winreg.Opener

	// EnvironmentKey is the registry path of the per-user environment
	// block carrying the _NT_SYMBOL_PATH value. Defaults to
	// "Environment".
	EnvironmentKey string

	// DebuggerKey is the registry path of the Visual Studio debugger
	// settings, e.g. Software\Microsoft\VisualStudio\17.0\Debugger.
	// Empty skips the debugger sink.
	DebuggerKey string

	// SettingsFile is a JSON settings file edited in place, preserving
	// unrelated content. Empty skips the file sink.
	SettingsFile string
}

func (c Config) opener() winreg.Opener {
	if c.Registry != nil {
		return c.Registry
	}
	return winreg.DefaultOpener()
}

func (c Config) environmentKey() string {
	if c.EnvironmentKey != "" {
		return c.EnvironmentKey
	}
	return defaultEnvironmentKey
}

// State is the currently effective symbol configuration as read by
// Show. Empty fields mean "not set" or "sink not configured".
type State struct {
	// EnvironmentExpression is the _NT_SYMBOL_PATH value.
	EnvironmentExpression string
	// DebuggerPath is the SymbolPath value of the debugger key.
	DebuggerPath string
	// DebuggerCache is the SymbolCacheDir value of the debugger key.
	DebuggerCache string
	// FileExpression is the symbols.path value of the settings file.
	FileExpression string
}

// Apply writes the settings to every configured sink. Applying empty
// settings clears the configuration: the environment value is deleted
// and the debugger and file sinks are set to empty values.
func Apply(cfg Config, settings *Settings) error {
	expr := settings.Expression()

	registry, err := cfg.opener().Open()
	if err != nil {
		return fmt.Errorf("opening registry: %w", err)
	}
	defer registry.Close()

	if err := applyEnvironment(registry, cfg.environmentKey(), expr); err != nil {
		return err
	}
	if cfg.DebuggerKey != "" {
		if err := applyDebugger(registry, cfg.DebuggerKey, settings, expr); err != nil {
			return err
		}
	}
	if cfg.SettingsFile != "" {
		if err := applyFile(cfg.SettingsFile, settings, expr); err != nil {
			return err
		}
	}
	return nil
}

func applyEnvironment(registry winreg.Registry, path, expr string) error {
	key, err := registry.CreateKey(winreg.HKCU, path)
	if err != nil {
		return fmt.Errorf("opening environment key %s: %w", path, err)
	}
	defer key.Close()

	if expr == "" {
		if err := key.DeleteValue(SymbolPathVar); err != nil && !errors.Is(err, winreg.ErrNotExist) {
			return fmt.Errorf("clearing %s: %w", SymbolPathVar, err)
		}
		return nil
	}
	if err := key.SetString(SymbolPathVar, expr); err != nil {
		return fmt.Errorf("setting %s: %w", SymbolPathVar, err)
	}
	return nil
}

func applyDebugger(registry winreg.Registry, path string, settings *Settings, expr string) error {
	key, err := registry.CreateKey(winreg.HKCU, path)
	if err != nil {
		return fmt.Errorf("opening debugger key %s: %w", path, err)
	}
	defer key.Close()

	if err := key.SetString(debuggerPathValue, expr); err != nil {
		return fmt.Errorf("setting %s: %w", debuggerPathValue, err)
	}
	if err := key.SetString(debuggerCacheValue, settings.CachePath); err != nil {
		return fmt.Errorf("setting %s: %w", debuggerCacheValue, err)
	}
	var useMS uint32
	if slices.Contains(settings.Servers, MicrosoftSymbolServer) {
		useMS = 1
	}
	if err := key.SetDWord(debuggerUseMSValue, useMS); err != nil {
		return fmt.Errorf("setting %s: %w", debuggerUseMSValue, err)
	}
	return nil
}

// applyFile rewrites only the symbols.* paths of the settings file and
// leaves everything else byte-for-byte intact. A missing file is
// created.
func applyFile(path string, settings *Settings, expr string) error {
	mode := fs.FileMode(0644)
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Debugf("symbols: settings file %s does not exist, creating it", path)
		raw = []byte("{}")
	case err != nil:
		return fmt.Errorf("reading settings file %s: %w", path, err)
	default:
		if info, statErr := os.Stat(path); statErr == nil {
			mode = info.Mode()
		}
	}

	text := string(raw)
	if len(text) == 0 {
		text = "{}"
	}
	servers := settings.Servers
	if servers == nil {
		servers = []string{}
	}
	if text, err = sjson.Set(text, filePathKey, expr); err != nil {
		return fmt.Errorf("updating %s: %w", filePathKey, err)
	}
	if text, err = sjson.Set(text, fileCacheKey, settings.CachePath); err != nil {
		return fmt.Errorf("updating %s: %w", fileCacheKey, err)
	}
	if text, err = sjson.Set(text, fileServersKey, servers); err != nil {
		return fmt.Errorf("updating %s: %w", fileServersKey, err)
	}
	if err := os.WriteFile(path, []byte(text), mode); err != nil {
		return fmt.Errorf("writing settings file %s: %w", path, err)
	}
	return nil
}

// Show reads the currently effective configuration from every
// configured sink.
func Show(cfg Config) (*State, error) {
	registry, err := cfg.opener().Open()
	if err != nil {
		return nil, fmt.Errorf("opening registry: %w", err)
	}
	defer registry.Close()

	state := &State{}
	if state.EnvironmentExpression, err = readValue(registry, cfg.environmentKey(), SymbolPathVar); err != nil {
		return nil, err
	}
	if cfg.DebuggerKey != "" {
		if state.DebuggerPath, err = readValue(registry, cfg.DebuggerKey, debuggerPathValue); err != nil {
			return nil, err
		}
		if state.DebuggerCache, err = readValue(registry, cfg.DebuggerKey, debuggerCacheValue); err != nil {
			return nil, err
		}
	}
	if cfg.SettingsFile != "" {
		raw, err := os.ReadFile(cfg.SettingsFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Nothing configured yet.
		case err != nil:
			return nil, fmt.Errorf("reading settings file %s: %w", cfg.SettingsFile, err)
		default:
			state.FileExpression = gjson.GetBytes(raw, filePathKey).String()
		}
	}
	return state, nil
}

// readValue returns a value under HKCU, or "" when the key or the
// value does not exist.
func readValue(registry winreg.Registry, path, name string) (string, error) {
	key, err := registry.OpenKey(winreg.HKCU, path)
	if errors.Is(err, winreg.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("opening key %s: %w", path, err)
	}
	defer key.Close()

	value, err := key.ValueString(name)
	if errors.Is(err, winreg.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s\\%s: %w", path, name, err)
	}
	return value, nil
}
