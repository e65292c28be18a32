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

// Package batchenv captures the environment a Windows batch script
// sets up (vcvarsall.bat, VsDevCmd.bat and friends) and runs commands
// inside it. The capture shells out to cmd.exe; parsing and diffing
// are portable and work on any platform.
package batchenv

import (
	"context"
	"errors"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// envMarker separates the script's own output from the trailing set
// dump in a capture.
const envMarker = "__WINRIG_ENV__"

// ChangeKind says how a variable differs between two environments.
type ChangeKind string

const (
	Added   ChangeKind = "added"
	Changed ChangeKind = "changed"
	Removed ChangeKind = "removed"
)

// Change describes one environment variable delta.
type Change struct {
	Name string
	Kind ChangeKind
	Old  string
	New  string
}

// ParseBlock parses the output of cmd.exe's set builtin into a map.
// Lines without an assignment and cmd's hidden =X: drive variables are
// skipped.
func ParseBlock(data []byte) map[string]string {
	env := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "=") {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		env[name] = value
	}
	return env
}

// ParseCapture extracts the environment from a marker-guarded capture:
// everything before the marker line is script output and is ignored.
func ParseCapture(data []byte) (map[string]string, error) {
	text := string(data)
	idx := strings.Index(text, envMarker)
	if idx < 0 {
		return nil, errors.New("environment marker not found in capture output")
	}
	rest := text[idx+len(envMarker):]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[i+1:]
	} else {
		rest = ""
	}
	return ParseBlock([]byte(rest)), nil
}

// Diff compares two environments and reports every variable that was
// added, changed, or removed going from base to derived. Names match
// case-insensitively the way cmd.exe treats them; values compare
// exactly. The result is sorted by name.
func Diff(base, derived map[string]string) []Change {
	derivedIdx := make(map[string]string, len(derived))
	derivedName := make(map[string]string, len(derived))
	for name, value := range derived {
		upper := strings.ToUpper(name)
		derivedIdx[upper] = value
		derivedName[upper] = name
	}

	var changes []Change
	seen := make(map[string]bool, len(base))
	for name, oldValue := range base {
		upper := strings.ToUpper(name)
		seen[upper] = true
		newValue, ok := derivedIdx[upper]
		switch {
		case !ok:
			changes = append(changes, Change{Name: name, Kind: Removed, Old: oldValue})
		case newValue != oldValue:
			changes = append(changes, Change{Name: name, Kind: Changed, Old: oldValue, New: newValue})
		}
	}
	for upper, newValue := range derivedIdx {
		if !seen[upper] {
			changes = append(changes, Change{Name: derivedName[upper], Kind: Added, New: newValue})
		}
	}
	slices.SortFunc(changes, func(a, b Change) int {
		return strings.Compare(strings.ToUpper(a.Name), strings.ToUpper(b.Name))
	})
	return changes
}

// Format renders the environment as NAME=value pairs sorted by name,
// ready for exec.Cmd.Env.
func Format(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for _, name := range slices.Sorted(maps.Keys(env)) {
		out = append(out, name+"="+env[name])
	}
	return out
}

// Run executes a command inside the captured environment with the
// parent's standard streams wired through.
func Run(ctx context.Context, env map[string]string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = Format(env)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// DecodeConsole converts raw console output in the given Windows code
// page to UTF-8. Unrecognized code pages pass through unchanged.
func DecodeConsole(data []byte, codepage uint32) ([]byte, error) {
	var cm *charmap.Charmap
	switch codepage {
	case 437:
		cm = charmap.CodePage437
	case 850:
		cm = charmap.CodePage850
	case 852:
		cm = charmap.CodePage852
	case 866:
		cm = charmap.CodePage866
	case 1252:
		cm = charmap.Windows1252
	default:
		return data, nil
	}
	return cm.NewDecoder().Bytes(data)
}
