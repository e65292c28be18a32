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

// Package list contains the list of all winrig probes.
package list

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/winrig/winrig/log"
	"github.com/winrig/winrig/probe"
	"github.com/winrig/winrig/probe/vsinstances"
)

var (
	// Windows probes.
	Windows = []probe.Probe{
		vsinstances.NewDefault(),
	}

	// Default probes enabled when the caller doesn't pick any.
	Default []probe.Probe = slices.Concat(Windows)
	// All probes.
	All []probe.Probe = slices.Concat(Windows)

	probeNames = map[string][]probe.Probe{
		// Windows
		"windows": Windows,

		// Collections.
		"default": Default,
		"all":     All,
	}
)

func init() {
	for _, p := range All {
		register(p)
	}
}

// register adds the individual probes to the probeNames map.
func register(p probe.Probe) {
	if _, ok := probeNames[strings.ToLower(p.Name())]; ok {
		log.Errorf("There are 2 probes with the name: %q", p.Name())
		os.Exit(1)
	}

	probeNames[strings.ToLower(p.Name())] = []probe.Probe{p}
}

// FromName returns a single probe based on its exact name.
func FromName(name string) (probe.Probe, error) {
	ps, ok := probeNames[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown probe %s", name)
	}
	if len(ps) != 1 || ps[0].Name() != name {
		return nil, fmt.Errorf("not an exact name for a probe: %s", name)
	}
	return ps[0], nil
}

// FromNames returns a deduplicated list of probes from a list of names.
func FromNames(names []string) ([]probe.Probe, error) {
	resultMap := make(map[string]probe.Probe)
	for _, n := range names {
		ps, ok := probeNames[strings.ToLower(n)]
		if !ok {
			return nil, fmt.Errorf("unknown probe %s", n)
		}
		for _, p := range ps {
			if _, ok := resultMap[p.Name()]; !ok {
				resultMap[p.Name()] = p
			}
		}
	}
	result := make([]probe.Probe, 0, len(resultMap))
	for _, p := range resultMap {
		result = append(result, p)
	}
	return result, nil
}
