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

// Package plugin holds the common plugin model shared by winrig's machine probes.
package plugin

import (
	"fmt"
	"strings"
)

// OS is the OS winrig is running on, or a specific OS type a Plugin needs to
// be run on.
type OS int

// OS values
const (
	// OSAny is used only when specifying Plugin requirements. It marks a
	// plugin that can run on every OS.
	OSAny OS = iota
	OSLinux
	OSWindows
	OSMac
)

// OSUnknown is only used when specifying Capabilities. Only plugins that
// require OSAny run when the OS is unknown.
const OSUnknown = OSAny

// Network is the network access of the host, or the network requirement of a
// plugin.
type Network int

// Network values
const (
	// NetworkAny is used only when specifying Plugin requirements. It marks a
	// plugin that doesn't care whether the host has network access.
	NetworkAny Network = iota
	NetworkOffline
	NetworkOnline
)

// Capabilities lists what the environment winrig runs in provides for the
// plugins. A plugin can't be enabled if it requires more than the environment
// provides.
type Capabilities struct {
	// A specific OS type a Plugin needs to be run on.
	OS OS
	// Whether network access is provided.
	Network Network
	// Whether winrig is probing the real machine it runs on, as opposed to
	// e.g. dry-running against recorded data.
	RunningSystem bool
}

// Plugin is the interface shared by all winrig probes.
type Plugin interface {
	// A unique name used to identify this plugin.
	Name() string
	// Plugin version, should get bumped whenever major changes are made.
	Version() int
	// Requirements about the environment, e.g. "needs to run on Windows".
	Requirements() *Capabilities
}

// Status contains the status and version of a plugin that ran.
type Status struct {
	Name    string
	Version int
	Status  *RunStatus
}

// RunStatus is the status of a single plugin run. FailureReason is set when
// the run failed.
type RunStatus struct {
	Status        StatusEnum
	FailureReason string
}

// StatusEnum is the enum for the plugin run status.
type StatusEnum int

// StatusEnum values.
const (
	StatusUnspecified StatusEnum = iota
	StatusSucceeded
	StatusPartiallySucceeded
	StatusFailed
)

// String returns a human-readable form of the run status.
func (e StatusEnum) String() string {
	switch e {
	case StatusSucceeded:
		return "SUCCEEDED"
	case StatusPartiallySucceeded:
		return "PARTIALLY_SUCCEEDED"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNSPECIFIED"
	}
}

// StatusFromErr returns a successful or failed plugin status based on an error.
func StatusFromErr(p Plugin, err error) *Status {
	status := &RunStatus{}
	if err == nil {
		status.Status = StatusSucceeded
	} else {
		status.Status = StatusFailed
		status.FailureReason = err.Error()
	}
	return &Status{
		Name:    p.Name(),
		Version: p.Version(),
		Status:  status,
	}
}

// ValidateRequirements checks that the given capabilities satisfy the
// requirements of a plugin.
func ValidateRequirements(p Plugin, capabs *Capabilities) error {
	if capabs == nil {
		return nil
	}
	reqs := p.Requirements()
	var errs []string
	if reqs.OS != OSAny && reqs.OS != capabs.OS {
		errs = append(errs, "needs to run on a different OS than the host's")
	}
	if reqs.Network != NetworkAny && reqs.Network != capabs.Network {
		if capabs.Network == NetworkOffline {
			errs = append(errs, "needs network access but the host doesn't provide it")
		} else {
			errs = append(errs, "should only run offline but the host provides network access")
		}
	}
	if reqs.RunningSystem && !capabs.RunningSystem {
		errs = append(errs, "needs to probe the live machine it runs on")
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("plugin %s can't be enabled: %s", p.Name(), strings.Join(errs, ", "))
}

// FilterByCapabilities returns all plugins from the given list whose
// requirements are satisfied by the host's capabilities.
func FilterByCapabilities[P Plugin](pls []P, capabs *Capabilities) []P {
	result := []P{}
	for _, pl := range pls {
		if err := ValidateRequirements(pl, capabs); err == nil {
			result = append(result, pl)
		}
	}
	return result
}
