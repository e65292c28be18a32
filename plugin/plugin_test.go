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

package plugin_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/winrig/winrig/plugin"
)

type fakePlugin struct {
	name string
	reqs *plugin.Capabilities
}

func (p *fakePlugin) Name() string                      { return p.name }
func (p *fakePlugin) Version() int                      { return 3 }
func (p *fakePlugin) Requirements() *plugin.Capabilities { return p.reqs }

func TestValidateRequirements(t *testing.T) {
	tests := []struct {
		name    string
		reqs    *plugin.Capabilities
		capabs  *plugin.Capabilities
		wantErr bool
	}{
		{
			name:   "any_os_runs_everywhere",
			reqs:   &plugin.Capabilities{OS: plugin.OSAny},
			capabs: &plugin.Capabilities{OS: plugin.OSLinux},
		},
		{
			name:    "windows_plugin_rejected_on_linux",
			reqs:    &plugin.Capabilities{OS: plugin.OSWindows},
			capabs:  &plugin.Capabilities{OS: plugin.OSLinux},
			wantErr: true,
		},
		{
			name:   "windows_plugin_accepted_on_windows",
			reqs:   &plugin.Capabilities{OS: plugin.OSWindows, RunningSystem: true},
			capabs: &plugin.Capabilities{OS: plugin.OSWindows, RunningSystem: true},
		},
		{
			name:    "online_plugin_rejected_offline",
			reqs:    &plugin.Capabilities{Network: plugin.NetworkOnline},
			capabs:  &plugin.Capabilities{Network: plugin.NetworkOffline},
			wantErr: true,
		},
		{
			name:    "running_system_required",
			reqs:    &plugin.Capabilities{RunningSystem: true},
			capabs:  &plugin.Capabilities{RunningSystem: false},
			wantErr: true,
		},
		{
			name: "nil_capabilities_validate",
			reqs: &plugin.Capabilities{OS: plugin.OSWindows},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &fakePlugin{name: "p", reqs: tc.reqs}
			err := plugin.ValidateRequirements(p, tc.capabs)
			if gotErr := err != nil; gotErr != tc.wantErr {
				t.Errorf("ValidateRequirements() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestFilterByCapabilities(t *testing.T) {
	win := &fakePlugin{name: "win", reqs: &plugin.Capabilities{OS: plugin.OSWindows}}
	portable := &fakePlugin{name: "any", reqs: &plugin.Capabilities{OS: plugin.OSAny}}

	got := plugin.FilterByCapabilities([]plugin.Plugin{win, portable}, &plugin.Capabilities{OS: plugin.OSLinux})
	if len(got) != 1 || got[0].Name() != "any" {
		t.Errorf("FilterByCapabilities() = %v, want only the OS-agnostic plugin", got)
	}
}

func TestStatusFromErr(t *testing.T) {
	p := &fakePlugin{name: "probe/test", reqs: &plugin.Capabilities{}}

	got := plugin.StatusFromErr(p, nil)
	want := &plugin.Status{
		Name:    "probe/test",
		Version: 3,
		Status:  &plugin.RunStatus{Status: plugin.StatusSucceeded},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("StatusFromErr(nil) returned an unexpected diff (-want +got): %v", diff)
	}

	got = plugin.StatusFromErr(p, errors.New("enumerator broke"))
	want = &plugin.Status{
		Name:    "probe/test",
		Version: 3,
		Status: &plugin.RunStatus{
			Status:        plugin.StatusFailed,
			FailureReason: "enumerator broke",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("StatusFromErr(err) returned an unexpected diff (-want +got): %v", diff)
	}
}
