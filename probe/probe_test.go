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

package probe_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/winrig/winrig/inventory"
	"github.com/winrig/winrig/plugin"
	"github.com/winrig/winrig/probe"
)

// fakeProbe returns canned packages or a canned error and records the
// input it was invoked with.
type fakeProbe struct {
	name     string
	packages []*inventory.Package
	err      error

	gotInput *probe.Input
}

func (f *fakeProbe) Name() string                       { return f.name }
func (f *fakeProbe) Version() int                       { return 1 }
func (f *fakeProbe) Requirements() *plugin.Capabilities { return &plugin.Capabilities{} }

func (f *fakeProbe) Probe(_ context.Context, input *probe.Input) (inventory.Inventory, error) {
	f.gotInput = input
	if f.err != nil {
		return inventory.Inventory{}, f.err
	}
	return inventory.Inventory{Packages: f.packages}, nil
}

func TestRun(t *testing.T) {
	first := &fakeProbe{name: "fake/first", packages: []*inventory.Package{{Name: "vs", Version: "17.9"}}}
	second := &fakeProbe{name: "fake/second", packages: []*inventory.Package{{Name: "ext", Version: "1.0"}}}

	inv, statuses, err := probe.Run(context.Background(), &probe.Config{Probes: []probe.Probe{first, second}})
	if err != nil {
		t.Fatalf("probe.Run() returned an unexpected error: %v", err)
	}

	wantInv := inventory.Inventory{Packages: []*inventory.Package{
		{Name: "vs", Version: "17.9", Plugins: []string{"fake/first"}},
		{Name: "ext", Version: "1.0", Plugins: []string{"fake/second"}},
	}}
	if diff := cmp.Diff(wantInv, inv); diff != "" {
		t.Errorf("probe.Run() returned an unexpected inventory (-want +got):\n%s", diff)
	}

	wantStatuses := []*plugin.Status{
		{Name: "fake/first", Version: 1, Status: &plugin.RunStatus{Status: plugin.StatusSucceeded}},
		{Name: "fake/second", Version: 1, Status: &plugin.RunStatus{Status: plugin.StatusSucceeded}},
	}
	if diff := cmp.Diff(wantStatuses, statuses); diff != "" {
		t.Errorf("probe.Run() returned unexpected statuses (-want +got):\n%s", diff)
	}
}

func TestRunFailingProbe(t *testing.T) {
	broken := &fakeProbe{name: "fake/broken", err: errors.New("access denied")}
	working := &fakeProbe{name: "fake/working", packages: []*inventory.Package{{Name: "vs", Version: "17.9"}}}

	inv, statuses, err := probe.Run(context.Background(), &probe.Config{Probes: []probe.Probe{broken, working}})
	if err != nil {
		t.Fatalf("probe.Run() returned an unexpected error: %v", err)
	}

	wantInv := inventory.Inventory{Packages: []*inventory.Package{
		{Name: "vs", Version: "17.9", Plugins: []string{"fake/working"}},
	}}
	if diff := cmp.Diff(wantInv, inv); diff != "" {
		t.Errorf("probe.Run() returned an unexpected inventory (-want +got):\n%s", diff)
	}

	wantStatuses := []*plugin.Status{
		{Name: "fake/broken", Version: 1, Status: &plugin.RunStatus{Status: plugin.StatusFailed, FailureReason: "access denied"}},
		{Name: "fake/working", Version: 1, Status: &plugin.RunStatus{Status: plugin.StatusSucceeded}},
	}
	if diff := cmp.Diff(wantStatuses, statuses); diff != "" {
		t.Errorf("probe.Run() returned unexpected statuses (-want +got):\n%s", diff)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &fakeProbe{name: "fake/unreached"}
	_, _, err := probe.Run(ctx, &probe.Config{Probes: []probe.Probe{p}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("probe.Run() returned %v, want %v", err, context.Canceled)
	}
	if p.gotInput != nil {
		t.Errorf("probe.Run() invoked a probe after cancellation")
	}
}

func TestRunScanRoot(t *testing.T) {
	p := &fakeProbe{name: "fake/input"}
	if _, _, err := probe.Run(context.Background(), &probe.Config{Probes: []probe.Probe{p}, ScanRoot: "."}); err != nil {
		t.Fatalf("probe.Run() returned an unexpected error: %v", err)
	}
	if p.gotInput == nil {
		t.Fatal("probe.Run() never invoked the probe")
	}
	if !filepath.IsAbs(p.gotInput.ScanRoot) {
		t.Errorf("probe.Run() passed ScanRoot %q, want an absolute path", p.gotInput.ScanRoot)
	}
}
