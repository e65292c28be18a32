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

// Package winrig provides an interface for reporting the developer
// tooling installed on a Windows machine, most prominently Visual
// Studio instances with their workloads, components and extensions.
package winrig

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/winrig/winrig/inventory"
	"github.com/winrig/winrig/plugin"
	"github.com/winrig/winrig/probe"
	"github.com/winrig/winrig/result"
	"github.com/winrig/winrig/version"
)

// Scanner is the main entry point of the scanner.
type Scanner struct{}

// New creates a new scanner instance.
func New() *Scanner { return &Scanner{} }

// ScanConfig stores the config settings of a scan run such as the
// probes to use.
type ScanConfig struct {
	Probes []probe.Probe
	// Capabilities that the scanning environment satisfies, e.g. which OS
	// winrig runs on. Probes whose requirements aren't met are skipped.
	// A nil Capabilities runs every configured probe.
	Capabilities *plugin.Capabilities
	// ScanRoot is the root dir of the scanned system, `C:\` on a live
	// Windows machine. Empty means the current directory.
	ScanRoot string
}

// ValidatePluginRequirements checks that the scanning environment's
// capabilities satisfy the requirements of all enabled probes.
func (cfg *ScanConfig) ValidatePluginRequirements() error {
	errs := []error{}
	for _, p := range cfg.Probes {
		if err := plugin.ValidateRequirements(p, cfg.Capabilities); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ScanResult stores the results of a scan incl. scan status and the
// inventory found.
type ScanResult = result.ScanResult

// Scan executes the configured probes and returns the aggregated
// machine report.
func (Scanner) Scan(ctx context.Context, config *ScanConfig) *ScanResult {
	sro := &newScanResultOptions{
		StartTime: time.Now(),
	}

	probes := config.Probes
	if config.Capabilities != nil {
		probes = plugin.FilterByCapabilities(probes, config.Capabilities)
	}

	inv, status, err := probe.Run(ctx, &probe.Config{
		Probes:   probes,
		ScanRoot: config.ScanRoot,
	})
	if err != nil {
		sro.Err = err
		sro.EndTime = time.Now()
		return newScanResult(sro)
	}

	sro.Inventory = inv
	sro.PluginStatus = status
	sro.EndTime = time.Now()
	return newScanResult(sro)
}

type newScanResultOptions struct {
	StartTime    time.Time
	EndTime      time.Time
	PluginStatus []*plugin.Status
	Inventory    inventory.Inventory
	Err          error
}

func newScanResult(o *newScanResultOptions) *ScanResult {
	status := &plugin.RunStatus{}
	if o.Err != nil {
		status.Status = plugin.StatusFailed
		status.FailureReason = o.Err.Error()
	} else {
		status.Status = plugin.StatusSucceeded
		// If any probe failed, set the overall scan status to partially
		// succeeded.
		for _, pluginStatus := range o.PluginStatus {
			if pluginStatus.Status.Status == plugin.StatusFailed {
				status.Status = plugin.StatusPartiallySucceeded
				status.FailureReason = "not all probes succeeded, see the plugin statuses"
				break
			}
		}
	}
	r := &ScanResult{
		StartTime:    o.StartTime,
		EndTime:      o.EndTime,
		Version:      version.WinrigVersion,
		Status:       status,
		PluginStatus: o.PluginStatus,
		Inventory:    o.Inventory,
	}

	// Sort results for better diffing.
	sortResults(r)
	return r
}

// sortResults sorts the result to make the output deterministic and
// diffable.
func sortResults(results *ScanResult) {
	slices.SortFunc(results.PluginStatus, cmpStatus)
	slices.SortFunc(results.Inventory.Packages, CmpPackages)
}

// CmpPackages is a comparison helper fun to be used for sorting Package
// structs.
func CmpPackages(a, b *inventory.Package) int {
	res := cmp.Or(
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.Version, b.Version),
		cmp.Compare(len(a.Plugins), len(b.Plugins)),
	)
	if res != 0 {
		return res
	}

	res = 0
	for i := range a.Plugins {
		res = cmp.Or(res, cmp.Compare(a.Plugins[i], b.Plugins[i]))
	}
	if res != 0 {
		return res
	}

	aloc := fmt.Sprintf("%v", a.Locations)
	bloc := fmt.Sprintf("%v", b.Locations)
	return cmp.Compare(aloc, bloc)
}

func cmpStatus(a, b *plugin.Status) int {
	return cmp.Compare(a.Name, b.Name)
}
