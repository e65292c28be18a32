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

package vssetup

import (
	"errors"
	"fmt"
	"sort"

	goversion "github.com/hashicorp/go-version"
)

// Config drives a call to Instances.
type Config struct {
	// Opener acquires the Setup Configuration service. A nil Opener
	// selects the platform default (the COM service on Windows, an
	// always-absent service elsewhere).
	Opener Opener

	// Locale is the locale identifier (LCID) used to resolve the
	// localized display name and description. Zero selects the user's
	// default locale.
	Locale uint32

	// IncludeIncomplete also reports instances whose installation did
	// not complete, such as broken or in-progress installs.
	IncludeIncomplete bool

	// IncludePackages populates the per-instance package collections.
	// Resolving packages is by far the most expensive part of an
	// enumeration; leave this false when only the instances matter.
	IncludePackages bool
}

// DefaultConfig returns the configuration used by Instances when the
// zero Config is passed: platform opener, default locale, complete
// instances only, no package resolution.
func DefaultConfig() Config {
	return Config{Opener: DefaultOpener()}
}

// Instances returns the Visual Studio instances registered with the
// Setup Configuration service.
//
// A machine without the service (no Visual Studio 2017 or later ever
// installed) yields an empty result and no error. Every failure past
// that point is returned as an error with no partial result: a broken
// instance record aborts the whole enumeration rather than being
// silently dropped.
func Instances(cfg Config) ([]*Instance, error) {
	opener := cfg.Opener
	if opener == nil {
		opener = DefaultOpener()
	}

	provider, err := opener.Open()
	if errors.Is(err, ErrNotInstalled) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening setup configuration service: %w", err)
	}
	defer provider.Release()

	var enum InstanceEnumerator
	if cfg.IncludeIncomplete {
		enum, err = provider.EnumAllInstances()
	} else {
		enum, err = provider.EnumInstances()
	}
	if err != nil {
		return nil, fmt.Errorf("enumerating instances: %w", err)
	}
	defer enum.Release()

	var instances []*Instance
	for {
		records, err := enum.Next(1)
		if err != nil {
			return nil, fmt.Errorf("advancing instance enumeration: %w", err)
		}
		if len(records) == 0 {
			return instances, nil
		}
		for _, record := range records {
			instance, err := buildInstance(record, cfg)
			record.Release()
			if err != nil {
				return nil, err
			}
			instances = append(instances, instance)
		}
	}
}

func buildInstance(record InstanceRecord, cfg Config) (*Instance, error) {
	instance := &Instance{}

	var err error
	if instance.ID, err = record.InstanceID(); err != nil {
		return nil, fmt.Errorf("reading instance ID: %w", err)
	}
	rawState, err := record.State()
	if err != nil {
		return nil, fmt.Errorf("instance %s: reading state: %w", instance.ID, err)
	}
	instance.State = InstanceState(rawState)
	if instance.InstallationVersion, err = record.InstallationVersion(); err != nil {
		return nil, fmt.Errorf("instance %s: reading installation version: %w", instance.ID, err)
	}
	if instance.InstallationPath, err = record.InstallationPath(); err != nil {
		return nil, fmt.Errorf("instance %s: reading installation path: %w", instance.ID, err)
	}
	if instance.DisplayName, err = record.DisplayName(cfg.Locale); err != nil {
		return nil, fmt.Errorf("instance %s: reading display name: %w", instance.ID, err)
	}
	if instance.Description, err = record.Description(cfg.Locale); err != nil {
		return nil, fmt.Errorf("instance %s: reading description: %w", instance.ID, err)
	}

	product, err := record.Product()
	if err != nil {
		return nil, fmt.Errorf("instance %s: reading product: %w", instance.ID, err)
	}
	if product != nil {
		instance.ProductName, err = product.ID()
		product.Release()
		if err != nil {
			return nil, fmt.Errorf("instance %s: reading product ID: %w", instance.ID, err)
		}
	}

	if !cfg.IncludePackages {
		return instance, nil
	}

	packages, err := record.Packages()
	if err != nil {
		return nil, fmt.Errorf("instance %s: reading packages: %w", instance.ID, err)
	}
	for _, pkg := range packages {
		ref, typeTag, err := makeReference(pkg)
		pkg.Release()
		if err != nil {
			return nil, fmt.Errorf("instance %s: %w", instance.ID, err)
		}
		instance.addPackage(typeTag, ref)
	}
	return instance, nil
}

func makeReference(pkg PackageRecord) (*PackageReference, string, error) {
	ref := &PackageReference{}

	var err error
	if ref.ID, err = pkg.ID(); err != nil {
		return nil, "", fmt.Errorf("reading package ID: %w", err)
	}
	typeTag, err := pkg.TypeTag()
	if err != nil {
		return nil, "", fmt.Errorf("package %s: reading type: %w", ref.ID, err)
	}
	if ref.Version, err = pkg.Version(); err != nil {
		return nil, "", fmt.Errorf("package %s: reading version: %w", ref.ID, err)
	}
	if ref.Chip, err = pkg.Chip(); err != nil {
		return nil, "", fmt.Errorf("package %s: reading chip: %w", ref.ID, err)
	}
	if ref.Language, err = pkg.Language(); err != nil {
		return nil, "", fmt.Errorf("package %s: reading language: %w", ref.ID, err)
	}
	if ref.Branch, err = pkg.Branch(); err != nil {
		return nil, "", fmt.Errorf("package %s: reading branch: %w", ref.ID, err)
	}
	if ref.UniqueID, err = pkg.UniqueID(); err != nil {
		return nil, "", fmt.Errorf("package %s: reading unique ID: %w", ref.ID, err)
	}
	if ref.IsExtension, err = pkg.IsExtension(); err != nil {
		return nil, "", fmt.Errorf("package %s: reading extension flag: %w", ref.ID, err)
	}
	return ref, typeTag, nil
}

// SortByVersion orders instances by descending InstallationVersion,
// newest first. Instances whose version does not parse sort last, in
// their original order. The slice returned by Instances is in service
// enumeration order; callers that want "latest first" apply this
// explicitly.
func SortByVersion(instances []*Instance) {
	parsed := make(map[*Instance]*goversion.Version, len(instances))
	for _, inst := range instances {
		if v, err := goversion.NewVersion(inst.InstallationVersion); err == nil {
			parsed[inst] = v
		}
	}
	sort.SliceStable(instances, func(i, j int) bool {
		vi, oki := parsed[instances[i]]
		vj, okj := parsed[instances[j]]
		if oki != okj {
			return oki
		}
		if !oki {
			return false
		}
		return vi.GreaterThan(vj)
	})
}

// Newest returns the instance with the highest InstallationVersion, or
// nil for an empty slice.
func Newest(instances []*Instance) *Instance {
	var best *Instance
	var bestVersion *goversion.Version
	for _, inst := range instances {
		v, err := goversion.NewVersion(inst.InstallationVersion)
		if err != nil {
			continue
		}
		if best == nil || v.GreaterThan(bestVersion) {
			best, bestVersion = inst, v
		}
	}
	if best == nil && len(instances) > 0 {
		return instances[0]
	}
	return best
}
