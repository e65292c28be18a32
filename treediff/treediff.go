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

// Package treediff compares two directory trees and reports added,
// removed, and modified files. It is built for before/after snapshots
// of an installation, where most files are identical and the
// interesting part is the delta.
package treediff

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/aymanbagabas/go-udiff"
	"github.com/gobwas/glob"
	"go.uber.org/multierr"

	"github.com/winrig/winrig/hashutil"
	"github.com/winrig/winrig/log"
)

const defaultMaxDiffBytes = 1 << 20

// ChangeKind says how a path differs between the two trees.
type ChangeKind string

const (
	Added    ChangeKind = "added"
	Removed  ChangeKind = "removed"
	Modified ChangeKind = "modified"
)

// Change describes one differing file, identified by its
// slash-separated path relative to the tree roots. OldSize is set for
// removed and modified files, NewSize for added and modified ones.
type Change struct {
	Path    string
	Kind    ChangeKind
	OldSize int64
	NewSize int64
	// Diff holds a unified diff for modified text files when diffs
	// were requested and the file fits the size cap.
	Diff string
	// Binary marks modified files that were skipped by diff rendering
	// because their content is not text. Only set when diffs were
	// requested.
	Binary bool
}

// Config controls a tree comparison.
type Config struct {
	// OldRoot and NewRoot are the trees to compare. Both must exist.
	OldRoot string
	NewRoot string
	// Exclude skips files whose relative slash path matches any
	// pattern. Patterns are matched against the whole path, so "*"
	// crosses directory separators.
	Exclude []glob.Glob
	// WithDiffs renders unified diffs for modified text files.
	WithDiffs bool
	// MaxDiffBytes caps the file size eligible for diff rendering.
	// Values <= 0 mean 1 MiB.
	MaxDiffBytes int64
}

// CompileExcludes compiles exclude patterns, reporting every broken
// pattern rather than just the first.
func CompileExcludes(patterns []string) ([]glob.Glob, error) {
	var globs []glob.Glob
	var err error
	for _, pattern := range patterns {
		g, cerr := glob.Compile(pattern)
		if cerr != nil {
			err = multierr.Append(err, fmt.Errorf("exclude pattern %q: %w", pattern, cerr))
			continue
		}
		globs = append(globs, g)
	}
	if err != nil {
		return nil, err
	}
	return globs, nil
}

// Compare walks both trees and returns the differing files sorted by
// path. Only regular files are considered.
func Compare(ctx context.Context, cfg Config) ([]Change, error) {
	oldFiles, err := indexTree(ctx, cfg.OldRoot, cfg.Exclude)
	if err != nil {
		return nil, err
	}
	newFiles, err := indexTree(ctx, cfg.NewRoot, cfg.Exclude)
	if err != nil {
		return nil, err
	}

	var changes []Change
	for path, oldInfo := range oldFiles {
		newInfo, ok := newFiles[path]
		if !ok {
			changes = append(changes, Change{Path: path, Kind: Removed, OldSize: oldInfo.size})
			continue
		}
		same, err := sameContent(cfg, path, oldInfo, newInfo)
		if err != nil {
			return nil, err
		}
		if !same {
			changes = append(changes, Change{Path: path, Kind: Modified, OldSize: oldInfo.size, NewSize: newInfo.size})
		}
	}
	for path, newInfo := range newFiles {
		if _, ok := oldFiles[path]; !ok {
			changes = append(changes, Change{Path: path, Kind: Added, NewSize: newInfo.size})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })

	if cfg.WithDiffs {
		for i := range changes {
			if changes[i].Kind != Modified {
				continue
			}
			if err := renderDiff(cfg, &changes[i]); err != nil {
				return nil, err
			}
		}
	}
	return changes, nil
}

type fileInfo struct {
	size int64
}

func indexTree(ctx context.Context, root string, excludes []glob.Glob) (map[string]fileInfo, error) {
	files := make(map[string]fileInfo)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if excluded(excludes, rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			log.Debugf("treediff: skipping irregular file %s", rel)
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files[rel] = fileInfo{size: info.Size()}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

func excluded(excludes []glob.Glob, path string) bool {
	for _, g := range excludes {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// sameContent compares by size first and only hashes when sizes match.
func sameContent(cfg Config, path string, oldInfo, newInfo fileInfo) (bool, error) {
	if oldInfo.size != newInfo.size {
		return false, nil
	}
	oldSum, err := hashutil.SumFile(hashutil.SHA256, filepath.Join(cfg.OldRoot, filepath.FromSlash(path)))
	if err != nil {
		return false, err
	}
	newSum, err := hashutil.SumFile(hashutil.SHA256, filepath.Join(cfg.NewRoot, filepath.FromSlash(path)))
	if err != nil {
		return false, err
	}
	return oldSum == newSum, nil
}

func renderDiff(cfg Config, change *Change) error {
	maxBytes := cfg.MaxDiffBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxDiffBytes
	}
	if change.OldSize > maxBytes || change.NewSize > maxBytes {
		log.Debugf("treediff: %s exceeds the diff size cap", change.Path)
		return nil
	}

	oldData, err := os.ReadFile(filepath.Join(cfg.OldRoot, filepath.FromSlash(change.Path)))
	if err != nil {
		return err
	}
	newData, err := os.ReadFile(filepath.Join(cfg.NewRoot, filepath.FromSlash(change.Path)))
	if err != nil {
		return err
	}
	if isBinary(oldData) || isBinary(newData) {
		change.Binary = true
		return nil
	}
	change.Diff = udiff.Unified("old/"+change.Path, "new/"+change.Path, string(oldData), string(newData))
	return nil
}

// isBinary applies the NUL-byte heuristic to the first 8000 bytes.
func isBinary(data []byte) bool {
	head := data
	if len(head) > 8000 {
		head = head[:8000]
	}
	return bytes.IndexByte(head, 0) >= 0
}
