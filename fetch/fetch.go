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

// Package fetch downloads and unpacks pinned developer tool archives
// described by a TOML manifest.
package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/winrig/winrig/hashutil"
	"github.com/winrig/winrig/log"
)

const defaultConcurrency = 4

// Config controls a fetch run.
type Config struct {
	// DestDir is the root directory tools are installed under, one
	// subdirectory per tool.
	DestDir string
	// CacheDir holds downloaded archives and the cache index. Empty
	// disables caching and every run downloads fresh archives.
	CacheDir string
	// UserAgent is sent with every request when non-empty.
	UserAgent string
	// Client is the HTTP client to use. nil means http.DefaultClient.
	Client *http.Client
	// Concurrency caps parallel downloads. Values <= 0 mean 4.
	Concurrency int
}

// Result reports what happened to one tool.
type Result struct {
	Tool Tool
	// Dir is the directory the tool is installed under.
	Dir string
	// Downloaded reports whether new archive bytes were fetched, as
	// opposed to the cached copy still being valid.
	Downloaded bool
}

// Run downloads and unpacks every tool in the manifest. Tools are
// fetched concurrently; the first failure aborts the run.
func Run(ctx context.Context, cfg Config, manifest *Manifest) ([]Result, error) {
	if cfg.DestDir == "" {
		return nil, errors.New("fetch: destination directory not set")
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	var index *Index
	if cfg.CacheDir != "" {
		if err := os.MkdirAll(cfg.CacheDir, 0750); err != nil {
			return nil, err
		}
		var err error
		index, err = OpenIndex(filepath.Join(cfg.CacheDir, "index.db"))
		if err != nil {
			return nil, err
		}
		defer index.Close()
	}

	results := make([]Result, len(manifest.Tools))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, tool := range manifest.Tools {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil //nolint:nilerr // the run is aborting on another tool's error
			}
			result, err := fetchTool(ctx, client, cfg, index, tool)
			if err != nil {
				return fmt.Errorf("fetching %s: %w", tool.Name, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func fetchTool(ctx context.Context, client *http.Client, cfg Config, index *Index, tool Tool) (Result, error) {
	result := Result{Tool: tool, Dir: filepath.Join(cfg.DestDir, tool.InstallDir())}

	archivePath := ""
	if cfg.CacheDir != "" {
		archivePath = filepath.Join(cfg.CacheDir, tool.Name+".zip")
	} else {
		tmp, err := os.MkdirTemp("", "winrig-fetch-*")
		if err != nil {
			return result, err
		}
		defer os.RemoveAll(tmp)
		archivePath = filepath.Join(tmp, tool.Name+".zip")
	}

	// A cached archive matching the pinned digest needs no network
	// round trip at all.
	cached := false
	if tool.SHA256 != "" && fileExists(archivePath) {
		if err := hashutil.VerifyFile(hashutil.SHA256, archivePath, tool.SHA256); err == nil {
			cached = true
		}
	}
	if !cached {
		downloaded, err := download(ctx, client, cfg.UserAgent, tool, archivePath, index)
		if err != nil {
			return result, err
		}
		result.Downloaded = downloaded
	}

	if !result.Downloaded {
		if _, err := os.Stat(result.Dir); err == nil {
			log.Debugf("fetch: %s is up to date", tool.Name)
			return result, nil
		}
	}
	if err := extractZip(archivePath, result.Dir, tool.StripPrefix); err != nil {
		return result, err
	}
	return result, nil
}

// download fetches the tool archive into dest. It returns false without
// an error when a conditional request reported the cached archive as
// still current.
func download(ctx context.Context, client *http.Client, userAgent string, tool Tool, dest string, index *Index) (bool, error) {
	var prior *Entry
	if index != nil {
		var err error
		prior, err = index.Get(tool.URL)
		if err != nil {
			return false, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tool.URL, nil)
	if err != nil {
		return false, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	if prior != nil && prior.ETag != "" && fileExists(dest) {
		req.Header.Set("If-None-Match", prior.ETag)
	}

	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		log.Debugf("fetch: %s not modified", tool.URL)
		return false, nil
	case http.StatusOK:
	default:
		return false, fmt.Errorf("server returned %s for %s", resp.Status, tool.URL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	digest, err := hashutil.Sum(hashutil.SHA256, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	if tool.SHA256 != "" && !strings.EqualFold(digest, tool.SHA256) {
		return false, &hashutil.MismatchError{Path: tool.URL, Algorithm: hashutil.SHA256, Want: tool.SHA256, Got: digest}
	}
	if err := os.WriteFile(dest, body, 0644); err != nil { //nolint:gosec // tool archives hold no secrets
		return false, err
	}
	log.Infof("fetch: downloaded %s (%d bytes)", tool.URL, len(body))

	if index != nil {
		entry := &Entry{ETag: resp.Header.Get("ETag"), SHA256: digest, FetchedAt: time.Now().UTC()}
		if err := index.Put(tool.URL, entry); err != nil {
			return false, err
		}
	}
	return true, nil
}

// extractZip unpacks the archive into target, dropping stripPrefix from
// entry names. Entries that would land outside target abort the
// extraction.
func extractZip(archive, target, stripPrefix string) error {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", archive, err)
	}
	defer reader.Close()

	if err := os.MkdirAll(target, 0750); err != nil {
		return err
	}
	for _, file := range reader.File {
		name := file.Name
		if stripPrefix != "" {
			name = strings.TrimPrefix(name, stripPrefix)
			name = strings.TrimPrefix(name, "/")
		}
		name = strings.TrimSuffix(name, "/")
		if name == "" {
			continue
		}
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return fmt.Errorf("archive entry %q escapes %s", file.Name, target)
		}
		dest := filepath.Join(target, filepath.FromSlash(name))
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0750); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
			return err
		}
		if err := writeEntry(file, dest); err != nil {
			return fmt.Errorf("extracting %s: %w", file.Name, err)
		}
	}
	return nil
}

func writeEntry(file *zip.File, dest string) error {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil { //nolint:gosec // archives are digest-pinned
		out.Close()
		return err
	}
	return out.Close()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
