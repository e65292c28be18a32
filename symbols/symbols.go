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

// Package symbols configures debugger symbol-server settings: the
// per-user _NT_SYMBOL_PATH expression, the Visual Studio debugger
// registry values, and an optional JSON settings file, all derived from
// one Settings value.
package symbols

import "strings"

const (
	// SymbolPathVar is the environment variable debuggers read the
	// symbol path expression from.
	SymbolPathVar = "_NT_SYMBOL_PATH"

	// MicrosoftSymbolServer is the public Microsoft symbol store.
	MicrosoftSymbolServer = "https://msdl.microsoft.com/download/symbols"
)

// Settings describes a symbol-server configuration.
type Settings struct {
	// CachePath is the local downstream cache directory, e.g.
	// C:\SymbolCache. Empty means no local cache.
	CachePath string
	// Servers are the upstream symbol stores, queried in order.
	Servers []string
	// ExtraPaths are plain directories searched for symbols as-is.
	ExtraPaths []string
}

// Expression renders the settings as an _NT_SYMBOL_PATH expression:
// a srv* chain of cache and stores, followed by the plain directories,
// joined with semicolons. Empty settings render as the empty string.
func (s *Settings) Expression() string {
	var segments []string
	if s.CachePath != "" || len(s.Servers) > 0 {
		parts := []string{"srv"}
		if s.CachePath != "" {
			parts = append(parts, s.CachePath)
		}
		parts = append(parts, s.Servers...)
		segments = append(segments, strings.Join(parts, "*"))
	}
	segments = append(segments, s.ExtraPaths...)
	return strings.Join(segments, ";")
}

// ParseExpression decomposes an _NT_SYMBOL_PATH expression into
// Settings. The first srv* chain with a downstream store contributes
// the cache path; stores of further chains are appended to Servers.
// Segments that are not srv* chains are taken as plain directories.
func ParseExpression(expr string) *Settings {
	settings := &Settings{}
	for _, segment := range strings.Split(expr, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		if len(segment) >= 4 && strings.EqualFold(segment[:4], "srv*") {
			parts := strings.Split(segment[4:], "*")
			if len(parts) > 1 {
				if settings.CachePath == "" {
					settings.CachePath = parts[0]
				} else {
					settings.Servers = append(settings.Servers, parts[0])
				}
				parts = parts[1:]
			}
			for _, part := range parts {
				if part != "" {
					settings.Servers = append(settings.Servers, part)
				}
			}
			continue
		}
		settings.ExtraPaths = append(settings.ExtraPaths, segment)
	}
	return settings
}
