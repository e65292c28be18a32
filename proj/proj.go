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

// Package proj edits MSBuild project files (csproj, vcxproj, props,
// targets) while preserving their formatting. Unedited regions are
// spliced through byte for byte, so attribute quoting, entities, and
// comments survive a rewrite.
package proj

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	forkedxml "github.com/michaelkedar/xml"
)

// Item is one MSBuild item, e.g. a PackageReference. Metadata is
// written as attributes in sorted order after Include.
type Item struct {
	Type     string
	Include  string
	Metadata map[string]string
}

// Edit is one batch of changes to a project file.
type Edit struct {
	// SetProperties sets properties in the first PropertyGroup in
	// document order, adding the ones that are missing. A new
	// PropertyGroup is created when the project has none.
	SetProperties map[string]string
	// RemoveProperties deletes properties by name from every
	// PropertyGroup.
	RemoveProperties []string
	// AddItems appends items to the first ItemGroup, creating one
	// when the project has none.
	AddItems []Item
}

// Apply rewrites the project file at path with the edit applied.
func Apply(path string, edit Edit) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := rewrite(string(raw), &out, edit); err != nil {
		return fmt.Errorf("editing %s: %w", path, err)
	}
	return os.WriteFile(path, out.Bytes(), 0644)
}

// rewrite walks the document tokens and splices the original bytes of
// every token it does not touch. Token offsets index into raw, which
// keeps the encoder out of the picture and the untouched formatting
// exact.
func rewrite(raw string, w io.Writer, edit Edit) error {
	set := maps.Clone(edit.SetProperties)
	remove := make(map[string]bool, len(edit.RemoveProperties))
	for _, name := range edit.RemoveProperties {
		remove[name] = true
	}

	dec := forkedxml.NewDecoder(strings.NewReader(raw))
	var (
		held string // most recent character data, not yet written

		depth          int
		groupDepth     = -1   // depth of the enclosing PropertyGroup
		groupActive    bool   // first PropertyGroup, receives the sets
		firstGroup     = true
		itemGroupDepth = -1
		itemsActive    bool
		firstItemGroup = true
		propsDone      bool
		itemsDone      bool

		groupChildWS string // indent of the current group's children
		itemChildWS  string
		rootChildWS  string
	)

	flushHeld := func() error {
		if held == "" {
			return nil
		}
		_, err := io.WriteString(w, held)
		held = ""
		return err
	}

	for {
		prev := dec.InputOffset()
		token, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("getting token: %w", err)
		}
		text := raw[prev:dec.InputOffset()]

		switch tt := token.(type) {
		case forkedxml.StartElement:
			name := tt.Name.Local
			if depth == 1 {
				rootChildWS = indentOf(held)
			}

			if name == "PropertyGroup" && groupDepth < 0 {
				if err := flushHeld(); err != nil {
					return err
				}
				if _, err := io.WriteString(w, text); err != nil {
					return err
				}
				groupDepth = depth
				groupActive = firstGroup
				firstGroup = false
				groupChildWS = ""
				depth++
				continue
			}
			if name == "ItemGroup" && itemGroupDepth < 0 {
				if err := flushHeld(); err != nil {
					return err
				}
				if _, err := io.WriteString(w, text); err != nil {
					return err
				}
				itemGroupDepth = depth
				itemsActive = firstItemGroup
				firstItemGroup = false
				itemChildWS = ""
				depth++
				continue
			}

			if groupDepth >= 0 && depth == groupDepth+1 {
				if remove[name] {
					held = ""
					if err := dec.Skip(); err != nil {
						return fmt.Errorf("removing %s: %w", name, err)
					}
					continue
				}
				groupChildWS = indentOf(held)
				if groupActive {
					if value, ok := set[name]; ok {
						if err := flushHeld(); err != nil {
							return err
						}
						if err := replaceValue(dec, w, text, name, value); err != nil {
							return err
						}
						delete(set, name)
						continue
					}
				}
			}
			if itemGroupDepth >= 0 && depth == itemGroupDepth+1 {
				itemChildWS = indentOf(held)
			}

			if err := flushHeld(); err != nil {
				return err
			}
			if _, err := io.WriteString(w, text); err != nil {
				return err
			}
			depth++

		case forkedxml.EndElement:
			depth--

			if groupDepth >= 0 && depth == groupDepth {
				if groupActive && len(set) > 0 {
					ws := groupChildWS
					if ws == "" {
						ws = indentOf(held) + "  "
					}
					for _, name := range slices.Sorted(maps.Keys(set)) {
						if _, err := io.WriteString(w, "\n"+ws+renderProperty(name, set[name])); err != nil {
							return err
						}
					}
					clear(set)
					propsDone = true
				}
				groupActive = false
				groupDepth = -1
			}
			if itemGroupDepth >= 0 && depth == itemGroupDepth {
				if itemsActive && len(edit.AddItems) > 0 && !itemsDone {
					ws := itemChildWS
					if ws == "" {
						ws = indentOf(held) + "  "
					}
					for _, item := range edit.AddItems {
						if _, err := io.WriteString(w, "\n"+ws+renderItem(item)); err != nil {
							return err
						}
					}
					itemsDone = true
				}
				itemsActive = false
				itemGroupDepth = -1
			}
			if depth == 0 && tt.Name.Local == "Project" && text != "" {
				if err := appendGroups(w, rootChildWS, set, edit.AddItems, propsDone, itemsDone); err != nil {
					return err
				}
				propsDone, itemsDone = true, true
			}

			if err := flushHeld(); err != nil {
				return err
			}
			if _, err := io.WriteString(w, text); err != nil {
				return err
			}

		case forkedxml.CharData:
			if err := flushHeld(); err != nil {
				return err
			}
			held = text

		default:
			if err := flushHeld(); err != nil {
				return err
			}
			if _, err := io.WriteString(w, text); err != nil {
				return err
			}
		}
	}
	return flushHeld()
}

// replaceValue writes the element opened by startText with its content
// replaced, consuming the original content from the decoder.
func replaceValue(dec *forkedxml.Decoder, w io.Writer, startText, name, value string) error {
	open := startText
	if strings.HasSuffix(open, "/>") {
		open = strings.TrimRight(open[:len(open)-2], " \t") + ">"
	}
	if _, err := io.WriteString(w, open); err != nil {
		return err
	}
	if err := dec.Skip(); err != nil {
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	_, err := io.WriteString(w, escape(value)+"</"+name+">")
	return err
}

// appendGroups writes new PropertyGroup/ItemGroup sections right
// before the Project end tag for edits that found no existing group.
func appendGroups(w io.Writer, rootWS string, set map[string]string, items []Item, propsDone, itemsDone bool) error {
	if rootWS == "" {
		rootWS = "  "
	}
	if !propsDone && len(set) > 0 {
		lines := []string{"\n" + rootWS + "<PropertyGroup>"}
		for _, name := range slices.Sorted(maps.Keys(set)) {
			lines = append(lines, "\n"+rootWS+"  "+renderProperty(name, set[name]))
		}
		lines = append(lines, "\n"+rootWS+"</PropertyGroup>")
		if _, err := io.WriteString(w, strings.Join(lines, "")); err != nil {
			return err
		}
	}
	if !itemsDone && len(items) > 0 {
		lines := []string{"\n" + rootWS + "<ItemGroup>"}
		for _, item := range items {
			lines = append(lines, "\n"+rootWS+"  "+renderItem(item))
		}
		lines = append(lines, "\n"+rootWS+"</ItemGroup>")
		if _, err := io.WriteString(w, strings.Join(lines, "")); err != nil {
			return err
		}
	}
	return nil
}

func renderProperty(name, value string) string {
	return "<" + name + ">" + escape(value) + "</" + name + ">"
}

func renderItem(item Item) string {
	var b strings.Builder
	b.WriteString("<" + item.Type)
	if item.Include != "" {
		b.WriteString(` Include="` + escapeAttr(item.Include) + `"`)
	}
	for _, key := range slices.Sorted(maps.Keys(item.Metadata)) {
		b.WriteString(" " + key + `="` + escapeAttr(item.Metadata[key]) + `"`)
	}
	b.WriteString(" />")
	return b.String()
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = forkedxml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// escapeAttr escapes for a double-quoted attribute value, keeping
// apostrophes literal the way MSBuild conditions are written.
func escapeAttr(s string) string {
	return strings.ReplaceAll(escape(s), "&#39;", "'")
}

// indentOf returns the whitespace after the last newline in s, which
// is the indentation of whatever follows s.
func indentOf(s string) string {
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}
