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

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/winrig/winrig"
	"github.com/winrig/winrig/batchenv"
	"github.com/winrig/winrig/hashutil"
	"github.com/winrig/winrig/inventory"
	"github.com/winrig/winrig/plugin"
	"github.com/winrig/winrig/purl"
	"github.com/winrig/winrig/treediff"
	"github.com/winrig/winrig/vssetup"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHash(t *testing.T) {
	testCases := []struct {
		desc string
		args []string
		want string
	}{
		{
			desc: "Default algorithm",
			args: nil,
			want: "fd150baebd485f31182434e780d73ebe0ac9cb7a531050203006c084c09d33c7",
		},
		{
			desc: "MD5",
			args: []string{"--algorithm", "md5"},
			want: "809ce190d4646de2a494d538cac81618",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "tool.zip", "winrig test content\n")
			got, err := runCmd(t, append([]string{"hash", path}, tc.args...)...)
			if err != nil {
				t.Fatalf("hash: %v", err)
			}
			want := tc.want + "  " + path + "\n"
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("hash: unexpected output (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHashVerify(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tool.zip", "winrig test content\n")
	got, err := runCmd(t, "hash", path, "--verify", "fd150baebd485f31182434e780d73ebe0ac9cb7a531050203006c084c09d33c7")
	if err != nil {
		t.Fatalf("hash --verify: %v", err)
	}
	if want := "OK " + path + "\n"; got != want {
		t.Errorf("hash --verify: got %q, want %q", got, want)
	}
}

func TestHashVerifyMismatch(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tool.zip", "winrig test content\n")
	_, err := runCmd(t, "hash", path, "--verify", strings.Repeat("0", 64))
	var mismatch *hashutil.MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("hash --verify: got error %v, want a MismatchError", err)
	}
}

func TestHashUnknownAlgorithm(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tool.zip", "winrig test content\n")
	if _, err := runCmd(t, "hash", path, "--algorithm", "crc32"); err == nil {
		t.Fatal("hash --algorithm crc32: got nil error, want an error")
	}
}

func TestTreediff(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()
	writeFile(t, oldDir, "same.txt", "same\n")
	writeFile(t, oldDir, "gone.txt", "old\n")
	writeFile(t, oldDir, "changed.txt", "one\n")
	writeFile(t, newDir, "same.txt", "same\n")
	writeFile(t, newDir, "changed.txt", "two\n")
	writeFile(t, newDir, "added.txt", "fresh\n")

	got, err := runCmd(t, "treediff", oldDir, newDir)
	if err != nil {
		t.Fatalf("treediff: %v", err)
	}
	want := "A added.txt (6 bytes)\n" +
		"M changed.txt (4 -> 4 bytes)\n" +
		"D gone.txt\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("treediff: unexpected output (-want +got):\n%s", diff)
	}
}

func TestTreediffIdentical(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()
	writeFile(t, oldDir, "same.txt", "same\n")
	writeFile(t, newDir, "same.txt", "same\n")

	got, err := runCmd(t, "treediff", oldDir, newDir)
	if err != nil {
		t.Fatalf("treediff: %v", err)
	}
	if want := "Trees are identical.\n"; got != want {
		t.Errorf("treediff: got %q, want %q", got, want)
	}
}

func TestTreediffWithDiffs(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()
	writeFile(t, oldDir, "changed.txt", "one\n")
	writeFile(t, newDir, "changed.txt", "two\n")

	got, err := runCmd(t, "treediff", oldDir, newDir, "--diff")
	if err != nil {
		t.Fatalf("treediff --diff: %v", err)
	}
	for _, want := range []string{"M changed.txt", "-one", "+two"} {
		if !strings.Contains(got, want) {
			t.Errorf("treediff --diff: output %q does not contain %q", got, want)
		}
	}
}

func TestProjSetProperty(t *testing.T) {
	input := `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
  </PropertyGroup>
</Project>
`
	want := `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net9.0</TargetFramework>
  </PropertyGroup>
</Project>
`
	path := writeFile(t, t.TempDir(), "app.csproj", input)
	out, err := runCmd(t, "proj", "set-property", path, "TargetFramework=net9.0")
	if err != nil {
		t.Fatalf("proj set-property: %v", err)
	}
	if wantOut := "Updated " + path + ".\n"; out != wantOut {
		t.Errorf("proj set-property: got output %q, want %q", out, wantOut)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("proj set-property: unexpected project file (-want +got):\n%s", diff)
	}
}

func TestProjAddItem(t *testing.T) {
	input := `<Project Sdk="Microsoft.NET.Sdk">
  <ItemGroup>
    <PackageReference Include="xunit" Version="2.9.0" />
  </ItemGroup>
</Project>
`
	want := `<Project Sdk="Microsoft.NET.Sdk">
  <ItemGroup>
    <PackageReference Include="xunit" Version="2.9.0" />
    <PackageReference Include="Newtonsoft.Json" Version="13.0.3" />
  </ItemGroup>
</Project>
`
	path := writeFile(t, t.TempDir(), "app.csproj", input)
	_, err := runCmd(t, "proj", "add-item", path, "PackageReference", "Newtonsoft.Json", "--metadata", "Version=13.0.3")
	if err != nil {
		t.Fatalf("proj add-item: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("proj add-item: unexpected project file (-want +got):\n%s", diff)
	}
}

func TestProjSetPropertyBadPair(t *testing.T) {
	path := writeFile(t, t.TempDir(), "app.csproj", "<Project>\n</Project>\n")
	_, err := runCmd(t, "proj", "set-property", path, "NoEqualsSign")
	if err == nil || !strings.Contains(err.Error(), "Name=Value") {
		t.Fatalf("proj set-property: got error %v, want a Name=Value error", err)
	}
}

func TestParsePairs(t *testing.T) {
	testCases := []struct {
		desc    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{
			desc:  "Empty",
			pairs: nil,
			want:  nil,
		},
		{
			desc:  "Pairs",
			pairs: []string{"Version=13.0.3", "PrivateAssets=all"},
			want:  map[string]string{"Version": "13.0.3", "PrivateAssets": "all"},
		},
		{
			desc:  "Empty value",
			pairs: []string{"DefineConstants="},
			want:  map[string]string{"DefineConstants": ""},
		},
		{
			desc:    "Missing separator",
			pairs:   []string{"Version"},
			wantErr: true,
		},
		{
			desc:    "Empty name",
			pairs:   []string{"=value"},
			wantErr: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := parsePairs(tc.pairs)
			if gotErr := err != nil; gotErr != tc.wantErr {
				t.Fatalf("parsePairs(%v): got error %v, want error: %t", tc.pairs, err, tc.wantErr)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("parsePairs(%v): unexpected result (-want +got):\n%s", tc.pairs, diff)
			}
		})
	}
}

func TestFormatRef(t *testing.T) {
	testCases := []struct {
		desc string
		ref  *vssetup.PackageReference
		want string
	}{
		{
			desc: "ID only",
			ref:  &vssetup.PackageReference{ID: "Microsoft.VisualStudio.Workload.ManagedDesktop"},
			want: "Microsoft.VisualStudio.Workload.ManagedDesktop",
		},
		{
			desc: "ID and version",
			ref:  &vssetup.PackageReference{ID: "Microsoft.VisualStudio.Component.Roslyn.Compiler", Version: "17.9.34622.214"},
			want: "Microsoft.VisualStudio.Component.Roslyn.Compiler 17.9.34622.214",
		},
		{
			desc: "All details",
			ref: &vssetup.PackageReference{
				ID:       "Microsoft.VisualCpp.Redist",
				Version:  "14.38.33135",
				Chip:     "x64",
				Language: "en-US",
				Branch:   "rel",
			},
			want: "Microsoft.VisualCpp.Redist 14.38.33135 (x64, en-US, rel)",
		},
		{
			desc: "Extension",
			ref:  &vssetup.PackageReference{ID: "GitHub.Copilot", Version: "1.156.0", IsExtension: true},
			want: "GitHub.Copilot 1.156.0 (extension)",
		},
		{
			desc: "Chip without version",
			ref:  &vssetup.PackageReference{ID: "Microsoft.VisualCpp.CRT.Headers", Chip: "x86"},
			want: "Microsoft.VisualCpp.CRT.Headers (x86)",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if got := formatRef(tc.ref); got != tc.want {
				t.Errorf("formatRef(%+v) = %q, want %q", tc.ref, got, tc.want)
			}
		})
	}
}

func TestPrintInstance(t *testing.T) {
	instance := &vssetup.Instance{
		ID:                  "a1b2c3d4",
		State:               vssetup.StateComplete,
		InstallationVersion: "17.9.34622.214",
		InstallationPath:    `C:\Program Files\Microsoft Visual Studio\2022\Community`,
		ProductName:         "Visual Studio Community 2022",
		DisplayName:         "Visual Studio Community 2022",
		Products: []*vssetup.PackageReference{
			{ID: "Microsoft.VisualStudio.Product.Community", Version: "17.9.34622.214"},
		},
		Vsix: []*vssetup.PackageReference{
			{ID: "GitHub.Copilot", Version: "1.156.0", IsExtension: true},
		},
	}
	want := "Instance a1b2c3d4\n" +
		"  State:               Complete\n" +
		"  InstallationVersion: 17.9.34622.214\n" +
		`  InstallationPath:    C:\Program Files\Microsoft Visual Studio\2022\Community` + "\n" +
		"  ProductName:         Visual Studio Community 2022\n" +
		"  DisplayName:         Visual Studio Community 2022\n" +
		"  Products (1):\n" +
		"    Microsoft.VisualStudio.Product.Community 17.9.34622.214\n" +
		"  Workloads (0):\n" +
		"  Components (0):\n" +
		"  Vsix (1):\n" +
		"    GitHub.Copilot 1.156.0 (extension)\n" +
		"  Exe (0):\n" +
		"  Msi (0):\n" +
		"  Msu (0):\n" +
		"  Group (0):\n" +
		"  WindowsFeature (0):\n" +
		"  OtherPackages (0):\n"

	var out bytes.Buffer
	printInstance(&out, instance, true)
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("printInstance(): unexpected output (-want +got):\n%s", diff)
	}
}

func TestPrintInstanceWithoutPackages(t *testing.T) {
	instance := &vssetup.Instance{
		ID:                  "a1b2c3d4",
		State:               vssetup.StateLocal,
		InstallationVersion: "17.9.34622.214",
		InstallationPath:    `C:\VS`,
	}
	want := "Instance a1b2c3d4\n" +
		"  State:               Local\n" +
		"  InstallationVersion: 17.9.34622.214\n" +
		`  InstallationPath:    C:\VS` + "\n"

	var out bytes.Buffer
	printInstance(&out, instance, false)
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("printInstance(): unexpected output (-want +got):\n%s", diff)
	}
}

func TestPrintReport(t *testing.T) {
	start := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	result := &winrig.ScanResult{
		Version:   "1.2.3",
		StartTime: start,
		EndTime:   start.Add(1500 * time.Millisecond),
		Status:    &plugin.RunStatus{Status: plugin.StatusSucceeded},
		PluginStatus: []*plugin.Status{{
			Name:    "windows/vsinstances",
			Version: 0,
			Status:  &plugin.RunStatus{Status: plugin.StatusSucceeded},
		}},
		Inventory: inventory.Inventory{Packages: []*inventory.Package{
			{Name: "GitHub.Copilot", Version: "1.156.0", PURLType: purl.TypeVSIX},
			{Name: "msbuild", Version: "17.9.5"},
		}},
	}
	want := "winrig 1.2.3 finished in 1.5s: SUCCEEDED\n" +
		"  windows/vsinstances v0: SUCCEEDED\n" +
		"Found 2 packages:\n" +
		"  GitHub.Copilot 1.156.0 (pkg:vsix/GitHub.Copilot@1.156.0)\n" +
		"  msbuild 17.9.5\n"

	var out bytes.Buffer
	printReport(&out, result)
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("printReport(): unexpected output (-want +got):\n%s", diff)
	}
}

func TestPrintReportFailure(t *testing.T) {
	start := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	result := &winrig.ScanResult{
		Version:   "1.2.3",
		StartTime: start,
		EndTime:   start.Add(25 * time.Millisecond),
		Status: &plugin.RunStatus{
			Status:        plugin.StatusPartiallySucceeded,
			FailureReason: "not all probes succeeded, see the plugin statuses",
		},
		PluginStatus: []*plugin.Status{{
			Name:    "windows/vsinstances",
			Version: 0,
			Status:  &plugin.RunStatus{Status: plugin.StatusFailed, FailureReason: "access denied"},
		}},
	}
	want := "winrig 1.2.3 finished in 25ms: PARTIALLY_SUCCEEDED\n" +
		"  windows/vsinstances v0: FAILED: access denied\n" +
		"No packages found.\n"

	var out bytes.Buffer
	printReport(&out, result)
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("printReport(): unexpected output (-want +got):\n%s", diff)
	}
}

func TestPrintChange(t *testing.T) {
	testCases := []struct {
		desc   string
		change treediff.Change
		want   string
	}{
		{
			desc:   "Added",
			change: treediff.Change{Path: "bin/tool.exe", Kind: treediff.Added, NewSize: 1024},
			want:   "A bin/tool.exe (1024 bytes)\n",
		},
		{
			desc:   "Removed",
			change: treediff.Change{Path: "old.dll", Kind: treediff.Removed, OldSize: 99},
			want:   "D old.dll\n",
		},
		{
			desc:   "Modified",
			change: treediff.Change{Path: "app.config", Kind: treediff.Modified, OldSize: 10, NewSize: 20},
			want:   "M app.config (10 -> 20 bytes)\n",
		},
		{
			desc:   "Modified binary",
			change: treediff.Change{Path: "app.dll", Kind: treediff.Modified, OldSize: 5, NewSize: 6, Binary: true},
			want:   "M app.dll (5 -> 6 bytes)\n  binary file, diff skipped\n",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			var out bytes.Buffer
			printChange(&out, tc.change)
			if diff := cmp.Diff(tc.want, out.String()); diff != "" {
				t.Errorf("printChange(%+v): unexpected output (-want +got):\n%s", tc.change, diff)
			}
		})
	}
}

func TestPrintEnvChange(t *testing.T) {
	testCases := []struct {
		desc   string
		change batchenv.Change
		want   string
	}{
		{
			desc:   "Added",
			change: batchenv.Change{Name: "INCLUDE", Kind: batchenv.Added, New: `C:\VC\include`},
			want:   "+ INCLUDE=C:\\VC\\include\n",
		},
		{
			desc:   "Changed",
			change: batchenv.Change{Name: "PATH", Kind: batchenv.Changed, Old: `C:\bin`, New: `C:\VC\bin;C:\bin`},
			want:   "~ PATH=C:\\VC\\bin;C:\\bin\n",
		},
		{
			desc:   "Removed",
			change: batchenv.Change{Name: "TEMPDIR", Kind: batchenv.Removed, Old: `C:\tmp`},
			want:   "- TEMPDIR\n",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			var out bytes.Buffer
			printEnvChange(&out, tc.change)
			if diff := cmp.Diff(tc.want, out.String()); diff != "" {
				t.Errorf("printEnvChange(%+v): unexpected output (-want +got):\n%s", tc.change, diff)
			}
		})
	}
}
