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

package proj_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/winrig/winrig/proj"
)

func applyToFile(t *testing.T, input string, edit proj.Edit) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.csproj")
	if err := os.WriteFile(path, []byte(input), 0600); err != nil {
		t.Fatal(err)
	}
	if err := proj.Apply(path, edit); err != nil {
		t.Fatalf("Apply(): %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(got)
}

func TestApplySetExistingProperty(t *testing.T) {
	input := `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
    <LangVersion>latest</LangVersion>
  </PropertyGroup>
</Project>
`
	want := `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
    <LangVersion>preview</LangVersion>
  </PropertyGroup>
</Project>
`
	got := applyToFile(t, input, proj.Edit{SetProperties: map[string]string{"LangVersion": "preview"}})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply(): unexpected output (-want +got):\n%s", diff)
	}
}

func TestApplyAddsMissingProperty(t *testing.T) {
	input := `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
  </PropertyGroup>
</Project>
`
	want := `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
    <Nullable>enable</Nullable>
  </PropertyGroup>
</Project>
`
	got := applyToFile(t, input, proj.Edit{SetProperties: map[string]string{"Nullable": "enable"}})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply(): unexpected output (-want +got):\n%s", diff)
	}
}

func TestApplySetSelfClosingProperty(t *testing.T) {
	input := `<Project>
  <PropertyGroup>
    <Nullable />
  </PropertyGroup>
</Project>
`
	want := `<Project>
  <PropertyGroup>
    <Nullable>enable</Nullable>
  </PropertyGroup>
</Project>
`
	got := applyToFile(t, input, proj.Edit{SetProperties: map[string]string{"Nullable": "enable"}})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply(): unexpected output (-want +got):\n%s", diff)
	}
}

func TestApplyRemoveProperty(t *testing.T) {
	input := `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
    <LangVersion>latest</LangVersion>
  </PropertyGroup>
  <PropertyGroup Condition="'$(Configuration)'=='Release'">
    <LangVersion>12</LangVersion>
    <Optimize>true</Optimize>
  </PropertyGroup>
</Project>
`
	want := `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
  </PropertyGroup>
  <PropertyGroup Condition="'$(Configuration)'=='Release'">
    <Optimize>true</Optimize>
  </PropertyGroup>
</Project>
`
	got := applyToFile(t, input, proj.Edit{RemoveProperties: []string{"LangVersion"}})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply(): unexpected output (-want +got):\n%s", diff)
	}
}

func TestApplyAddItems(t *testing.T) {
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
	got := applyToFile(t, input, proj.Edit{AddItems: []proj.Item{{
		Type:     "PackageReference",
		Include:  "Newtonsoft.Json",
		Metadata: map[string]string{"Version": "13.0.3"},
	}}})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply(): unexpected output (-want +got):\n%s", diff)
	}
}

func TestApplyCreatesGroups(t *testing.T) {
	input := `<Project Sdk="Microsoft.NET.Sdk">
  <Target Name="Noop" />
</Project>
`
	want := `<Project Sdk="Microsoft.NET.Sdk">
  <Target Name="Noop" />
  <PropertyGroup>
    <Nullable>enable</Nullable>
  </PropertyGroup>
  <ItemGroup>
    <Compile Include="extra.cs" />
  </ItemGroup>
</Project>
`
	got := applyToFile(t, input, proj.Edit{
		SetProperties: map[string]string{"Nullable": "enable"},
		AddItems:      []proj.Item{{Type: "Compile", Include: "extra.cs"}},
	})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply(): unexpected output (-want +got):\n%s", diff)
	}
}

// Declarations, comments, namespaces, condition quoting, and entities
// in untouched regions must survive a rewrite byte for byte.
func TestApplyPreservesTexture(t *testing.T) {
	input := `<?xml version="1.0" encoding="utf-8"?>
<Project ToolsVersion="4.0" xmlns="http://schemas.microsoft.com/developer/msbuild/2003">
  <!-- build settings -->
  <PropertyGroup Condition="'$(Configuration)'=='Debug'">
    <DefineConstants>DEBUG;TRACE</DefineConstants>
    <Extra>a &amp; b</Extra>
  </PropertyGroup>
</Project>
`
	want := `<?xml version="1.0" encoding="utf-8"?>
<Project ToolsVersion="4.0" xmlns="http://schemas.microsoft.com/developer/msbuild/2003">
  <!-- build settings -->
  <PropertyGroup Condition="'$(Configuration)'=='Debug'">
    <DefineConstants>TRACE</DefineConstants>
    <Extra>a &amp; b</Extra>
  </PropertyGroup>
</Project>
`
	got := applyToFile(t, input, proj.Edit{SetProperties: map[string]string{"DefineConstants": "TRACE"}})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply(): unexpected output (-want +got):\n%s", diff)
	}
}

func TestApplyEmptyEditIsNoOp(t *testing.T) {
	input := `<?xml version="1.0" encoding="utf-8"?>
<Project>
  <PropertyGroup>
    <A>1</A>
  </PropertyGroup>
  <ItemGroup>
    <None Include="readme.md" />
  </ItemGroup>
</Project>
`
	got := applyToFile(t, input, proj.Edit{})
	if diff := cmp.Diff(input, got); diff != "" {
		t.Errorf("Apply(): empty edit changed the file (-want +got):\n%s", diff)
	}
}

func TestApplyEscapesValues(t *testing.T) {
	input := `<Project>
  <PropertyGroup>
    <A>1</A>
  </PropertyGroup>
  <ItemGroup>
    <None Include="readme.md" />
  </ItemGroup>
</Project>
`
	got := applyToFile(t, input, proj.Edit{
		SetProperties: map[string]string{"Flags": "a<b&c"},
		AddItems: []proj.Item{{
			Type:     "Reference",
			Include:  "A&B",
			Metadata: map[string]string{"Condition": "'$(X)'=='1'"},
		}},
	})
	for _, want := range []string{
		"<Flags>a&lt;b&amp;c</Flags>",
		`<Reference Include="A&amp;B" Condition="'$(X)'=='1'" />`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Apply(): output missing %q:\n%s", want, got)
		}
	}
}

func TestApplyMissingFile(t *testing.T) {
	err := proj.Apply(filepath.Join(t.TempDir(), "missing.csproj"), proj.Edit{})
	if err == nil {
		t.Errorf("Apply(): want error for a missing file, got nil")
	}
}
