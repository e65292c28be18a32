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

package hashutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSum(t *testing.T) {
	tests := []struct {
		algorithm Algorithm
		input     string
		want      string
	}{
		{SHA256, "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{SHA256, "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{SHA1, "abc", "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{MD5, "abc", "900150983cd24fb0d6963f7d28e17f72"},
	}

	for _, tt := range tests {
		t.Run(string(tt.algorithm)+"/"+tt.input, func(t *testing.T) {
			got, err := Sum(tt.algorithm, strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Sum returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Sum(%s, %q) = %q, want %q", tt.algorithm, tt.input, got, tt.want)
			}
		})
	}
}

func TestSumUnsupportedAlgorithm(t *testing.T) {
	if _, err := Sum(Algorithm("crc32"), strings.NewReader("x")); err == nil {
		t.Error("Sum with unsupported algorithm returned nil error")
	}
}

func TestSumFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := SumFile(SHA256, path)
	if err != nil {
		t.Fatalf("SumFile returned error: %v", err)
	}
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("SumFile = %q, want %q", got, want)
	}
}

func TestVerifyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("match ignores hex case", func(t *testing.T) {
		want := "BA7816BF8F01CFEA414140DE5DAE2223B00361A396177A9CB410FF61F20015AD"
		if err := VerifyFile(SHA256, path, want); err != nil {
			t.Errorf("VerifyFile returned error: %v", err)
		}
	})

	t.Run("mismatch", func(t *testing.T) {
		err := VerifyFile(SHA256, path, strings.Repeat("0", 64))
		var mismatch *MismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("VerifyFile returned %v, want *MismatchError", err)
		}
		if mismatch.Algorithm != SHA256 || mismatch.Path != path {
			t.Errorf("MismatchError = %+v, want algorithm %s for %s", mismatch, SHA256, path)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if err := VerifyFile(SHA256, filepath.Join(t.TempDir(), "absent"), "00"); err == nil {
			t.Error("VerifyFile on missing file returned nil error")
		}
	})
}
