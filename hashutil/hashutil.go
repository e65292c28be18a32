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

// Package hashutil computes stream and file digests. It exists for
// download verification and tree comparison; md5 and sha1 are offered
// for interoperability with manifests that still use them, not for
// security.
package hashutil

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// Algorithm names a supported digest algorithm.
type Algorithm string

// Supported algorithms.
const (
	SHA256 Algorithm = "sha256"
	SHA1   Algorithm = "sha1"
	MD5    Algorithm = "md5"
)

// New returns a fresh hash for the algorithm.
func New(algorithm Algorithm) (hash.Hash, error) {
	switch algorithm {
	case SHA256:
		return sha256.New(), nil
	case SHA1:
		return sha1.New(), nil
	case MD5:
		return md5.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %q", algorithm)
	}
}

// Sum reads r to the end and returns the lowercase hex digest.
func Sum(algorithm Algorithm, r io.Reader) (string, error) {
	hasher, err := New(algorithm)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(hasher, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// SumFile returns the lowercase hex digest of the file's content.
func SumFile(algorithm Algorithm, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	digest, err := Sum(algorithm, f)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return digest, nil
}

// MismatchError reports a digest that did not match the expected value.
type MismatchError struct {
	Path      string
	Algorithm Algorithm
	Want      string
	Got       string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: %s mismatch: want %s, got %s", e.Path, e.Algorithm, e.Want, e.Got)
}

// VerifyFile hashes the file and compares against want, ignoring hex
// case. A failed comparison returns a *MismatchError.
func VerifyFile(algorithm Algorithm, path string, want string) error {
	got, err := SumFile(algorithm, path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(got, want) {
		return &MismatchError{Path: path, Algorithm: algorithm, Want: strings.ToLower(want), Got: got}
	}
	return nil
}
