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

//go:build !windows

package vssetup

// DefaultOpener returns an opener whose Open always reports
// ErrNotInstalled. The Setup Configuration service only exists on
// Windows.
func DefaultOpener() Opener { return absentOpener{} }

type absentOpener struct{}

func (absentOpener) Open() (Provider, error) {
	return nil, ErrNotInstalled
}
