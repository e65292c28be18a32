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

//go:build !windows

package batchenv

import (
	"context"
	"errors"
)

// Capture is only available on Windows where cmd.exe exists.
func Capture(_ context.Context, _ string, _ ...string) (map[string]string, error) {
	return nil, errors.New("batch environment capture is only supported on Windows")
}
