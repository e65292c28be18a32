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

//go:build windows

package batchenv

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// Capture runs a batch script through cmd.exe and returns the full
// environment it leaves behind. The script's own output is discarded;
// when it exits non-zero no environment is returned.
func Capture(ctx context.Context, script string, args ...string) (map[string]string, error) {
	comspec := os.Getenv("ComSpec")
	if comspec == "" {
		comspec = "cmd.exe"
	}
	line := fmt.Sprintf(`call "%s"`, script)
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}

	// cmd.exe has its own quoting rules, so the command line is passed
	// verbatim instead of letting os/exec requote it.
	cmd := exec.CommandContext(ctx, comspec)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CmdLine: fmt.Sprintf(`"%s" /d /s /c "%s >NUL 2>&1 && echo %s && set"`, comspec, line, envMarker),
	}
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(errOut.String()); msg != "" {
			return nil, fmt.Errorf("running %s: %w: %s", script, err, msg)
		}
		return nil, fmt.Errorf("running %s: %w", script, err)
	}

	decoded, err := DecodeConsole(out.Bytes(), oemCodePage())
	if err != nil {
		return nil, fmt.Errorf("decoding capture output: %w", err)
	}
	env, err := ParseCapture(decoded)
	if err != nil {
		return nil, fmt.Errorf("capturing environment from %s: %w", script, err)
	}
	return env, nil
}

var (
	kernel32     = syscall.NewLazyDLL("Kernel32.dll")
	procGetOEMCP = kernel32.NewProc("GetOEMCP")
)

// oemCodePage returns the code page cmd.exe uses for piped output.
//
// UINT GetOEMCP();
// https://learn.microsoft.com/en-us/windows/win32/api/winnls/nf-winnls-getoemcp
func oemCodePage() uint32 {
	cp, _, _ := procGetOEMCP.Call()
	return uint32(cp)
}
