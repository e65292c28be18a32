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

// Package log defines winrig's logger interface. The default implementation
// writes to stderr through the Go logger; embedders can install their own.
package log

import (
	"log"
	"sync/atomic"
)

// Logger is winrig's logging interface.
type Logger interface {
	Errorf(format string, args ...any)
	Warnf(format string, args ...any)
	Infof(format string, args ...any)
	Debugf(format string, args ...any)
}

var logger atomic.Pointer[Logger]

func init() {
	var l Logger = &StderrLogger{}
	logger.Store(&l)
}

// SetLogger replaces the logger used by the package-level functions.
func SetLogger(l Logger) { logger.Store(&l) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { (*logger.Load()).Errorf(format, args...) }

// Warnf logs a formatted message at warning level.
func Warnf(format string, args ...any) { (*logger.Load()).Warnf(format, args...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { (*logger.Load()).Infof(format, args...) }

// Debugf logs a formatted message at debug level. Debug messages are dropped
// unless the installed logger is configured to show them.
func Debugf(format string, args ...any) { (*logger.Load()).Debugf(format, args...) }

// StderrLogger is the Logger used by default. It writes to stderr using the
// standard library logger and suppresses debug output unless Verbose is set.
type StderrLogger struct {
	Verbose bool
}

// Errorf logs a formatted error message.
func (StderrLogger) Errorf(format string, args ...any) {
	log.Printf("ERROR: "+format, args...)
}

// Warnf logs a formatted warning message.
func (StderrLogger) Warnf(format string, args ...any) {
	log.Printf("WARN: "+format, args...)
}

// Infof logs a formatted info message.
func (StderrLogger) Infof(format string, args ...any) {
	log.Printf(format, args...)
}

// Debugf logs a formatted debug message when Verbose is set.
func (l *StderrLogger) Debugf(format string, args ...any) {
	if l.Verbose {
		log.Printf("DEBUG: "+format, args...)
	}
}
