// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"log/slog"
	"os"
	"sync"
)

// logger is the package-level default logger, per SPEC_FULL.md §2.11.
// Host applications can replace it wholesale via SetLogger.
var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

// SetLogger replaces the package's logger. Passing nil restores the
// stderr text-handler default.
func SetLogger(l *slog.Logger) {
	if l == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
		return
	}
	logger = l
}

// logOnce dedups a warning key so a recurring per-tick condition (a
// degenerate shape, a non-finite body) logs exactly once per process, per
// SPEC_FULL.md §7's "logged on first occurrence"/"logged once per body per
// session" contracts.
type logOnce struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newLogOnce() *logOnce {
	return &logOnce{seen: map[string]bool{}}
}

func (l *logOnce) warn(key, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen[key] {
		return
	}
	l.seen[key] = true
	logger.Warn(msg, args...)
}
