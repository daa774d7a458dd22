// log/log_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		s     string
		level slog.Level
		err   bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	} {
		lvl, err := ParseLevel(tc.s)
		if (err != nil) != tc.err {
			t.Errorf("%s: error %v, expected error %v", tc.s, err, tc.err)
		}
		if lvl != tc.level {
			t.Errorf("%s: got level %v, expected %v", tc.s, lvl, tc.level)
		}
	}
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	// None of these should crash.
	l.Debug("debug")
	l.Debugf("debug %d", 1)
	l.Info("info")
	l.Infof("info %d", 1)
	if l.With("a", 1) != nil {
		t.Errorf("With on nil logger returned non-nil")
	}
}

func TestCallstack(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	l.Infof("hello %s", "world")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unable to decode log record %q: %v", buf.String(), err)
	}
	if rec["msg"] != "hello world" {
		t.Errorf("got message %v", rec["msg"])
	}
	stack, ok := rec["callstack"].([]any)
	if !ok || len(stack) == 0 {
		t.Fatalf("missing callstack in %q", buf.String())
	}
	if fr, ok := stack[0].(map[string]any); !ok || !strings.HasSuffix(fr["file"].(string), "log_test.go") {
		t.Errorf("unexpected first stack frame %v", stack[0])
	}
}
