package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected LogLevel
	}{
		{name: "debug", input: "debug", expected: LevelDebug},
		{name: "info", input: "info", expected: LevelInfo},
		{name: "warn", input: "warn", expected: LevelWarn},
		{name: "warning alias", input: "warning", expected: LevelWarn},
		{name: "error", input: "error", expected: LevelError},
		{name: "case insensitive", input: "DEBUG", expected: LevelDebug},
		{name: "surrounding spaces", input: "  error ", expected: LevelError},
		{name: "unknown defaults to info", input: "verbose", expected: LevelInfo},
		{name: "empty defaults to info", input: "", expected: LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLogLevelConstants(t *testing.T) {
	if LevelDebug >= LevelInfo {
		t.Error("LevelDebug should be less than LevelInfo")
	}
	if LevelInfo >= LevelWarn {
		t.Error("LevelInfo should be less than LevelWarn")
	}
	if LevelWarn >= LevelError {
		t.Error("LevelWarn should be less than LevelError")
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(42), "unknown(42)"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, got, tt.expected)
		}
	}
}

// captureLog redirects the standard logger for the duration of fn.
func captureLog(t *testing.T, fn func()) string {
	t.Helper()

	var buf bytes.Buffer
	origOut := log.Writer()
	origFlags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(origOut)
		log.SetFlags(origFlags)
	}()

	fn()
	return buf.String()
}

func TestLoggerPrefixAndLevel(t *testing.T) {
	orig := GetLevel()
	defer SetLevel(orig)

	SetLevel(LevelInfo)
	l := New("scan")

	out := captureLog(t, func() {
		l.Debug("hidden %d", 1)
		l.Info("visible %d", 2)
		l.Warn("careful")
	})

	if strings.Contains(out, "hidden") {
		t.Errorf("debug message should be filtered at info level, got %q", out)
	}
	if !strings.Contains(out, "[INFO] [scan] visible 2") {
		t.Errorf("expected prefixed info line, got %q", out)
	}
	if !strings.Contains(out, "[WARN] [scan] careful") {
		t.Errorf("expected prefixed warn line, got %q", out)
	}
}

func TestZeroLoggerHasNoPrefix(t *testing.T) {
	orig := GetLevel()
	defer SetLevel(orig)
	SetLevel(LevelDebug)

	var l Logger
	out := captureLog(t, func() { l.Error("boom") })

	if strings.TrimSpace(out) != "[ERROR] boom" {
		t.Errorf("unexpected output %q", out)
	}
	if !IsDebugEnabled() {
		t.Error("IsDebugEnabled should be true after SetLevel(LevelDebug)")
	}
}
