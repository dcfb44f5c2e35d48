package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitAndLevelString(t *testing.T) {
	defer Init("info")

	Init("debug")
	if got := LevelString(); got != "debug" {
		t.Fatalf("LevelString() = %q, want %q", got, "debug")
	}
	Init("WARNING")
	if got := LevelString(); got != "warn" {
		t.Fatalf("LevelString() = %q, want %q", got, "warn")
	}
	Init(" Error ")
	if got := LevelString(); got != "error" {
		t.Fatalf("LevelString() = %q, want %q", got, "error")
	}
	Init("nonsense")
	if got := LevelString(); got != "info" {
		t.Fatalf("LevelString() = %q, want %q for unknown input", got, "info")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer Restore(prev)
	defer Init("info")

	Init("warn")
	Debugf("debug-msg")
	Infof("info-msg")
	Warnf("warn-msg")
	Errorf("error-msg")

	out := buf.String()
	if strings.Contains(out, "debug-msg") || strings.Contains(out, "info-msg") {
		t.Fatalf("debug/info messages should be suppressed at warn level: %q", out)
	}
	if !strings.Contains(out, "[WARN] warn-msg") {
		t.Fatalf("warn message missing: %q", out)
	}
	if !strings.Contains(out, "[ERROR] error-msg") {
		t.Fatalf("error message missing: %q", out)
	}
}

func TestNamedComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer Restore(prev)
	Init("debug")
	defer Init("info")

	log := Named("schema")
	log.Debugf("ensured %d indexes", 3)

	out := buf.String()
	if !strings.Contains(out, "[DEBUG] component=schema ensured 3 indexes") {
		t.Fatalf("unexpected component output: %q", out)
	}
}

func TestFatalfExits(t *testing.T) {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer Restore(prev)

	code := -1
	origExit := exit
	exit = func(c int) { code = c }
	defer func() { exit = origExit }()

	Fatalf("boom: %s", "mongo down")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(buf.String(), "[FATAL] boom: mongo down") {
		t.Fatalf("fatal message missing: %q", buf.String())
	}
}
