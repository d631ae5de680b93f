package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	valid := []string{"", "debug", "INFO", "warn", "Warning", "error", "critical"}
	for _, lvl := range valid {
		if _, err := ParseLevel(lvl); err != nil {
			t.Errorf("ParseLevel(%q): unexpected error %v", lvl, err)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("ParseLevel(verbose): expected error")
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLoggerTo(&buf, "warn")
	if err != nil {
		t.Fatalf("NewLoggerTo: %v", err)
	}

	log.Info("hidden %d", 1)
	log.Warn("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown 2") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestLoggerDisabledWhenLevelEmpty(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLoggerTo(&buf, "")
	if err != nil {
		t.Fatalf("NewLoggerTo: %v", err)
	}
	log.Error("nothing")
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
	if log.DebugEnabled() {
		t.Error("DebugEnabled should be false")
	}
}

func TestLoggerNoColorWhenRedirectedToFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "run.log"))
	if err != nil {
		t.Fatalf("create log file: %v", err)
	}
	defer f.Close()

	log, err := NewLoggerTo(f, "info")
	if err != nil {
		t.Fatalf("NewLoggerTo: %v", err)
	}
	log.Warn("redirected %d", 1)

	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "redirected 1") {
		t.Errorf("expected the message in %q", data)
	}
	if strings.Contains(string(data), "\x1b[") {
		t.Errorf("expected no ANSI escapes in %q", data)
	}
}
