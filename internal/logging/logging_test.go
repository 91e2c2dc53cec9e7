package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/gommon/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    log.Lvl
		wantErr bool
	}{
		{"debug", log.DEBUG, false},
		{"INFO", log.INFO, false},
		{" warn ", log.WARN, false},
		{"error", log.ERROR, false},
		{"off", log.OFF, false},
		{"trace", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db2mcp.log")

	logger, closer, err := New("info", path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debugf("hidden %d", 1)
	logger.Infof("connected to %s", "SAMPLE")
	Std(logger, "sse: ").Printf("listening")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	out := string(raw)
	for _, want := range []string{"connected to SAMPLE", Prefix, "INFO", "sse: ", "listening"} {
		if !strings.Contains(out, want) {
			t.Errorf("Log output does not contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("Debug message written at info level:\n%s", out)
	}
}

func TestNewErrors(t *testing.T) {
	if _, _, err := New("loud", ""); err == nil {
		t.Errorf("Expected an error for an unknown level")
	}
	if _, _, err := New("info", filepath.Join(t.TempDir(), "missing", "db2mcp.log")); err == nil {
		t.Errorf("Expected an error for an unwritable log file")
	}
}
