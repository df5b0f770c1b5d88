package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestDefaultLoggerDiscards(t *testing.T) {
	// Must not panic before Init.
	Info("hello")
	if WithPrefix("batch") == nil {
		t.Error("WithPrefix should never return nil")
	}
}

func TestSetOutputFiltersByLevel(t *testing.T) {
	prev := Logger
	defer func() { Logger = prev }()

	var buf bytes.Buffer
	SetOutput(&buf, log.WarnLevel)
	Debug("quiet")
	Warn("loud", "key", 1)
	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("debug line leaked through warn level: %q", out)
	}
	if !strings.Contains(out, "loud") || !strings.Contains(out, "key=1") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestInitWritesDatedFile(t *testing.T) {
	prev := Logger
	defer func() { Logger = prev }()

	dir := t.TempDir()
	if err := Init(dir, "info"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Info("from test")
	Close()

	matches, _ := filepath.Glob(filepath.Join(dir, "datasources-*.log"))
	if len(matches) != 1 {
		t.Fatalf("log files = %v, want one", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "from test") {
		t.Errorf("log file missing message: %q", data)
	}
}

func TestInitRejectsBadLevel(t *testing.T) {
	prev := Logger
	defer func() { Logger = prev }()
	if err := Init(t.TempDir(), "loudest"); err == nil {
		t.Error("expected error for unknown level")
	}
}
