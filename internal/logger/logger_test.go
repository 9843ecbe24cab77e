package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit(t *testing.T) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, "config")

	err := Init(Config{
		Debug:     false,
		ConfigDir: configDir,
	})
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	logDir := filepath.Join(configDir, "logs")
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Errorf("Log directory was not created: %s", logDir)
	}

	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}

	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message", "key", "value")
	Error("Test error message")

	Close()
	data, err := os.ReadFile(Path(configDir))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "Test warning message") {
		t.Errorf("warning not written to log file: %q", data)
	}
	if strings.Contains(string(data), "Test debug message") {
		t.Error("debug message written outside debug mode")
	}
}

func TestInitDebugMode(t *testing.T) {
	configDir := t.TempDir()
	var stderr bytes.Buffer

	if err := Init(Config{Debug: true, ConfigDir: configDir, Stderr: &stderr}); err != nil {
		t.Fatalf("Failed to initialize logger in debug mode: %v", err)
	}
	t.Cleanup(func() { Close() })

	Debug("Test debug message in debug mode")

	if !strings.Contains(stderr.String(), "Test debug message in debug mode") {
		t.Errorf("debug message missing from stderr: %q", stderr.String())
	}
	if err := Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	data, err := os.ReadFile(Path(configDir))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "Test debug message in debug mode") {
		t.Errorf("debug message missing from log file: %q", data)
	}
}

func TestReinitSwitchesFile(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()

	if err := Init(Config{ConfigDir: first}); err != nil {
		t.Fatal(err)
	}
	Warn("to first")
	if err := Init(Config{ConfigDir: second}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { Close() })
	Warn("to second")
	Close()

	data, err := os.ReadFile(Path(second))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "to first") || !strings.Contains(string(data), "to second") {
		t.Errorf("second log file = %q", data)
	}
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	// must not panic
	Debug("Test debug message")
	Info("Test info message")
	Warn("Test warning message")
	Error("Test error message")

	if Named("badger") == nil {
		t.Error("Named returned nil before Init")
	}
	Named("badger").Warn("discarded")
}

func TestNamed(t *testing.T) {
	if err := Init(Config{ConfigDir: t.TempDir()}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { Close() })
	if got := Named("badger").GetPrefix(); got != "habitt/badger" {
		t.Errorf("prefix = %q, want habitt/badger", got)
	}
}

func TestInitWithInvalidDirectory(t *testing.T) {
	err := Init(Config{
		Debug:     false,
		ConfigDir: "/nonexistent/path/that/should/not/exist",
	})
	if err == nil {
		t.Skip("Unable to test invalid directory - path was created or already exists")
	}
}
