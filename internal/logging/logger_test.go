package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitLoggerCreatesLogDirAndFile(t *testing.T) {
	tmp := t.TempDir()
	logFile := filepath.Join(tmp, "nested", "wayclipd.log")

	if err := InitLogger(logFile, "debug", 10, 10, 10); err != nil {
		t.Fatalf("InitLogger: %v", err)
	}

	Info("hello %s", "world")

	if _, err := os.Stat(logFile); err != nil {
		t.Fatalf("expected log file to exist: %v", err)
	}
}

func TestInitLoggerExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}

	tmp := t.TempDir()
	oldHome := os.Getenv("HOME")
	os.Setenv("HOME", tmp)
	t.Cleanup(func() { os.Setenv("HOME", oldHome) })

	if err := InitLogger("~/wayclipd-test/wayclipd.log", "info", 1, 1, 1); err != nil {
		t.Fatalf("InitLogger: %v", err)
	}

	// The rotating file writer creates the file on its first write.
	Info("tilde expansion check")

	expanded := filepath.Join(tmp, "wayclipd-test", "wayclipd.log")
	if _, err := os.Stat(expanded); err != nil {
		t.Fatalf("expected expanded log file at %s: %v", expanded, err)
	}
	_ = home
}

func TestInitLoggerInvalidLevelDefaultsToInfo(t *testing.T) {
	tmp := t.TempDir()
	logFile := filepath.Join(tmp, "wayclipd.log")

	if err := InitLogger(logFile, "not-a-level", 1, 1, 1); err != nil {
		t.Fatalf("InitLogger: %v", err)
	}

	if globalLogger.GetLevel().String() != "info" {
		t.Errorf("level = %q, want info", globalLogger.GetLevel().String())
	}
}
