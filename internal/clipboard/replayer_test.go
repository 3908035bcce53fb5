package clipboard

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-copy.sh")
	script := "#!/bin/sh\n" + body
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReplaySuccess(t *testing.T) {
	script := writeScript(t, "cat >/dev/null\nexit 0\n")
	r := NewReplayer(script, 2*time.Second)

	if err := r.Replay("text/plain", []byte("hello")); err != nil {
		t.Fatalf("Replay: %v", err)
	}
}

func TestReplayNonzeroExit(t *testing.T) {
	script := writeScript(t, "cat >/dev/null\nexit 1\n")
	r := NewReplayer(script, 2*time.Second)

	err := r.Replay("text/plain", []byte("hello"))
	if !errors.Is(err, ErrReplayFailed) {
		t.Fatalf("Replay: got %v, want ErrReplayFailed", err)
	}
}

func TestReplayTimeout(t *testing.T) {
	script := writeScript(t, "sleep 5\n")
	r := NewReplayer(script, 50*time.Millisecond)

	err := r.Replay("text/plain", []byte("hello"))
	if !errors.Is(err, ErrReplayFailed) {
		t.Fatalf("Replay: got %v, want ErrReplayFailed", err)
	}
}

func TestReplayMissingCommand(t *testing.T) {
	r := NewReplayer(filepath.Join(t.TempDir(), "does-not-exist"), 2*time.Second)

	err := r.Replay("text/plain", []byte("hello"))
	if !errors.Is(err, ErrReplayFailed) {
		t.Fatalf("Replay: got %v, want ErrReplayFailed", err)
	}
}

func TestCheckAvailable(t *testing.T) {
	script := writeScript(t, "exit 0\n")
	r := NewReplayer(script, time.Second)
	if err := r.CheckAvailable(); err != nil {
		t.Errorf("CheckAvailable: %v", err)
	}

	missing := NewReplayer(filepath.Join(t.TempDir(), "nope"), time.Second)
	if err := missing.CheckAvailable(); err == nil {
		t.Error("CheckAvailable: expected error for missing command")
	}
}
