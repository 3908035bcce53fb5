package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func withEnv(t *testing.T, key, value string) {
	old, had := os.LookupEnv(key)
	if value == "" {
		os.Unsetenv(key)
	} else {
		os.Setenv(key, value)
	}
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestResolveUsesXDGWhenSet(t *testing.T) {
	tmp := t.TempDir()
	withEnv(t, "XDG_RUNTIME_DIR", filepath.Join(tmp, "run"))
	withEnv(t, "XDG_DATA_HOME", filepath.Join(tmp, "data"))
	withEnv(t, "XDG_CONFIG_HOME", filepath.Join(tmp, "config"))

	p, err := Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if !strings.HasPrefix(p.Socket, filepath.Join(tmp, "run")) {
		t.Errorf("Socket = %q, want prefix %q", p.Socket, filepath.Join(tmp, "run"))
	}
	if !strings.HasSuffix(p.Socket, "wayclip/wayclip.sock") {
		t.Errorf("Socket = %q, want suffix wayclip/wayclip.sock", p.Socket)
	}
	if !strings.HasSuffix(p.Data, "wayclip/history.db") {
		t.Errorf("Data = %q, want suffix wayclip/history.db", p.Data)
	}
	if !strings.HasSuffix(p.Config, "wayclip/config.toml") {
		t.Errorf("Config = %q, want suffix wayclip/config.toml", p.Config)
	}
}

func TestResolveFallsBackWithoutXDG(t *testing.T) {
	withEnv(t, "XDG_RUNTIME_DIR", "")
	withEnv(t, "XDG_DATA_HOME", "")
	withEnv(t, "XDG_CONFIG_HOME", "")

	p, err := Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if !strings.HasPrefix(p.Socket, "/tmp/wayclip-") {
		t.Errorf("Socket = %q, want /tmp/wayclip-<uid> fallback", p.Socket)
	}
	if !strings.Contains(p.Data, ".local/share/wayclip") {
		t.Errorf("Data = %q, want .local/share fallback", p.Data)
	}
	if !strings.Contains(p.Config, ".config/wayclip") {
		t.Errorf("Config = %q, want .config fallback", p.Config)
	}
}

func TestEnsureSocketDirRemovesStaleSocket(t *testing.T) {
	tmp := t.TempDir()
	p := &Paths{Socket: filepath.Join(tmp, "run", "wayclip.sock")}

	if err := os.MkdirAll(filepath.Dir(p.Socket), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p.Socket, []byte("stale"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := p.EnsureSocketDir(); err != nil {
		t.Fatalf("EnsureSocketDir: %v", err)
	}
	if _, err := os.Stat(p.Socket); !os.IsNotExist(err) {
		t.Errorf("expected stale socket to be removed, stat err = %v", err)
	}

	info, err := os.Stat(filepath.Dir(p.Socket))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o700 {
		t.Errorf("socket dir mode = %v, want 0700", info.Mode().Perm())
	}
}
