package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/wayclip/wayclipd/internal/clipboard"
	"github.com/wayclip/wayclipd/internal/logging"
	"github.com/wayclip/wayclipd/internal/store"
)

func init() {
	logging.InitLogger(filepath.Join(os.TempDir(), "wayclip-ipc-test.log"), "error", 1, 1, 1)
}

func newTestServer(t *testing.T, replayerCommand string) (*Server, *store.Store) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "history.db")
	st, err := store.New(dbPath, store.Config{
		MaxEntries:        1000,
		MaxEntrySizeBytes: 1024 * 1024,
		MinEntrySizeBytes: 1,
		MaxAgeDays:        30,
	})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	replayer := clipboard.NewReplayer(replayerCommand, time.Second)

	sockPath := filepath.Join(t.TempDir(), "wayclip.sock")
	srv, err := NewServer(sockPath, st, replayer, 1024*1024)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	go srv.Serve()
	t.Cleanup(func() { srv.Shutdown() })

	return srv, st
}

func dial(t *testing.T, srv *Server) net.Conn {
	t.Helper()
	conn, err := net.Dial("unix", srv.socketPath)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	return conn
}

func exchange(t *testing.T, conn net.Conn, request string) map[string]json.RawMessage {
	t.Helper()
	if _, err := conn.Write([]byte(request + "\n")); err != nil {
		t.Fatalf("write request: %v", err)
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	var resp map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		t.Fatalf("unmarshal response %q: %v", line, err)
	}
	return resp
}

func writeFakeCopy(t *testing.T, exitCode int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-wl-copy.sh")
	script := "#!/bin/sh\ncat >/dev/null\nexit " + strconv.Itoa(exitCode) + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPingPong(t *testing.T) {
	srv, _ := newTestServer(t, writeFakeCopy(t, 0))
	conn := dial(t, srv)
	defer conn.Close()

	resp := exchange(t, conn, `{"Ping":null}`)
	if _, ok := resp["Pong"]; !ok {
		t.Fatalf("expected Pong response, got %v", resp)
	}
}

func TestListRoundTrip(t *testing.T) {
	srv, st := newTestServer(t, writeFakeCopy(t, 0))

	id, _, err := st.Put(store.ClipboardSnapshot{MimeType: "text/plain", ContentType: store.ContentTypeText, Data: []byte("hello")})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	conn := dial(t, srv)
	defer conn.Close()

	resp := exchange(t, conn, `{"List":{}}`)
	historyRaw, ok := resp["History"]
	if !ok {
		t.Fatalf("expected History response, got %v", resp)
	}

	var history struct {
		Entries []EntryView `json:"entries"`
	}
	if err := json.Unmarshal(historyRaw, &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(history.Entries) != 1 || history.Entries[0].ID != id {
		t.Fatalf("unexpected history entries: %+v", history.Entries)
	}
}

// S4 — IPC round-trip: Copy succeeds and bumps last_accessed_at.
func TestCopySuccessUpdatesTimestamp(t *testing.T) {
	srv, st := newTestServer(t, writeFakeCopy(t, 0))

	id, _, err := st.Put(store.ClipboardSnapshot{MimeType: "text/plain", ContentType: store.ContentTypeText, Data: []byte("copy me")})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	before, err := st.Get(id)
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(1100 * time.Millisecond)

	conn := dial(t, srv)
	defer conn.Close()

	resp := exchange(t, conn, `{"Copy":{"id":`+jsonInt(id)+`}}`)
	if _, ok := resp["Ok"]; !ok {
		t.Fatalf("expected Ok response, got %v", resp)
	}

	after, err := st.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if !after.LastAccessedAt.After(before.LastAccessedAt) {
		t.Errorf("last_accessed_at did not advance after Copy: before=%v after=%v", before.LastAccessedAt, after.LastAccessedAt)
	}
}

// S5 — Replay failure: Copy returns ReplayFailed and does not bump the
// timestamp.
func TestCopyReplayFailureLeavesTimestampUnchanged(t *testing.T) {
	srv, st := newTestServer(t, writeFakeCopy(t, 1))

	id, _, err := st.Put(store.ClipboardSnapshot{MimeType: "text/plain", ContentType: store.ContentTypeText, Data: []byte("fails")})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	before, err := st.Get(id)
	if err != nil {
		t.Fatal(err)
	}

	conn := dial(t, srv)
	defer conn.Close()

	resp := exchange(t, conn, `{"Copy":{"id":`+jsonInt(id)+`}}`)
	errRaw, ok := resp["Error"]
	if !ok {
		t.Fatalf("expected Error response, got %v", resp)
	}
	var errPayload ErrorPayload
	if err := json.Unmarshal(errRaw, &errPayload); err != nil {
		t.Fatal(err)
	}
	if errPayload.Kind != KindReplayFailed {
		t.Errorf("Kind = %q, want %q", errPayload.Kind, KindReplayFailed)
	}

	after, err := st.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if !after.LastAccessedAt.Equal(before.LastAccessedAt) {
		t.Errorf("last_accessed_at changed after failed replay: before=%v after=%v", before.LastAccessedAt, after.LastAccessedAt)
	}
}

func TestGetUnknownIDReturnsNotFound(t *testing.T) {
	srv, _ := newTestServer(t, writeFakeCopy(t, 0))
	conn := dial(t, srv)
	defer conn.Close()

	resp := exchange(t, conn, `{"Get":{"id":999999}}`)
	errRaw, ok := resp["Error"]
	if !ok {
		t.Fatalf("expected Error response, got %v", resp)
	}
	var errPayload ErrorPayload
	if err := json.Unmarshal(errRaw, &errPayload); err != nil {
		t.Fatal(err)
	}
	if errPayload.Kind != KindNotFound {
		t.Errorf("Kind = %q, want %q", errPayload.Kind, KindNotFound)
	}
}

func TestMalformedJSONReturnsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t, writeFakeCopy(t, 0))
	conn := dial(t, srv)
	defer conn.Close()

	resp := exchange(t, conn, `not json`)
	errRaw, ok := resp["Error"]
	if !ok {
		t.Fatalf("expected Error response, got %v", resp)
	}
	var errPayload ErrorPayload
	if err := json.Unmarshal(errRaw, &errPayload); err != nil {
		t.Fatal(err)
	}
	if errPayload.Kind != KindBadRequest {
		t.Errorf("Kind = %q, want %q", errPayload.Kind, KindBadRequest)
	}
}

func TestDeleteThenGetNotFound(t *testing.T) {
	srv, st := newTestServer(t, writeFakeCopy(t, 0))

	id, _, err := st.Put(store.ClipboardSnapshot{MimeType: "text/plain", ContentType: store.ContentTypeText, Data: []byte("gone")})
	if err != nil {
		t.Fatal(err)
	}

	conn := dial(t, srv)
	defer conn.Close()

	resp := exchange(t, conn, `{"Delete":{"id":`+jsonInt(id)+`}}`)
	if _, ok := resp["Ok"]; !ok {
		t.Fatalf("expected Ok response, got %v", resp)
	}

	if _, err := st.Get(id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get after Delete: got %v, want ErrNotFound", err)
	}
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
