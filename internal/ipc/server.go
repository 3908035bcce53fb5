/*
MIT License

Copyright (c) 2025 Yuval Adar <adary@adary.org>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/wayclip/wayclipd/internal/clipboard"
	"github.com/wayclip/wayclipd/internal/logging"
	"github.com/wayclip/wayclipd/internal/store"
)

const readTimeout = 5 * time.Second

// Server accepts local connections, decodes one line-framed JSON request per
// connection, consults Store and Replayer, and writes one line-framed JSON
// response. Store already serializes its own mutations, so Server itself
// holds no lock around request handling.
type Server struct {
	listener     net.Listener
	socketPath   string
	store        *store.Store
	replayer     *clipboard.Replayer
	maxLineBytes int

	wg sync.WaitGroup
}

// NewServer binds the Unix socket at socketPath with mode 0600. maxEntrySize
// bounds the request line length per spec (max_entry_size + 1 MiB, to leave
// head-room for base64 overhead).
func NewServer(socketPath string, st *store.Store, replayer *clipboard.Replayer, maxEntrySize uint64) (*Server, error) {
	l, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("ipc: listen on %s: %w", socketPath, err)
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		l.Close()
		return nil, fmt.Errorf("ipc: chmod %s: %w", socketPath, err)
	}

	return &Server{
		listener:     l,
		socketPath:   socketPath,
		store:        st,
		replayer:     replayer,
		maxLineBytes: int(maxEntrySize) + 1<<20,
	}, nil
}

// Serve accepts connections until the listener is closed (by Shutdown),
// handling each one on its own goroutine.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			return fmt.Errorf("ipc: accept: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Shutdown stops accepting new connections and unlinks the socket file.
// In-flight connections are allowed to finish their single exchange.
func (s *Server) Shutdown() error {
	err := s.listener.Close()
	s.wg.Wait()
	if rmErr := os.Remove(s.socketPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		if err == nil {
			err = rmErr
		}
	}
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), s.maxLineBytes)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			writeResponse(conn, errorResponse(KindBadRequest, "line too long or read error"))
		}
		return
	}

	resp := s.handleLine(scanner.Bytes())
	writeResponse(conn, resp)
}

func (s *Server) handleLine(line []byte) map[string]interface{} {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		return errorResponse(KindBadRequest, "malformed json: "+err.Error())
	}

	variant, payload, err := req.variant()
	if err != nil {
		return errorResponse(KindBadRequest, err.Error())
	}

	switch variant {
	case "List":
		return s.handleList(payload)
	case "Get":
		return s.handleGet(payload)
	case "Copy":
		return s.handleCopy(payload)
	case "Delete":
		return s.handleDelete(payload)
	case "Clear":
		return s.handleClear()
	case "Ping":
		return pongResponse()
	default:
		return errorResponse(KindBadRequest, "unknown request variant: "+variant)
	}
}

func (s *Server) handleList(payload json.RawMessage) map[string]interface{} {
	var params ListParams
	if len(payload) > 0 && string(payload) != "null" {
		if err := json.Unmarshal(payload, &params); err != nil {
			return errorResponse(KindBadRequest, "malformed List params: "+err.Error())
		}
	}

	entries, err := s.store.List(params.Limit, params.Query)
	if err != nil {
		logging.Error("ipc: list: %v", err)
		return errorResponse(KindInternal, "list failed")
	}

	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, newEntryView(e))
	}
	return historyResponse(views)
}

func decodeID(payload json.RawMessage) (int64, error) {
	var params IDParams
	if err := json.Unmarshal(payload, &params); err != nil {
		return 0, err
	}
	return params.ID, nil
}

func (s *Server) handleGet(payload json.RawMessage) map[string]interface{} {
	id, err := decodeID(payload)
	if err != nil {
		return errorResponse(KindBadRequest, "malformed Get params: "+err.Error())
	}

	entry, err := s.store.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		return errorResponse(KindNotFound, fmt.Sprintf("no entry with id %d", id))
	}
	if err != nil {
		logging.Error("ipc: get: %v", err)
		return errorResponse(KindInternal, "get failed")
	}
	return entryResponse(newEntryView(entry))
}

func (s *Server) handleCopy(payload json.RawMessage) map[string]interface{} {
	id, err := decodeID(payload)
	if err != nil {
		return errorResponse(KindBadRequest, "malformed Copy params: "+err.Error())
	}

	entry, err := s.store.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		return errorResponse(KindNotFound, fmt.Sprintf("no entry with id %d", id))
	}
	if err != nil {
		logging.Error("ipc: copy get: %v", err)
		return errorResponse(KindInternal, "get failed")
	}

	if err := s.replayer.Replay(entry.MimeType, entry.Data); err != nil {
		logging.Warn("ipc: replay failed for id %d: %v", id, err)
		return errorResponse(KindReplayFailed, err.Error())
	}

	if err := s.store.Touch(id); err != nil && !errors.Is(err, store.ErrNotFound) {
		logging.Error("ipc: touch after copy: %v", err)
	}
	return okResponse()
}

func (s *Server) handleDelete(payload json.RawMessage) map[string]interface{} {
	id, err := decodeID(payload)
	if err != nil {
		return errorResponse(KindBadRequest, "malformed Delete params: "+err.Error())
	}

	if err := s.store.Delete(id); errors.Is(err, store.ErrNotFound) {
		return errorResponse(KindNotFound, fmt.Sprintf("no entry with id %d", id))
	} else if err != nil {
		logging.Error("ipc: delete: %v", err)
		return errorResponse(KindInternal, "delete failed")
	}
	return okResponse()
}

func (s *Server) handleClear() map[string]interface{} {
	if err := s.store.Clear(); err != nil {
		logging.Error("ipc: clear: %v", err)
		return errorResponse(KindInternal, "clear failed")
	}
	return okResponse()
}

func writeResponse(conn net.Conn, resp map[string]interface{}) {
	b, err := json.Marshal(resp)
	if err != nil {
		b, _ = json.Marshal(errorResponse(KindInternal, "failed to encode response"))
	}
	b = append(b, '\n')
	conn.Write(b)
}
