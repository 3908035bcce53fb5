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

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// client is a thin wire-protocol client for the daemon's Unix socket.
type client struct {
	socketPath string
}

func newClient(socketPath string) *client {
	return &client{socketPath: socketPath}
}

// call sends one request line and decodes the single response line into a
// map keyed by its variant name.
func (c *client) call(request interface{}) (map[string]json.RawMessage, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", c.socketPath, err)
	}
	defer conn.Close()

	b, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	b = append(b, '\n')
	if _, err := conn.Write(b); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return nil, fmt.Errorf("decode response %q: %w", line, err)
	}
	return resp, nil
}

// asError extracts an {kind, message} error payload if the response carries
// one.
func asError(resp map[string]json.RawMessage) error {
	raw, ok := resp["Error"]
	if !ok {
		return nil
	}
	var payload struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("malformed error response: %w", err)
	}
	return fmt.Errorf("%s: %s", payload.Kind, payload.Message)
}

// entryView mirrors internal/ipc.EntryView without importing the daemon's
// internal package from a separate module-internal command tree boundary;
// the two are kept in lockstep by the shared wire protocol documented in
// SPEC_FULL.md, not by a Go type import.
type entryView struct {
	ID             int64  `json:"id"`
	ContentType    string `json:"content_type"`
	MimeType       string `json:"mime_type"`
	Data           string `json:"data"`
	Preview        string `json:"preview"`
	Hash           string `json:"hash"`
	CreatedAt      int64  `json:"created_at"`
	LastAccessedAt int64  `json:"last_accessed_at"`
}

func (c *client) list(limit int, query string) ([]entryView, error) {
	resp, err := c.call(map[string]interface{}{
		"List": map[string]interface{}{"limit": limit, "query": query},
	})
	if err != nil {
		return nil, err
	}
	if err := asError(resp); err != nil {
		return nil, err
	}
	raw, ok := resp["History"]
	if !ok {
		return nil, fmt.Errorf("unexpected response, no History field")
	}
	var history struct {
		Entries []entryView `json:"entries"`
	}
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, err
	}
	return history.Entries, nil
}

func (c *client) copy(id int64) error {
	resp, err := c.call(map[string]interface{}{"Copy": map[string]interface{}{"id": id}})
	if err != nil {
		return err
	}
	return asError(resp)
}

func (c *client) delete(id int64) error {
	resp, err := c.call(map[string]interface{}{"Delete": map[string]interface{}{"id": id}})
	if err != nil {
		return err
	}
	return asError(resp)
}

func (c *client) clear() error {
	resp, err := c.call(map[string]interface{}{"Clear": nil})
	if err != nil {
		return err
	}
	return asError(resp)
}

func (c *client) ping() error {
	resp, err := c.call(map[string]interface{}{"Ping": nil})
	if err != nil {
		return err
	}
	if err := asError(resp); err != nil {
		return err
	}
	if _, ok := resp["Pong"]; !ok {
		return fmt.Errorf("unexpected response to Ping: %v", resp)
	}
	return nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	ageStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// renderTable prints a simple three-column table of entries, styled with
// lipgloss the way the TUI front-end styles its own chrome.
func renderTable(entries []entryView) string {
	var b []byte
	header := fmt.Sprintf("%-6s %-8s %s", "ID", "AGE", "PREVIEW")
	b = append(b, []byte(headerStyle.Render(header))...)
	b = append(b, '\n')

	now := time.Now().Unix()
	for _, e := range entries {
		age := formatAge(now - e.LastAccessedAt)
		row := fmt.Sprintf("%-6s %-8s %s",
			idStyle.Render(fmt.Sprintf("%d", e.ID)),
			ageStyle.Render(age),
			e.Preview,
		)
		b = append(b, []byte(row)...)
		b = append(b, '\n')
	}
	return string(b)
}

func formatAge(seconds int64) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh", seconds/3600)
	default:
		return fmt.Sprintf("%dd", seconds/86400)
	}
}
