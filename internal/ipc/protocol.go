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

// Package ipc implements the daemon's newline-delimited JSON wire protocol
// over a Unix domain socket.
package ipc

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/wayclip/wayclipd/internal/store"
)

// Error kinds, per the wire protocol's Error{kind, message} response.
const (
	KindNotFound     = "NotFound"
	KindBadRequest   = "BadRequest"
	KindInternal     = "Internal"
	KindReplayFailed = "ReplayFailed"
)

// ListParams is the payload of a List request.
type ListParams struct {
	Limit int    `json:"limit,omitempty"`
	Query string `json:"query,omitempty"`
}

// IDParams is the payload shared by Get, Copy, and Delete requests.
type IDParams struct {
	ID int64 `json:"id"`
}

// ErrorPayload is the payload of an Error response.
type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// EntryView is the on-wire projection of a store.HistoryEntry: data is
// base64, timestamps are seconds since the Unix epoch.
type EntryView struct {
	ID             int64  `json:"id"`
	ContentType    string `json:"content_type"`
	MimeType       string `json:"mime_type"`
	Data           string `json:"data"`
	Preview        string `json:"preview"`
	Hash           string `json:"hash"`
	CreatedAt      int64  `json:"created_at"`
	LastAccessedAt int64  `json:"last_accessed_at"`
}

func newEntryView(e store.HistoryEntry) EntryView {
	return EntryView{
		ID:             e.ID,
		ContentType:    string(e.ContentType),
		MimeType:       e.MimeType,
		Data:           base64.StdEncoding.EncodeToString(e.Data),
		Preview:        e.Preview,
		Hash:           e.Hash,
		CreatedAt:      e.CreatedAt.Unix(),
		LastAccessedAt: e.LastAccessedAt.Unix(),
	}
}

// request is the raw, single-key decoded form of a request line, kept as
// json.RawMessage so a key's presence (even mapped to a JSON null payload
// like "Ping":null) can be distinguished from its absence.
type request map[string]json.RawMessage

// variant returns the single key of the request and its raw payload, or an
// error if the request does not carry exactly one key.
func (r request) variant() (string, json.RawMessage, error) {
	if len(r) != 1 {
		return "", nil, fmt.Errorf("request must have exactly one variant, got %d", len(r))
	}
	for k, v := range r {
		return k, v, nil
	}
	panic("unreachable")
}

func historyResponse(entries []EntryView) map[string]interface{} {
	return map[string]interface{}{"History": map[string]interface{}{"entries": entries}}
}

func entryResponse(entry EntryView) map[string]interface{} {
	return map[string]interface{}{"Entry": map[string]interface{}{"entry": entry}}
}

func okResponse() map[string]interface{} {
	return map[string]interface{}{"Ok": nil}
}

func pongResponse() map[string]interface{} {
	return map[string]interface{}{"Pong": nil}
}

func errorResponse(kind, message string) map[string]interface{} {
	return map[string]interface{}{"Error": ErrorPayload{Kind: kind, Message: message}}
}
