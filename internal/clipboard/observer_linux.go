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

//go:build linux

package clipboard

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/wayclip/wayclipd/internal/store"
)

// Observer drives the wlr-data-control protocol state machine on one
// dedicated OS thread and hands completed snapshots to onSnapshot.
type Observer struct {
	maxEntrySize uint64
	onSnapshot   func(store.ClipboardSnapshot)
	onDebug      func(format string, args ...interface{})
}

// NewObserver builds an Observer bounded by maxEntrySize bytes per offer.
// onSnapshot is invoked from the observer's own thread for every accepted
// offer; onDebug logs non-fatal per-offer events.
func NewObserver(maxEntrySize uint64, onSnapshot func(store.ClipboardSnapshot), onDebug func(string, ...interface{})) *Observer {
	if onDebug == nil {
		onDebug = func(string, ...interface{}) {}
	}
	return &Observer{maxEntrySize: maxEntrySize, onSnapshot: onSnapshot, onDebug: onDebug}
}

// ErrNoDataControl is returned by Run when the compositor does not expose
// zwlr_data_control_manager_v1 — a startup failure distinct from a runtime
// connection loss.
var ErrNoDataControl = fmt.Errorf("wayland: zwlr_data_control_manager_v1 not found (compositor may not support wlr-data-control)")

// Run connects to the compositor and blocks, serving selection events until
// the connection is lost or err is non-nil. Callers must pin the calling
// goroutine to its OS thread (runtime.LockOSThread) before calling Run, since
// it owns the Wayland connection and all offer objects exclusively.
func (o *Observer) Run() error {
	sockPath, err := waylandSocketPath()
	if err != nil {
		return err
	}

	c, err := newConn(sockPath)
	if err != nil {
		return fmt.Errorf("wayland: connect %s: %w", sockPath, err)
	}
	defer c.close()

	seatName, dcManagerName, err := o.negotiateGlobals(c)
	if err != nil {
		return err
	}

	if err := o.bindAndSubscribe(c, seatName, dcManagerName); err != nil {
		return err
	}

	return o.eventLoop(c)
}

func waylandSocketPath() (string, error) {
	runtime := os.Getenv("XDG_RUNTIME_DIR")
	if runtime == "" {
		return "", fmt.Errorf("wayland: XDG_RUNTIME_DIR not set")
	}
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		display = "wayland-0"
	}
	return filepath.Join(runtime, display), nil
}

// negotiateGlobals requests the registry, syncs, and collects the wl_seat and
// zwlr_data_control_manager_v1 global names.
func (o *Observer) negotiateGlobals(c *waylandConn) (seatName, dcManagerName uint32, err error) {
	if err = c.sendMsg(idDisplay, 1 /*get_registry*/, encodeUint32(idRegistry)); err != nil {
		return 0, 0, err
	}
	if err = c.sendMsg(idDisplay, 0 /*sync*/, encodeUint32(idCallback1)); err != nil {
		return 0, 0, err
	}

	var seatFound, dcManagerFound bool
	for {
		objectID, opcode, payload, fd, rErr := c.readMsg()
		if rErr != nil {
			return 0, 0, fmt.Errorf("wayland: negotiate globals: %w", rErr)
		}
		if fd >= 0 {
			syscall.Close(fd)
		}

		switch {
		case objectID == idRegistry && opcode == 0: // global
			if len(payload) < 4 {
				continue
			}
			name := le.Uint32(payload[:4])
			iface, _, decErr := decodeString(payload[4:])
			if decErr != nil {
				continue
			}
			switch iface {
			case "wl_seat":
				seatName, seatFound = name, true
			case "zwlr_data_control_manager_v1":
				dcManagerName, dcManagerFound = name, true
			}

		case objectID == idCallback1 && opcode == 0: // done
			if !seatFound {
				return 0, 0, fmt.Errorf("wayland: wl_seat not found")
			}
			if !dcManagerFound {
				return 0, 0, ErrNoDataControl
			}
			return seatName, dcManagerName, nil
		}
	}
}

func (o *Observer) bindAndSubscribe(c *waylandConn, seatName, dcManagerName uint32) error {
	if err := c.sendMsg(idRegistry, 0 /*bind*/, concat(
		encodeUint32(seatName),
		encodeString("wl_seat"),
		encodeUint32(1),
		encodeUint32(idSeat),
	)); err != nil {
		return err
	}

	if err := c.sendMsg(idRegistry, 0 /*bind*/, concat(
		encodeUint32(dcManagerName),
		encodeString("zwlr_data_control_manager_v1"),
		encodeUint32(2),
		encodeUint32(idDCManager),
	)); err != nil {
		return err
	}

	// zwlr_data_control_manager_v1.get_data_device(id, seat)
	return c.sendMsg(idDCManager, 1, concat(
		encodeUint32(idDCDevice),
		encodeUint32(idSeat),
	))
}

// eventLoop implements the AwaitingOffer / Selecting / Receiving / Ready /
// Discarded state machine described for the Observer: it accumulates
// per-offer MIME lists keyed by the compositor-assigned offer object id,
// then resolves an offer to a snapshot (or discards it) when the device
// announces it as the current selection.
func (o *Observer) eventLoop(c *waylandConn) error {
	pendingOffers := map[uint32][]string{}

	for {
		objectID, opcode, payload, fd, err := c.readMsg()
		if err != nil {
			return fmt.Errorf("wayland: event loop: %w", err)
		}

		switch {
		case objectID == idDCDevice && opcode == 0: // data_offer(new_id)
			if fd >= 0 {
				syscall.Close(fd)
			}
			if len(payload) < 4 {
				continue
			}
			offerID := le.Uint32(payload[:4])
			pendingOffers[offerID] = nil

		case objectID == idDCDevice && opcode == 1: // selection(id), nullable
			if fd >= 0 {
				syscall.Close(fd)
			}
			if len(payload) < 4 {
				continue
			}
			offerID := le.Uint32(payload[:4])
			if offerID == 0 {
				continue // selection cleared
			}
			mimes, known := pendingOffers[offerID]
			delete(pendingOffers, offerID)
			if !known {
				continue
			}
			o.resolveOffer(c, offerID, mimes)

		case objectID == idDCDevice && opcode == 2: // finished
			if fd >= 0 {
				syscall.Close(fd)
			}
			return fmt.Errorf("wayland: data control device finished")

		default:
			// offer event on a still-accumulating offer object.
			if fd >= 0 {
				syscall.Close(fd)
			}
			if opcode != 0 {
				continue
			}
			if mimes, ok := pendingOffers[objectID]; ok {
				mime, _, decErr := decodeString(payload)
				if decErr == nil {
					pendingOffers[objectID] = append(mimes, mime)
				}
			}
		}
	}
}

// resolveOffer applies the MIME preference policy to a just-selected offer,
// receives its bytes on acceptance, and always destroys the offer object.
func (o *Observer) resolveOffer(c *waylandConn, offerID uint32, mimes []string) {
	mime, ok := pickPreferredMime(mimes)
	if !ok {
		o.onDebug("clipboard: offer %d discarded, no acceptable mime among %v", offerID, mimes)
		o.destroyOffer(c, offerID)
		return
	}

	data, err := o.receive(c, offerID, mime)
	if err != nil {
		o.onDebug("clipboard: offer %d discarded: %v", offerID, err)
		o.destroyOffer(c, offerID)
		return
	}

	o.destroyOffer(c, offerID)

	ct, ok := classify(mime)
	if !ok {
		o.onDebug("clipboard: offer %d discarded, unclassifiable mime %q", offerID, mime)
		return
	}

	o.onSnapshot(store.ClipboardSnapshot{MimeType: mime, ContentType: ct, Data: data})
}

// receive implements the Receiving state: pipe, offer.receive(mime, write_fd),
// then drain the read end to EOF capped at maxEntrySize.
func (o *Observer) receive(c *waylandConn, offerID uint32, mime string) ([]byte, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create pipe: %w", err)
	}

	err = c.sendFd(offerID, 0 /*receive*/, encodeString(mime), int(w.Fd()))
	w.Close()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("send receive request: %w", err)
	}
	defer r.Close()

	limit := o.maxEntrySize
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, rErr := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if uint64(len(buf)) > limit {
				return nil, fmt.Errorf("offer exceeds max entry size of %d bytes", limit)
			}
		}
		if rErr == io.EOF {
			break
		}
		if rErr != nil {
			return nil, fmt.Errorf("read offer data: %w", rErr)
		}
	}
	return buf, nil
}

func (o *Observer) destroyOffer(c *waylandConn, offerID uint32) {
	// zwlr_data_control_offer_v1.destroy
	c.sendMsg(offerID, 1, nil)
}
