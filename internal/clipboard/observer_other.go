//go:build !linux

package clipboard

import (
	"fmt"

	"github.com/wayclip/wayclipd/internal/store"
)

// Observer is a non-functional stub outside Linux: the wlr-data-control
// protocol is a Wayland-on-Linux construct and has no other target.
type Observer struct{}

func NewObserver(maxEntrySize uint64, onSnapshot func(store.ClipboardSnapshot), onDebug func(string, ...interface{})) *Observer {
	return &Observer{}
}

// Run always fails on non-Linux platforms.
func (o *Observer) Run() error {
	return fmt.Errorf("wayland: clipboard observation is only supported on linux")
}
