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

package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// ErrReplayFailed reports that the external copy tool exited nonzero, timed
// out, or could not be spawned.
var ErrReplayFailed = errors.New("clipboard: replay failed")

// Replayer writes a payload back onto the live clipboard by invoking an
// external copy tool. The compositor requires the clipboard owner to stay
// alive for as long as it holds the selection, so wl-copy forks and detaches
// itself; re-implementing that ownership protocol in-process is out of scope.
type Replayer struct {
	command string
	timeout time.Duration
}

// NewReplayer builds a Replayer invoking command (e.g. "wl-copy") with a
// per-call timeout.
func NewReplayer(command string, timeout time.Duration) *Replayer {
	return &Replayer{command: command, timeout: timeout}
}

// Replay sets the clipboard selection to data with the given MIME type.
func (r *Replayer) Replay(mimeType string, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.command, "--type", mimeType)
	cmd.Stdin = bytes.NewReader(data)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: %s timed out after %s", ErrReplayFailed, r.command, r.timeout)
		}
		return fmt.Errorf("%w: %s: %v: %s", ErrReplayFailed, r.command, err, stderr.String())
	}
	return nil
}

// CheckAvailable reports whether the configured copy command can be found on
// PATH, for a clear startup diagnostic rather than a confusing first-call
// ReplayFailed.
func (r *Replayer) CheckAvailable() error {
	if _, err := exec.LookPath(r.command); err != nil {
		return fmt.Errorf("clipboard: copy command %q not found: %w", r.command, err)
	}
	return nil
}
