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
	"encoding/binary"
	"fmt"
	"syscall"
)

var le = binary.LittleEndian

// Fixed object IDs assigned by this client at connection time. Offer objects
// arrive with compositor-assigned IDs (Wayland's server-allocated range) and
// are not part of this fixed set.
const (
	idDisplay   uint32 = 1
	idRegistry  uint32 = 2
	idCallback1 uint32 = 3 // first sync, used to collect globals
	idSeat      uint32 = 4
	idDCManager uint32 = 5 // zwlr_data_control_manager_v1
	idDCDevice  uint32 = 6 // zwlr_data_control_device_v1
)

// waylandConn is a buffered, blocking Wayland client connection.
type waylandConn struct {
	fd         int
	inBuf      []byte
	pendingFds []int
}

func newConn(sockPath string) (*waylandConn, error) {
	fd, err := syscall.Socket(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		return nil, err
	}
	if err := syscall.Connect(fd, &syscall.SockaddrUnix{Name: sockPath}); err != nil {
		syscall.Close(fd)
		return nil, err
	}
	return &waylandConn{fd: fd}, nil
}

func (c *waylandConn) close() {
	syscall.Close(c.fd)
}

// sendMsg writes one Wayland request: [objectID][opcode|size<<16][args].
func (c *waylandConn) sendMsg(objectID uint32, opcode uint16, args []byte) error {
	size := uint16(8 + len(args))
	buf := make([]byte, size)
	le.PutUint32(buf[0:], objectID)
	le.PutUint32(buf[4:], uint32(opcode)|uint32(size)<<16)
	copy(buf[8:], args)
	_, err := syscall.Write(c.fd, buf)
	return err
}

// sendFd writes a Wayland request that also passes a file descriptor via
// SCM_RIGHTS ancillary data (used by offer.receive).
func (c *waylandConn) sendFd(objectID uint32, opcode uint16, args []byte, fd int) error {
	size := uint16(8 + len(args))
	buf := make([]byte, size)
	le.PutUint32(buf[0:], objectID)
	le.PutUint32(buf[4:], uint32(opcode)|uint32(size)<<16)
	copy(buf[8:], args)

	rights := syscall.UnixRights(fd)
	return syscall.Sendmsg(c.fd, buf, rights, nil, 0)
}

// readMsg reads the next complete Wayland event, returning any fd delivered
// alongside it via SCM_RIGHTS. fd is -1 if none was delivered.
func (c *waylandConn) readMsg() (objectID uint32, opcode uint16, payload []byte, fd int, err error) {
	fd = -1
	for {
		if len(c.inBuf) >= 8 {
			sizeOpcode := le.Uint32(c.inBuf[4:8])
			size := int(sizeOpcode >> 16)
			if size >= 8 && len(c.inBuf) >= size {
				objectID = le.Uint32(c.inBuf[0:4])
				opcode = uint16(sizeOpcode & 0xffff)
				payload = make([]byte, size-8)
				copy(payload, c.inBuf[8:size])
				c.inBuf = c.inBuf[size:]
				if len(c.pendingFds) > 0 {
					fd = c.pendingFds[0]
					c.pendingFds = c.pendingFds[1:]
				}
				return
			}
		}

		buf := make([]byte, 4096)
		oob := make([]byte, syscall.CmsgSpace(4*8))
		n, oobn, _, _, recvErr := syscall.Recvmsg(c.fd, buf, oob, 0)
		if recvErr != nil {
			err = recvErr
			return
		}
		if n == 0 {
			err = fmt.Errorf("wayland: connection closed")
			return
		}
		c.inBuf = append(c.inBuf, buf[:n]...)

		if oobn > 0 {
			scms, parseErr := syscall.ParseSocketControlMessage(oob[:oobn])
			if parseErr == nil {
				for _, scm := range scms {
					rights, rErr := syscall.ParseUnixRights(&scm)
					if rErr == nil {
						c.pendingFds = append(c.pendingFds, rights...)
					}
				}
			}
		}
	}
}

func encodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	le.PutUint32(b, v)
	return b
}

// encodeString encodes a Wayland string: uint32 length (incl. null
// terminator), the bytes, then padding to 4-byte alignment.
func encodeString(s string) []byte {
	sBytes := append([]byte(s), 0)
	length := len(sBytes)
	padded := (length + 3) &^ 3
	buf := make([]byte, 4+padded)
	le.PutUint32(buf[0:], uint32(length))
	copy(buf[4:], sBytes)
	return buf
}

func decodeString(data []byte) (string, []byte, error) {
	if len(data) < 4 {
		return "", data, fmt.Errorf("wayland: short string length field")
	}
	length := int(le.Uint32(data[:4]))
	data = data[4:]
	if length == 0 {
		return "", data, nil
	}
	padded := (length + 3) &^ 3
	if len(data) < padded {
		return "", data, fmt.Errorf("wayland: short string data")
	}
	s := string(data[:length-1])
	return s, data[padded:], nil
}

func concat(parts ...[]byte) []byte {
	var total int
	for _, p := range parts {
		total += len(p)
	}
	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
