package tcp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// The wire format is a sequence of discrete string messages, each framed as a
// 4-byte big-endian length followed by that many bytes of UTF-8. There is no
// message-type tag: both sides must agree on send/receive order exactly, and
// any deviation is fatal to the session.

// DefaultMaxFrameBytes caps a single message when no limit is configured.
const DefaultMaxFrameBytes = 64 * 1024

var (
	// ErrFrameTooLarge reports a length prefix above the configured cap.
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	// ErrInvalidUTF8 reports a payload that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("frame payload is not valid UTF-8")
)

// Framer reads and writes length-prefixed messages on a byte stream. It is
// not safe for concurrent use; each session owns exactly one.
type Framer struct {
	rw  io.ReadWriter
	max uint32
	hdr [4]byte
}

// NewFramer wraps rw with message framing. maxFrame of zero applies
// DefaultMaxFrameBytes.
func NewFramer(rw io.ReadWriter, maxFrame uint32) *Framer {
	if maxFrame == 0 {
		maxFrame = DefaultMaxFrameBytes
	}
	return &Framer{rw: rw, max: maxFrame}
}

// WriteMessage sends a single framed message.
func (f *Framer) WriteMessage(msg string) error {
	if uint32(len(msg)) > f.max {
		return fmt.Errorf("writing %d byte frame: %w", len(msg), ErrFrameTooLarge)
	}

	buf := make([]byte, 4+len(msg))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(msg)))
	copy(buf[4:], msg)

	if _, err := f.rw.Write(buf); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// ReadMessage receives the next framed message, blocking until one arrives.
func (f *Framer) ReadMessage() (string, error) {
	if _, err := io.ReadFull(f.rw, f.hdr[:]); err != nil {
		return "", fmt.Errorf("reading frame header: %w", err)
	}

	n := binary.BigEndian.Uint32(f.hdr[:])
	if n > f.max {
		return "", fmt.Errorf("reading %d byte frame: %w", n, ErrFrameTooLarge)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(f.rw, payload); err != nil {
		return "", fmt.Errorf("reading frame payload: %w", err)
	}
	if !utf8.Valid(payload) {
		return "", ErrInvalidUTF8
	}
	return string(payload), nil
}
