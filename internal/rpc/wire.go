// Package rpc implements the guest-to-host transport used when an agent
// runs inside a sandbox guest: a 4-byte big-endian length prefix followed
// by a UTF-8 JSON payload, with bearer-token authentication on connect.
package rpc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// maxFrameSize bounds a single frame to guard against a corrupt or
// malicious length prefix forcing an unbounded allocation.
const maxFrameSize = 64 << 20 // 64 MiB

// WriteFrame writes payload as one length-prefixed frame to w.
func WriteFrame(w io.Writer, payload []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("writing frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("writing frame body: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > maxFrameSize {
		return nil, fmt.Errorf("frame size %d exceeds maximum %d", size, maxFrameSize)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("reading frame body: %w", err)
	}
	return data, nil
}

// WriteJSON marshals v and writes it as one frame.
func WriteJSON(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling frame: %w", err)
	}
	return WriteFrame(w, data)
}

// ReadJSON reads one frame from r and unmarshals it into v.
func ReadJSON(r io.Reader, v interface{}) error {
	data, err := ReadFrame(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
