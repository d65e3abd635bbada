/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package ws implements RFC 6455 WebSocket framing, the handshake, and
// a per-connection engine that reassembles fragmented messages and
// answers control frames.
package ws

import (
	"encoding/binary"
)

// Opcode is the RFC 6455 §5.2 frame type.
type Opcode byte

const (
	OpContinuation Opcode = 0x0
	OpText         Opcode = 0x1
	OpBinary       Opcode = 0x2
	OpClose        Opcode = 0x8
	OpPing         Opcode = 0x9
	OpPong         Opcode = 0xA
)

func (o Opcode) isControl() bool {
	return o == OpClose || o == OpPing || o == OpPong
}

// Frame is one decoded WebSocket frame.
type Frame struct {
	Fin     bool
	Opcode  Opcode
	Masked  bool
	Payload []byte
}

// ParseFrames decodes as many complete frames as are present in
// buf and returns the bytes that were not yet consumed (a partial
// trailing frame, left for the next read). maxFrameSize bounds a
// single frame's payload; exceeding it is ErrorFrameTooLarge.
func ParseFrames(buf []byte, maxFrameSize int) (frames []Frame, rest []byte, err error) {
	for len(buf) >= 2 {
		fin := buf[0]&0x80 != 0
		rsv := buf[0] & 0x70
		opcode := Opcode(buf[0] & 0x0F)
		masked := buf[1]&0x80 != 0
		payloadLen := int(buf[1] & 0x7F)

		if rsv != 0 {
			return frames, buf, ErrorProtocol.Error()
		}

		headerLen := 2
		switch payloadLen {
		case 126:
			if len(buf) < 4 {
				return frames, buf, nil
			}
			payloadLen = int(binary.BigEndian.Uint16(buf[2:4]))
			headerLen = 4
		case 127:
			if len(buf) < 10 {
				return frames, buf, nil
			}
			n := binary.BigEndian.Uint64(buf[2:10])
			if n > uint64(1<<32) {
				return frames, buf, ErrorFrameTooLarge.Error()
			}
			payloadLen = int(n)
			headerLen = 10
		}

		if opcode.isControl() && (!fin || payloadLen > 125) {
			return frames, buf, ErrorProtocol.Error()
		}
		if maxFrameSize > 0 && payloadLen > maxFrameSize {
			return frames, buf, ErrorFrameTooLarge.Error()
		}

		maskLen := 0
		if masked {
			maskLen = 4
		}

		total := headerLen + maskLen + payloadLen
		if len(buf) < total {
			return frames, buf, nil
		}

		payload := make([]byte, payloadLen)
		copy(payload, buf[headerLen+maskLen:total])

		if masked {
			var key [4]byte
			copy(key[:], buf[headerLen:headerLen+4])
			for i := range payload {
				payload[i] ^= key[i%4]
			}
		}

		frames = append(frames, Frame{Fin: fin, Opcode: opcode, Masked: masked, Payload: payload})
		buf = buf[total:]
	}

	return frames, buf, nil
}

// BuildFrame encodes a single server-to-client frame. Server frames
// are never masked, per RFC 6455 §5.1.
func BuildFrame(opcode Opcode, payload []byte, fin bool) []byte {
	var first byte
	if fin {
		first = 0x80
	}
	first |= byte(opcode)

	var header []byte
	switch {
	case len(payload) <= 125:
		header = []byte{first, byte(len(payload))}
	case len(payload) <= 0xFFFF:
		header = make([]byte, 4)
		header[0] = first
		header[1] = 126
		binary.BigEndian.PutUint16(header[2:], uint16(len(payload)))
	default:
		header = make([]byte, 10)
		header[0] = first
		header[1] = 127
		binary.BigEndian.PutUint64(header[2:], uint64(len(payload)))
	}

	out := make([]byte, 0, len(header)+len(payload))
	out = append(out, header...)
	out = append(out, payload...)
	return out
}

// BuildMaskedFrame encodes a client-to-server-shaped frame, used only
// by test helpers that exercise the server's unmasking path.
func BuildMaskedFrame(opcode Opcode, payload []byte, fin bool) []byte {
	key := newMaskKey()
	masked := make([]byte, len(payload))
	for i, b := range payload {
		masked[i] = b ^ key[i%4]
	}

	var first byte
	if fin {
		first = 0x80
	}
	first |= byte(opcode)

	var header []byte
	switch {
	case len(payload) <= 125:
		header = []byte{first, byte(len(payload)) | 0x80}
	case len(payload) <= 0xFFFF:
		header = make([]byte, 4)
		header[0] = first
		header[1] = 126 | 0x80
		binary.BigEndian.PutUint16(header[2:], uint16(len(payload)))
	default:
		header = make([]byte, 10)
		header[0] = first
		header[1] = 127 | 0x80
		binary.BigEndian.PutUint64(header[2:], uint64(len(payload)))
	}

	out := make([]byte, 0, len(header)+4+len(masked))
	out = append(out, header...)
	out = append(out, key[:]...)
	out = append(out, masked...)
	return out
}
