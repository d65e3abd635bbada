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

// Package buffer provides a growable byte buffer with a hard capacity
// ceiling, used by the HTTP/1.1 and WebSocket codecs to accumulate
// partial reads from a connection without ever growing without bound.
package buffer

import (
	"sync"

	liberr "github.com/nabbar/uvhttp/errors"
)

const (
	ErrorOutOfCapacity liberr.CodeError = liberr.MinPkgBuffer + iota
	ErrorInvalidSize
)

func init() {
	liberr.RegisterIdFctMessage(liberr.MinPkgBuffer, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorOutOfCapacity:
		return "buffer would exceed its configured capacity ceiling"
	case ErrorInvalidSize:
		return "requested size is invalid"
	default:
		return liberr.UnknownMessage
	}
}

// Buffer is a growable byte slice bounded by a ceiling. Growth doubles
// the current capacity (or grows to fit the requested size, whichever
// is larger) and never exceeds ceiling. A failed grow leaves the
// buffer exactly as it was before the call.
type Buffer struct {
	data    []byte
	ceiling int
}

// New allocates a Buffer with the given initial capacity, bounded by ceiling.
// A ceiling of 0 means unbounded.
func New(initial, ceiling int) *Buffer {
	if initial < 0 {
		initial = 0
	}
	return &Buffer{
		data:    make([]byte, 0, initial),
		ceiling: ceiling,
	}
}

// Len returns the number of bytes currently stored.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Cap returns the current allocated capacity.
func (b *Buffer) Cap() int {
	return cap(b.data)
}

// Bytes returns the buffer's contents. The slice is only valid until
// the next mutating call (Append, Reserve, Reset).
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Reset empties the buffer while keeping its current capacity, for
// reuse across keep-alive requests on the same connection.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
}

// Reserve grows the buffer's capacity to hold at least n additional
// bytes beyond its current length, respecting the ceiling. It does not
// change Len.
func (b *Buffer) Reserve(n int) error {
	if n < 0 {
		return ErrorInvalidSize.Error()
	}
	want := len(b.data) + n
	if b.ceiling > 0 && want > b.ceiling {
		return ErrorOutOfCapacity.Error()
	}
	if want <= cap(b.data) {
		return nil
	}

	newCap := growCap(cap(b.data), want)
	if b.ceiling > 0 && newCap > b.ceiling {
		newCap = b.ceiling
	}

	grown := make([]byte, len(b.data), newCap)
	copy(grown, b.data)
	b.data = grown
	return nil
}

// Append appends p to the buffer, growing as needed. On overflow the
// buffer is left unmodified and ErrorOutOfCapacity is returned.
func (b *Buffer) Append(p []byte) error {
	if err := b.Reserve(len(p)); err != nil {
		return err
	}
	b.data = append(b.data, p...)
	return nil
}

func growCap(current, want int) int {
	if current == 0 {
		current = 32
	}
	if doubled := current * 2; doubled > want {
		return doubled
	}
	return want
}

// pool recycles 4KB scratch buffers for per-connection read loops, the
// same pattern used to avoid a per-Read allocation on a hot path.
var pool = sync.Pool{
	New: func() any {
		b := make([]byte, 4096)
		return &b
	},
}

// Get returns a pooled 4KB scratch slice.
func Get() []byte {
	return *(pool.Get().(*[]byte))
}

// Put returns a scratch slice obtained from Get back to the pool.
func Put(b []byte) {
	if cap(b) < 4096 {
		return
	}
	b = b[:4096]
	pool.Put(&b)
}
