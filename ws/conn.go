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

package ws

import (
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	liberr "github.com/nabbar/uvhttp/errors"
)

// Handlers are the callbacks a caller registers for one WebSocket
// route; OnMessage/OnClose/OnError run on the connection's own
// goroutine, one at a time, in arrival order.
type Handlers struct {
	OnConnect func(c *Conn)
	OnMessage func(c *Conn, opcode Opcode, payload []byte)
	OnClose   func(c *Conn, code CloseCode, reason string)
	OnError   func(c *Conn, err error)
}

// Limits bounds frame and message sizes and the keepalive cadence.
type Limits struct {
	MaxFrameSize   int
	MaxMessageSize int
	PingInterval   time.Duration
	PingTimeout    time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		MaxFrameSize:   1 << 20,
		MaxMessageSize: 4 << 20,
		PingInterval:   30 * time.Second,
		PingTimeout:    10 * time.Second,
	}
}

// Conn owns a hijacked net.Conn after a successful upgrade and drives
// the frame-reassembly/keepalive engine described by the connection
// state machine's UPGRADED_WS terminal state: once the FSM hands the
// socket here, this engine owns it until CLOSE.
type Conn struct {
	raw      net.Conn
	handlers Handlers
	limits   Limits

	writeMu sync.Mutex
	closed  bool

	fragOpcode Opcode
	fragBuf    []byte
	fragging   bool

	// unix nanos of the last read or pong, shared with the ping
	// goroutine
	lastActivity atomic.Int64
}

// NewConn takes ownership of raw — a socket already past the HTTP
// Upgrade response. It does not read; Serve runs the read loop until
// close, on the caller's goroutine (one goroutine per connection, per
// the server's concurrency model).
func NewConn(raw net.Conn, handlers Handlers, limits Limits) *Conn {
	c := &Conn{raw: raw, handlers: handlers, limits: limits}
	c.touch()
	return c
}

func (c *Conn) touch() {
	c.lastActivity.Store(time.Now().UnixNano())
}

func (c *Conn) idleFor() time.Duration {
	return time.Since(time.Unix(0, c.lastActivity.Load()))
}

// Serve runs the read/keepalive loop until the connection closes. It
// blocks the calling goroutine.
func (c *Conn) Serve() {
	if c.handlers.OnConnect != nil {
		c.handlers.OnConnect(c)
	}

	stopPing := make(chan struct{})
	if c.limits.PingInterval > 0 {
		go c.pingLoop(stopPing)
	}
	defer close(stopPing)

	var acc []byte
	scratch := make([]byte, 4096)

	for {
		n, err := c.raw.Read(scratch)
		if n > 0 {
			acc = append(acc, scratch[:n]...)
			c.touch()

			frames, rest, ferr := ParseFrames(acc, c.limits.MaxFrameSize)
			acc = rest
			if ferr != nil {
				c.fail(ferr)
				return
			}
			for _, f := range frames {
				if !f.Masked {
					c.fail(ErrorUnmaskedClientFrame.Error())
					return
				}
				if done := c.dispatch(f); done {
					return
				}
			}
		}
		if err != nil {
			if err != io.EOF && c.handlers.OnError != nil {
				c.handlers.OnError(c, err)
			}
			c.closeRaw()
			return
		}
	}
}

func (c *Conn) dispatch(f Frame) (shouldStop bool) {
	switch f.Opcode {
	case OpClose:
		code := CloseNormal
		reason := ""
		if len(f.Payload) >= 2 {
			code = CloseCode(uint16(f.Payload[0])<<8 | uint16(f.Payload[1]))
			reason = string(f.Payload[2:])
		}
		c.sendClose(code, reason)
		if c.handlers.OnClose != nil {
			c.handlers.OnClose(c, code, reason)
		}
		c.closeRaw()
		return true

	case OpPing:
		_ = c.writeFrame(OpPong, f.Payload)
		return false

	case OpPong:
		c.touch()
		return false

	case OpText, OpBinary:
		if c.fragging {
			// A new data frame may not start before the previous
			// fragmented message completes.
			c.fail(ErrorProtocol.Error())
			return true
		}
		if !f.Fin {
			if c.limits.MaxMessageSize > 0 && len(f.Payload) > c.limits.MaxMessageSize {
				c.sendClose(CloseMessageTooBig, "message too big")
				c.closeRaw()
				return true
			}
			c.fragging = true
			c.fragOpcode = f.Opcode
			c.fragBuf = append(c.fragBuf[:0], f.Payload...)
			return false
		}
		if c.handlers.OnMessage != nil {
			c.handlers.OnMessage(c, f.Opcode, f.Payload)
		}
		return false

	case OpContinuation:
		if !c.fragging {
			c.fail(ErrorProtocol.Error())
			return true
		}
		if c.limits.MaxMessageSize > 0 && len(c.fragBuf)+len(f.Payload) > c.limits.MaxMessageSize {
			c.sendClose(CloseMessageTooBig, "message too big")
			c.closeRaw()
			return true
		}
		c.fragBuf = append(c.fragBuf, f.Payload...)
		if f.Fin {
			if c.handlers.OnMessage != nil {
				c.handlers.OnMessage(c, c.fragOpcode, c.fragBuf)
			}
			c.fragging = false
			c.fragBuf = nil
		}
		return false

	default:
		c.fail(ErrorProtocol.Error())
		return true
	}
}

func (c *Conn) pingLoop(stop <-chan struct{}) {
	t := time.NewTicker(c.limits.PingInterval)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if c.idleFor() > c.limits.PingInterval+c.limits.PingTimeout {
				c.sendClose(CloseInternalError, "ping timeout")
				c.closeRaw()
				return
			}
			_ = c.writeFrame(OpPing, nil)
		}
	}
}

func (c *Conn) fail(err error) {
	if c.handlers.OnError != nil {
		c.handlers.OnError(c, err)
	}
	code := CloseProtocolError
	if liberr.HasCode(err, ErrorFrameTooLarge) || liberr.HasCode(err, ErrorMessageTooLarge) {
		code = CloseMessageTooBig
	}
	c.sendClose(code, "")
	c.closeRaw()
}

// sendClose bounds its write: a peer that stopped reading must not be
// able to wedge the close handshake.
func (c *Conn) sendClose(code CloseCode, reason string) {
	payload := make([]byte, 2+len(reason))
	payload[0] = byte(code >> 8)
	payload[1] = byte(code)
	copy(payload[2:], reason)
	_ = c.raw.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_ = c.writeFrame(OpClose, payload)
	_ = c.raw.SetWriteDeadline(time.Time{})
}

// WriteMessage sends a single, unfragmented TEXT or BINARY frame.
func (c *Conn) WriteMessage(opcode Opcode, payload []byte) error {
	return c.writeFrame(opcode, payload)
}

func (c *Conn) writeFrame(opcode Opcode, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return io.ErrClosedPipe
	}
	_, err := c.raw.Write(BuildFrame(opcode, payload, true))
	return err
}

func (c *Conn) closeRaw() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.raw.Close()
}

// RemoteAddr returns the underlying socket's remote address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}
