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

package httpserver

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	liberr "github.com/nabbar/uvhttp/errors"
	"github.com/nabbar/uvhttp/http11"
	"github.com/nabbar/uvhttp/logger"
	"github.com/nabbar/uvhttp/router"
	"github.com/nabbar/uvhttp/tlsadapter"
	"github.com/nabbar/uvhttp/ws"
)

// connState is the connection lifecycle: accept, optional TLS
// handshake, read, handle, write, then either another read
// (keep-alive), a WebSocket handoff, or close.
type connState uint8

const (
	stateAccepted connState = iota
	stateTLSHandshaking
	stateReadingRequest
	stateHandling
	stateWritingResponse
	stateUpgradedWS
	stateClosing
)

// handleConnection owns raw for its entire lifetime: it is this
// connection's one dedicated goroutine, from ACCEPTED to CLOSING (or
// to UPGRADED_WS, where ownership passes to ws.Conn.Serve). parent is
// the accept loop's context, cancelled by Stop, so a server shutdown
// tears down every in-flight connection.
func (s *srv) handleConnection(parent context.Context, raw net.Conn) {
	cfg := s.GetConfig()

	// One correlation id per connection, carried by every log entry it
	// emits.
	lg := s.logOrDefault().Clone()
	lg.GetFields().Add("conn", uuid.NewString())

	ctx, cancel := context.WithTimeout(parent, cfg.ConnectionTimeout)
	defer cancel()

	s.connOpened()
	defer s.connClosed()

	state := stateAccepted
	conn := raw
	defer func() {
		if state != stateUpgradedWS {
			_ = conn.Close()
		}
	}()

	// Force-closing the socket is the only way to unblock a pending
	// Read once ctx is done; the watcher ends before a WebSocket
	// handoff so an upgraded connection is not bounded by
	// connection_timeout.
	watchDone := make(chan struct{})
	var watchOnce sync.Once
	endWatch := func() { watchOnce.Do(func() { close(watchDone) }) }
	defer endWatch()
	go func() {
		select {
		case <-ctx.Done():
			_ = raw.Close()
		case <-watchDone:
		}
	}()

	if cfg.isTLS() {
		state = stateTLSHandshaking
		adapter := tlsadapter.New(cfg.TLS)
		if e := adapter.Handshake(ctx, raw); e != nil {
			lg.Warning("TLS handshake failed from %s", e, remoteAddrField(raw))
			return
		}
		conn = adapter.Conn()
	}

	parser := http11.NewParser(cfg.parserLimits())
	started := time.Now()
	requestCount := 0

	for {
		state = stateReadingRequest

		deadline := s.readDeadline(started, requestCount, cfg)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		_ = conn.SetReadDeadline(deadline)

		req, err := parser.Parse(conn)
		if err != nil {
			if !isSilentClose(err) {
				s.writeErrorResponse(conn, errorStatus(err))
				lg.Debug("request parse failed from %s", err, remoteAddrField(raw))
			}
			return
		}

		requestCount++
		s.metricRequest()

		state = stateHandling
		reqTime := time.Now()

		if req.UpgradeWebsocket {
			if h, ok := s.wsHandlers(req.Path); ok {
				state = stateUpgradedWS
				endWatch()
				s.upgradeWebsocket(conn, req, h, cfg, lg, raw)
				http11.PutRequest(req)
				return
			}
		}

		resp := s.dispatch(req)

		keepAlive := req.KeepAlive && requestCount < cfg.MaxRequestsPerConnection
		resp.SetKeepAlive(keepAlive)

		state = stateWritingResponse
		out, sendErr := resp.Send()
		if sendErr == nil {
			_, _ = conn.Write(out)
			s.metricBytesOut(len(out))
		}

		s.logAccess(lg, raw, req, resp, reqTime)
		http11.PutRequest(req)

		if !keepAlive {
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// readDeadline applies request_timeout before the first request
// completes and keepalive_timeout afterwards, per the state table.
func (s *srv) readDeadline(started time.Time, requestCount int, cfg Config) time.Time {
	if requestCount == 0 {
		return started.Add(cfg.RequestTimeout)
	}
	return time.Now().Add(cfg.KeepaliveTimeout)
}

// dispatch runs the middleware chain, then the router, reconciling the
// two different Response-handling conventions: a STOP verdict serves
// the middleware-mutated response; a CONTINUE verdict serves whatever
// the matched handler returns (or a synthesized 404), with any headers
// the chain set (e.g. CORS) carried onto it.
func (s *srv) dispatch(req *http11.Request) *router.Response {
	pre := router.NewResponse(true)

	if !s.mw.Run(req, pre) {
		return pre
	}

	h := s.rt.Find(req.Method, req.Path)
	if h == nil {
		resp := notFoundResponse()
		resp.CopyHeaders(pre)
		return resp
	}

	resp := h(req)
	if resp == nil {
		resp = notFoundResponse()
	}
	resp.CopyHeaders(pre)
	return resp
}

func notFoundResponse() *router.Response {
	r := router.NewResponse(true)
	r.SetStatus(404)
	r.SetBody(nil)
	return r
}

func (s *srv) writeErrorResponse(conn net.Conn, status int) {
	r := router.NewResponse(false)
	r.SetStatus(status)
	r.SetBody(nil)
	if out, err := r.Send(); err == nil {
		_, _ = conn.Write(out)
	}
}

// upgradeWebsocket writes the 101 response by hand: RFC 6455 does not
// want a Content-Length on the switching-protocols reply the way an
// ordinary router.Response would add one.
func (s *srv) upgradeWebsocket(conn net.Conn, req *http11.Request, h ws.Handlers, cfg Config, lg logger.Logger, raw net.Conn) {
	key, ok := req.HeaderValue("Sec-WebSocket-Key")
	if !ok || key == "" {
		s.writeErrorResponse(conn, 400)
		return
	}

	accept := ws.GenerateAccept(key)
	resp := fmt.Sprintf(
		"HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\nConnection: Upgrade\r\nSec-WebSocket-Accept: %s\r\n\r\n",
		accept,
	)
	if _, err := conn.Write([]byte(resp)); err != nil {
		lg.Debug("websocket upgrade write failed", err, remoteAddrField(raw))
		_ = conn.Close()
		return
	}

	_ = conn.SetReadDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Time{})

	ws.NewConn(conn, h, cfg.wsLimits()).Serve()
}

func (s *srv) logAccess(lg logger.Logger, raw net.Conn, req *http11.Request, resp *router.Response, start time.Time) {
	cfg := s.GetConfig()
	if cfg.AccessLogPath == "" {
		return
	}
	lg.Access(remoteAddrField(raw), "", start, time.Since(start), req.Method.String(), req.RawURL, "HTTP/1.1", resp.Status(), int64(resp.BodySize())).Log()
}

func remoteAddrField(c net.Conn) string {
	if c == nil || c.RemoteAddr() == nil {
		return ""
	}
	return c.RemoteAddr().String()
}

// isSilentClose reports whether err represents the peer simply going
// away or a deadline expiring (a keep-alive client idling past
// keepalive_timeout, a disconnect between requests) rather than a
// protocol violation worth a 4xx response. The parser classifies its
// I/O failures under dedicated codes so this never has to inspect a
// rendered message.
func isSilentClose(err error) bool {
	if err == nil {
		return true
	}
	return liberr.HasCode(err, http11.ErrorConnectionClosed) ||
		liberr.HasCode(err, http11.ErrorReadTimeout)
}

// errorStatus maps a parse failure to the response code written before
// the connection closes: body over limit is 413, URL over limit is
// 414, every other violation (including oversized or too many
// headers) is 400.
func errorStatus(err error) int {
	switch {
	case liberr.HasCode(err, http11.ErrorBodyTooLarge):
		return 413
	case liberr.HasCode(err, http11.ErrorURITooLong):
		return 414
	default:
		return 400
	}
}
