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
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	uvatm "github.com/nabbar/uvhttp/atomic"
	liberr "github.com/nabbar/uvhttp/errors"
	"github.com/nabbar/uvhttp/logger"
	"github.com/nabbar/uvhttp/router"
	"github.com/nabbar/uvhttp/runner"
	"github.com/nabbar/uvhttp/runner/startStop"
	"github.com/nabbar/uvhttp/ws"
)

// srv is the concrete Server: one listen socket, its router and
// middleware chain, its registered WebSocket routes, and the
// runner.Runner lifecycle driving the accept loop.
type srv struct {
	runner.Runner

	mu  sync.RWMutex
	cfg Config
	log logger.FuncLog

	rt *router.Router
	mw *router.Chain

	wsMu sync.RWMutex
	ws   map[string]ws.Handlers

	listener uvatm.Value[net.Listener]
	active   atomic.Int64
}

func (s *srv) Router() *router.Router      { return s.rt }
func (s *srv) Middleware() *router.Chain   { return s.mw }

func (s *srv) HandleWebsocket(path string, h ws.Handlers) {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	s.ws[path] = h
}

func (s *srv) wsHandlers(path string) (ws.Handlers, bool) {
	s.wsMu.RLock()
	defer s.wsMu.RUnlock()
	h, ok := s.ws[path]
	return h, ok
}

func (s *srv) GetConfig() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetConfig validates cfg and, if valid, replaces both the
// configuration and the logger factory used by subsequent Start
// calls. It does not restart an already-running server; call Restart
// afterward to pick up the new configuration.
func (s *srv) SetConfig(cfg Config, defLog logger.FuncLog) liberr.Error {
	if e := cfg.Validate(); e != nil {
		return e
	}

	initMetrics()

	s.mu.Lock()
	s.cfg = cfg
	s.log = defLog
	s.mu.Unlock()

	if s.Runner == nil {
		s.Runner = startStop.New(s.acceptLoop, s.onStop)
	}

	return nil
}

func (s *srv) cfgName() string {
	return s.GetConfig().Name
}

func (s *srv) logOrDefault() logger.Logger {
	if f := s.logFunc(); f != nil {
		if l := f(); l != nil {
			return l
		}
	}
	return logger.New(context.Background())
}

func (s *srv) logFunc() logger.FuncLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log
}

func (s *srv) GetName() string     { return s.GetConfig().Name }
func (s *srv) GetBindable() string { return s.GetConfig().Listen }
func (s *srv) GetExpose() string   { return s.GetConfig().Expose }
func (s *srv) IsDisable() bool     { return s.GetConfig().Disabled }
func (s *srv) IsTLS() bool         { return s.GetConfig().isTLS() }

// acceptLoop is this Server's runner.Runner FuncStart: it blocks,
// accepting connections and spawning one goroutine per socket, until
// ctx is cancelled by Stop.
func (s *srv) acceptLoop(ctx context.Context) error {
	cfg := s.GetConfig()

	if cfg.Disabled {
		<-ctx.Done()
		return nil
	}

	ln, err := listenTCP(cfg.Listen, cfg.Backlog)
	if err != nil {
		return ErrorListenFailed.Error(err)
	}
	s.listener.Store(ln)
	defer func() {
		_ = ln.Close()
		s.listener.Store(nil)
	}()

	closed := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-closed:
		}
	}()
	defer close(closed)

	rl := newRateLimiter(cfg)

	for {
		conn, acceptErr := ln.Accept()
		if acceptErr != nil {
			if ctx.Err() != nil {
				return nil
			}
			return ErrorAcceptFailed.Error(acceptErr)
		}

		if s.activeCount() >= int64(cfg.MaxConnections) {
			s.rejectOverCapacity(conn, cfg)
			continue
		}

		host := hostOf(conn.RemoteAddr())
		if ok, retryAfter := rl.allow(host); !ok {
			s.metricRateLimited()
			s.rejectRateLimited(conn, retryAfter)
			continue
		}

		go s.handleConnection(ctx, conn)
	}
}

func (s *srv) onStop(ctx context.Context) error {
	cfg := s.GetConfig()
	deadline := time.Now().Add(cfg.ConnectionTimeout)

	for s.activeCount() > 0 && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(25 * time.Millisecond):
		}
	}
	return nil
}

func (s *srv) rejectOverCapacity(conn net.Conn, cfg Config) {
	if cfg.RejectWithRST {
		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.SetLinger(0)
		}
		_ = conn.Close()
		return
	}
	s.writeErrorResponse(conn, 503)
	_ = conn.Close()
}

// rejectRateLimited answers 429 carrying the seconds left in the
// offending client's current window, rounded up and never below 1.
func (s *srv) rejectRateLimited(conn net.Conn, retryAfter time.Duration) {
	secs := int((retryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}

	r := router.NewResponse(false)
	r.SetStatus(429)
	r.SetHeader("Retry-After", strconv.Itoa(secs))
	r.SetBody(nil)
	if out, err := r.Send(); err == nil {
		_, _ = conn.Write(out)
	}
	_ = conn.Close()
}

func hostOf(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
