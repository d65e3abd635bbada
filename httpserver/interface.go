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

// Package httpserver implements the request lifecycle engine: the
// per-connection state machine, acceptor and rate limiter that drive
// the router, middleware chain and WebSocket engine defined in the
// sibling http11/router/ws packages against one listen socket.
//
// A Server runs one goroutine per accepted connection; Start/Stop/
// Restart follow the runner.Runner contract every long-running
// component in this module shares.
package httpserver

import (
	"net"

	uvatm "github.com/nabbar/uvhttp/atomic"
	liberr "github.com/nabbar/uvhttp/errors"
	"github.com/nabbar/uvhttp/logger"
	"github.com/nabbar/uvhttp/router"
	"github.com/nabbar/uvhttp/runner"
	"github.com/nabbar/uvhttp/ws"
)

// Info exposes the read-only identity and status of a Server, the
// surface an external health-check poller or admin UI needs.
type Info interface {
	GetName() string
	GetBindable() string
	GetExpose() string
	IsDisable() bool
	IsTLS() bool
}

// Server binds one (host, port) to a router, middleware chain and
// optional set of WebSocket routes, and drives the accept loop through
// the runner.Runner lifecycle.
type Server interface {
	runner.Runner
	Info

	// Router returns the route table this server dispatches requests
	// against. Register routes before Start, or while running: Router
	// is safe for concurrent use.
	Router() *router.Router

	// Middleware returns the chain run before every route dispatch.
	Middleware() *router.Chain

	// HandleWebsocket registers handlers for path: a request whose
	// Upgrade header names "websocket" and whose path matches exactly
	// is handed to ws.NewConn instead of the router once the 101
	// response is written.
	HandleWebsocket(path string, h ws.Handlers)

	GetConfig() Config
	SetConfig(cfg Config, defLog logger.FuncLog) liberr.Error
}

// New validates cfg and returns a Server ready for Start. defLog is
// called for each accepted connection to obtain the Logger used for access and
// error logging; a nil defLog falls back to a background logger.New.
func New(cfg Config, defLog logger.FuncLog) (Server, error) {
	s := &srv{
		rt:       router.New(),
		mw:       router.NewChain(),
		ws:       make(map[string]ws.Handlers),
		listener: uvatm.NewValue[net.Listener](),
	}

	if e := s.SetConfig(cfg, defLog); e != nil {
		return nil, e
	}

	return s, nil
}
