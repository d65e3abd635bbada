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
	"sync"

	liberr "github.com/nabbar/uvhttp/errors"
	"github.com/nabbar/uvhttp/logger"
)

// Pool runs several named Servers as one managed unit: an embedder
// that wants an HTTP server and a WebSocket-only server side by side,
// sharing nothing but the process, registers both here instead of
// juggling their lifecycles individually.
type Pool struct {
	mu  sync.RWMutex
	srv map[string]Server
}

// NewPool returns an empty Pool.
func NewPool() *Pool {
	return &Pool{srv: make(map[string]Server)}
}

// Add registers srv under cfg.Name, building it via New. Registering a
// second server under a name already present is rejected.
func (p *Pool) Add(cfg Config, defLog logger.FuncLog) (Server, liberr.Error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.srv[cfg.Name]; exists {
		return nil, ErrorPoolDuplicateName.Error()
	}

	s, err := New(cfg, defLog)
	if err != nil {
		if le, ok := err.(liberr.Error); ok {
			return nil, le
		}
		return nil, ErrorConfigInvalid.Error(err)
	}

	p.srv[cfg.Name] = s
	return s, nil
}

// Remove stops (best-effort) and drops the server registered as name.
func (p *Pool) Remove(ctx context.Context, name string) liberr.Error {
	p.mu.Lock()
	s, ok := p.srv[name]
	delete(p.srv, name)
	p.mu.Unlock()

	if !ok {
		return ErrorPoolUnknownName.Error()
	}
	if s.IsRunning() {
		_ = s.Stop(ctx)
	}
	return nil
}

// Get returns the server registered as name, or nil.
func (p *Pool) Get(name string) Server {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.srv[name]
}

// Names returns every registered server name.
func (p *Pool) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, 0, len(p.srv))
	for n := range p.srv {
		out = append(out, n)
	}
	return out
}

// StartAll starts every non-disabled registered server, collecting the
// first error encountered from each rather than stopping at the first.
func (p *Pool) StartAll(ctx context.Context) []error {
	p.mu.RLock()
	servers := make([]Server, 0, len(p.srv))
	for _, s := range p.srv {
		servers = append(servers, s)
	}
	p.mu.RUnlock()

	if len(servers) == 0 {
		return []error{ErrorPoolEmpty.Error()}
	}

	var errs []error
	for _, s := range servers {
		if s.IsDisable() {
			continue
		}
		if e := s.Start(ctx); e != nil {
			errs = append(errs, e)
		}
	}
	return errs
}

// StopAll stops every registered server, collecting errors the same
// way StartAll does.
func (p *Pool) StopAll(ctx context.Context) []error {
	p.mu.RLock()
	servers := make([]Server, 0, len(p.srv))
	for _, s := range p.srv {
		servers = append(servers, s)
	}
	p.mu.RUnlock()

	var errs []error
	for _, s := range servers {
		if e := s.Stop(ctx); e != nil {
			errs = append(errs, e)
		}
	}
	return errs
}

// Infos returns the Info surface of every registered server, keyed by
// name, for an external health-check poller.
func (p *Pool) Infos() map[string]Info {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]Info, len(p.srv))
	for n, s := range p.srv {
		out[n] = s
	}
	return out
}
