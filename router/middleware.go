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

package router

import (
	"strings"
	"sync"

	"github.com/nabbar/uvhttp/http11"
)

// Decision is a middleware's verdict on whether the chain continues.
type Decision int

const (
	Continue Decision = iota
	Stop
)

// Priority is advisory metadata: the chain always runs in registration
// order, but a caller building its own ordering logic on top can read
// this back to decide where to insert a new middleware.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

// MiddlewareFunc inspects/mutates req and may write to resp. Returning
// Stop halts the chain; the middleware must have called resp.Send (or
// arranged for it to be sent later) before returning Stop.
type MiddlewareFunc func(req *http11.Request, resp *Response) Decision

type middleware struct {
	prefix   string // "" means apply to every path
	priority Priority
	fn       MiddlewareFunc
}

// Chain is an ordered list of middlewares run before router dispatch.
type Chain struct {
	mu    sync.RWMutex
	items []middleware
}

// NewChain returns an empty Chain.
func NewChain() *Chain {
	return &Chain{}
}

// Use appends a middleware that runs on every request.
func (c *Chain) Use(fn MiddlewareFunc) {
	c.UseWithPrefix("", PriorityNormal, fn)
}

// UseWithPrefix appends a middleware restricted to paths sharing
// prefix; an empty prefix matches every path.
func (c *Chain) UseWithPrefix(prefix string, priority Priority, fn MiddlewareFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, middleware{prefix: prefix, priority: priority, fn: fn})
}

// Run executes every middleware whose prefix matches req.Path, in
// registration order, stopping at the first Stop verdict. It reports
// whether the router should still be invoked.
func (c *Chain) Run(req *http11.Request, resp *Response) (routeNext bool) {
	c.mu.RLock()
	items := c.items
	c.mu.RUnlock()

	for _, m := range items {
		if m.prefix != "" && !strings.HasPrefix(req.Path, m.prefix) {
			continue
		}
		if m.fn(req, resp) == Stop {
			return false
		}
	}
	return true
}
