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

// Package router implements insertion-order, first-match HTTP routing:
// no tree, no regex, no path parameters — a route list walked in
// registration order, the way an embedded server with a handful of
// routes needs it to behave, with an optional exact-path hash index
// to skip the scan for the common case.
package router

import (
	"strings"
	"sync"

	"github.com/nabbar/uvhttp/http11"
)

// Handler answers one request.
type Handler func(req *http11.Request) *Response

// MethodMask is a bitset of http11.Method values; a route registered
// with MethodAny matches every method.
type MethodMask uint16

const (
	MethodGet MethodMask = 1 << iota
	MethodPost
	MethodPut
	MethodDelete
	MethodHead
	MethodOptions
	MethodPatch
	MethodAny MethodMask = 0xFFFF
)

func maskFor(m http11.Method) MethodMask {
	switch m {
	case http11.MethodGet:
		return MethodGet
	case http11.MethodPost:
		return MethodPost
	case http11.MethodPut:
		return MethodPut
	case http11.MethodDelete:
		return MethodDelete
	case http11.MethodHead:
		return MethodHead
	case http11.MethodOptions:
		return MethodOptions
	case http11.MethodPatch:
		return MethodPatch
	default:
		return MethodAny
	}
}

type route struct {
	path     string
	wildcard bool // path ends in "/*"; prefix is path without the suffix
	prefix   string
	mask     MethodMask
	handler  Handler
}

func (r route) matches(path string) bool {
	if r.wildcard {
		return strings.HasPrefix(path, r.prefix)
	}
	return path == r.path
}

// MatchInfo carries the outcome of a Match call. Route is nil when
// nothing matched.
type MatchInfo struct {
	Route *Handler
}

// Router is safe for concurrent use: AddRoute/AddRouteMethod take a
// write lock, Find/Match take a read lock.
type Router struct {
	mu     sync.RWMutex
	routes []route
	// index accelerates exact, single-method, non-wildcard routes.
	// It is consulted before the linear scan but a miss always falls
	// back to the scan, preserving first-registered-wins semantics
	// for anything the index can't represent. A route is only indexed
	// when no earlier route already matches the same path with an
	// overlapping method mask: that earlier route must win, so the
	// newer one may not be reachable through the index. Routes
	// registered later can never shadow an indexed one, so existing
	// entries stay valid.
	index map[indexKey]int
}

type indexKey struct {
	method http11.Method
	path   string
}

// New returns an empty Router.
func New() *Router {
	return &Router{index: make(map[indexKey]int)}
}

// AddRoute registers handler for path under every method.
func (rt *Router) AddRoute(path string, handler Handler) {
	rt.AddRouteMethod(path, MethodAny, handler)
}

// AddRouteMethod registers handler for path restricted to the methods
// set in mask. Registering the same (path, mask) twice keeps the
// first registration; the second call is silently ignored.
func (rt *Router) AddRouteMethod(path string, mask MethodMask, handler Handler) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	shadowed := false
	for _, r := range rt.routes {
		if r.path == path && r.mask == mask {
			return
		}
		if r.matches(path) && r.mask&mask != 0 {
			shadowed = true
		}
	}

	r := route{path: path, mask: mask, handler: handler}
	if strings.HasSuffix(path, "/*") {
		r.wildcard = true
		r.prefix = strings.TrimSuffix(path, "/*")
	}

	rt.routes = append(rt.routes, r)
	idx := len(rt.routes) - 1

	if !r.wildcard && !shadowed && isSingleMethod(mask) {
		key := indexKey{method: methodOf(mask), path: path}
		if _, exists := rt.index[key]; !exists {
			rt.index[key] = idx
		}
	}
}

func isSingleMethod(mask MethodMask) bool {
	return mask != MethodAny && mask&(mask-1) == 0
}

func methodOf(mask MethodMask) http11.Method {
	switch mask {
	case MethodGet:
		return http11.MethodGet
	case MethodPost:
		return http11.MethodPost
	case MethodPut:
		return http11.MethodPut
	case MethodDelete:
		return http11.MethodDelete
	case MethodHead:
		return http11.MethodHead
	case MethodOptions:
		return http11.MethodOptions
	case MethodPatch:
		return http11.MethodPatch
	default:
		return http11.MethodAny
	}
}

// Find scans routes in insertion order and returns the handler of the
// first whose path template matches path and whose method mask
// includes method, or nil.
func (rt *Router) Find(method http11.Method, path string) Handler {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	if idx, ok := rt.index[indexKey{method: method, path: path}]; ok {
		return rt.routes[idx].handler
	}

	m := maskFor(method)
	for _, r := range rt.routes {
		if r.mask&m == 0 {
			continue
		}
		if r.matches(path) {
			return r.handler
		}
	}
	return nil
}

// Match behaves like Find but returns a MatchInfo wrapper, leaving
// room for future parameter extraction without changing the
// Find signature.
func (rt *Router) Match(method http11.Method, path string) MatchInfo {
	if h := rt.Find(method, path); h != nil {
		return MatchInfo{Route: &h}
	}
	return MatchInfo{}
}
