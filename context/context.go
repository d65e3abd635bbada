/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
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

// Package context wraps a context.Context with a concurrent key/value
// store keyed by a comparable type parameter, the pattern the logger
// package uses to keep its structured Fields alongside the context a
// Logger was built with.
package context

import (
	"context"
	"sync"
)

// FuncContext lazily produces the parent context.Context; nil is
// treated as context.Background.
type FuncContext func() context.Context

// FuncWalk is called once per stored entry by Walk; returning false
// stops the iteration early.
type FuncWalk[T comparable] func(key T, val interface{}) bool

// Config pairs a context.Context with a concurrent map keyed by T.
// Calling Load or Store after the underlying context is done clears the
// map, and Load then reports every key as absent.
type Config[T comparable] interface {
	context.Context

	GetContext() context.Context
	SetContext(ctx FuncContext)

	Load(key T) (val interface{}, ok bool)
	Store(key T, val interface{})
	Delete(key T)
	Clean()
	Walk(fct FuncWalk[T]) bool

	Clone(ctx context.Context) Config[T]
	Merge(cfg Config[T]) bool
}

type cfg[T comparable] struct {
	context.Context

	mu sync.RWMutex
	m  sync.Map
	fn FuncContext
}

// New returns a Config[T] rooted at fn() (context.Background if fn is
// nil).
func New[T comparable](fn FuncContext) Config[T] {
	if fn == nil {
		fn = context.Background
	}

	return &cfg[T]{
		Context: fn(),
		fn:      fn,
	}
}

func (c *cfg[T]) GetContext() context.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Context
}

func (c *cfg[T]) SetContext(fn FuncContext) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if fn == nil {
		fn = context.Background
	}

	c.Context = fn()
	c.fn = fn
}

func (c *cfg[T]) Clean() {
	c.m.Range(func(key, _ any) bool {
		c.m.Delete(key)
		return true
	})
}

func (c *cfg[T]) Load(key T) (interface{}, bool) {
	if c.Err() != nil {
		c.Clean()
		return nil, false
	}
	return c.m.Load(key)
}

func (c *cfg[T]) Store(key T, val interface{}) {
	if c.Err() != nil {
		c.Clean()
		return
	}
	if val == nil {
		c.m.Delete(key)
		return
	}
	c.m.Store(key, val)
}

func (c *cfg[T]) Delete(key T) {
	c.m.Delete(key)
}

func (c *cfg[T]) Walk(fct FuncWalk[T]) bool {
	ok := true
	c.m.Range(func(key, val any) bool {
		k, valid := key.(T)
		if !valid {
			return true
		}
		if !fct(k, val) {
			ok = false
			return false
		}
		return true
	})
	return ok
}

func (c *cfg[T]) Clone(ctx context.Context) Config[T] {
	if ctx == nil {
		ctx = c.GetContext()
	}

	n := &cfg[T]{Context: ctx, fn: func() context.Context { return ctx }}
	c.m.Range(func(key, val any) bool {
		n.m.Store(key, val)
		return true
	})
	return n
}

func (c *cfg[T]) Merge(o Config[T]) bool {
	if o == nil {
		return false
	}

	other, ok := o.(*cfg[T])
	if !ok || other == c {
		return false
	}

	other.m.Range(func(key, val any) bool {
		c.m.Store(key, val)
		return true
	})
	return true
}
