/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package startStop implements the simplest possible Runner: a pair of
// caller-provided start/stop functions driven by one background goroutine.
// It backs every pollable component in uvhttp (each Server's accept loop,
// every server registered in a Pool) so they all share the same
// Start/Stop/Restart/IsRunning/Uptime/Errors* surface.
package startStop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// FuncStart is run on a dedicated goroutine when Start is called. It must
// block until ctx is cancelled (by Stop, Restart or a subsequent Start;
// the ctx given to Start is not its parent) and return the terminal
// error, if any.
type FuncStart func(ctx context.Context) error

// FuncStop is invoked synchronously by Stop (or by Start replacing a prior
// instance) after the running FuncStart's context has been cancelled.
type FuncStop func(ctx context.Context) error

// StartStop is the Runner contract implemented by this package.
type StartStop interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
	IsRunning() bool
	Uptime() time.Duration
	ErrorsLast() error
	ErrorsList() []error
}

type runner struct {
	fnStart FuncStart
	fnStop  FuncStop

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	running atomic.Bool
	started atomic.Int64

	errMu sync.Mutex
	errs  []error
}

// New returns a StartStop driven by the given start/stop functions. Either
// may be nil; calling Start/Stop on a nil function records an error instead
// of panicking.
func New(start FuncStart, stop FuncStop) StartStop {
	return &runner{
		fnStart: start,
		fnStop:  stop,
	}
}

func (r *runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked(context.Background())
	r.resetErrors()

	cctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	r.cancel = cancel
	r.done = done
	r.running.Store(true)
	r.started.Store(time.Now().UnixNano())

	go func() {
		defer close(done)
		defer r.running.Store(false)

		if r.fnStart == nil {
			r.addError(errors.New("invalid start function"))
			return
		}

		if err := r.fnStart(cctx); err != nil {
			r.addError(err)
		}
	}()

	return nil
}

func (r *runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked(ctx)
	return nil
}

// stopLocked cancels the running instance (if any) and waits for its
// goroutine to return before invoking fnStop exactly once. Callers must
// hold r.mu.
func (r *runner) stopLocked(ctx context.Context) {
	cancel := r.cancel
	done := r.done

	r.cancel = nil
	r.done = nil

	if cancel == nil {
		return
	}

	cancel()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}

	if r.fnStop == nil {
		r.addError(errors.New("invalid stop function"))
		return
	}

	if err := r.fnStop(ctx); err != nil {
		r.addError(err)
	}
}

func (r *runner) Restart(ctx context.Context) error {
	r.mu.Lock()
	r.stopLocked(ctx)
	r.mu.Unlock()

	return r.Start(ctx)
}

func (r *runner) IsRunning() bool {
	return r.running.Load()
}

func (r *runner) Uptime() time.Duration {
	if !r.running.Load() {
		return 0
	}

	ns := r.started.Load()
	if ns == 0 {
		return 0
	}

	return time.Since(time.Unix(0, ns))
}

func (r *runner) resetErrors() {
	r.errMu.Lock()
	r.errs = nil
	r.errMu.Unlock()
}

func (r *runner) addError(err error) {
	r.errMu.Lock()
	r.errs = append(r.errs, err)
	r.errMu.Unlock()
}

func (r *runner) ErrorsLast() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()

	if len(r.errs) == 0 {
		return nil
	}

	return r.errs[len(r.errs)-1]
}

func (r *runner) ErrorsList() []error {
	r.errMu.Lock()
	defer r.errMu.Unlock()

	out := make([]error, len(r.errs))
	copy(out, r.errs)

	return out
}
