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

// Package atomic provides a generic, type-safe wrapper around
// sync/atomic.Value so callers don't repeat the same interface{}
// assertion at every call site (the server's live listener slot).
package atomic

import "sync/atomic"

// Value is a generic, concurrency-safe container for a single value of
// type T.
type Value[T any] interface {
	Load() T
	Store(val T)
	Swap(new T) (old T)
	CompareAndSwap(old, new T) (swapped bool)
}

type val[T any] struct {
	av atomic.Value
}

// NewValue returns an empty Value[T]. Load returns the zero value of T
// until the first Store.
func NewValue[T any]() Value[T] {
	return &val[T]{}
}

type box[T any] struct {
	v T
}

func (o *val[T]) Load() T {
	if v, ok := o.av.Load().(box[T]); ok {
		return v.v
	}
	var zero T
	return zero
}

func (o *val[T]) Store(v T) {
	o.av.Store(box[T]{v: v})
}

func (o *val[T]) Swap(new T) T {
	old := o.av.Swap(box[T]{v: new})
	if b, ok := old.(box[T]); ok {
		return b.v
	}
	var zero T
	return zero
}

func (o *val[T]) CompareAndSwap(old, new T) bool {
	cur := o.av.Load()
	if cur == nil {
		var zero T
		if any(zero) == any(old) {
			return o.av.CompareAndSwap(nil, box[T]{v: new})
		}
		return false
	}
	if b, ok := cur.(box[T]); !ok || any(b.v) != any(old) {
		return false
	}
	return o.av.CompareAndSwap(cur, box[T]{v: new})
}
