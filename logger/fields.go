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

package logger

import (
	"context"

	"github.com/sirupsen/logrus"

	libctx "github.com/nabbar/uvhttp/context"
)

// Fields carries the custom key/value information attached to log
// entries. The zero value is not usable; call NewFields.
type Fields interface {
	Add(key string, val interface{}) Fields
	Merge(other Fields) Fields
	Clean(keys ...string) Fields
	Map() map[string]interface{}
	Logrus() logrus.Fields
	Clone() Fields
}

type flds struct {
	c libctx.Config[string]
}

// NewFields returns an empty Fields store bound to ctx; once ctx is
// done the store empties itself.
func NewFields(ctx context.Context) Fields {
	if ctx == nil {
		ctx = context.Background()
	}
	return &flds{
		c: libctx.New[string](func() context.Context { return ctx }),
	}
}

func (f *flds) Add(key string, val interface{}) Fields {
	f.c.Store(key, val)
	return f
}

func (f *flds) Merge(other Fields) Fields {
	if other == nil {
		return f
	}
	for k, v := range other.Map() {
		f.c.Store(k, v)
	}
	return f
}

func (f *flds) Clean(keys ...string) Fields {
	if len(keys) == 0 {
		f.c.Clean()
		return f
	}
	for _, k := range keys {
		f.c.Delete(k)
	}
	return f
}

func (f *flds) Map() map[string]interface{} {
	res := make(map[string]interface{})
	f.c.Walk(func(key string, val interface{}) bool {
		res[key] = val
		return true
	})
	return res
}

func (f *flds) Logrus() logrus.Fields {
	return f.Map()
}

func (f *flds) Clone() Fields {
	n := &flds{c: f.c.Clone(nil)}
	return n
}
