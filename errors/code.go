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

package errors

import (
	"math"
	"sort"
	"strconv"
)

// Category names the kinds of failure, independent of which package
// raised them. CodeError ranges are assigned per package (see
// modules.go); no function maps a CodeError to a Category.
type Category uint8

const (
	CategoryInvalidParam Category = iota
	CategoryProtocolHTTP
	CategoryProtocolWS
	CategoryLimit
	CategoryTLSConfig
	CategoryTLSHandshake
	CategoryTLSIO
	CategoryNetwork
	CategoryTimeout
	CategoryInternal
	CategoryNotFound
	CategoryOutOfMemory
)

// CodeError is a numeric error classification, one contiguous block
// per package (see modules.go).
type CodeError uint16

const (
	UnknownError   CodeError = 0
	UnknownMessage           = "unknown error"
	NullMessage              = ""
)

// Message generates the human-readable text for a CodeError.
type Message func(code CodeError) string

var idMsgFct = make(map[CodeError]Message)

// RegisterIdFctMessage binds every code in a package's range, starting
// at minCode, to the given message function. Each package calls this
// once from an init().
func RegisterIdFctMessage(minCode CodeError, fct Message) {
	idMsgFct[minCode] = fct
	reorder()
}

// ExistInMapMessage reports whether a code is already registered with
// a non-empty message.
func ExistInMapMessage(code CodeError) bool {
	f, ok := idMsgFct[findRange(code)]
	return ok && f(code) != NullMessage
}

func reorder() {
	keys := make([]int, 0, len(idMsgFct))
	for k := range idMsgFct {
		keys = append(keys, int(k))
	}
	sort.Ints(keys)

	res := make(map[CodeError]Message, len(idMsgFct))
	for _, k := range keys {
		res[CodeError(k)] = idMsgFct[CodeError(k)]
	}
	idMsgFct = res
}

func findRange(code CodeError) CodeError {
	var res CodeError
	for k := range idMsgFct {
		if k <= code && k > res {
			res = k
		}
	}
	return res
}

func (c CodeError) Uint16() uint16 { return uint16(c) }
func (c CodeError) Int() int       { return int(c) }
func (c CodeError) String() string { return strconv.Itoa(c.Int()) }

// Message returns the registered text for this code, or UnknownMessage.
func (c CodeError) Message() string {
	if c == UnknownError {
		return UnknownMessage
	}
	if f, ok := idMsgFct[findRange(c)]; ok {
		if m := f(c); m != NullMessage {
			return m
		}
	}
	return UnknownMessage
}

// Error builds a new Error value for this code, optionally chaining parents.
func (c CodeError) Error(parent ...error) Error {
	return New(c, c.Message(), parent...)
}

// ParseCodeError clamps an arbitrary int64 into the CodeError range.
func ParseCodeError(i int64) CodeError {
	switch {
	case i < 0:
		return UnknownError
	case i >= int64(math.MaxUint16):
		return math.MaxUint16
	default:
		return CodeError(i)
	}
}
