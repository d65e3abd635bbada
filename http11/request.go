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

// Package http11 implements a streaming HTTP/1.1 request parser: one
// Parse call reads exactly one request off a connection, enforcing the
// configured size limits and keeping any over-read bytes for the next
// request on the same connection.
package http11

import "strings"

// Method is the recognized HTTP request method.
type Method uint8

const (
	MethodAny Method = iota
	MethodGet
	MethodPost
	MethodPut
	MethodDelete
	MethodHead
	MethodOptions
	MethodPatch
)

func ParseMethod(s string) Method {
	switch s {
	case "GET":
		return MethodGet
	case "POST":
		return MethodPost
	case "PUT":
		return MethodPut
	case "DELETE":
		return MethodDelete
	case "HEAD":
		return MethodHead
	case "OPTIONS":
		return MethodOptions
	case "PATCH":
		return MethodPatch
	default:
		return MethodAny
	}
}

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	case MethodPut:
		return "PUT"
	case MethodDelete:
		return "DELETE"
	case MethodHead:
		return "HEAD"
	case MethodOptions:
		return "OPTIONS"
	case MethodPatch:
		return "PATCH"
	default:
		return "ANY"
	}
}

// Header is one name/value pair, preserved in arrival order.
type Header struct {
	Name  string
	Value string
}

// Request is the result of a (possibly still in-progress) parse.
type Request struct {
	Method  Method
	RawURL  string
	Path    string
	Query   string
	Headers []Header
	Body    []byte

	Complete        bool
	KeepAlive       bool
	UpgradeWebsocket bool

	// UserData is an opaque slot for middleware/handler state, mirroring
	// the request's user_data field.
	UserData any
}

// HeaderValue returns the first value for name, case-insensitively, and
// whether it was present.
func (r *Request) HeaderValue(name string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// HeaderValues returns every value for name, case-insensitively, in
// arrival order.
func (r *Request) HeaderValues(name string) []string {
	var res []string
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			res = append(res, h.Value)
		}
	}
	return res
}

func (r *Request) reset() {
	r.Method = MethodAny
	r.RawURL = ""
	r.Path = ""
	r.Query = ""
	r.Headers = r.Headers[:0]
	r.Body = r.Body[:0]
	r.Complete = false
	r.KeepAlive = true
	r.UpgradeWebsocket = false
	r.UserData = nil
}
