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
	"bytes"
	"fmt"
	"sync"
)

// Response accumulates a handler's status/headers/body and serializes
// them once, on the first Send call; every later Send is a no-op that
// reports ErrAlreadySent.
type Response struct {
	mu sync.Mutex

	status  int
	headers []http11Header
	body    []byte
	sent    bool

	keepAlive bool
}

type http11Header struct {
	Name  string
	Value string
}

// ErrAlreadySent is returned by a Send call after the first.
var ErrAlreadySent = fmt.Errorf("response already sent")

// NewResponse returns a Response defaulting to 200 OK with keepAlive
// controlling the Connection header Send will add.
func NewResponse(keepAlive bool) *Response {
	return &Response{status: 200, keepAlive: keepAlive}
}

// SetStatus sets the status line code.
func (r *Response) SetStatus(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = code
}

// SetKeepAlive overrides the Connection header Send will emit. The
// connection state machine calls this after a handler returns, since
// only the FSM knows whether request_count has reached
// max_requests_per_connection or whether the client asked to close.
func (r *Response) SetKeepAlive(ka bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keepAlive = ka
}

// SetHeader appends a header; duplicate names are allowed and
// preserved in insertion order.
func (r *Response) SetHeader(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.headers = append(r.headers, http11Header{Name: name, Value: value})
}

// SetBody replaces any previously set body.
func (r *Response) SetBody(body []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.body = body
}

// CopyHeaders appends every header set on src, preserving order. The
// dispatcher uses it to carry headers a middleware set (e.g. CORS)
// onto the response the matched handler built.
func (r *Response) CopyHeaders(src *Response) {
	if src == nil || src == r {
		return
	}

	src.mu.Lock()
	hs := make([]http11Header, len(src.headers))
	copy(hs, src.headers)
	src.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.headers = append(r.headers, hs...)
}

// Sent reports whether Send has already serialized this response.
func (r *Response) Sent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent
}

// Status returns the status line code currently set.
func (r *Response) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// BodySize returns the length of the body currently set.
func (r *Response) BodySize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.body)
}

func (r *Response) hasHeader(name string) bool {
	for _, h := range r.headers {
		if eqFold(h.Name, name) {
			return true
		}
	}
	return false
}

func eqFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Send serializes the status line, headers, an auto-filled
// Content-Length and Connection header when absent, and the body into
// a single byte slice ready to write to the connection.
func (r *Response) Send() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sent {
		return nil, ErrAlreadySent
	}
	r.sent = true

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "HTTP/1.1 %d %s\r\n", r.status, ReasonPhrase(r.status))

	for _, h := range r.headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.Name, h.Value)
	}
	if !r.hasHeader("Content-Length") {
		fmt.Fprintf(&buf, "Content-Length: %d\r\n", len(r.body))
	}
	if !r.hasHeader("Connection") {
		if r.keepAlive {
			buf.WriteString("Connection: keep-alive\r\n")
		} else {
			buf.WriteString("Connection: close\r\n")
		}
	}

	buf.WriteString("\r\n")
	buf.Write(r.body)

	return buf.Bytes(), nil
}

var reasonPhrases = map[int]string{
	200: "OK", 201: "Created", 202: "Accepted", 204: "No Content",
	301: "Moved Permanently", 302: "Found", 304: "Not Modified",
	400: "Bad Request", 401: "Unauthorized", 403: "Forbidden", 404: "Not Found",
	405: "Method Not Allowed", 408: "Request Timeout", 409: "Conflict",
	413: "Request Entity Too Large", 414: "URI Too Long", 429: "Too Many Requests",
	500: "Internal Server Error", 501: "Not Implemented", 502: "Bad Gateway",
	503: "Service Unavailable",
}

// ReasonPhrase returns the IANA reason phrase for code, or an empty
// string for unrecognized statuses.
func ReasonPhrase(code int) string {
	return reasonPhrases[code]
}
