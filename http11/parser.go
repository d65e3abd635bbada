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

package http11

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/nabbar/uvhttp/buffer"
	liberr "github.com/nabbar/uvhttp/errors"
)

// Limits bounds the resources a single parse may consume, sourced from
// the server's config component.
type Limits struct {
	MaxRequestLineSize int
	MaxURILength       int
	MaxHeaderSize      int
	MaxHeaders         int
	MaxBodySize        int
}

// DefaultLimits carries the same URI, header and body bounds as a
// server's default configuration. Its request-line bound (8192) is
// larger than the one a server derives from max_url_size.
func DefaultLimits() Limits {
	return Limits{
		MaxRequestLineSize: 8192,
		MaxURILength:       2048,
		MaxHeaderSize:      4096,
		MaxHeaders:         64,
		MaxBodySize:        1 << 20,
	}
}

// Parser drives one request parse at a time over a connection's
// io.Reader. It keeps any bytes read past the current message (HTTP
// pipelining) so the next Parse call picks up where this one left off.
type Parser struct {
	limits    Limits
	unreadBuf []byte
}

func NewParser(limits Limits) *Parser {
	return &Parser{limits: limits}
}

var requestPool = sync.Pool{
	New: func() any { return &Request{} },
}

func GetRequest() *Request {
	return requestPool.Get().(*Request)
}

func PutRequest(r *Request) {
	r.reset()
	requestPool.Put(r)
}

// reader wraps an io.Reader so unreadBuf bytes are replayed first,
// without the caller needing to know about pipelining.
type prefixedReader struct {
	prefix []byte
	r      io.Reader
}

func (p *prefixedReader) Read(b []byte) (int, error) {
	if len(p.prefix) > 0 {
		n := copy(b, p.prefix)
		p.prefix = p.prefix[n:]
		return n, nil
	}
	return p.r.Read(b)
}

// Parse reads one HTTP/1.1 request from r, applying all configured
// limits and request-smuggling defenses. On success req.Complete is
// true and the body has been fully read (ordinary or chunked).
func (p *Parser) Parse(r io.Reader) (*Request, error) {
	src := r
	if len(p.unreadBuf) > 0 {
		src = &prefixedReader{prefix: p.unreadBuf, r: r}
		p.unreadBuf = nil
	}

	head, leftover, err := readUntilHeadersEnd(src, p.limits)
	if err != nil {
		return nil, err
	}

	req := GetRequest()
	req.KeepAlive = true

	lineEnd := bytes.IndexByte(head, '\n')
	if lineEnd < 0 {
		PutRequest(req)
		return nil, ErrorMalformedRequestLine.Error()
	}

	if err = p.parseRequestLine(req, head[:lineEnd+1]); err != nil {
		PutRequest(req)
		return nil, err
	}

	hasCL, hasTE, clValue, err := p.parseHeaders(req, head[lineEnd+1:])
	if err != nil {
		PutRequest(req)
		return nil, err
	}

	if hasCL && hasTE {
		PutRequest(req)
		return nil, ErrorConflictingLengthHeaders.Error()
	}

	lr := bytes.NewReader(leftover)
	bodyReader := io.MultiReader(lr, src)

	if hasTE {
		rest, cErr := p.readChunked(req, bodyReader)
		if cErr != nil {
			PutRequest(req)
			return nil, cErr
		}
		p.unreadBuf = rest
	} else if hasCL {
		if clValue > p.limits.MaxBodySize {
			PutRequest(req)
			return nil, ErrorBodyTooLarge.Error()
		}
		if err = p.readFixed(req, bodyReader, clValue); err != nil {
			PutRequest(req)
			return nil, err
		}
	}

	// Whatever survived of the over-read belongs to the next request.
	if n := lr.Len(); n > 0 {
		p.unreadBuf = append(p.unreadBuf, leftover[len(leftover)-n:]...)
	}

	req.Complete = true
	return req, nil
}

func (p *Parser) parseRequestLine(req *Request, line []byte) error {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))

	if bytes.ContainsAny(line, "\r\n") {
		return ErrorBareLineTerminator.Error()
	}
	if p.limits.MaxRequestLineSize > 0 && len(line) > p.limits.MaxRequestLineSize {
		return ErrorMalformedRequestLine.Error()
	}

	parts := bytes.SplitN(line, []byte(" "), 3)
	if len(parts) != 3 {
		return ErrorMalformedRequestLine.Error()
	}

	uri := string(parts[1])
	if p.limits.MaxURILength > 0 && len(uri) > p.limits.MaxURILength {
		return ErrorURITooLong.Error()
	}
	if uri == "" || (uri[0] != '/' && uri != "*") {
		return ErrorMalformedRequestLine.Error()
	}
	if string(parts[2]) != "HTTP/1.1" && string(parts[2]) != "HTTP/1.0" {
		return ErrorMalformedRequestLine.Error()
	}

	req.Method = ParseMethod(string(parts[0]))
	req.RawURL = uri
	if idx := strings.IndexByte(uri, '?'); idx >= 0 {
		req.Path = uri[:idx]
		req.Query = uri[idx+1:]
	} else {
		req.Path = uri
	}
	return nil
}

func (p *Parser) parseHeaders(req *Request, block []byte) (hasCL, hasTE bool, clValue int, err error) {
	lines := bytes.Split(block, []byte("\n"))
	hasHost := false

	for _, raw := range lines {
		if len(raw) > 0 && raw[len(raw)-1] != '\r' {
			// a bare LF terminated this line
			return false, false, 0, ErrorBareLineTerminator.Error()
		}
		line := bytes.TrimSuffix(raw, []byte("\r"))
		if len(line) == 0 {
			continue
		}
		if bytes.IndexByte(line, '\r') >= 0 {
			return false, false, 0, ErrorBareLineTerminator.Error()
		}
		if line[0] == ' ' || line[0] == '\t' {
			// header-continuation line: fold into the previous value, up
			// to the value-size limit, otherwise silently truncated.
			if len(req.Headers) == 0 {
				continue
			}
			last := &req.Headers[len(req.Headers)-1]
			cont := strings.TrimSpace(string(line))
			if p.limits.MaxHeaderSize > 0 && len(last.Value)+1+len(cont) > p.limits.MaxHeaderSize {
				continue
			}
			last.Value = last.Value + " " + cont
			continue
		}

		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return false, false, 0, ErrorMalformedRequestLine.Error()
		}
		name := string(line[:colon])
		if strings.ContainsAny(name, " \t") {
			return false, false, 0, ErrorControlCharInHeader.Error()
		}
		value := strings.TrimSpace(string(line[colon+1:]))

		if p.limits.MaxHeaderSize > 0 && len(value) > p.limits.MaxHeaderSize {
			return false, false, 0, ErrorHeaderTooLarge.Error()
		}
		if p.limits.MaxHeaders > 0 && len(req.Headers) >= p.limits.MaxHeaders {
			return false, false, 0, ErrorTooManyHeaders.Error()
		}

		req.Headers = append(req.Headers, Header{Name: name, Value: value})

		switch {
		case strings.EqualFold(name, "Host"):
			if hasHost {
				return false, false, 0, ErrorDuplicateHost.Error()
			}
			hasHost = true
		case strings.EqualFold(name, "Content-Length"):
			n, convErr := strconv.Atoi(value)
			if convErr != nil || n < 0 {
				return false, false, 0, ErrorMalformedRequestLine.Error()
			}
			if hasCL && n != clValue {
				return false, false, 0, ErrorDuplicateContentLength.Error()
			}
			hasCL = true
			clValue = n
		case strings.EqualFold(name, "Transfer-Encoding"):
			if strings.EqualFold(strings.TrimSpace(value), "chunked") {
				hasTE = true
			}
		case strings.EqualFold(name, "Connection"):
			if strings.EqualFold(value, "close") {
				req.KeepAlive = false
			}
		case strings.EqualFold(name, "Upgrade"):
			if strings.EqualFold(value, "websocket") {
				req.UpgradeWebsocket = true
			}
		}
	}

	return hasCL, hasTE, clValue, nil
}

// wrapReadError classifies an I/O failure so the connection state
// machine can tell a peer disconnect or an expired deadline from a
// protocol violation. partial reports whether part of a message had
// already been read: a disconnect mid-message leaves an unfinishable
// request and is a framing error, a disconnect between messages is
// just the peer going away.
func wrapReadError(err error, partial bool) liberr.Error {
	var ne net.Error
	switch {
	case errors.As(err, &ne) && ne.Timeout():
		return ErrorReadTimeout.Error(err)
	case !partial:
		return ErrorConnectionClosed.Error(err)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return ErrorMalformedRequestLine.Error(err)
	default:
		return ErrorConnectionClosed.Error(err)
	}
}

func (p *Parser) readFixed(req *Request, r io.Reader, length int) error {
	if length == 0 {
		return nil
	}
	if p.limits.MaxBodySize > 0 && length > p.limits.MaxBodySize {
		return ErrorBodyTooLarge.Error()
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return wrapReadError(err, true)
	}
	req.Body = body
	return nil
}

// readChunked decodes RFC 7230 §4.1 chunked transfer-encoding directly
// into the body buffer; trailers (if any) are read and discarded. The
// returned rest holds bytes read past the terminator, the start of a
// pipelined next request.
func (p *Parser) readChunked(req *Request, r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	buf := buffer.New(4096, p.limits.MaxBodySize)

	// an expired deadline mid-body is a timeout, not bad framing
	ioErr := func(err error) liberr.Error {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return ErrorReadTimeout.Error(err)
		}
		return ErrorChunkedDecode.Error(err)
	}

	for {
		sizeLine, err := br.ReadString('\n')
		if err != nil {
			return nil, ioErr(err)
		}
		sizeLine = strings.TrimSpace(sizeLine)
		if idx := strings.IndexByte(sizeLine, ';'); idx >= 0 {
			sizeLine = sizeLine[:idx]
		}
		size, convErr := strconv.ParseInt(sizeLine, 16, 64)
		if convErr != nil || size < 0 {
			return nil, ErrorChunkedDecode.Error(convErr)
		}
		if size == 0 {
			break
		}
		if p.limits.MaxBodySize > 0 && buf.Len()+int(size) > p.limits.MaxBodySize {
			return nil, ErrorBodyTooLarge.Error()
		}

		chunk := make([]byte, size)
		if _, err = io.ReadFull(br, chunk); err != nil {
			return nil, ioErr(err)
		}
		if err = buf.Append(chunk); err != nil {
			return nil, ErrorBodyTooLarge.Error()
		}
		if _, err = br.Discard(2); err != nil { // trailing CRLF after chunk data
			return nil, ioErr(err)
		}
	}

	// drain any trailer headers up to the final blank line
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, ioErr(err)
		}
		if strings.TrimSpace(line) == "" {
			break
		}
	}

	req.Body = buf.Bytes()

	var rest []byte
	if n := br.Buffered(); n > 0 {
		peek, _ := br.Peek(n)
		rest = append([]byte(nil), peek...)
	}
	return rest, nil
}

// readUntilHeadersEnd scans src for the blank line that ends the
// header block, enforcing the request-line + header-block size
// ceiling, and returns any bytes read past the terminator (the start
// of the body, or of a pipelined next request).
func readUntilHeadersEnd(src io.Reader, limits Limits) (head, leftover []byte, err error) {
	ceiling := limits.MaxRequestLineSize + limits.MaxHeaders*(limits.MaxHeaderSize+64)
	acc := make([]byte, 0, 1024)
	scratch := buffer.Get()
	defer buffer.Put(scratch)

	for {
		if idx := bytes.Index(acc, []byte("\r\n\r\n")); idx >= 0 {
			return acc[:idx+4], acc[idx+4:], nil
		}
		if ceiling > 0 && len(acc) > ceiling {
			return nil, nil, ErrorHeaderTooLarge.Error()
		}

		n, readErr := src.Read(scratch)
		if n > 0 {
			acc = append(acc, scratch[:n]...)
		}
		if readErr != nil {
			if readErr == io.EOF && bytes.Contains(acc, []byte("\r\n\r\n")) {
				continue
			}
			return nil, nil, wrapReadError(readErr, len(acc) > 0)
		}
	}
}

