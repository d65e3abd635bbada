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

import liberr "github.com/nabbar/uvhttp/errors"

const (
	ErrorMalformedRequestLine liberr.CodeError = liberr.MinPkgHttp11 + iota
	ErrorURITooLong
	ErrorHeaderTooLarge
	ErrorTooManyHeaders
	ErrorBareLineTerminator
	ErrorDuplicateContentLength
	ErrorConflictingLengthHeaders
	ErrorDuplicateHost
	ErrorBodyTooLarge
	ErrorChunkedDecode
	ErrorControlCharInHeader
	ErrorConnectionClosed
	ErrorReadTimeout
)

func init() {
	liberr.RegisterIdFctMessage(liberr.MinPkgHttp11, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorMalformedRequestLine:
		return "malformed request line"
	case ErrorURITooLong:
		return "request URI exceeds max_url_size"
	case ErrorHeaderTooLarge:
		return "header value exceeds max_header_size"
	case ErrorTooManyHeaders:
		return "request exceeds the configured header count limit"
	case ErrorBareLineTerminator:
		return "line terminated by a bare CR or LF"
	case ErrorDuplicateContentLength:
		return "duplicate Content-Length header with conflicting values"
	case ErrorConflictingLengthHeaders:
		return "request carries both Content-Length and Transfer-Encoding"
	case ErrorDuplicateHost:
		return "duplicate Host header"
	case ErrorBodyTooLarge:
		return "request body exceeds max_body_size"
	case ErrorChunkedDecode:
		return "invalid chunked transfer encoding"
	case ErrorControlCharInHeader:
		return "control character in header name or value"
	case ErrorConnectionClosed:
		return "peer closed the connection"
	case ErrorReadTimeout:
		return "read deadline exceeded"
	default:
		return liberr.UnknownMessage
	}
}
