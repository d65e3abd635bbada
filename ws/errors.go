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

package ws

import liberr "github.com/nabbar/uvhttp/errors"

const (
	ErrorProtocol liberr.CodeError = liberr.MinPkgWebsocket + iota
	ErrorFrameTooLarge
	ErrorMessageTooLarge
	ErrorUnmaskedClientFrame
	ErrorHandshakeBadKey
)

func init() {
	liberr.RegisterIdFctMessage(liberr.MinPkgWebsocket, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorProtocol:
		return "websocket protocol error"
	case ErrorFrameTooLarge:
		return "frame exceeds max_frame_size"
	case ErrorMessageTooLarge:
		return "fragmented message exceeds max_message_size"
	case ErrorUnmaskedClientFrame:
		return "client frame was not masked"
	case ErrorHandshakeBadKey:
		return "missing or invalid Sec-WebSocket-Key"
	default:
		return liberr.UnknownMessage
	}
}

// CloseCode is an RFC 6455 §7.4 close status code.
type CloseCode uint16

const (
	CloseNormal           CloseCode = 1000
	CloseGoingAway        CloseCode = 1001
	CloseProtocolError    CloseCode = 1002
	CloseUnsupportedData  CloseCode = 1003
	CloseMessageTooBig    CloseCode = 1009
	CloseInternalError    CloseCode = 1011
)
