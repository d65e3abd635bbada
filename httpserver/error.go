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

package httpserver

import liberr "github.com/nabbar/uvhttp/errors"

const (
	ErrorConfigInvalid liberr.CodeError = liberr.MinPkgServer + iota
	ErrorConfigMissing
	ErrorListenFailed
	ErrorAlreadyRunning
	ErrorNotRunning
	ErrorAcceptFailed
	ErrorConnectionLimit
	ErrorRateLimited
	ErrorPortInUse
	ErrorTLSRequired
	ErrorAccessLogPath
)

const (
	ErrorPoolDuplicateName liberr.CodeError = liberr.MinPkgServerPool + iota
	ErrorPoolUnknownName
	ErrorPoolEmpty
)

func init() {
	liberr.RegisterIdFctMessage(liberr.MinPkgServer, getMessage)
	liberr.RegisterIdFctMessage(liberr.MinPkgServerPool, getPoolMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorConfigInvalid:
		return "server configuration failed validation"
	case ErrorConfigMissing:
		return "server configuration not set"
	case ErrorListenFailed:
		return "unable to open listen socket"
	case ErrorAlreadyRunning:
		return "server is already running"
	case ErrorNotRunning:
		return "server is not running"
	case ErrorAcceptFailed:
		return "accept loop terminated unexpectedly"
	case ErrorConnectionLimit:
		return "max_connections reached"
	case ErrorRateLimited:
		return "remote address exceeded rate_limit_window"
	case ErrorPortInUse:
		return "listen address already in use"
	case ErrorTLSRequired:
		return "TLS configuration required when enable_tls is set"
	case ErrorAccessLogPath:
		return "access log path rejected (absolute or traversal)"
	default:
		return liberr.UnknownMessage
	}
}

func getPoolMessage(code liberr.CodeError) string {
	switch code {
	case ErrorPoolDuplicateName:
		return "a server with this name is already registered in the pool"
	case ErrorPoolUnknownName:
		return "no server registered under this name"
	case ErrorPoolEmpty:
		return "pool has no registered server"
	default:
		return liberr.UnknownMessage
	}
}
