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

// Each package owns a contiguous block of 100 codes, except the server
// block, which is split into 700-719 for the server and 720-799 for
// the server pool. A bare numeric
// code can be mapped back to the raising package without a lookup
// table, the same convention this taxonomy has always used.
const (
	MinPkgBuffer       = 100
	MinPkgHttp11       = 200
	MinPkgWebsocket    = 300
	MinPkgCertificates = 400
	MinPkgTlsAdapter   = 500
	MinPkgRouter       = 600
	MinPkgServer       = 700
	MinPkgServerPool   = 720
	MinPkgConfig       = 800
	MinPkgLogger       = 900
	MinPkgRunner       = 1000
	MinPkgStatic       = 1100

	MinAvailable = 1200
)
