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

import (
	"crypto/sha1" //nolint:gosec // required by RFC 6455, not used for confidentiality
	"crypto/subtle"
	"encoding/base64"
)

// GUID is the magic string RFC 6455 §1.3 appends to the client key.
const GUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// GenerateAccept derives the Sec-WebSocket-Accept header value from a
// client's Sec-WebSocket-Key.
func GenerateAccept(clientKey string) string {
	sum := sha1.Sum([]byte(clientKey + GUID)) //nolint:gosec
	return base64.StdEncoding.EncodeToString(sum[:])
}

// VerifyAccept recomputes the expected accept value and compares it to
// got in constant time.
func VerifyAccept(clientKey, got string) bool {
	want := GenerateAccept(clientKey)
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
