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

// Package tlsadapter wraps a net.Conn with a TLS session built from a
// certificates.Config: handshake, peer certificate inspection, and
// hostname matching against SAN DNS entries with a CN fallback.
//
// Each connection owns a goroutine, so the handshake is a single
// blocking HandshakeContext call; ctx cancellation bounds it (the server
// passes its connection_timeout context).
package tlsadapter

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"strings"

	"github.com/nabbar/uvhttp/certificates"
	liberr "github.com/nabbar/uvhttp/errors"
)

// Adapter drives a TLS session over a net.Conn.
type Adapter struct {
	cfg  *certificates.Config
	tls  *tls.Config
	conn *tls.Conn
}

// New builds an Adapter from cfg. minVersion/maxVersion and cipher and
// curve lists set on cfg are honored verbatim; when cfg leaves them
// zero, certificates.New's TLS 1.2 floor / TLS 1.3 ceiling applies.
func New(cfg *certificates.Config) *Adapter {
	return &Adapter{cfg: cfg, tls: cfg.TlsConfig("")}
}

// Handshake wraps raw in a server-side TLS session and blocks until
// the handshake completes or ctx is done.
func (a *Adapter) Handshake(ctx context.Context, raw net.Conn) error {
	c := tls.Server(raw, a.tls)
	if err := c.HandshakeContext(ctx); err != nil {
		return ErrorHandshakeFailed.Error(err)
	}
	a.conn = c
	return nil
}

// Conn returns the underlying *tls.Conn once Handshake has succeeded.
func (a *Adapter) Conn() net.Conn {
	return a.conn
}

// PeerCertificate returns the leaf certificate the client presented,
// or ErrorNoPeerCertificate if client authentication was not enforced
// or the client presented nothing.
func (a *Adapter) PeerCertificate() (*x509.Certificate, liberr.Error) {
	if a.conn == nil {
		return nil, certificates.ErrorNoPeerCertificate.Error()
	}
	st := a.conn.ConnectionState()
	if len(st.PeerCertificates) == 0 {
		return nil, certificates.ErrorNoPeerCertificate.Error()
	}
	return st.PeerCertificates[0], nil
}

// VerifyHostname checks cert's SAN DNS names for an exact or
// leading-label wildcard ("*.example.com") match against name, falling
// back to the Subject CommonName when no SAN entries are present.
func VerifyHostname(cert *x509.Certificate, name string) bool {
	name = strings.ToLower(name)

	candidates := cert.DNSNames
	if len(candidates) == 0 && cert.Subject.CommonName != "" {
		candidates = []string{cert.Subject.CommonName}
	}

	for _, c := range candidates {
		c = strings.ToLower(c)
		if c == name {
			return true
		}
		if strings.HasPrefix(c, "*.") {
			suffix := c[1:] // ".example.com"
			if strings.HasSuffix(name, suffix) && !strings.Contains(strings.TrimSuffix(name, suffix), ".") {
				return true
			}
		}
	}
	return false
}
