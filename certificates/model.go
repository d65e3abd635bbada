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

// Package certificates builds crypto/tls configurations from PEM
// certificate pairs and root/client CA bundles: file or string based,
// with server-name-specific SNI lookup for virtual hosting.
package certificates

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"os"
	"strings"
	"sync"

	liberr "github.com/nabbar/uvhttp/errors"
)

// Config collects the certificate material and TLS parameters for one
// listener. A Config may serve several hostnames: AddCertificatePair*
// can be called more than once and crypto/tls picks the matching pair
// from tls.Config.Certificates by SNI.
type Config struct {
	mu sync.RWMutex

	cert       []tls.Certificate
	cipherList []uint16
	curveList  []tls.CurveID
	caRoot     *x509.CertPool
	clientAuth tls.ClientAuthType
	clientCA   *x509.CertPool

	versionMin uint16
	versionMax uint16

	dynSizingDisabled     bool
	ticketSessionDisabled bool
}

// New returns an empty Config: TLS 1.2 as the floor, TLS 1.3 as the
// ceiling, no client certificate requirement.
func New() *Config {
	return &Config{
		versionMin: tls.VersionTLS12,
		versionMax: tls.VersionTLS13,
		clientAuth: tls.NoClientCert,
	}
}

func checkFile(pemFile string) liberr.Error {
	if pemFile == "" {
		return ErrorParamsEmpty.Error()
	}

	if _, e := os.Stat(pemFile); e != nil {
		return ErrorFileStat.Error(e)
	}

	/* #nosec */
	b, e := os.ReadFile(pemFile)
	if e != nil {
		return ErrorFileRead.Error(e)
	}

	b = bytes.TrimSpace(b)
	if len(b) < 1 {
		return ErrorFileEmpty.Error()
	}

	return nil
}

// AddRootCAString appends a PEM encoded root CA used to verify the
// remote peer (relevant for outbound connections made by this
// library's own HTTP client helpers).
func (c *Config) AddRootCAString(rootCA string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.caRoot == nil {
		c.caRoot = x509.NewCertPool()
	}
	if rootCA == "" {
		return false
	}
	return c.caRoot.AppendCertsFromPEM([]byte(rootCA))
}

// AddRootCAFile reads pemFile and appends its contents to the root CA
// pool.
func (c *Config) AddRootCAFile(pemFile string) liberr.Error {
	if e := checkFile(pemFile); e != nil {
		return e
	}

	/* #nosec */
	b, _ := os.ReadFile(pemFile)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.caRoot == nil {
		c.caRoot = x509.NewCertPool()
	}
	if !c.caRoot.AppendCertsFromPEM(b) {
		return ErrorCertAppend.Error()
	}
	return nil
}

// AddClientCAString appends a PEM encoded CA used to verify client
// certificates when SetClientAuth requires one.
func (c *Config) AddClientCAString(ca string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.clientCA == nil {
		c.clientCA = x509.NewCertPool()
	}
	if ca == "" {
		return false
	}
	return c.clientCA.AppendCertsFromPEM([]byte(ca))
}

// AddClientCAFile reads pemFile and appends its contents to the client
// CA pool.
func (c *Config) AddClientCAFile(pemFile string) liberr.Error {
	if e := checkFile(pemFile); e != nil {
		return e
	}

	/* #nosec */
	b, _ := os.ReadFile(pemFile)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.clientCA == nil {
		c.clientCA = x509.NewCertPool()
	}
	if !c.clientCA.AppendCertsFromPEM(b) {
		return ErrorCertAppend.Error()
	}
	return nil
}

// SetClientAuth sets the client certificate requirement, e.g.
// tls.RequireAndVerifyClientCert for mutual TLS.
func (c *Config) SetClientAuth(a tls.ClientAuthType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clientAuth = a
}

// AddCertificatePairString parses a PEM encoded key and certificate
// and adds the resulting pair to the Config.
func (c *Config) AddCertificatePairString(key, crt string) liberr.Error {
	key = strings.TrimSpace(key)
	crt = strings.TrimSpace(crt)

	if len(key) < 1 || len(crt) < 1 {
		return ErrorParamsEmpty.Error()
	}

	p, err := tls.X509KeyPair([]byte(crt), []byte(key))
	if err != nil {
		return ErrorCertKeyPairParse.Error(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cert = append(c.cert, p)
	return nil
}

// AddCertificatePairFile loads a certificate pair from a key file and
// a certificate file.
func (c *Config) AddCertificatePairFile(keyFile, crtFile string) liberr.Error {
	if e := checkFile(keyFile); e != nil {
		return e
	}
	if e := checkFile(crtFile); e != nil {
		return e
	}

	p, e := tls.LoadX509KeyPair(crtFile, keyFile)
	if e != nil {
		return ErrorCertKeyPairLoad.Error(e)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cert = append(c.cert, p)
	return nil
}

// LenCertificatePair returns the number of loaded certificate pairs.
func (c *Config) LenCertificatePair() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cert)
}

// SetVersionMin sets the floor TLS version, e.g. tls.VersionTLS12.
func (c *Config) SetVersionMin(v uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versionMin = v
}

// SetVersionMax sets the ceiling TLS version, e.g. tls.VersionTLS13.
func (c *Config) SetVersionMax(v uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versionMax = v
}

// SetCipherList restricts TLS 1.2 cipher suite negotiation. Ignored
// under TLS 1.3, whose suites are fixed by the runtime.
func (c *Config) SetCipherList(suites []uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cipherList = suites
}

// SetCurveList restricts ECDHE curve preference order.
func (c *Config) SetCurveList(curves []tls.CurveID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.curveList = curves
}

// SetDynamicSizingDisabled disables TLS record-size auto-tuning.
func (c *Config) SetDynamicSizingDisabled(flag bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dynSizingDisabled = flag
}

// SetSessionTicketDisabled disables TLS session resumption tickets.
func (c *Config) SetSessionTicketDisabled(flag bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticketSessionDisabled = flag
}

// TlsConfig builds a *tls.Config snapshot of the current settings.
// serverName, when non-empty, is set as the outbound ServerName for
// client-role use; inbound SNI selection is left to crypto/tls, which
// chooses among the Certificates list.
func (c *Config) TlsConfig(serverName string) *tls.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cnf := &tls.Config{
		MinVersion: c.versionMin,
		MaxVersion: c.versionMax,
	}

	if serverName != "" {
		cnf.ServerName = serverName
	}
	if c.ticketSessionDisabled {
		cnf.SessionTicketsDisabled = true
	}
	if c.dynSizingDisabled {
		cnf.DynamicRecordSizingDisabled = true
	}
	if len(c.cipherList) > 0 {
		cnf.CipherSuites = c.cipherList
	}
	if len(c.curveList) > 0 {
		cnf.CurvePreferences = c.curveList
	}
	if c.caRoot != nil {
		cnf.RootCAs = c.caRoot
	}
	if len(c.cert) > 0 {
		cnf.Certificates = append(make([]tls.Certificate, 0, len(c.cert)), c.cert...)
	}
	if c.clientAuth != tls.NoClientCert {
		cnf.ClientAuth = c.clientAuth
		if c.clientCA != nil {
			cnf.ClientCAs = c.clientCA
		}
	}

	return cnf
}

// Clone returns an independent copy sharing no mutable backing slices
// with the receiver.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &Config{
		cert:                  append(make([]tls.Certificate, 0, len(c.cert)), c.cert...),
		cipherList:            append(make([]uint16, 0, len(c.cipherList)), c.cipherList...),
		curveList:             append(make([]tls.CurveID, 0, len(c.curveList)), c.curveList...),
		caRoot:                c.caRoot,
		clientAuth:            c.clientAuth,
		clientCA:              c.clientCA,
		versionMin:            c.versionMin,
		versionMax:            c.versionMax,
		dynSizingDisabled:     c.dynSizingDisabled,
		ticketSessionDisabled: c.ticketSessionDisabled,
	}
}
