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

// Package config assembles a server configuration from three layers,
// each overriding the previous one: a code-set struct of defaults, an
// optional key=value text file, and an UVHTTP_* environment overlay.
package config

import (
	"crypto/tls"

	"github.com/nabbar/uvhttp/certificates"
	liberr "github.com/nabbar/uvhttp/errors"
	"github.com/nabbar/uvhttp/httpserver"
	"github.com/nabbar/uvhttp/logger"
)

// Config is one fully resolved configuration: the server tunables plus
// the logging and TLS material the embedding program wires around them.
type Config struct {
	// Server carries every per-server tunable, already validated as a
	// unit by httpserver.Config.Validate.
	Server httpserver.Config

	// LogLevel is the minimal level of structured log messages.
	LogLevel string

	// LogFile, when non-empty, is a relative path receiving structured
	// log entries in addition to stdout.
	LogFile string

	// TLSCertFile and TLSKeyFile are the PEM server certificate chain
	// and private key, required when Server.EnableTLS is set.
	TLSCertFile string
	TLSKeyFile  string

	// TLSCaFile optionally names a PEM CA bundle used to verify client
	// certificates; TLSClientAuth requires clients to present one.
	TLSCaFile     string
	TLSClientAuth bool
}

// Validate checks the resolved configuration, including the server
// tunables and every configured log path.
func (c Config) Validate() liberr.Error {
	if c.Server.EnableTLS {
		// The certificate material is loaded later; here only the
		// presence of the file names is checked.
		if c.TLSCertFile == "" || c.TLSKeyFile == "" {
			return ErrorValidate.Error(ErrorParamEmpty.Error())
		}
	}

	cfg := c.Server
	cfg.EnableTLS = false
	cfg.TLS = nil
	if e := cfg.Validate(); e != nil {
		return ErrorValidate.Error(e)
	}

	if c.LogFile != "" {
		opt := &logger.Options{LogFile: []logger.OptionsFile{{Filepath: c.LogFile, Create: true}}}
		if e := opt.Validate(); e != nil {
			return ErrorValidate.Error(e)
		}
	}

	return nil
}

// TLS loads the configured certificate chain, key and optional client
// CA bundle into a certificates.Config ready for the server.
func (c Config) TLS() (*certificates.Config, liberr.Error) {
	if c.TLSCertFile == "" || c.TLSKeyFile == "" {
		return nil, ErrorParamEmpty.Error()
	}

	t := certificates.New()

	if e := t.AddCertificatePairFile(c.TLSKeyFile, c.TLSCertFile); e != nil {
		return nil, ErrorTLSLoad.Error(e)
	}

	if c.TLSCaFile != "" {
		if e := t.AddClientCAFile(c.TLSCaFile); e != nil {
			return nil, ErrorTLSLoad.Error(e)
		}
		if c.TLSClientAuth {
			t.SetClientAuth(tls.RequireAndVerifyClientCert)
		} else {
			t.SetClientAuth(tls.VerifyClientCertIfGiven)
		}
	}

	return t, nil
}

// ServerConfig returns the server tunables with the TLS material
// resolved, ready for httpserver.New.
func (c Config) ServerConfig() (httpserver.Config, liberr.Error) {
	cfg := c.Server

	if cfg.EnableTLS {
		t, e := c.TLS()
		if e != nil {
			return cfg, e
		}
		cfg.TLS = t
	}

	return cfg, nil
}

// LoggerOptions maps the logging part of the configuration onto the
// logger package's options: the structured sink and, when the server
// has an access-log path, the dedicated access sink.
func (c Config) LoggerOptions() *logger.Options {
	opt := &logger.Options{}

	if c.LogFile != "" {
		opt.LogFile = append(opt.LogFile, logger.OptionsFile{
			Filepath: c.LogFile,
			Create:   true,
		})
	}

	if c.Server.AccessLogPath != "" {
		opt.LogFile = append(opt.LogFile, logger.OptionsFile{
			Filepath:        c.Server.AccessLogPath,
			Create:          true,
			EnableAccessLog: true,
		})
	}

	return opt
}
