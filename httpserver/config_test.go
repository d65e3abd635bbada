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

package httpserver_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/uvhttp/certificates"
	liberr "github.com/nabbar/uvhttp/errors"
	"github.com/nabbar/uvhttp/httpserver"
)

var _ = Describe("Config", func() {
	var cfg httpserver.Config

	BeforeEach(func() {
		cfg = httpserver.DefaultConfig("web", "127.0.0.1:8080")
	})

	It("validates the defaults", func() {
		Expect(cfg.Validate()).To(BeNil())
	})

	It("rejects a missing name", func() {
		cfg.Name = ""
		Expect(cfg.Validate()).ToNot(BeNil())
	})

	It("rejects a missing listen address", func() {
		cfg.Listen = ""
		Expect(cfg.Validate()).ToNot(BeNil())
	})

	It("rejects a malformed listen address", func() {
		cfg.Listen = "not-a-host-port"
		Expect(cfg.Validate()).ToNot(BeNil())
	})

	It("rejects a zero max_connections", func() {
		cfg.MaxConnections = 0
		Expect(cfg.Validate()).ToNot(BeNil())
	})

	It("requires a TLS config once enable_tls is set", func() {
		cfg.EnableTLS = true

		err := cfg.Validate()
		Expect(err).ToNot(BeNil())
		Expect(liberr.HasCode(err, httpserver.ErrorTLSRequired)).To(BeTrue())

		cfg.TLS = certificates.New()
		Expect(cfg.Validate()).To(BeNil())
	})

	It("rejects an absolute access log path", func() {
		cfg.AccessLogPath = "/var/log/access.log"

		err := cfg.Validate()
		Expect(liberr.HasCode(err, httpserver.ErrorAccessLogPath)).To(BeTrue())
	})

	It("rejects a traversal in the access log path", func() {
		cfg.AccessLogPath = "../../etc/passwd"

		err := cfg.Validate()
		Expect(liberr.HasCode(err, httpserver.ErrorAccessLogPath)).To(BeTrue())
	})

	It("accepts a relative access log path", func() {
		cfg.AccessLogPath = "logs/access.log"
		Expect(cfg.Validate()).To(BeNil())
	})
})
