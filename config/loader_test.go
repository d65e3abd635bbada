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

package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/uvhttp/config"
)

var _ = Describe("Loader", func() {
	AfterEach(func() {
		for _, k := range []string{
			"UVHTTP_MAX_CONNECTIONS",
			"UVHTTP_KEEPALIVE_TIMEOUT",
			"UVHTTP_LISTEN",
		} {
			Expect(os.Unsetenv(k)).To(Succeed())
		}
	})

	writeFile := func(content string) string {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "uvhttp.conf")
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	It("resolves the reference defaults when no file or env is set", func() {
		cfg, e := config.New("test", "127.0.0.1:0").Load()
		Expect(e).NotTo(HaveOccurred())

		Expect(cfg.Server.Name).To(Equal("test"))
		Expect(cfg.Server.MaxConnections).To(Equal(2048))
		Expect(cfg.Server.MaxRequestsPerConnection).To(Equal(100))
		Expect(cfg.Server.Backlog).To(Equal(8192))
		Expect(cfg.Server.MaxBodySize).To(Equal(1 << 20))
		Expect(cfg.Server.KeepaliveTimeout).To(Equal(5 * time.Second))
		Expect(cfg.Server.WSMaxFrameSize).To(Equal(16 << 20))
		Expect(cfg.LogLevel).To(Equal("info"))
	})

	It("overrides defaults from a key=value file, ignoring comments", func() {
		l := config.New("test", "127.0.0.1:0")
		l.SetConfigFile(writeFile(
			"# tuning for the integration rig\n" +
				"\n" +
				"MAX_CONNECTIONS=16\n" +
				"KEEPALIVE_TIMEOUT=2\n" +
				"ACCESS_LOG_PATH=log/access.log\n",
		))

		cfg, e := l.Load()
		Expect(e).NotTo(HaveOccurred())
		Expect(cfg.Server.MaxConnections).To(Equal(16))
		Expect(cfg.Server.KeepaliveTimeout).To(Equal(2 * time.Second))
		Expect(cfg.Server.AccessLogPath).To(Equal("log/access.log"))
		// Untouched keys keep their defaults.
		Expect(cfg.Server.Backlog).To(Equal(8192))
	})

	It("lets the environment overlay win over the file layer", func() {
		Expect(os.Setenv("UVHTTP_MAX_CONNECTIONS", "4")).To(Succeed())

		l := config.New("test", "127.0.0.1:0")
		l.SetConfigFile(writeFile("MAX_CONNECTIONS=16\n"))

		cfg, e := l.Load()
		Expect(e).NotTo(HaveOccurred())
		Expect(cfg.Server.MaxConnections).To(Equal(4))
	})

	It("rejects an out-of-range value", func() {
		Expect(os.Setenv("UVHTTP_MAX_CONNECTIONS", "0")).To(Succeed())

		_, e := config.New("test", "127.0.0.1:0").Load()
		Expect(e).To(HaveOccurred())
	})

	It("rejects a traversal-suspect access log path", func() {
		l := config.New("test", "127.0.0.1:0")
		l.SetConfigFile(writeFile("ACCESS_LOG_PATH=../../etc/passwd\n"))

		_, e := l.Load()
		Expect(e).To(HaveOccurred())
	})

	It("rejects an unreadable configuration file", func() {
		l := config.New("test", "127.0.0.1:0")
		l.SetConfigFile("does/not/exist.conf")

		_, e := l.Load()
		Expect(e).To(HaveOccurred())
	})

	It("requires cert and key files when TLS is enabled", func() {
		l := config.New("test", "127.0.0.1:0")
		l.SetConfigFile(writeFile("ENABLE_TLS=true\n"))

		_, e := l.Load()
		Expect(e).To(HaveOccurred())
	})
})

var _ = Describe("Config", func() {
	It("maps log settings onto logger options", func() {
		cfg, e := config.New("test", "127.0.0.1:0").Load()
		Expect(e).NotTo(HaveOccurred())

		cfg.LogFile = "log/server.log"
		cfg.Server.AccessLogPath = "log/access.log"

		opt := cfg.LoggerOptions()
		Expect(opt.LogFile).To(HaveLen(2))
		Expect(opt.LogFile[0].Filepath).To(Equal("log/server.log"))
		Expect(opt.LogFile[0].EnableAccessLog).To(BeFalse())
		Expect(opt.LogFile[1].Filepath).To(Equal("log/access.log"))
		Expect(opt.LogFile[1].EnableAccessLog).To(BeTrue())
	})

	It("refuses to build TLS material without file names", func() {
		cfg, e := config.New("test", "127.0.0.1:0").Load()
		Expect(e).NotTo(HaveOccurred())

		_, err := cfg.TLS()
		Expect(err).To(HaveOccurred())
	})
})
