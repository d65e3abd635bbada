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
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	liberr "github.com/nabbar/uvhttp/errors"
	"github.com/nabbar/uvhttp/httpserver"
)

var _ = Describe("Pool", func() {
	var p *httpserver.Pool

	BeforeEach(func() {
		p = httpserver.NewPool()
	})

	It("rejects registering a duplicate name", func() {
		cfg := httpserver.DefaultConfig("dup", fmt.Sprintf("127.0.0.1:%d", getFreePort()))

		_, err := p.Add(cfg, nil)
		Expect(err).To(BeNil())

		_, err = p.Add(cfg, nil)
		Expect(liberr.HasCode(err, httpserver.ErrorPoolDuplicateName)).To(BeTrue())
	})

	It("rejects removing an unknown name", func() {
		err := p.Remove(context.Background(), "ghost")
		Expect(liberr.HasCode(err, httpserver.ErrorPoolUnknownName)).To(BeTrue())
	})

	It("reports ErrorPoolEmpty from StartAll on an empty pool", func() {
		errs := p.StartAll(context.Background())
		Expect(errs).To(HaveLen(1))
		Expect(liberr.HasCode(errs[0], httpserver.ErrorPoolEmpty)).To(BeTrue())
	})

	It("skips disabled servers in StartAll and reports them via Infos", func() {
		active := httpserver.DefaultConfig("active", fmt.Sprintf("127.0.0.1:%d", getFreePort()))
		disabled := httpserver.DefaultConfig("disabled", fmt.Sprintf("127.0.0.1:%d", getFreePort()))
		disabled.Disabled = true

		_, err := p.Add(active, nil)
		Expect(err).To(BeNil())
		_, err = p.Add(disabled, nil)
		Expect(err).To(BeNil())

		DeferCleanup(func() {
			_ = p.StopAll(context.Background())
		})

		Expect(p.StartAll(context.Background())).To(BeEmpty())

		infos := p.Infos()
		Expect(infos).To(HaveLen(2))
		Expect(infos["disabled"].IsDisable()).To(BeTrue())
		Expect(infos["active"].IsDisable()).To(BeFalse())
	})

	It("finds a registered server by name and lists all names", func() {
		cfg := httpserver.DefaultConfig("named", fmt.Sprintf("127.0.0.1:%d", getFreePort()))
		_, err := p.Add(cfg, nil)
		Expect(err).To(BeNil())

		Expect(p.Get("named")).ToNot(BeNil())
		Expect(p.Get("missing")).To(BeNil())
		Expect(p.Names()).To(ConsistOf("named"))
	})
})
