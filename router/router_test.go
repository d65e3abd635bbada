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
 */

package router_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/uvhttp/http11"
	"github.com/nabbar/uvhttp/router"
)

var _ = Describe("Router", func() {
	var rt *router.Router

	BeforeEach(func() {
		rt = router.New()
	})

	It("finds an exact match", func() {
		called := false
		rt.AddRoute("/health", func(req *http11.Request) *router.Response {
			called = true
			return nil
		})

		h := rt.Find(http11.MethodGet, "/health")
		Expect(h).ToNot(BeNil())
		h(&http11.Request{})
		Expect(called).To(BeTrue())
	})

	It("returns nil for no match", func() {
		Expect(rt.Find(http11.MethodGet, "/missing")).To(BeNil())
	})

	It("keeps the first registration on a duplicate (path, mask)", func() {
		first := 0
		second := 0
		rt.AddRouteMethod("/x", router.MethodGet, func(req *http11.Request) *router.Response {
			first++
			return nil
		})
		rt.AddRouteMethod("/x", router.MethodGet, func(req *http11.Request) *router.Response {
			second++
			return nil
		})

		rt.Find(http11.MethodGet, "/x")(&http11.Request{})
		Expect(first).To(Equal(1))
		Expect(second).To(Equal(0))
	})

	It("matches a wildcard prefix route", func() {
		rt.AddRoute("/static/*", func(req *http11.Request) *router.Response { return nil })

		Expect(rt.Find(http11.MethodGet, "/static/css/app.css")).ToNot(BeNil())
		// The prefix is "/static", compared as a plain string.
		Expect(rt.Find(http11.MethodGet, "/staticfoo")).ToNot(BeNil())
		Expect(rt.Find(http11.MethodGet, "/stati")).To(BeNil())
	})

	It("treats trailing slash as significant", func() {
		rt.AddRoute("/api", func(req *http11.Request) *router.Response { return nil })

		Expect(rt.Find(http11.MethodGet, "/api")).ToNot(BeNil())
		Expect(rt.Find(http11.MethodGet, "/api/")).To(BeNil())
	})

	It("restricts a route to its registered method", func() {
		rt.AddRouteMethod("/only-post", router.MethodPost, func(req *http11.Request) *router.Response { return nil })

		Expect(rt.Find(http11.MethodPost, "/only-post")).ToNot(BeNil())
		Expect(rt.Find(http11.MethodGet, "/only-post")).To(BeNil())
	})

	It("honors insertion-order first-match when a later single-method route overlaps an earlier ANY route", func() {
		var order []string
		rt.AddRoute("/api", func(req *http11.Request) *router.Response {
			order = append(order, "any")
			return nil
		})
		rt.AddRouteMethod("/api", router.MethodGet, func(req *http11.Request) *router.Response {
			order = append(order, "get")
			return nil
		})

		rt.Find(http11.MethodGet, "/api")(&http11.Request{})
		Expect(order).To(Equal([]string{"any"}))
	})

	It("honors insertion-order first-match for overlapping wildcard and exact routes", func() {
		var order []string
		rt.AddRoute("/a/*", func(req *http11.Request) *router.Response {
			order = append(order, "wildcard")
			return nil
		})
		rt.AddRoute("/a/b", func(req *http11.Request) *router.Response {
			order = append(order, "exact")
			return nil
		})

		rt.Find(http11.MethodGet, "/a/b")(&http11.Request{})
		Expect(order).To(Equal([]string{"wildcard"}))
	})
})

var _ = Describe("Middleware chain", func() {
	It("stops the chain and skips later middlewares on Stop", func() {
		chain := router.NewChain()
		var order []string

		chain.Use(func(req *http11.Request, resp *router.Response) router.Decision {
			order = append(order, "first")
			return router.Stop
		})
		chain.Use(func(req *http11.Request, resp *router.Response) router.Decision {
			order = append(order, "second")
			return router.Continue
		})

		next := chain.Run(&http11.Request{Path: "/x"}, nil)
		Expect(next).To(BeFalse())
		Expect(order).To(Equal([]string{"first"}))
	})

	It("only runs prefix-matched middlewares", func() {
		chain := router.NewChain()
		hit := false
		chain.UseWithPrefix("/admin", router.PriorityNormal, func(req *http11.Request, resp *router.Response) router.Decision {
			hit = true
			return router.Continue
		})

		chain.Run(&http11.Request{Path: "/public"}, nil)
		Expect(hit).To(BeFalse())

		chain.Run(&http11.Request{Path: "/admin/users"}, nil)
		Expect(hit).To(BeTrue())
	})
})

var _ = Describe("CORS middleware", func() {
	It("answers a preflight with 204 and stops the chain", func() {
		mw := router.CORSMiddleware(router.CORSConfig{})

		req := &http11.Request{
			Method: http11.MethodOptions,
			Path:   "/api/items",
			Headers: []http11.Header{
				{Name: "Origin", Value: "https://example.com"},
				{Name: "Access-Control-Request-Method", Value: "POST"},
			},
		}
		resp := router.NewResponse(true)

		Expect(mw(req, resp)).To(Equal(router.Stop))

		out, err := resp.Send()
		Expect(err).ToNot(HaveOccurred())
		Expect(string(out)).To(HavePrefix("HTTP/1.1 204"))
		Expect(string(out)).To(ContainSubstring("Access-Control-Allow-Origin: *\r\n"))
		Expect(string(out)).To(ContainSubstring("Access-Control-Allow-Methods: "))
		Expect(string(out)).To(ContainSubstring("Access-Control-Max-Age: 86400\r\n"))
	})

	It("lets a plain cross-origin request continue with the origin header set", func() {
		mw := router.CORSMiddleware(router.CORSConfig{AllowOrigin: "https://example.com"})

		req := &http11.Request{
			Method: http11.MethodGet,
			Path:   "/api/items",
			Headers: []http11.Header{
				{Name: "Origin", Value: "https://example.com"},
			},
		}
		resp := router.NewResponse(true)

		Expect(mw(req, resp)).To(Equal(router.Continue))

		out, _ := resp.Send()
		Expect(string(out)).To(ContainSubstring("Access-Control-Allow-Origin: https://example.com\r\n"))
	})

	It("ignores same-origin requests", func() {
		mw := router.CORSMiddleware(router.CORSConfig{})
		resp := router.NewResponse(true)

		Expect(mw(&http11.Request{Method: http11.MethodGet, Path: "/x"}, resp)).To(Equal(router.Continue))

		out, _ := resp.Send()
		Expect(string(out)).ToNot(ContainSubstring("Access-Control-Allow-Origin"))
	})
})

var _ = Describe("Response", func() {
	It("auto-fills Content-Length and Connection headers", func() {
		resp := router.NewResponse(true)
		resp.SetBody([]byte("hello"))

		out, err := resp.Send()
		Expect(err).ToNot(HaveOccurred())
		Expect(string(out)).To(ContainSubstring("HTTP/1.1 200 OK\r\n"))
		Expect(string(out)).To(ContainSubstring("Content-Length: 5\r\n"))
		Expect(string(out)).To(ContainSubstring("Connection: keep-alive\r\n"))
		Expect(string(out)).To(HaveSuffix("hello"))
	})

	It("is idempotent: the second Send reports ErrAlreadySent", func() {
		resp := router.NewResponse(false)
		_, err := resp.Send()
		Expect(err).ToNot(HaveOccurred())

		_, err = resp.Send()
		Expect(err).To(MatchError(router.ErrAlreadySent))
	})

	It("preserves duplicate headers", func() {
		resp := router.NewResponse(false)
		resp.SetHeader("Set-Cookie", "a=1")
		resp.SetHeader("Set-Cookie", "b=2")

		out, _ := resp.Send()
		Expect(string(out)).To(ContainSubstring("Set-Cookie: a=1\r\n"))
		Expect(string(out)).To(ContainSubstring("Set-Cookie: b=2\r\n"))
	})
})
