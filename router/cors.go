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

package router

import (
	"github.com/nabbar/uvhttp/http11"
)

// CORSConfig configures the built-in CORS middleware. Zero values fall
// back to DefaultCORSConfig's choices.
type CORSConfig struct {
	// AllowOrigin is the value emitted as Access-Control-Allow-Origin;
	// "*" allows every origin.
	AllowOrigin string

	// AllowMethods is the comma-separated method list offered to a
	// preflight request.
	AllowMethods string

	// AllowHeaders is the comma-separated header list offered to a
	// preflight request.
	AllowHeaders string

	// AllowCredentials emits Access-Control-Allow-Credentials: true.
	// It is ignored when AllowOrigin is "*".
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds, emitted as
	// Access-Control-Max-Age.
	MaxAge string
}

// DefaultCORSConfig allows every origin with the common method set and
// a one-day preflight cache.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigin:  "*",
		AllowMethods: "GET, POST, PUT, DELETE, HEAD, OPTIONS, PATCH",
		AllowHeaders: "Content-Type, Authorization",
		MaxAge:       "86400",
	}
}

// CORSMiddleware returns a middleware answering cross-origin requests:
// a preflight (OPTIONS with Access-Control-Request-Method) is answered
// directly with 204 and Stop; any other request with an Origin header
// gets the Access-Control-Allow-* headers attached to the response the
// matched handler eventually builds.
func CORSMiddleware(cfg CORSConfig) MiddlewareFunc {
	def := DefaultCORSConfig()
	if cfg.AllowOrigin == "" {
		cfg.AllowOrigin = def.AllowOrigin
	}
	if cfg.AllowMethods == "" {
		cfg.AllowMethods = def.AllowMethods
	}
	if cfg.AllowHeaders == "" {
		cfg.AllowHeaders = def.AllowHeaders
	}
	if cfg.MaxAge == "" {
		cfg.MaxAge = def.MaxAge
	}

	return func(req *http11.Request, resp *Response) Decision {
		origin, ok := req.HeaderValue("Origin")
		if !ok || origin == "" {
			return Continue
		}

		resp.SetHeader("Access-Control-Allow-Origin", cfg.AllowOrigin)
		if cfg.AllowCredentials && cfg.AllowOrigin != "*" {
			resp.SetHeader("Access-Control-Allow-Credentials", "true")
		}

		if req.Method == http11.MethodOptions {
			if _, preflight := req.HeaderValue("Access-Control-Request-Method"); preflight {
				resp.SetHeader("Access-Control-Allow-Methods", cfg.AllowMethods)
				resp.SetHeader("Access-Control-Allow-Headers", cfg.AllowHeaders)
				resp.SetHeader("Access-Control-Max-Age", cfg.MaxAge)
				resp.SetStatus(204)
				resp.SetBody(nil)
				return Stop
			}
		}

		return Continue
	}
}
