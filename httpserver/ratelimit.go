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

package httpserver

import (
	"sync"
	"time"
)

// rateLimiter enforces a fixed-window per-IP accept quota. A window
// resets lazily, on the first accept seen after its expiry, rather
// than on a ticker: the acceptor only ever touches a rateLimiter from
// its own goroutine plus whatever reads Info exposes, so a mutex is
// enough and no background sweep is needed.
type rateLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	max       int
	whitelist map[string]struct{}
	counts    map[string]*windowCount
}

type windowCount struct {
	resetAt time.Time
	n       int
}

func newRateLimiter(cfg Config) *rateLimiter {
	return &rateLimiter{
		window:    cfg.RateLimitWindow,
		max:       cfg.RateLimitMaxReq,
		whitelist: cfg.whitelistSet(),
		counts:    make(map[string]*windowCount),
	}
}

// allow reports whether ip may be accepted, incrementing its window
// counter as a side effect. On denial, retryAfter is the time left in
// the current window. A zero or negative max disables limiting.
func (rl *rateLimiter) allow(ip string) (ok bool, retryAfter time.Duration) {
	if rl.max <= 0 {
		return true, 0
	}
	if _, white := rl.whitelist[ip]; white {
		return true, 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	wc, found := rl.counts[ip]
	if !found || now.After(wc.resetAt) {
		wc = &windowCount{resetAt: now.Add(rl.window)}
		rl.counts[ip] = wc
	}

	wc.n++
	if wc.n <= rl.max {
		return true, 0
	}
	return false, wc.resetAt.Sub(now)
}
