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

	"github.com/prometheus/client_golang/prometheus"
)

// Process-wide counters every Server instance reports into,
// distinguished by a "server" label carrying Config.Name.
var (
	metricsOnce sync.Once

	metricConnActive   *prometheus.GaugeVec
	metricRequestTotal *prometheus.CounterVec
	metricBytesIn      *prometheus.CounterVec
	metricBytesOut     *prometheus.CounterVec
	metricRateLimited  *prometheus.CounterVec
)

func initMetrics() {
	metricsOnce.Do(func() {
		metricConnActive = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "uvhttp_connections_active",
			Help: "Currently open connections per server.",
		}, []string{"server"})

		metricRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uvhttp_requests_total",
			Help: "Requests fully parsed and dispatched per server.",
		}, []string{"server"})

		metricBytesIn = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uvhttp_bytes_in_total",
			Help: "Bytes read from client connections per server.",
		}, []string{"server"})

		metricBytesOut = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uvhttp_bytes_out_total",
			Help: "Bytes written to client connections per server.",
		}, []string{"server"})

		metricRateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uvhttp_rate_limited_total",
			Help: "Accepted sockets rejected by the per-IP rate limiter per server.",
		}, []string{"server"})

		prometheus.MustRegister(
			metricConnActive,
			metricRequestTotal,
			metricBytesIn,
			metricBytesOut,
			metricRateLimited,
		)
	})
}

func (s *srv) connOpened() {
	s.active.Add(1)
	metricConnActive.WithLabelValues(s.cfgName()).Inc()
}

func (s *srv) connClosed() {
	s.active.Add(-1)
	metricConnActive.WithLabelValues(s.cfgName()).Dec()
}

func (s *srv) activeCount() int64 {
	return s.active.Load()
}

func (s *srv) metricRequest() {
	metricRequestTotal.WithLabelValues(s.cfgName()).Inc()
}

func (s *srv) metricBytesOut(n int) {
	metricBytesOut.WithLabelValues(s.cfgName()).Add(float64(n))
}

func (s *srv) metricBytesIn(n int) {
	metricBytesIn.WithLabelValues(s.cfgName()).Add(float64(n))
}

func (s *srv) metricRateLimited() {
	metricRateLimited.WithLabelValues(s.cfgName()).Inc()
}
