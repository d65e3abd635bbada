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
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nabbar/uvhttp/certificates"
	liberr "github.com/nabbar/uvhttp/errors"
	"github.com/nabbar/uvhttp/http11"
	"github.com/nabbar/uvhttp/ws"
)

var validate = validator.New()

// Config collects every tunable of one Server, validated as a unit by
// Validate before New accepts it. Zero-value fields are filled in by
// DefaultConfig; Validate does not apply defaults itself, it only
// rejects an invalid combination.
type Config struct {
	// Name identifies this server in logs, metrics labels and a Pool.
	Name string `mapstructure:"name" validate:"required"`

	// Listen is the "host:port" the acceptor binds. Port 0 lets the OS
	// pick a free port.
	Listen string `mapstructure:"listen" validate:"required"`

	// Expose is the externally reachable base URL advertised by Info,
	// e.g. for a reverse proxy in front of Listen. Defaults to Listen.
	Expose string `mapstructure:"expose"`

	// Disabled keeps the server registered but never started by a Pool.
	Disabled bool `mapstructure:"disabled"`

	MaxConnections            int `mapstructure:"max_connections" validate:"gt=0"`
	MaxRequestsPerConnection  int `mapstructure:"max_requests_per_connection" validate:"gt=0"`
	Backlog                   int `mapstructure:"backlog" validate:"gt=0"`
	MaxBodySize               int `mapstructure:"max_body_size" validate:"gt=0"`
	MaxHeaderSize             int `mapstructure:"max_header_size" validate:"gt=0"`
	MaxURLSize                int `mapstructure:"max_url_size" validate:"gt=0"`
	MaxHeaders                int `mapstructure:"max_headers" validate:"gt=0"`
	ReadBufferSize            int `mapstructure:"read_buffer_size" validate:"gt=0"`

	KeepaliveTimeout  time.Duration `mapstructure:"keepalive_timeout" validate:"gt=0"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	ConnectionTimeout time.Duration `mapstructure:"connection_timeout" validate:"gt=0"`

	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window" validate:"gt=0"`
	RateLimitMaxReq    int           `mapstructure:"rate_limit_max_requests" validate:"gte=0"`
	RateLimitWhitelist []string      `mapstructure:"rate_limit_whitelist"`

	EnableTLS bool                 `mapstructure:"enable_tls"`
	TLS       *certificates.Config `mapstructure:"-"`

	WSMaxFrameSize   int           `mapstructure:"ws_max_frame_size" validate:"gt=0"`
	WSMaxMessageSize int           `mapstructure:"ws_max_message_size" validate:"gt=0"`
	WSPingInterval   time.Duration `mapstructure:"ws_ping_interval" validate:"gte=0"`
	WSPingTimeout    time.Duration `mapstructure:"ws_ping_timeout" validate:"gte=0"`

	// AccessLogPath, when non-empty, is a relative path (no leading "/",
	// no ".." segment) under which one access-log line is appended per
	// response. Empty disables access logging.
	AccessLogPath string `mapstructure:"access_log_path"`

	// RejectWithRST closes over-capacity accepts at the TCP level
	// instead of writing a 503 response.
	RejectWithRST bool `mapstructure:"reject_with_rst"`
}

// DefaultConfig returns a Config carrying every default named in the
// configuration reference table, bound to name and listen.
func DefaultConfig(name, listen string) Config {
	return Config{
		Name:   name,
		Listen: listen,
		Expose: listen,

		MaxConnections:           2048,
		MaxRequestsPerConnection: 100,
		Backlog:                  8192,
		MaxBodySize:              1 << 20,
		MaxHeaderSize:            4096,
		MaxURLSize:               2048,
		MaxHeaders:               64,
		ReadBufferSize:           16 << 10,

		KeepaliveTimeout:  5 * time.Second,
		RequestTimeout:    60 * time.Second,
		ConnectionTimeout: 60 * time.Second,

		RateLimitWindow: 60 * time.Second,
		RateLimitMaxReq: 0,

		WSMaxFrameSize:   16 << 20,
		WSMaxMessageSize: 64 << 20,
		WSPingInterval:   30 * time.Second,
		WSPingTimeout:    10 * time.Second,
	}
}

// Validate rejects an incomplete or internally inconsistent Config.
// It does not mutate the receiver.
func (c Config) Validate() liberr.Error {
	if e := validate.Struct(c); e != nil {
		return ErrorConfigInvalid.Error(e)
	}

	// The validator's hostname_port rule refuses port 0, so the listen
	// address is checked here instead.
	if _, port, e := net.SplitHostPort(c.Listen); e != nil {
		return ErrorConfigInvalid.Error(e)
	} else if n, e := strconv.Atoi(port); e != nil || n < 0 || n > 65535 {
		return ErrorConfigInvalid.Error()
	}

	if c.EnableTLS && c.TLS == nil {
		return ErrorTLSRequired.Error()
	}

	if e := c.validateAccessLogPath(); e != nil {
		return e
	}

	return nil
}

func (c Config) validateAccessLogPath() liberr.Error {
	if c.AccessLogPath == "" {
		return nil
	}
	if strings.HasPrefix(c.AccessLogPath, "/") {
		return ErrorAccessLogPath.Error()
	}
	for _, seg := range strings.Split(filepathToSlash(c.AccessLogPath), "/") {
		if seg == ".." {
			return ErrorAccessLogPath.Error()
		}
	}
	return nil
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// isTLS reports whether this configuration terminates TLS.
func (c Config) isTLS() bool {
	return c.EnableTLS && c.TLS != nil
}

// parserLimits converts the parsing-relevant subset of Config into an
// http11.Limits.
func (c Config) parserLimits() http11.Limits {
	return http11.Limits{
		MaxRequestLineSize: c.MaxURLSize + 32,
		MaxURILength:       c.MaxURLSize,
		MaxHeaderSize:      c.MaxHeaderSize,
		MaxHeaders:         c.MaxHeaders,
		MaxBodySize:        c.MaxBodySize,
	}
}

// wsLimits converts the WebSocket-relevant subset of Config into a
// ws.Limits.
func (c Config) wsLimits() ws.Limits {
	return ws.Limits{
		MaxFrameSize:   c.WSMaxFrameSize,
		MaxMessageSize: c.WSMaxMessageSize,
		PingInterval:   c.WSPingInterval,
		PingTimeout:    c.WSPingTimeout,
	}
}

// whitelistSet builds a lookup set from RateLimitWhitelist.
func (c Config) whitelistSet() map[string]struct{} {
	out := make(map[string]struct{}, len(c.RateLimitWhitelist))
	for _, ip := range c.RateLimitWhitelist {
		out[ip] = struct{}{}
	}
	return out
}
