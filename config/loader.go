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

package config

import (
	"time"

	"github.com/spf13/viper"

	liberr "github.com/nabbar/uvhttp/errors"
	"github.com/nabbar/uvhttp/httpserver"
)

// Recognized option keys. In a configuration file they appear as
// KEY=value (one per line, # comments); in the environment they carry
// the UVHTTP_ prefix, e.g. UVHTTP_MAX_CONNECTIONS. Durations are
// decimal integers, in seconds.
const (
	KeyName                 = "name"
	KeyListen               = "listen"
	KeyExpose               = "expose"
	KeyMaxConnections       = "max_connections"
	KeyMaxRequestsPerConn   = "max_requests_per_connection"
	KeyBacklog              = "backlog"
	KeyMaxBodySize          = "max_body_size"
	KeyMaxHeaderSize        = "max_header_size"
	KeyMaxURLSize           = "max_url_size"
	KeyMaxHeaders           = "max_headers"
	KeyReadBufferSize       = "read_buffer_size"
	KeyKeepaliveTimeout     = "keepalive_timeout"
	KeyRequestTimeout       = "request_timeout"
	KeyConnectionTimeout    = "connection_timeout"
	KeyRateLimitWindow      = "rate_limit_window"
	KeyRateLimitMaxRequests = "rate_limit_max_requests"
	KeyEnableTLS            = "enable_tls"
	KeyWSMaxFrameSize       = "ws_max_frame_size"
	KeyWSMaxMessageSize     = "ws_max_message_size"
	KeyWSPingInterval       = "ws_ping_interval"
	KeyWSPingTimeout        = "ws_ping_timeout"
	KeyAccessLogPath        = "access_log_path"
	KeyLogLevel             = "log_level"
	KeyLogFile              = "log_file"
	KeyTLSCertFile          = "tls_cert_file"
	KeyTLSKeyFile           = "tls_key_file"
	KeyTLSCaFile            = "tls_ca_file"
	KeyTLSClientAuth        = "tls_client_auth"
)

// Loader resolves a Config by layering a key=value file and the
// UVHTTP_* environment overlay on top of code-set defaults.
type Loader interface {
	// SetDefault replaces the code-set defaults layer.
	SetDefault(cfg Config)

	// SetConfigFile names the key=value file read by Load; empty skips
	// the file layer.
	SetConfigFile(path string)

	// Load resolves and validates the configuration.
	Load() (Config, liberr.Error)
}

type ldr struct {
	def  Config
	file string
}

// New returns a Loader whose defaults layer is the reference default
// for a server named name listening on listen.
func New(name, listen string) Loader {
	return &ldr{
		def: Config{
			Server:   httpserver.DefaultConfig(name, listen),
			LogLevel: "info",
		},
	}
}

func (l *ldr) SetDefault(cfg Config) {
	l.def = cfg
}

func (l *ldr) SetConfigFile(path string) {
	l.file = path
}

func (l *ldr) Load() (Config, liberr.Error) {
	v := viper.New()
	v.SetConfigType("dotenv")
	v.SetEnvPrefix("UVHTTP")
	v.AutomaticEnv()

	l.bindDefaults(v)

	if l.file != "" {
		v.SetConfigFile(l.file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, ErrorFileRead.Error(err)
		}
	}

	cfg := l.resolve(v)

	if e := cfg.Validate(); e != nil {
		return Config{}, e
	}

	return cfg, nil
}

// bindDefaults registers the defaults layer under every recognized
// key; durations are bound as integer seconds, the unit the file and
// environment layers use.
func (l *ldr) bindDefaults(v *viper.Viper) {
	d := l.def

	v.SetDefault(KeyName, d.Server.Name)
	v.SetDefault(KeyListen, d.Server.Listen)
	v.SetDefault(KeyExpose, d.Server.Expose)
	v.SetDefault(KeyMaxConnections, d.Server.MaxConnections)
	v.SetDefault(KeyMaxRequestsPerConn, d.Server.MaxRequestsPerConnection)
	v.SetDefault(KeyBacklog, d.Server.Backlog)
	v.SetDefault(KeyMaxBodySize, d.Server.MaxBodySize)
	v.SetDefault(KeyMaxHeaderSize, d.Server.MaxHeaderSize)
	v.SetDefault(KeyMaxURLSize, d.Server.MaxURLSize)
	v.SetDefault(KeyMaxHeaders, d.Server.MaxHeaders)
	v.SetDefault(KeyReadBufferSize, d.Server.ReadBufferSize)
	v.SetDefault(KeyKeepaliveTimeout, int(d.Server.KeepaliveTimeout/time.Second))
	v.SetDefault(KeyRequestTimeout, int(d.Server.RequestTimeout/time.Second))
	v.SetDefault(KeyConnectionTimeout, int(d.Server.ConnectionTimeout/time.Second))
	v.SetDefault(KeyRateLimitWindow, int(d.Server.RateLimitWindow/time.Second))
	v.SetDefault(KeyRateLimitMaxRequests, d.Server.RateLimitMaxReq)
	v.SetDefault(KeyEnableTLS, d.Server.EnableTLS)
	v.SetDefault(KeyWSMaxFrameSize, d.Server.WSMaxFrameSize)
	v.SetDefault(KeyWSMaxMessageSize, d.Server.WSMaxMessageSize)
	v.SetDefault(KeyWSPingInterval, int(d.Server.WSPingInterval/time.Second))
	v.SetDefault(KeyWSPingTimeout, int(d.Server.WSPingTimeout/time.Second))
	v.SetDefault(KeyAccessLogPath, d.Server.AccessLogPath)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFile, d.LogFile)
	v.SetDefault(KeyTLSCertFile, d.TLSCertFile)
	v.SetDefault(KeyTLSKeyFile, d.TLSKeyFile)
	v.SetDefault(KeyTLSCaFile, d.TLSCaFile)
	v.SetDefault(KeyTLSClientAuth, d.TLSClientAuth)
}

func (l *ldr) resolve(v *viper.Viper) Config {
	cfg := l.def

	cfg.Server.Name = v.GetString(KeyName)
	cfg.Server.Listen = v.GetString(KeyListen)
	cfg.Server.Expose = v.GetString(KeyExpose)
	cfg.Server.MaxConnections = v.GetInt(KeyMaxConnections)
	cfg.Server.MaxRequestsPerConnection = v.GetInt(KeyMaxRequestsPerConn)
	cfg.Server.Backlog = v.GetInt(KeyBacklog)
	cfg.Server.MaxBodySize = v.GetInt(KeyMaxBodySize)
	cfg.Server.MaxHeaderSize = v.GetInt(KeyMaxHeaderSize)
	cfg.Server.MaxURLSize = v.GetInt(KeyMaxURLSize)
	cfg.Server.MaxHeaders = v.GetInt(KeyMaxHeaders)
	cfg.Server.ReadBufferSize = v.GetInt(KeyReadBufferSize)
	cfg.Server.KeepaliveTimeout = time.Duration(v.GetInt(KeyKeepaliveTimeout)) * time.Second
	cfg.Server.RequestTimeout = time.Duration(v.GetInt(KeyRequestTimeout)) * time.Second
	cfg.Server.ConnectionTimeout = time.Duration(v.GetInt(KeyConnectionTimeout)) * time.Second
	cfg.Server.RateLimitWindow = time.Duration(v.GetInt(KeyRateLimitWindow)) * time.Second
	cfg.Server.RateLimitMaxReq = v.GetInt(KeyRateLimitMaxRequests)
	cfg.Server.EnableTLS = v.GetBool(KeyEnableTLS)
	cfg.Server.WSMaxFrameSize = v.GetInt(KeyWSMaxFrameSize)
	cfg.Server.WSMaxMessageSize = v.GetInt(KeyWSMaxMessageSize)
	cfg.Server.WSPingInterval = time.Duration(v.GetInt(KeyWSPingInterval)) * time.Second
	cfg.Server.WSPingTimeout = time.Duration(v.GetInt(KeyWSPingTimeout)) * time.Second
	cfg.Server.AccessLogPath = v.GetString(KeyAccessLogPath)
	cfg.LogLevel = v.GetString(KeyLogLevel)
	cfg.LogFile = v.GetString(KeyLogFile)
	cfg.TLSCertFile = v.GetString(KeyTLSCertFile)
	cfg.TLSKeyFile = v.GetString(KeyTLSKeyFile)
	cfg.TLSCaFile = v.GetString(KeyTLSCaFile)
	cfg.TLSClientAuth = v.GetBool(KeyTLSClientAuth)

	return cfg
}
