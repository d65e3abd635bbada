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

package logger

import (
	"io"
	"log"

	"github.com/hashicorp/go-hclog"
)

const (
	hclogArgs = "hclog.args"
	hclogName = "hclog.name"
)

type _hclog struct {
	l Logger
}

// HClog returns an hclog.Logger view over this logger for embedding
// applications standardized on hashicorp/go-hclog.
func (l *lgr) HClog() hclog.Logger {
	return &_hclog{l: l}
}

func (h *_hclog) Log(level hclog.Level, msg string, args ...interface{}) {
	switch level {
	case hclog.Off, hclog.NoLevel:
		return
	case hclog.Trace, hclog.Debug:
		h.l.Debug(msg, nil, args...)
	case hclog.Info:
		h.l.Info(msg, nil, args...)
	case hclog.Warn:
		h.l.Warning(msg, nil, args...)
	case hclog.Error:
		h.l.Error(msg, nil, args...)
	}
}

func (h *_hclog) Trace(msg string, args ...interface{}) {
	h.l.Debug(msg, nil, args...)
}

func (h *_hclog) Debug(msg string, args ...interface{}) {
	h.l.Debug(msg, nil, args...)
}

func (h *_hclog) Info(msg string, args ...interface{}) {
	h.l.Info(msg, nil, args...)
}

func (h *_hclog) Warn(msg string, args ...interface{}) {
	h.l.Warning(msg, nil, args...)
}

func (h *_hclog) Error(msg string, args ...interface{}) {
	h.l.Error(msg, nil, args...)
}

func (h *_hclog) IsTrace() bool {
	return false
}

func (h *_hclog) IsDebug() bool {
	return h.l.GetLevel() >= DebugLevel
}

func (h *_hclog) IsInfo() bool {
	return h.l.GetLevel() >= InfoLevel
}

func (h *_hclog) IsWarn() bool {
	return h.l.GetLevel() >= WarnLevel
}

func (h *_hclog) IsError() bool {
	return h.l.GetLevel() >= ErrorLevel
}

func (h *_hclog) ImpliedArgs() []interface{} {
	if a, ok := h.l.GetFields().Map()[hclogArgs]; ok {
		if s, k := a.([]interface{}); k {
			return s
		}
	}
	return make([]interface{}, 0)
}

func (h *_hclog) With(args ...interface{}) hclog.Logger {
	h.l.SetFields(h.l.GetFields().Add(hclogArgs, args))
	return h
}

func (h *_hclog) Name() string {
	if a, ok := h.l.GetFields().Map()[hclogName]; ok {
		if s, k := a.(string); k {
			return s
		}
	}
	return ""
}

func (h *_hclog) Named(name string) hclog.Logger {
	h.l.SetFields(h.l.GetFields().Add(hclogName, name))
	return h
}

func (h *_hclog) ResetNamed(name string) hclog.Logger {
	h.l.SetFields(h.l.GetFields().Add(hclogName, name))
	return h
}

func (h *_hclog) SetLevel(level hclog.Level) {
	switch level {
	case hclog.Off, hclog.NoLevel:
		h.l.SetLevel(NilLevel)
	case hclog.Trace, hclog.Debug:
		h.l.SetLevel(DebugLevel)
	case hclog.Info:
		h.l.SetLevel(InfoLevel)
	case hclog.Warn:
		h.l.SetLevel(WarnLevel)
	case hclog.Error:
		h.l.SetLevel(ErrorLevel)
	}
}

func (h *_hclog) GetLevel() hclog.Level {
	switch h.l.GetLevel() {
	case NilLevel:
		return hclog.Off
	case DebugLevel:
		return hclog.Debug
	case InfoLevel:
		return hclog.Info
	case WarnLevel:
		return hclog.Warn
	default:
		return hclog.Error
	}
}

func (h *_hclog) StandardLogger(opts *hclog.StandardLoggerOptions) *log.Logger {
	return log.New(h.l, "", 0)
}

func (h *_hclog) StandardWriter(opts *hclog.StandardLoggerOptions) io.Writer {
	return h.l
}
