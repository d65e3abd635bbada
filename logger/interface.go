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

// Package logger is the structured logging facade of this module: a
// logrus-backed engine with level filtering, default fields, optional
// file sinks, a dedicated access-log sink, and an hclog adapter for
// embedding applications standardized on hashicorp/go-hclog.
package logger

import (
	"context"
	"io"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	liberr "github.com/nabbar/uvhttp/errors"
)

// FuncLog lazily produces a Logger; the server calls it for each
// accepted connection so the embedder controls when and how the logger
// is built.
type FuncLog func() Logger

// Logger is the structured logging surface shared by every component
// of this module. It extends io.WriteCloser so it can stand in for a
// standard library writer.
type Logger interface {
	io.WriteCloser

	// SetLevel changes the minimal level of logged messages.
	SetLevel(lvl Level)

	// GetLevel returns the minimal level of logged messages.
	GetLevel() Level

	// SetOptions applies sink configuration, replacing any previous one.
	SetOptions(opt *Options) liberr.Error

	// GetOptions returns a copy of the applied options.
	GetOptions() *Options

	// SetFields replaces the default fields attached to every entry.
	SetFields(fields Fields)

	// GetFields returns the default fields attached to every entry.
	GetFields() Fields

	// Clone duplicates the logger with its level, fields and options.
	Clone() Logger

	// Debug adds an entry with DebugLevel to the logger.
	Debug(message string, data interface{}, args ...interface{})

	// Info adds an entry with InfoLevel to the logger.
	Info(message string, data interface{}, args ...interface{})

	// Warning adds an entry with WarnLevel to the logger.
	Warning(message string, data interface{}, args ...interface{})

	// Error adds an entry with ErrorLevel to the logger.
	Error(message string, data interface{}, args ...interface{})

	// LogDetails adds a fully specified entry to the logger.
	LogDetails(lvl Level, message string, data interface{}, err []error, fields Fields, args ...interface{})

	// CheckError logs at lvlKO when at least one non-nil error is given,
	// or at lvlOK otherwise (NilLevel suppresses the ok entry). It
	// reports whether an error was present.
	CheckError(lvlKO, lvlOK Level, message string, err ...error) bool

	// Entry returns an entry to enrich and Log explicitly.
	Entry(lvl Level, message string, args ...interface{}) *Entry

	// Access returns an access-log entry carrying one response record:
	// remote address, user, request time, latency, request line, status
	// and body size. Logging it appends one line to the access sink.
	Access(remoteAddr, remoteUser string, localtime time.Time, latency time.Duration, method, request, proto string, status int, size int64) *Entry

	// HClog returns an hclog adapter over this logger.
	HClog() hclog.Logger
}

// New returns a Logger writing to stdout at InfoLevel; ctx bounds the
// lifetime of the default fields store.
func New(ctx context.Context) Logger {
	if ctx == nil {
		ctx = context.Background()
	}

	l := &lgr{
		f: NewFields(ctx),
		s: newLogrus(nil),
	}

	l.SetLevel(InfoLevel)

	return l
}
