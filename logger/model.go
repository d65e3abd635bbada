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
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	liberr "github.com/nabbar/uvhttp/errors"
)

type lgr struct {
	m sync.RWMutex

	v Level
	f Fields
	o Options
	s *logrus.Logger

	fileSinks []io.Closer
	accessW   io.Writer
}

// newLogrus builds the underlying engine; opt drives formatter flags,
// nil means defaults (colorized text with timestamps, to stdout).
func newLogrus(opt *OptionsStd) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:    opt != nil && opt.DisableColor,
		DisableTimestamp: opt != nil && opt.DisableTimestamp,
		FullTimestamp:    true,
	})
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.DebugLevel)
	return l
}

func (l *lgr) SetLevel(lvl Level) {
	l.m.Lock()
	defer l.m.Unlock()
	l.v = lvl
	l.s.SetLevel(lvl.Logrus())
}

func (l *lgr) GetLevel() Level {
	l.m.RLock()
	defer l.m.RUnlock()
	return l.v
}

// SetOptions validates opt, then rebuilds the sinks: previous file
// sinks are closed, new ones opened, and the logrus output rewired.
func (l *lgr) SetOptions(opt *Options) liberr.Error {
	if opt == nil {
		return ErrorParamEmpty.Error()
	}

	if e := opt.Validate(); e != nil {
		return e
	}

	l.m.Lock()
	defer l.m.Unlock()

	l.closeSinks()

	out := make([]io.Writer, 0, len(opt.LogFile)+1)
	if opt.Stdout == nil || !opt.Stdout.DisableStandard {
		out = append(out, os.Stdout)
	}

	for _, f := range opt.LogFile {
		w, err := openLogFile(f)
		if err != nil {
			l.closeSinks()
			return ErrorFileOpen.Error(err)
		}

		l.fileSinks = append(l.fileSinks, w)

		if f.EnableAccessLog {
			l.accessW = w
		} else {
			out = append(out, w)
		}
	}

	l.s = newLogrus(opt.Stdout)
	l.s.SetLevel(l.v.Logrus())

	switch len(out) {
	case 0:
		l.s.SetOutput(io.Discard)
	case 1:
		l.s.SetOutput(out[0])
	default:
		l.s.SetOutput(io.MultiWriter(out...))
	}

	l.o = opt.Clone()
	return nil
}

func openLogFile(f OptionsFile) (io.WriteCloser, error) {
	mode := f.FileMode
	if mode == 0 {
		mode = 0644
	}

	flags := os.O_WRONLY | os.O_APPEND
	if f.Create {
		flags |= os.O_CREATE
	}

	return os.OpenFile(f.Filepath, flags, mode)
}

func (l *lgr) closeSinks() {
	for _, c := range l.fileSinks {
		_ = c.Close()
	}
	l.fileSinks = nil
	l.accessW = nil
}

func (l *lgr) GetOptions() *Options {
	l.m.RLock()
	defer l.m.RUnlock()
	o := l.o.Clone()
	return &o
}

func (l *lgr) SetFields(fields Fields) {
	l.m.Lock()
	defer l.m.Unlock()
	l.f = fields
}

func (l *lgr) GetFields() Fields {
	l.m.RLock()
	defer l.m.RUnlock()
	return l.f
}

func (l *lgr) Clone() Logger {
	l.m.RLock()
	defer l.m.RUnlock()

	f := l.f
	if f == nil {
		f = NewFields(nil)
	}

	// Sinks are shared, not owned: closing the clone must not close
	// the parent's files, so fileSinks stays empty on the clone.
	n := &lgr{
		v:       l.v,
		f:       f.Clone(),
		s:       l.s,
		accessW: l.accessW,
	}
	n.o = l.o.Clone()

	return n
}

func (l *lgr) engine() *logrus.Logger {
	l.m.RLock()
	defer l.m.RUnlock()
	return l.s
}

func (l *lgr) accessWrite(line string) {
	l.m.RLock()
	w := l.accessW
	l.m.RUnlock()

	if w == nil {
		// No dedicated access sink: keep the record in the main log.
		l.Info(line, nil)
		return
	}

	_, _ = io.WriteString(w, line+"\n")
}

// Write implements io.Writer: each chunk becomes one InfoLevel entry,
// so the logger can replace a standard library writer.
func (l *lgr) Write(p []byte) (n int, err error) {
	l.Info(string(p), nil)
	return len(p), nil
}

// Close releases the file sinks opened by SetOptions.
func (l *lgr) Close() error {
	l.m.Lock()
	defer l.m.Unlock()
	l.closeSinks()
	return nil
}

func (l *lgr) newEntry(lvl Level, message string) *Entry {
	f := l.GetFields()
	if f == nil {
		f = NewFields(nil)
	}

	return &Entry{
		log:     l.engine,
		acc:     l.accessWrite,
		Time:    time.Now(),
		Level:   lvl,
		Message: message,
		Fields:  f.Clone(),
	}
}

func (l *lgr) Entry(lvl Level, message string, args ...interface{}) *Entry {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	return l.newEntry(lvl, message)
}

func (l *lgr) Debug(message string, data interface{}, args ...interface{}) {
	l.LogDetails(DebugLevel, message, data, nil, nil, args...)
}

func (l *lgr) Info(message string, data interface{}, args ...interface{}) {
	l.LogDetails(InfoLevel, message, data, nil, nil, args...)
}

func (l *lgr) Warning(message string, data interface{}, args ...interface{}) {
	l.LogDetails(WarnLevel, message, data, nil, nil, args...)
}

func (l *lgr) Error(message string, data interface{}, args ...interface{}) {
	l.LogDetails(ErrorLevel, message, data, nil, nil, args...)
}

func (l *lgr) LogDetails(lvl Level, message string, data interface{}, err []error, fields Fields, args ...interface{}) {
	e := l.Entry(lvl, message, args...)

	// An error handed in as the data payload is still an error.
	if er, ok := data.(error); ok {
		e.ErrorAdd(er)
	} else if data != nil {
		e.DataSet(data)
	}

	e.ErrorAdd(err...)
	e.FieldMerge(fields)
	e.Log()
}

func (l *lgr) CheckError(lvlKO, lvlOK Level, message string, err ...error) bool {
	e := l.newEntry(lvlKO, message)
	e.ErrorAdd(err...)

	if len(e.Error) == 0 {
		if lvlOK == NilLevel {
			return false
		}
		e.Level = lvlOK
	}

	e.Log()
	return len(e.Error) > 0
}

// Access renders one access record in common log format with the
// response latency appended.
func (l *lgr) Access(remoteAddr, remoteUser string, localtime time.Time, latency time.Duration, method, request, proto string, status int, size int64) *Entry {
	if remoteUser == "" {
		remoteUser = "-"
	}

	line := fmt.Sprintf(
		"%s %s [%s] \"%s %s %s\" %d %d %s",
		remoteAddr,
		remoteUser,
		localtime.Format("02/Jan/2006:15:04:05 -0700"),
		method,
		request,
		proto,
		status,
		size,
		latency.Round(time.Microsecond),
	)

	e := l.newEntry(InfoLevel, line)
	e.accessLine = line
	return e
}
