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
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	FieldTime    = "time"
	FieldLevel   = "level"
	FieldMessage = "message"
	FieldError   = "error"
	FieldData    = "data"
)

// Entry is one log event under construction; Log delivers it to the
// owning Logger's sinks and must be called exactly once.
type Entry struct {
	log func() *logrus.Logger
	acc func(line string)

	// Time is the time of the event (zero disables the timestamp field).
	Time time.Time `json:"time"`

	// Level defines the severity of the entry.
	Level Level `json:"level"`

	// Message is the main message of the entry (can be empty).
	Message string `json:"message"`

	// Error lists the error(s) attached to the entry (nil values are skipped).
	Error []error `json:"error"`

	// Data is an arbitrary payload added under the data field (can be nil).
	Data interface{} `json:"data"`

	// Fields are custom key/value information merged into the entry.
	Fields Fields `json:"fields"`

	// accessLine, when non-empty, routes this entry to the access-log
	// sink instead of the structured sinks.
	accessLine string
}

// FieldAdd adds one key/value couple into the custom fields of the entry.
func (e *Entry) FieldAdd(key string, val interface{}) *Entry {
	if e.Fields == nil {
		e.Fields = NewFields(nil)
	}
	e.Fields.Add(key, val)
	return e
}

// FieldMerge merges fields into the custom fields of the entry.
func (e *Entry) FieldMerge(fields Fields) *Entry {
	if e.Fields == nil {
		e.Fields = NewFields(nil)
	}
	e.Fields.Merge(fields)
	return e
}

// DataSet attaches an arbitrary payload to the entry.
func (e *Entry) DataSet(data interface{}) *Entry {
	e.Data = data
	return e
}

// ErrorAdd appends errors to the entry, skipping nil values.
func (e *Entry) ErrorAdd(err ...error) *Entry {
	for _, er := range err {
		if er == nil {
			continue
		}
		e.Error = append(e.Error, er)
	}
	return e
}

// Check logs the entry at its level if it carries at least one error,
// or at lvlNoErr otherwise. It reports whether an error was present.
func (e *Entry) Check(lvlNoErr Level) bool {
	found := false
	for _, er := range e.Error {
		if er != nil {
			found = true
			break
		}
	}

	if !found {
		e.Level = lvlNoErr
	}

	e.Log()
	return found
}

// Log delivers the entry: access entries go to the access-log sink,
// everything else to the structured logrus sinks.
func (e *Entry) Log() {
	if e.accessLine != "" {
		if e.acc != nil {
			e.acc(e.accessLine)
		}
		return
	}

	if e.Level == NilLevel || e.log == nil {
		return
	}

	log := e.log()
	if log == nil {
		return
	}

	tag := make(logrus.Fields)
	tag[FieldLevel] = e.Level.String()

	if !e.Time.IsZero() {
		tag[FieldTime] = e.Time.Format(time.RFC3339Nano)
	}

	if e.Message != "" {
		tag[FieldMessage] = e.Message
	}

	if len(e.Error) > 0 {
		msg := make([]string, 0, len(e.Error))
		for _, er := range e.Error {
			if er == nil {
				continue
			}
			msg = append(msg, er.Error())
		}
		if len(msg) > 0 {
			tag[FieldError] = strings.Join(msg, ", ")
		}
	}

	if e.Data != nil {
		tag[FieldData] = e.Data
	}

	if e.Fields != nil {
		for k, v := range e.Fields.Map() {
			tag[k] = v
		}
	}

	log.WithFields(tag).Log(e.Level.Logrus())

	if e.Level <= FatalLevel {
		os.Exit(1)
	}
}
