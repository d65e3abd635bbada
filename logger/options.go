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
	"os"
	"strings"

	libval "github.com/go-playground/validator/v10"

	liberr "github.com/nabbar/uvhttp/errors"
)

// OptionsStd configures the stdout sink of a Logger.
type OptionsStd struct {
	// DisableStandard disables log to stdout entirely.
	DisableStandard bool `json:"disableStandard,omitempty" mapstructure:"disableStandard,omitempty"`

	// DisableColor disables the color in the stdout formatter.
	DisableColor bool `json:"disableColor,omitempty" mapstructure:"disableColor,omitempty"`

	// DisableTimestamp removes the timestamp before each message.
	DisableTimestamp bool `json:"disableTimestamp,omitempty" mapstructure:"disableTimestamp,omitempty"`
}

// OptionsFile configures one file sink of a Logger.
type OptionsFile struct {
	// Filepath is the file the sink appends to. Paths containing ".."
	// or starting with "/" are rejected by Validate.
	Filepath string `json:"filepath" mapstructure:"filepath" validate:"required"`

	// Create allows the sink to create the file when missing.
	Create bool `json:"create,omitempty" mapstructure:"create,omitempty"`

	// FileMode is used when creating the file; zero means 0644.
	FileMode os.FileMode `json:"fileMode,omitempty" mapstructure:"fileMode,omitempty"`

	// LogLevel is kept with the options and copied by Clone. SetOptions
	// does not filter sinks by it: every structured file sink receives
	// every entry the logger's own level lets through.
	LogLevel []string `json:"logLevel,omitempty" mapstructure:"logLevel,omitempty"`

	// EnableAccessLog routes access-log entries to this sink, one line
	// per response.
	EnableAccessLog bool `json:"enableAccessLog,omitempty" mapstructure:"enableAccessLog,omitempty"`
}

// Options collects every sink of one Logger, applied by SetOptions.
type Options struct {
	// Stdout configures the stdout sink; nil keeps defaults.
	Stdout *OptionsStd `json:"stdout,omitempty" mapstructure:"stdout,omitempty"`

	// LogFile lists the file sinks to open.
	LogFile []OptionsFile `json:"logFile,omitempty" mapstructure:"logFile,omitempty" validate:"dive"`
}

// Validate checks the options struct against its model and rejects any
// file path suspected of traversal.
func (o *Options) Validate() liberr.Error {
	e := ErrorValidatorError.Error()

	if err := libval.New().Struct(o); err != nil {
		if er, ok := err.(*libval.InvalidValidationError); ok {
			e.Add(er)
		} else {
			for _, er := range err.(libval.ValidationErrors) {
				//nolint #goerr113
				e.Add(fmt.Errorf("options field '%s' is not validated by constraint '%s'", er.Namespace(), er.ActualTag()))
			}
		}
	}

	for _, f := range o.LogFile {
		if !allowedLogPath(f.Filepath) {
			e.Add(ErrorFilePath.Error())
		}
	}

	if !e.HasParent() {
		e = nil
	}

	return e
}

// Clone returns a deep copy of the options.
func (o *Options) Clone() Options {
	var s *OptionsStd

	if o.Stdout != nil {
		c := *o.Stdout
		s = &c
	}

	files := make([]OptionsFile, 0, len(o.LogFile))
	for _, f := range o.LogFile {
		f.LogLevel = append([]string(nil), f.LogLevel...)
		files = append(files, f)
	}

	return Options{
		Stdout:  s,
		LogFile: files,
	}
}

// allowedLogPath rejects absolute paths and any ".." segment, the same
// policy the server applies to its access-log path.
func allowedLogPath(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") {
		return false
	}
	for _, seg := range strings.Split(strings.ReplaceAll(p, "\\", "/"), "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}
