// Copyright (c) 2012-present The upper.io/db authors. All rights reserved.
//
// Permission is hereby granted, free of charge, to any person obtaining
// a copy of this software and associated documentation files (the
// "Software"), to deal in the Software without restriction, including
// without limitation the rights to use, copy, modify, merge, publish,
// distribute, sublicense, and/or sell copies of the Software, and to
// permit persons to whom the Software is furnished to do so, subject to
// the following conditions:
//
// The above copyright notice and this permission notice shall be
// included in all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
// MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE
// LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION
// OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION
// WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package logger

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// EnvEnableDebug switches the default logger to debug level when set to a
// non-empty value.
//
// Example:
//
//	MONGOADMIN_DEBUG=1 mongoadmin dbs
const EnvEnableDebug = `MONGOADMIN_DEBUG`

var (
	reInvisibleChars = regexp.MustCompile(`[\s\r\n\t]+`)
	reURLPassword    = regexp.MustCompile(`(://)([^:/@]+):([^@]+)(@)`)
)

// New returns a logger writing to stderr at info level, or debug level when
// EnvEnableDebug is set.
func New() *logrus.Logger {
	lg := logrus.New()
	lg.SetOutput(os.Stderr)
	lg.SetLevel(logrus.InfoLevel)
	if os.Getenv(EnvEnableDebug) != "" {
		lg.SetLevel(logrus.DebugLevel)
	}
	return lg
}

// Discard returns a logger that writes nothing.
func Discard() *logrus.Logger {
	lg := logrus.New()
	lg.SetOutput(io.Discard)
	return lg
}

// Status reports one completed worker operation.
type Status struct {
	Operation string
	RequestID string
	Target    string
	Err       error

	Start time.Time
	End   time.Time
}

// Elapsed returns how long the operation took.
func (s *Status) Elapsed() time.Duration {
	return s.End.Sub(s.Start)
}

// Line formats the status the same way for every operation.
func (s *Status) Line() string {
	parts := make([]string, 0, 4)

	op := strings.TrimSpace(reInvisibleChars.ReplaceAllString(s.Operation, ` `))
	if op != "" {
		parts = append(parts, fmt.Sprintf(`O: %s`, op))
	}
	if s.Target != "" {
		parts = append(parts, fmt.Sprintf(`N: %s`, s.Target))
	}
	if s.Err != nil {
		parts = append(parts, fmt.Sprintf(`E: %q`, s.Err))
	}
	parts = append(parts, fmt.Sprintf(`T: %0.5fs`, s.Elapsed().Seconds()))

	return strings.Join(parts, " ")
}

// Log writes s to lg: debug level on success, warning on failure.
func Log(lg logrus.FieldLogger, s *Status) {
	entry := lg.WithFields(logrus.Fields{
		"operation": s.Operation,
		"request":   s.RequestID,
	})
	if s.Err != nil {
		entry.WithError(s.Err).Warn(s.Line())
		return
	}
	entry.Debug(s.Line())
}

// MaskURL hides the password of a connection URL.
func MaskURL(s string) string {
	return reURLPassword.ReplaceAllString(s, "$1$2:***$4")
}
