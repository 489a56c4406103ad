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

package mockdb

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/upper/mongoadmin"
)

// ErrInterpreterClosed is returned by a closed Interpreter.
var ErrInterpreterClosed = errors.New("mockdb: interpreter closed")

// Interpreter is a scripted stand-in for a shell session.
type Interpreter struct {
	mu sync.Mutex

	// NewErr fails construction, InitErr fails Init.
	NewErr      error
	InitErr     error
	ExecErr     error
	CompleteErr error
	PingErr     error

	// Suggestions are offered for every prefix they start with.
	Suggestions []string

	profile   mongoadmin.ConnectionProfile
	created   int
	startup   bool
	database  string
	batchSize int
	scripts   []string
	pings     int
	closed    bool
}

var _ mongoadmin.Interpreter = &Interpreter{}

// Factory returns a constructor that always hands out i.
func (i *Interpreter) Factory() mongoadmin.NewInterpreterFunc {
	return func(profile mongoadmin.ConnectionProfile, settings mongoadmin.Settings) (mongoadmin.Interpreter, error) {
		i.mu.Lock()
		defer i.mu.Unlock()

		i.created++
		if i.NewErr != nil {
			return nil, i.NewErr
		}
		i.profile = profile
		return i, nil
	}
}

func (i *Interpreter) Init(ctx context.Context, loadStartupScript bool) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.InitErr != nil {
		return i.InitErr
	}
	i.startup = loadStartupScript
	return nil
}

func (i *Interpreter) Use(database string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.database = database
	return nil
}

func (i *Interpreter) SetBatchSize(n int) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.batchSize = n
}

// Exec echoes every non-blank line of script as one statement.
func (i *Interpreter) Exec(ctx context.Context, script, database string) (mongoadmin.ScriptResult, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return mongoadmin.ScriptResult{}, ErrInterpreterClosed
	}
	i.scripts = append(i.scripts, script)
	if i.ExecErr != nil {
		return mongoadmin.ScriptResult{}, i.ExecErr
	}

	if database == "" {
		database = i.database
	}
	res := mongoadmin.ScriptResult{Database: database}
	for _, line := range strings.Split(script, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			res.Results = append(res.Results, mongoadmin.StatementResult{
				Statement: line,
				Type:      "echo",
				Message:   line,
			})
		}
	}
	return res, nil
}

func (i *Interpreter) Complete(ctx context.Context, prefix string) ([]string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.CompleteErr != nil {
		return nil, i.CompleteErr
	}
	out := []string{}
	for _, s := range i.Suggestions {
		if strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (i *Interpreter) Ping(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.pings++
	return i.PingErr
}

func (i *Interpreter) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.closed = true
	return nil
}

// Created returns how many times the factory was called.
func (i *Interpreter) Created() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.created
}

// StartupScript reports whether Init was asked to load the startup script.
func (i *Interpreter) StartupScript() bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.startup
}

// Database returns the current database.
func (i *Interpreter) Database() string {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.database
}

func (i *Interpreter) BatchSize() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.batchSize
}

// Scripts returns the scripts executed so far.
func (i *Interpreter) Scripts() []string {
	i.mu.Lock()
	defer i.mu.Unlock()

	return append([]string(nil), i.scripts...)
}

func (i *Interpreter) Pings() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.pings
}

func (i *Interpreter) IsClosed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.closed
}
