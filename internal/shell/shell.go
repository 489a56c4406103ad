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

// Package shell implements a small command shell that workers use to run
// scripts and offer completions. The shell keeps its own connection to
// the server, dialed with the worker's driver.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/upper/mongoadmin"
)

var (
	ErrNotInitialized = errors.New("shell: not initialized")
	ErrSyntax         = errors.New("shell: syntax error")
	ErrMissingDB      = errors.New("shell: missing database name")
)

// Shell is a mongoadmin.Interpreter.
type Shell struct {
	driver   mongoadmin.Driver
	profile  mongoadmin.ConnectionProfile
	settings mongoadmin.Settings
	log      logrus.FieldLogger

	// mu guards conn and closed; Close may run on another goroutine.
	mu     sync.Mutex
	conn   mongoadmin.Connection
	closed bool

	initialized bool
	// startup is run once, right after the shell first connects.
	startup   string
	database  string
	batchSize int
}

var _ mongoadmin.Interpreter = &Shell{}

// Factory returns a constructor of shells that dial through driver.
func Factory(driver mongoadmin.Driver, log logrus.FieldLogger) mongoadmin.NewInterpreterFunc {
	return func(profile mongoadmin.ConnectionProfile, settings mongoadmin.Settings) (mongoadmin.Interpreter, error) {
		return New(driver, profile, settings, log)
	}
}

// New returns a shell for profile. It does not connect until it is
// first used.
func New(driver mongoadmin.Driver, profile mongoadmin.ConnectionProfile, settings mongoadmin.Settings, log logrus.FieldLogger) (*Shell, error) {
	if driver == nil {
		return nil, fmt.Errorf("%w: missing driver", mongoadmin.ErrInvalidConfig)
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Shell{
		driver:    driver,
		profile:   profile,
		settings:  settings,
		log:       log.WithField("component", "shell"),
		database:  profile.WorkingDatabase(),
		batchSize: settings.BatchSize,
	}, nil
}

// Init prepares the shell and, if asked to, loads the startup script. The
// shell connects lazily on the first statement or completion, so that a
// rejected credential surfaces there and not here. A missing startup
// script is skipped.
func (s *Shell) Init(ctx context.Context, loadStartupScript bool) error {
	if loadStartupScript && s.settings.StartupScript != "" {
		script, err := os.ReadFile(s.settings.StartupScript)
		switch {
		case errors.Is(err, os.ErrNotExist):
			s.log.WithField("path", s.settings.StartupScript).Debug("no startup script")
		case err != nil:
			return fmt.Errorf("read startup script: %w", err)
		default:
			s.startup = string(script)
		}
	}
	s.initialized = true
	return nil
}

// connection returns the shell's connection, dialing and authenticating
// it on first use.
func (s *Shell) connection(ctx context.Context) (mongoadmin.Connection, error) {
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	if conn := s.current(); conn != nil {
		return conn, nil
	}

	conn, err := s.driver.Dial(ctx, s.profile)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	if cred := s.profile.Credential; cred != nil {
		if err := conn.Authenticate(ctx, *cred); err != nil {
			_ = conn.Close(ctx)
			return nil, fmt.Errorf("authenticate: %w", err)
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close(ctx)
		return nil, ErrNotInitialized
	}
	s.conn = conn
	s.mu.Unlock()

	if script := s.startup; script != "" {
		s.startup = ""
		if _, err := s.Exec(ctx, script, ""); err != nil {
			s.log.WithError(err).Warn("startup script failed")
		}
	}
	return conn, nil
}

// Use switches the current database.
func (s *Shell) Use(database string) error {
	if database == "" {
		return ErrMissingDB
	}
	s.database = database
	return nil
}

// SetBatchSize bounds the number of documents a find statement returns.
func (s *Shell) SetBatchSize(n int) {
	s.batchSize = n
}

// Database returns the current database.
func (s *Shell) Database() string {
	return s.database
}

// Exec runs script statement by statement. A non-empty database switches
// to it first. Execution stops at the first failing statement; the
// results of the statements before it are returned with the error.
func (s *Shell) Exec(ctx context.Context, script, database string) (mongoadmin.ScriptResult, error) {
	if _, err := s.connection(ctx); err != nil {
		return mongoadmin.ScriptResult{}, err
	}
	if database != "" {
		s.database = database
	}

	res := mongoadmin.ScriptResult{}
	for i, line := range strings.Split(script, "\n") {
		stmt := strings.TrimSuffix(strings.TrimSpace(line), ";")
		if stmt == "" || strings.HasPrefix(stmt, "//") {
			continue
		}

		start := time.Now()
		out, err := s.exec(ctx, stmt)
		if err != nil {
			res.Database = s.database
			return res, fmt.Errorf("line %d: %w", i+1, err)
		}
		out.Statement = stmt
		out.Elapsed = time.Since(start)
		res.Results = append(res.Results, out)
	}

	res.Database = s.database
	return res, nil
}

// Ping runs {ping: 1} on the shell's connection. A shell that has not
// connected yet has nothing to keep alive.
func (s *Shell) Ping(ctx context.Context) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	conn := s.current()
	if conn == nil {
		return nil
	}
	_, err := conn.RunCommand(ctx, s.database, bson.D{{Key: "ping", Value: 1}})
	return err
}

// Close releases the shell's connection.
func (s *Shell) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.closed = true
	s.mu.Unlock()

	if conn == nil {
		return nil
	}

	timeout := s.settings.StopTimeout
	if timeout <= 0 {
		timeout = mongoadmin.DefaultSettings().StopTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return conn.Close(ctx)
}

func (s *Shell) current() mongoadmin.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conn
}

func (s *Shell) withClient(ctx context.Context, fn func(mongoadmin.Client) error) error {
	conn, err := s.connection(ctx)
	if err != nil {
		return err
	}

	c := conn.Client()
	defer c.Done()

	return fn(c)
}
