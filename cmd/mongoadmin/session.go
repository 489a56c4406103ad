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

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/upper/mongoadmin"
	"github.com/upper/mongoadmin/adapter/mockdb"
	"github.com/upper/mongoadmin/adapter/mongo"
	"github.com/upper/mongoadmin/bus"
	"github.com/upper/mongoadmin/internal/logger"
	"github.com/upper/mongoadmin/internal/shell"
)

// session drives a single worker on behalf of one command.
type session struct {
	bus     *bus.Bus
	inbox   *bus.Inbox
	worker  *mongoadmin.Worker
	timeout time.Duration

	Info mongoadmin.ConnectionInfo
}

func newSession(o options) (*session, error) {
	log := logger.New()
	if o.debug {
		log.SetLevel(logrus.DebugLevel)
	}

	settings := mongoadmin.DefaultSettings()
	if o.config != "" {
		data, err := os.ReadFile(o.config)
		if err != nil {
			return nil, fmt.Errorf("read settings: %w", err)
		}
		if settings, err = mongoadmin.ParseSettings(data); err != nil {
			return nil, fmt.Errorf("parse %s: %w", o.config, err)
		}
	}

	var (
		driver  mongoadmin.Driver
		profile mongoadmin.ConnectionProfile
	)
	if o.mock {
		driver = demoServer()
		profile = mongoadmin.ConnectionProfile{Name: "mock", Address: "mock:27017", DefaultDatabase: "shop"}
	} else {
		var err error
		if profile, err = mongo.ParseProfile(o.uri); err != nil {
			return nil, err
		}
		driver = mongo.NewDriver(log)
	}

	b := bus.New(log)
	w, err := mongoadmin.NewWorker(mongoadmin.Config{
		Profile:        profile,
		Bus:            b,
		Driver:         driver,
		NewInterpreter: shell.Factory(driver, log),
		Logger:         log,
		Settings:       settings,
	})
	if err != nil {
		b.Close()
		return nil, err
	}

	timeout := o.timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &session{
		bus:     b,
		inbox:   bus.NewInbox(),
		worker:  w,
		timeout: timeout,
	}, nil
}

// start initializes the shell and establishes the connection.
func (s *session) start(ctx context.Context) error {
	if _, err := call[*mongoadmin.InitResponse](ctx, s, &mongoadmin.InitRequest{Envelope: s.envelope()}); err != nil {
		return err
	}
	resp, err := call[*mongoadmin.EstablishConnectionResponse](ctx, s, &mongoadmin.EstablishConnectionRequest{Envelope: s.envelope()})
	if err != nil {
		return err
	}
	s.Info = resp.Info
	return nil
}

func (s *session) envelope() mongoadmin.Envelope {
	return mongoadmin.NewEnvelope(s.inbox)
}

// roundTrip sends req and waits for the response carrying its id.
func (s *session) roundTrip(ctx context.Context, req mongoadmin.Request) (mongoadmin.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.worker.Send(req)
	for {
		msg, err := s.inbox.Receive(ctx)
		if err != nil {
			return nil, fmt.Errorf("waiting for %T: %w", req, err)
		}
		resp, ok := msg.(mongoadmin.Response)
		if !ok || resp.RequestID() != req.RequestID() {
			continue
		}
		if f := resp.Failure(); f != nil {
			return resp, f
		}
		return resp, nil
	}
}

func (s *session) Close() error {
	err := s.worker.Close()
	s.bus.Close()
	return err
}

// call is roundTrip for a known response type.
func call[T mongoadmin.Response](ctx context.Context, s *session, req mongoadmin.Request) (T, error) {
	var zero T

	resp, err := s.roundTrip(ctx, req)
	if err != nil {
		return zero, err
	}
	typed, ok := resp.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected response %T", resp)
	}
	return typed, nil
}

// withSession runs fn against a started session and closes it afterwards.
func withSession(ctx context.Context, fn func(*session) error) (err error) {
	s, err := newSession(opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()

	if err := s.start(ctx); err != nil {
		return err
	}
	return fn(s)
}

// demoServer is the in-memory server behind --mock.
func demoServer() *mockdb.Server {
	items := mongoadmin.Namespace{Database: "shop", Collection: "items"}
	orders := mongoadmin.Namespace{Database: "shop", Collection: "orders"}

	s := mockdb.New().
		AddUser("shop", "clerk", "secret", "read").
		AddUser("admin", "root", "secret", "root").
		Seed(mongoadmin.Namespace{Database: "admin", Collection: "system.version"})

	for i, name := range []string{"lamp", "chair", "desk", "shelf"} {
		s.Seed(items, mustMarshal(bson.D{
			{Key: "_id", Value: i + 1},
			{Key: "name", Value: name},
			{Key: "price", Value: 10 * (i + 1)},
		}))
	}
	s.Seed(orders, mustMarshal(bson.D{
		{Key: "_id", Value: 1},
		{Key: "item", Value: 2},
		{Key: "qty", Value: 3},
	}))
	return s
}

func mustMarshal(d bson.D) bson.Raw {
	raw, err := bson.Marshal(d)
	if err != nil {
		panic(err)
	}
	return raw
}
