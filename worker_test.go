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

package mongoadmin_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock/testclock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/upper/mongoadmin"
	"github.com/upper/mongoadmin/adapter/mockdb"
	"github.com/upper/mongoadmin/bus"
	"github.com/upper/mongoadmin/internal/shell"
)

const receiveTimeout = 5 * time.Second

var errBoom = errors.New("boom")

type harness struct {
	t *testing.T

	server *mockdb.Server
	shell  *mockdb.Interpreter
	bus    *bus.Bus
	inbox  *bus.Inbox
	clock  *testclock.Clock
	worker *mongoadmin.Worker
}

type option func(*harness, *mongoadmin.Config)

func withProfile(p mongoadmin.ConnectionProfile) option {
	return func(_ *harness, cfg *mongoadmin.Config) {
		cfg.Profile = p
	}
}

func withCredential(database, user, password string) option {
	return func(h *harness, cfg *mongoadmin.Config) {
		h.server.AddUser(database, user, "secret")
		cfg.Profile.Credential = &mongoadmin.Credential{Database: database, User: user, Password: password}
	}
}

func withSettings(fn func(*mongoadmin.Settings)) option {
	return func(_ *harness, cfg *mongoadmin.Config) {
		fn(&cfg.Settings)
	}
}

// withCommandShell serves scripts with the default shell over the mock
// server instead of the scripted interpreter.
func withCommandShell() option {
	return func(h *harness, cfg *mongoadmin.Config) {
		cfg.NewInterpreter = shell.Factory(h.server, nil)
	}
}

func withWallClock() option {
	return func(h *harness, cfg *mongoadmin.Config) {
		h.clock = nil
		cfg.Clock = nil
	}
}

func newHarness(t *testing.T, opts ...option) *harness {
	t.Helper()

	h := &harness{
		t:      t,
		server: mockdb.New(),
		shell:  &mockdb.Interpreter{Suggestions: []string{"show dbs", "show collections", "use "}},
		bus:    bus.New(testLogger()),
		inbox:  bus.NewInbox(),
		clock:  testclock.NewClock(time.Now()),
	}

	cfg := mongoadmin.Config{
		Profile:        mongoadmin.ConnectionProfile{Name: t.Name(), Address: "mock:27017"},
		Bus:            h.bus,
		Driver:         h.server,
		NewInterpreter: h.shell.Factory(),
		Clock:          h.clock,
		Logger:         testLogger(),
	}
	for _, opt := range opts {
		opt(h, &cfg)
	}
	h.start(cfg)
	return h
}

func (h *harness) start(cfg mongoadmin.Config) {
	w, err := mongoadmin.NewWorker(cfg)
	require.NoError(h.t, err)
	h.worker = w

	h.t.Cleanup(func() {
		_ = w.Close()
		h.bus.Close()
	})
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func (h *harness) envelope() mongoadmin.Envelope {
	return mongoadmin.NewEnvelope(h.inbox)
}

func (h *harness) send(req mongoadmin.Request) {
	h.worker.Send(req)
}

func (h *harness) receive() mongoadmin.Response {
	h.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), receiveTimeout)
	defer cancel()

	msg, err := h.inbox.Receive(ctx)
	require.NoError(h.t, err)

	resp, ok := msg.(mongoadmin.Response)
	require.True(h.t, ok, "unexpected message %T", msg)
	return resp
}

// do sends req and waits for its response, which must have type T.
func do[T mongoadmin.Response](h *harness, req mongoadmin.Request) T {
	h.t.Helper()

	h.send(req)
	resp := h.receive()
	assert.Equal(h.t, req.RequestID(), resp.RequestID())

	typed, ok := resp.(T)
	require.True(h.t, ok, "unexpected response %T", resp)
	return typed
}

func (h *harness) init() {
	h.t.Helper()
	resp := do[*mongoadmin.InitResponse](h, &mongoadmin.InitRequest{Envelope: h.envelope()})
	requireOK(h.t, resp)
}

func (h *harness) establish() *mongoadmin.EstablishConnectionResponse {
	h.t.Helper()
	resp := do[*mongoadmin.EstablishConnectionResponse](h, &mongoadmin.EstablishConnectionRequest{Envelope: h.envelope()})
	requireOK(h.t, resp)
	return resp
}

func requireOK(t *testing.T, resp mongoadmin.Response) {
	t.Helper()
	if f := resp.Failure(); f != nil {
		require.FailNow(t, "unexpected failure", f.Detail())
	}
}

func requireFailure(t *testing.T, resp mongoadmin.Response, kind mongoadmin.Kind, message string) *mongoadmin.Error {
	t.Helper()
	f := resp.Failure()
	require.NotNil(t, f, "expecting a failure")
	assert.Equal(t, kind, f.Kind)
	assert.Equal(t, message, f.Error())
	return f
}

func verifyNoLeaks(t *testing.T) {
	t.Cleanup(func() {
		goleak.VerifyNone(t, goleak.IgnoreCurrent())
	})
}

func TestNewWorkerValidatesConfig(t *testing.T) {
	server := mockdb.New()
	shell := &mockdb.Interpreter{}

	tests := []struct {
		name string
		cfg  mongoadmin.Config
	}{
		{"missing bus", mongoadmin.Config{Driver: server, NewInterpreter: shell.Factory()}},
		{"missing driver", mongoadmin.Config{Bus: bus.New(nil), NewInterpreter: shell.Factory()}},
		{"missing interpreter", mongoadmin.Config{Bus: bus.New(nil), Driver: server}},
		{"credential without database", mongoadmin.Config{
			Bus:            bus.New(nil),
			Driver:         server,
			NewInterpreter: shell.Factory(),
			Profile:        mongoadmin.ConnectionProfile{Credential: &mongoadmin.Credential{User: "john"}},
		}},
		{"negative timeout", mongoadmin.Config{
			Bus:            bus.New(nil),
			Driver:         server,
			NewInterpreter: shell.Factory(),
			Settings:       mongoadmin.Settings{StopTimeout: -time.Second},
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := mongoadmin.NewWorker(test.cfg)
			assert.ErrorIs(t, err, mongoadmin.ErrInvalidConfig)
		})
	}
}

func TestIdleWorkerCloses(t *testing.T) {
	verifyNoLeaks(t)

	h := newHarness(t)
	assert.Equal(t, mongoadmin.StateUninitialized, h.worker.State())

	assert.NoError(t, h.worker.Close())
	assert.Equal(t, mongoadmin.StateClosed, h.worker.State())
	assert.Equal(t, 0, h.server.Dials())
}

func TestInit(t *testing.T) {
	h := newHarness(t, withProfile(mongoadmin.ConnectionProfile{DefaultDatabase: "shop"}))

	resp := do[*mongoadmin.InitResponse](h, &mongoadmin.InitRequest{
		Envelope:          h.envelope(),
		LoadStartupScript: true,
		BatchSize:         10,
	})
	requireOK(t, resp)

	assert.Equal(t, mongoadmin.StateReady, h.worker.State())
	assert.Equal(t, "shop", h.shell.Database())
	assert.Equal(t, 10, h.shell.BatchSize())
	assert.True(t, h.shell.StartupScript())
	assert.Equal(t, 0, h.server.Dials(), "Init must not connect")
}

func TestInitDefaults(t *testing.T) {
	h := newHarness(t)
	h.init()

	assert.Equal(t, mongoadmin.DefaultDatabase, h.shell.Database())
	assert.Equal(t, mongoadmin.DefaultSettings().BatchSize, h.shell.BatchSize())
	assert.False(t, h.shell.StartupScript())
}

func TestInitTwice(t *testing.T) {
	h := newHarness(t)
	h.init()

	resp := do[*mongoadmin.InitResponse](h, &mongoadmin.InitRequest{Envelope: h.envelope()})
	f := requireFailure(t, resp, mongoadmin.KindSetup, "Unable to initialize shell.")
	assert.ErrorIs(t, f, mongoadmin.ErrAlreadyInitialized)
	assert.Equal(t, 1, h.shell.Created())
	assert.Equal(t, mongoadmin.StateReady, h.worker.State())
}

func TestFailedInit(t *testing.T) {
	h := newHarness(t)
	h.shell.InitErr = errBoom

	resp := do[*mongoadmin.InitResponse](h, &mongoadmin.InitRequest{Envelope: h.envelope()})
	f := requireFailure(t, resp, mongoadmin.KindSetup, "Unable to initialize shell.")
	assert.ErrorIs(t, f, errBoom)
	assert.Contains(t, f.Detail(), "boom")
	assert.Equal(t, mongoadmin.StateClosed, h.worker.State())
	assert.True(t, h.shell.IsClosed())

	// Every later request is refused without touching the server.
	dbs := do[*mongoadmin.LoadDatabaseNamesResponse](h, &mongoadmin.LoadDatabaseNamesRequest{Envelope: h.envelope()})
	requireFailure(t, dbs, mongoadmin.KindSetup, "Worker is not available.")

	script := do[*mongoadmin.ExecuteScriptResponse](h, &mongoadmin.ExecuteScriptRequest{Envelope: h.envelope(), Script: "show dbs"})
	requireFailure(t, script, mongoadmin.KindSetup, "Worker is not available.")

	assert.Equal(t, 0, h.server.Dials())
	assert.Empty(t, h.server.Calls())
}

func TestInterpreterConstructionFails(t *testing.T) {
	h := newHarness(t)
	h.shell.NewErr = errBoom

	resp := do[*mongoadmin.InitResponse](h, &mongoadmin.InitRequest{Envelope: h.envelope()})
	f := requireFailure(t, resp, mongoadmin.KindSetup, "Unable to initialize shell.")
	assert.ErrorIs(t, f, errBoom)
}

func TestFinalize(t *testing.T) {
	h := newHarness(t)

	resp := do[*mongoadmin.FinalizeResponse](h, &mongoadmin.FinalizeRequest{Envelope: h.envelope()})
	requireOK(t, resp)
	assert.Equal(t, mongoadmin.StateUninitialized, h.worker.State())
}

func TestResponsesFollowRequestOrder(t *testing.T) {
	h := newHarness(t)
	h.establish()

	const n = 50
	ids := make([]mongoadmin.Request, 0, n)
	for i := 0; i < n; i++ {
		var req mongoadmin.Request
		if i%2 == 0 {
			req = &mongoadmin.LoadDatabaseNamesRequest{Envelope: h.envelope()}
		} else {
			req = &mongoadmin.LoadUsersRequest{Envelope: h.envelope(), Database: "admin"}
		}
		ids = append(ids, req)
		h.send(req)
	}

	for i := 0; i < n; i++ {
		resp := h.receive()
		assert.Equal(t, ids[i].RequestID(), resp.RequestID(), "response %d out of order", i)
	}
}

func TestConcurrentSenders(t *testing.T) {
	h := newHarness(t)

	const senders, perSender = 4, 25

	var wg sync.WaitGroup
	inboxes := make([]*bus.Inbox, senders)
	for i := range inboxes {
		inboxes[i] = bus.NewInbox()
	}
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(inbox *bus.Inbox) {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				h.worker.Send(&mongoadmin.FinalizeRequest{Envelope: mongoadmin.NewEnvelope(inbox)})
			}
		}(inboxes[i])
	}
	wg.Wait()

	for _, inbox := range inboxes {
		for j := 0; j < perSender; j++ {
			ctx, cancel := context.WithTimeout(context.Background(), receiveTimeout)
			msg, err := inbox.Receive(ctx)
			cancel()
			require.NoError(t, err)
			assert.IsType(t, &mongoadmin.FinalizeResponse{}, msg)
		}
	}
}

func TestMissingRequestIDIsAssigned(t *testing.T) {
	h := newHarness(t)

	h.send(&mongoadmin.FinalizeRequest{Envelope: mongoadmin.Envelope{From: h.inbox}})
	resp := h.receive()
	assert.NotEqual(t, uuid.Nil, resp.RequestID())
}

func TestRequestToClosedWorker(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.worker.Close())

	resp := do[*mongoadmin.LoadDatabaseNamesResponse](h, &mongoadmin.LoadDatabaseNamesRequest{Envelope: h.envelope()})
	f := requireFailure(t, resp, mongoadmin.KindSetup, "Worker is closed.")
	assert.ErrorIs(t, f, mongoadmin.ErrWorkerClosed)
}

func TestCloseReleasesHandles(t *testing.T) {
	verifyNoLeaks(t)

	h := newHarness(t)
	h.init()
	h.establish()

	require.NoError(t, h.worker.Close())
	assert.Equal(t, 1, h.server.Closed())
	assert.True(t, h.shell.IsClosed())

	// A second Close is harmless.
	assert.NoError(t, h.worker.Close())
	assert.Equal(t, 1, h.server.Closed())
}

func TestCloseAbandonsStuckOperation(t *testing.T) {
	verifyNoLeaks(t)

	h := newHarness(t, withWallClock(), withSettings(func(s *mongoadmin.Settings) {
		s.StopTimeout = 100 * time.Millisecond
	}))

	// One request gets stuck in the driver, a second one waits behind it.
	entered, release := h.server.Block("DatabaseNames")
	defer release()

	h.send(&mongoadmin.EstablishConnectionRequest{Envelope: h.envelope()})
	queued := &mongoadmin.LoadUsersRequest{Envelope: h.envelope(), Database: "admin"}
	h.send(queued)

	select {
	case <-entered:
	case <-time.After(receiveTimeout):
		t.Fatal("operation did not start")
	}

	start := time.Now()
	err := h.worker.Close()
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, mongoadmin.ErrStopTimeout)
	assert.Less(t, elapsed, 2*time.Second)
	assert.Equal(t, mongoadmin.StateClosed, h.worker.State())
	assert.Equal(t, 1, h.server.Closed(), "connection must be released on timeout")

	// Letting the stuck call return lets the goroutine finish.
	release()
	assert.NoError(t, h.worker.Wait())

	got := map[uuid.UUID]mongoadmin.Response{}
	for i := 0; i < 2; i++ {
		resp := h.receive()
		got[resp.RequestID()] = resp
	}
	requireFailure(t, got[queued.RequestID()], mongoadmin.KindSetup, "Worker is closed.")
}

func TestPanicYieldsMatchingResponse(t *testing.T) {
	h := newHarness(t)

	cfg := mongoadmin.Config{
		Bus:    h.bus,
		Driver: h.server,
		NewInterpreter: func(mongoadmin.ConnectionProfile, mongoadmin.Settings) (mongoadmin.Interpreter, error) {
			return &panicShell{Interpreter: &mockdb.Interpreter{}}, nil
		},
		Clock:  h.clock,
		Logger: testLogger(),
	}
	h.start(cfg)
	h.init()

	resp := do[*mongoadmin.ExecuteScriptResponse](h, &mongoadmin.ExecuteScriptRequest{Envelope: h.envelope(), Script: "db.items.find()"})
	f := requireFailure(t, resp, mongoadmin.KindDriver, "Unexpected failure.")
	assert.Contains(t, f.Detail(), "shell exploded")

	// The worker keeps serving.
	requireOK(t, do[*mongoadmin.FinalizeResponse](h, &mongoadmin.FinalizeRequest{Envelope: h.envelope()}))
}

type panicShell struct {
	*mockdb.Interpreter
}

func (p *panicShell) Exec(context.Context, string, string) (mongoadmin.ScriptResult, error) {
	panic("shell exploded")
}

func TestKeepAliveWithoutConnection(t *testing.T) {
	h := newHarness(t)
	h.init()

	require.NoError(t, h.clock.WaitAdvance(mongoadmin.DefaultSettings().KeepAliveInterval, receiveTimeout, 1))

	assert.Eventually(t, func() bool {
		return h.shell.Pings() == 1
	}, receiveTimeout, 10*time.Millisecond)
	assert.Equal(t, 0, h.server.Dials(), "keep-alive must not connect")
	assert.Equal(t, 0, h.server.CallCount("RunCommand"))
}

func TestKeepAlivePingsConnection(t *testing.T) {
	h := newHarness(t, withSettings(func(s *mongoadmin.Settings) {
		s.KeepAliveInterval = time.Minute
	}))
	h.init()
	h.establish()

	for i := 1; i <= 2; i++ {
		require.NoError(t, h.clock.WaitAdvance(time.Minute, receiveTimeout, 1))
		n := i
		assert.Eventually(t, func() bool {
			return h.server.CallCount("RunCommand") == n && h.shell.Pings() == n
		}, receiveTimeout, 10*time.Millisecond)
	}
}

func TestKeepAliveFailuresAreSwallowed(t *testing.T) {
	h := newHarness(t)
	h.init()
	h.establish()

	h.server.FailOn("RunCommand", errBoom)
	h.shell.PingErr = errBoom

	require.NoError(t, h.clock.WaitAdvance(mongoadmin.DefaultSettings().KeepAliveInterval, receiveTimeout, 1))
	assert.Eventually(t, func() bool {
		return h.shell.Pings() == 1
	}, receiveTimeout, 10*time.Millisecond)

	// Nothing is delivered and the worker keeps serving.
	assert.Equal(t, 0, h.inbox.Len())
	requireOK(t, do[*mongoadmin.LoadDatabaseNamesResponse](h, &mongoadmin.LoadDatabaseNamesRequest{Envelope: h.envelope()}))
}

func TestOperationTimeout(t *testing.T) {
	h := newHarness(t, withSettings(func(s *mongoadmin.Settings) {
		s.OperationTimeout = time.Nanosecond
	}))

	resp := do[*mongoadmin.EstablishConnectionResponse](h, &mongoadmin.EstablishConnectionRequest{Envelope: h.envelope()})
	f := requireFailure(t, resp, mongoadmin.KindDriver, "Unable to connect.")
	assert.ErrorIs(t, f, context.DeadlineExceeded)
}
