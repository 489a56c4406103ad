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

package mongoadmin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"gopkg.in/tomb.v2"

	"github.com/upper/mongoadmin/bus"
	"github.com/upper/mongoadmin/internal/logger"
)

// Worker owns one connection to a database server and one shell session.
// Requests delivered to it are served strictly one at a time, in delivery
// order, on the worker's own goroutine; each one is answered through the
// bus before the next one starts.
type Worker struct {
	cfg      Config
	profile  ConnectionProfile
	settings Settings
	log      logrus.FieldLogger
	clock    clock.Clock

	tomb    tomb.Tomb
	ctx     context.Context
	mailbox *bus.Mailbox[Request]
	state   atomic.Int32

	// mu guards the handles below. They are written only by the worker
	// goroutine; Close and other workers read them.
	mu          sync.Mutex
	conn        Connection
	shell       Interpreter
	released    bool
	releaseOnce sync.Once

	// Owned by the worker goroutine.
	initialized  bool
	setupErr     error
	scopeFixed   bool
	admin        bool
	authDatabase string
	batchSize    int
	keepAlive    clock.Timer
}

// NewWorker validates cfg and starts the worker goroutine. The worker
// does nothing until it receives requests.
func NewWorker(cfg Config) (*Worker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	w := &Worker{
		cfg:       cfg,
		profile:   cfg.Profile,
		settings:  cfg.Settings,
		clock:     cfg.Clock,
		mailbox:   bus.NewMailbox[Request](),
		admin:     true,
		batchSize: cfg.Settings.BatchSize,
	}
	w.log = cfg.Logger.WithFields(logrus.Fields{
		"worker":  w.name(),
		"address": w.profile.FullAddress(),
	})
	w.ctx = w.tomb.Context(nil)
	w.tomb.Go(w.loop)

	return w, nil
}

// Profile returns the worker's connection profile.
func (w *Worker) Profile() ConnectionProfile {
	return w.profile.clone()
}

// State returns the worker's lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

func (w *Worker) setState(s State) {
	w.state.Store(int32(s))
}

// Deliver queues a request. It is part of the bus.Target interface and
// never blocks. Requests reaching a closed worker are answered right away
// with an error.
func (w *Worker) Deliver(msg bus.Message) {
	req, ok := msg.(Request)
	if !ok {
		w.log.Warnf("ignoring unexpected message %T", msg)
		return
	}
	if env := req.envelope(); env.ID == uuid.Nil {
		env.ID = uuid.New()
	}
	if !w.mailbox.Push(req) {
		w.cfg.Bus.Send(req.Sender(), req.fail(newError(KindSetup, msgClosed, ErrWorkerClosed)))
	}
}

// Send posts req to this worker through the bus.
func (w *Worker) Send(req Request) {
	w.cfg.Bus.Send(w, req)
}

// Kill asks the worker to stop without waiting.
func (w *Worker) Kill() {
	w.mailbox.Close()
	w.tomb.Kill(nil)
}

// Wait blocks until the worker goroutine has stopped.
func (w *Worker) Wait() error {
	return w.tomb.Wait()
}

// Close stops the worker and releases its connection and shell session.
// It waits at most Settings.StopTimeout for an in-flight operation; past
// that the operation is abandoned, the handles are released anyway and
// ErrStopTimeout is returned.
func (w *Worker) Close() error {
	w.Kill()

	select {
	case <-w.tomb.Dead():
		return w.tomb.Err()
	case <-w.clock.After(w.settings.StopTimeout):
	}

	w.log.Warn("worker did not stop in time, abandoning in-flight operation")
	w.release()
	w.setState(StateClosed)

	return fmt.Errorf("%s: %w", w.name(), ErrStopTimeout)
}

func (w *Worker) loop() error {
	defer w.shutdown()

	for {
		select {
		case <-w.tomb.Dying():
			return tomb.ErrDying
		default:
		}

		select {
		case <-w.tomb.Dying():
			return tomb.ErrDying
		case <-w.mailbox.Ready():
			if req, ok := w.mailbox.Pop(); ok {
				w.process(req)
			}
		case <-w.keepAliveChan():
			w.ping()
			w.keepAlive.Reset(w.settings.KeepAliveInterval)
		}
	}
}

// shutdown runs on the worker goroutine as it exits.
func (w *Worker) shutdown() {
	if w.keepAlive != nil {
		w.keepAlive.Stop()
	}

	w.mailbox.Close()
	for {
		req, ok := w.mailbox.Pop()
		if !ok {
			break
		}
		w.cfg.Bus.Send(req.Sender(), req.fail(newError(KindSetup, msgClosed, ErrWorkerClosed)))
	}

	w.release()
	w.setState(StateClosed)
}

// release closes the connection and the shell session, once.
func (w *Worker) release() {
	w.releaseOnce.Do(func() {
		w.mu.Lock()
		conn, shell := w.conn, w.shell
		w.conn, w.shell = nil, nil
		w.released = true
		w.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), w.settings.StopTimeout)
		defer cancel()

		if shell != nil {
			if err := shell.Close(); err != nil {
				w.log.WithError(err).Debug("closing shell")
			}
		}
		if conn != nil {
			if err := conn.Close(ctx); err != nil {
				w.log.WithError(err).Debug("closing connection")
			}
		}
	})
}

func (w *Worker) process(req Request) {
	start := w.clock.Now()
	resp := w.dispatch(req)

	status := &logger.Status{
		Operation: operationName(req),
		RequestID: req.RequestID().String(),
		Target:    describe(req),
		Start:     start,
		End:       w.clock.Now(),
	}
	if f := resp.Failure(); f != nil {
		status.Err = errors.New(f.Detail())
	}
	logger.Log(w.log, status)

	w.cfg.Bus.Send(req.Sender(), resp)
}

func (w *Worker) dispatch(req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Errorf("recovered from panic in %s: %v", operationName(req), r)
			resp = req.fail(newError(KindDriver, msgUnexpected, fmt.Errorf("panic: %v", r)))
		}
	}()

	if w.setupErr != nil {
		return req.fail(newError(KindSetup, msgUnavailable, w.setupErr))
	}

	ctx, cancel := w.operationContext()
	defer cancel()

	switch r := req.(type) {
	case *InitRequest:
		return w.handleInit(ctx, r)
	case *FinalizeRequest:
		return &FinalizeResponse{Reply: newReply(r.ID, nil)}
	case *EstablishConnectionRequest:
		return w.handleEstablishConnection(ctx, r)
	case *LoadDatabaseNamesRequest:
		return w.handleLoadDatabaseNames(ctx, r)
	case *LoadCollectionNamesRequest:
		return w.handleLoadCollectionNames(ctx, r)
	case *LoadUsersRequest:
		return w.handleLoadUsers(ctx, r)
	case *LoadCollectionIndexesRequest:
		return w.handleLoadCollectionIndexes(ctx, r)
	case *EnsureIndexRequest:
		return w.handleEnsureIndex(ctx, r)
	case *DropCollectionIndexRequest:
		return w.handleDropCollectionIndex(ctx, r)
	case *EditIndexRequest:
		return w.handleEditIndex(ctx, r)
	case *LoadFunctionsRequest:
		return w.handleLoadFunctions(ctx, r)
	case *InsertDocumentRequest:
		return w.handleInsertDocument(ctx, r)
	case *RemoveDocumentRequest:
		return w.handleRemoveDocument(ctx, r)
	case *ExecuteQueryRequest:
		return w.handleExecuteQuery(ctx, r)
	case *ExecuteScriptRequest:
		return w.handleExecuteScript(ctx, r)
	case *AutocompleteRequest:
		return w.handleAutocomplete(ctx, r)
	case *CreateDatabaseRequest:
		return w.handleCreateDatabase(ctx, r)
	case *DropDatabaseRequest:
		return w.handleDropDatabase(ctx, r)
	case *CreateCollectionRequest:
		return w.handleCreateCollection(ctx, r)
	case *DropCollectionRequest:
		return w.handleDropCollection(ctx, r)
	case *RenameCollectionRequest:
		return w.handleRenameCollection(ctx, r)
	case *DuplicateCollectionRequest:
		return w.handleDuplicateCollection(ctx, r)
	case *CopyCollectionToDifferentServerRequest:
		return w.handleCopyCollectionToDifferentServer(ctx, r)
	case *CreateUserRequest:
		return w.handleCreateUser(ctx, r)
	case *DropUserRequest:
		return w.handleDropUser(ctx, r)
	case *CreateFunctionRequest:
		return w.handleCreateFunction(ctx, r)
	case *DropFunctionRequest:
		return w.handleDropFunction(ctx, r)
	}

	return req.fail(newError(KindDriver, msgUnexpected, fmt.Errorf("%w: %T", ErrUnknownRequest, req)))
}

// operationContext is cancelled when the worker dies, and after
// Settings.OperationTimeout if one is set.
func (w *Worker) operationContext() (context.Context, context.CancelFunc) {
	if w.settings.OperationTimeout > 0 {
		return context.WithTimeout(w.ctx, w.settings.OperationTimeout)
	}
	return context.WithCancel(w.ctx)
}

func (w *Worker) keepAliveChan() <-chan time.Time {
	if w.keepAlive == nil {
		return nil
	}
	return w.keepAlive.Chan()
}

func (w *Worker) name() string {
	if w.profile.Name != "" {
		return w.profile.Name
	}
	return w.profile.FullAddress()
}

func operationName(req Request) string {
	name := fmt.Sprintf("%T", req)
	name = name[strings.LastIndex(name, ".")+1:]
	return strings.TrimSuffix(name, "Request")
}

// describe names what a request operates on, for logs.
func describe(req Request) string {
	switch r := req.(type) {
	case *LoadCollectionNamesRequest:
		return r.Database
	case *LoadUsersRequest:
		return r.Database
	case *LoadFunctionsRequest:
		return r.Database
	case *CreateDatabaseRequest:
		return r.Database
	case *DropDatabaseRequest:
		return r.Database
	case *CreateUserRequest:
		return r.Database
	case *DropUserRequest:
		return r.Database
	case *CreateFunctionRequest:
		return r.Database
	case *DropFunctionRequest:
		return r.Database
	case *ExecuteScriptRequest:
		return r.Database
	case *LoadCollectionIndexesRequest:
		return r.Namespace.String()
	case *EnsureIndexRequest:
		return r.New.Namespace.String()
	case *DropCollectionIndexRequest:
		return r.Namespace.String()
	case *EditIndexRequest:
		return r.Namespace.String()
	case *InsertDocumentRequest:
		return r.Namespace.String()
	case *RemoveDocumentRequest:
		return r.Namespace.String()
	case *ExecuteQueryRequest:
		return r.Query.Namespace.String()
	case *CreateCollectionRequest:
		return r.Namespace.String()
	case *DropCollectionRequest:
		return r.Namespace.String()
	case *RenameCollectionRequest:
		return r.Namespace.String()
	case *DuplicateCollectionRequest:
		return r.Namespace.String()
	case *CopyCollectionToDifferentServerRequest:
		return r.From.String()
	}
	return ""
}
