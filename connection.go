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
	"fmt"
)

// connection returns the worker's live connection, dialing it on first
// use. Later calls reuse it without reconnecting.
func (w *Worker) connection(ctx context.Context) (Connection, error) {
	if conn := w.currentConnection(); conn != nil {
		return conn, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, w.settings.ConnectTimeout)
	defer cancel()

	conn, err := w.cfg.Driver.Dial(dialCtx, w.profile)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", w.profile.FullAddress(), err)
	}

	w.mu.Lock()
	if w.released {
		w.mu.Unlock()
		_ = conn.Close(ctx)
		return nil, ErrWorkerClosed
	}
	w.conn = conn
	w.mu.Unlock()

	w.log.Debug("connected")
	return conn, nil
}

// currentConnection returns the live connection, nil if there is none yet.
func (w *Worker) currentConnection() Connection {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.conn
}

func (w *Worker) currentShell() Interpreter {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.shell
}

// withClient runs fn with a short-lived accessor bound to the shared
// connection. The accessor never closes the connection.
func (w *Worker) withClient(ctx context.Context, fn func(Client) error) error {
	conn, err := w.connection(ctx)
	if err != nil {
		return err
	}

	client := conn.Client()
	defer client.Done()

	return fn(client)
}

// authenticate fixes the worker's scope. It runs once per worker: after
// the first success later calls leave the scope alone.
//
// Without a credential the worker is administrative. With one, it is
// administrative only if the credential's database is admin.
func (w *Worker) authenticate(ctx context.Context, conn Connection) error {
	if w.scopeFixed {
		return nil
	}

	cred := w.profile.Credential
	if cred == nil {
		w.admin = true
		w.scopeFixed = true
		w.setState(StateAnonymous)
		return nil
	}

	authCtx, cancel := context.WithTimeout(ctx, w.settings.ConnectTimeout)
	defer cancel()

	if err := conn.Authenticate(authCtx, *cred); err != nil {
		return fmt.Errorf("authenticate %s@%s: %w", cred.User, cred.Database, err)
	}

	w.admin = cred.IsAdmin()
	w.authDatabase = cred.Database
	w.scopeFixed = true
	w.setState(StateAuthenticated)

	w.log.WithField("admin", w.admin).Debug("authenticated")
	return nil
}

// databaseNames lists databases visible in the worker's scope. A
// non-administrative credential only sees its own database, so the server
// is not asked. Until the scope is fixed the profile's credential decides.
func (w *Worker) databaseNames(ctx context.Context, c Client) ([]string, error) {
	admin, authDatabase := w.admin, w.authDatabase
	if !w.scopeFixed {
		admin = true
		if cred := w.profile.Credential; cred != nil {
			admin, authDatabase = cred.IsAdmin(), cred.Database
		}
	}

	if !admin {
		return []string{authDatabase}, nil
	}
	return c.DatabaseNames(ctx)
}
