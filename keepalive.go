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

	"go.mongodb.org/mongo-driver/bson"
)

func (w *Worker) startKeepAlive() {
	if w.keepAlive != nil {
		return
	}
	w.keepAlive = w.clock.NewTimer(w.settings.KeepAliveInterval)
}

// ping keeps the connection and the shell session from idling out. It
// runs between requests on the worker goroutine. Failures are logged and
// otherwise ignored.
func (w *Worker) ping() {
	ctx, cancel := context.WithTimeout(w.ctx, w.settings.ConnectTimeout)
	defer cancel()

	if conn := w.currentConnection(); conn != nil {
		database := w.authDatabase
		if database == "" {
			database = AdminDatabase
		}
		if _, err := conn.RunCommand(ctx, database, bson.D{{Key: "ping", Value: 1}}); err != nil {
			w.log.WithField("kind", KindLiveness).WithError(err).Debug("keep-alive: server ping failed")
		}
	}

	if shell := w.currentShell(); shell != nil {
		if err := shell.Ping(ctx); err != nil {
			w.log.WithField("kind", KindLiveness).WithError(err).Debug("keep-alive: shell ping failed")
		}
	}
}
