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

// Driver opens connections to a database server.
type Driver interface {
	// Dial connects to the profile's address without authenticating.
	Dial(ctx context.Context, profile ConnectionProfile) (Connection, error)
}

// Connection is a live handle to a server. It is owned by exactly one
// Worker. Implementations must be safe for concurrent use: copying a
// collection between servers writes through another worker's connection.
type Connection interface {
	// Address returns the server address the connection was dialed to.
	Address() string
	// Authenticate makes one authentication attempt. On failure the
	// connection stays usable for unauthenticated operations.
	Authenticate(ctx context.Context, cred Credential) error
	// RunCommand runs a generic command against database.
	RunCommand(ctx context.Context, database string, cmd bson.D) (bson.Raw, error)
	// Client returns a lightweight accessor bound to this connection.
	Client() Client
	// Close releases the connection.
	Close(ctx context.Context) error
}

// Client is a short-lived accessor bound to a Connection. It never owns
// the connection; Done marks the end of its use.
type Client interface {
	DatabaseNames(ctx context.Context) ([]string, error)
	ServerVersion(ctx context.Context) (string, error)

	CollectionNames(ctx context.Context, database string) ([]string, error)
	// CollectionStats fetches storage statistics for the named collections
	// of database, in the same order.
	CollectionStats(ctx context.Context, database string, names []string) ([]CollectionInfo, error)

	Users(ctx context.Context, database string) ([]User, error)
	CreateUser(ctx context.Context, database string, user User, overwrite bool) error
	DropUser(ctx context.Context, database, name string) error

	Indexes(ctx context.Context, ns Namespace) ([]IndexInfo, error)
	CreateIndex(ctx context.Context, info IndexInfo) error
	DropIndex(ctx context.Context, ns Namespace, name string) error

	Functions(ctx context.Context, database string) ([]Function, error)
	SaveFunction(ctx context.Context, database string, fn Function) error
	DropFunction(ctx context.Context, database, name string) error

	InsertDocument(ctx context.Context, ns Namespace, doc bson.Raw) error
	// SaveDocument replaces the document with the same _id, inserting it
	// if there is none.
	SaveDocument(ctx context.Context, ns Namespace, doc bson.Raw) error
	InsertDocuments(ctx context.Context, ns Namespace, docs []bson.Raw) error
	RemoveDocuments(ctx context.Context, ns Namespace, query bson.Raw, justOne bool) error
	Query(ctx context.Context, q QueryInfo) ([]bson.Raw, error)
	// Scan calls fn with successive batches of all documents in ns.
	Scan(ctx context.Context, ns Namespace, batchSize int, fn func([]bson.Raw) error) error

	DropDatabase(ctx context.Context, database string) error
	CreateCollection(ctx context.Context, ns Namespace) error
	DropCollection(ctx context.Context, ns Namespace) error
	RenameCollection(ctx context.Context, ns Namespace, newName string) error
	DuplicateCollection(ctx context.Context, ns Namespace, newName string) error

	// Done ends the accessor's use.
	Done()
}

// Interpreter is the shell session a Worker delegates scripts and
// autocompletion to. It is used only from the worker's goroutine.
type Interpreter interface {
	Init(ctx context.Context, loadStartupScript bool) error
	Use(database string) error
	SetBatchSize(n int)
	Exec(ctx context.Context, script, database string) (ScriptResult, error)
	Complete(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// NewInterpreterFunc constructs the shell session for a worker.
type NewInterpreterFunc func(profile ConnectionProfile, settings Settings) (Interpreter, error)
