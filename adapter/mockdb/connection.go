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
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/upper/mongoadmin"
)

// Dial opens a connection to the server. It implements mongoadmin.Driver.
func (s *Server) Dial(ctx context.Context, profile mongoadmin.ConnectionProfile) (mongoadmin.Connection, error) {
	if err := s.enter("Dial"); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.dials++
	s.mu.Unlock()

	return &conn{server: s, address: profile.FullAddress()}, nil
}

type conn struct {
	server  *Server
	address string

	mu     sync.Mutex
	user   *mongoadmin.Credential
	closed bool
}

var _ mongoadmin.Connection = &conn{}

func (c *conn) Address() string {
	return c.address
}

func (c *conn) Authenticate(ctx context.Context, cred mongoadmin.Credential) error {
	if err := c.check("Authenticate"); err != nil {
		return err
	}

	s := c.server
	s.mu.Lock()
	password, ok := s.credentials[credentialKey(cred.Database, cred.User)]
	s.mu.Unlock()

	if !ok || password != cred.Password {
		return fmt.Errorf("%w: %s@%s", ErrAuthFailed, cred.User, cred.Database)
	}

	c.mu.Lock()
	c.user = &cred
	c.mu.Unlock()
	return nil
}

func (c *conn) RunCommand(ctx context.Context, database string, cmd bson.D) (bson.Raw, error) {
	if err := c.check("RunCommand"); err != nil {
		return nil, err
	}
	if len(cmd) == 0 {
		return nil, ErrUnsupported
	}

	var reply bson.D
	switch cmd[0].Key {
	case "ping":
		reply = bson.D{{Key: "ok", Value: 1.0}}
	case "buildInfo":
		c.server.mu.Lock()
		version := c.server.version
		c.server.mu.Unlock()
		reply = bson.D{{Key: "version", Value: version}, {Key: "ok", Value: 1.0}}
	case "listDatabases":
		c.server.mu.Lock()
		names := c.server.databaseNames()
		c.server.mu.Unlock()
		dbs := bson.A{}
		for _, name := range names {
			dbs = append(dbs, bson.D{{Key: "name", Value: name}})
		}
		reply = bson.D{{Key: "databases", Value: dbs}, {Key: "ok", Value: 1.0}}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, cmd[0].Key)
	}

	return bson.Marshal(reply)
}

func (c *conn) Client() mongoadmin.Client {
	return &client{conn: c}
}

func (c *conn) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.closed = true

	c.server.mu.Lock()
	c.server.closed++
	c.server.mu.Unlock()
	return nil
}

// check records op and fails if the connection is closed.
func (c *conn) check(op string) error {
	if err := c.server.enter(op); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	return nil
}
