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

// Package mongo wraps the official MongoDB driver and implements
// mongoadmin.Driver on top of it.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/upper/mongoadmin"
)

// Adapter holds the name of the mongodb adapter.
const Adapter = `mongo`

var connTimeout = time.Second * 5

var errClosed = errors.New("mongo: connection closed")

// Driver dials MongoDB servers.
type Driver struct {
	log logrus.FieldLogger
}

var _ mongoadmin.Driver = &Driver{}

// NewDriver returns a driver logging to log. A nil log discards output.
func NewDriver(log logrus.FieldLogger) *Driver {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Driver{log: log.WithField("adapter", Adapter)}
}

// Dial connects to the profile's server without authenticating and pings
// it.
func (d *Driver) Dial(ctx context.Context, profile mongoadmin.ConnectionProfile) (mongoadmin.Connection, error) {
	connURL := profileURL(profile)

	client, err := connect(ctx, connURL, nil)
	if err != nil {
		return nil, err
	}

	d.log.WithField("address", profile.FullAddress()).Debug("connected")

	return &Connection{
		address: profile.FullAddress(),
		connURL: connURL,
		log:     d.log,
		client:  client,
	}, nil
}

// Connection is a live, goroutine-safe handle to a server.
type Connection struct {
	address string
	connURL ConnectionURL
	log     logrus.FieldLogger

	mu     sync.RWMutex
	client *mongo.Client
}

var _ mongoadmin.Connection = &Connection{}

// Address returns the address the connection was dialed to.
func (c *Connection) Address() string {
	return c.address
}

// Authenticate connects again with cred and, once the server accepts it,
// swaps the authenticated client in. On failure the unauthenticated client
// stays in place.
func (c *Connection) Authenticate(ctx context.Context, cred mongoadmin.Credential) error {
	client, err := connect(ctx, c.connURL, &cred)
	if err != nil {
		return err
	}

	c.mu.Lock()
	old := c.client
	c.client = client
	c.mu.Unlock()

	if old != nil {
		if err := old.Disconnect(ctx); err != nil {
			c.log.WithError(err).Debug("disconnecting unauthenticated client")
		}
	}
	return nil
}

// RunCommand runs cmd against database and returns the raw reply.
func (c *Connection) RunCommand(ctx context.Context, database string, cmd bson.D) (bson.Raw, error) {
	client := c.current()
	if client == nil {
		return nil, errClosed
	}
	return client.Database(database).RunCommand(ctx, cmd).Raw()
}

// Client returns an accessor bound to the current client.
func (c *Connection) Client() mongoadmin.Client {
	return &client{client: c.current()}
}

// Driver returns the underlying *mongo.Client.
func (c *Connection) Driver() interface{} {
	return c.current()
}

// Close disconnects from the server.
func (c *Connection) Close(ctx context.Context) error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func (c *Connection) current() *mongo.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.client
}

func connect(ctx context.Context, connURL ConnectionURL, cred *mongoadmin.Credential) (*mongo.Client, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, connTimeout)
		defer cancel()
	}

	opts := options.Client().ApplyURI(connURL.String())
	if cred != nil {
		opts.SetAuth(options.Credential{
			AuthSource: cred.Database,
			Username:   cred.User,
			Password:   cred.Password,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("Ping: %w", err)
	}

	return client, nil
}
