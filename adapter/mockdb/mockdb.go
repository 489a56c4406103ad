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

// Package mockdb provides an in-memory server that implements
// mongoadmin.Driver. It records every call it receives and lets tests
// inject failures and stuck operations.
package mockdb

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/upper/mongoadmin"
)

// Adapter is the name of the adapter.
const Adapter = "mockdb"

const defaultVersion = "7.0.0-mock"

var (
	ErrClosed            = errors.New("mockdb: connection closed")
	ErrAuthFailed        = errors.New("mockdb: authentication failed")
	ErrNamespaceExists   = errors.New("mockdb: namespace exists")
	ErrNamespaceNotFound = errors.New("mockdb: namespace not found")
	ErrIndexNotFound     = errors.New("mockdb: index not found")
	ErrIndexExists       = errors.New("mockdb: index already exists")
	ErrDuplicateKey      = errors.New("mockdb: duplicate key")
	ErrUserExists        = errors.New("mockdb: user already exists")
	ErrUserNotFound      = errors.New("mockdb: user not found")
	ErrUnsupported       = errors.New("mockdb: unsupported command")
)

// Server is an in-memory database server.
type Server struct {
	mu sync.Mutex

	address string
	version string

	databases   map[string]*database
	users       map[string]map[string]mongoadmin.User
	credentials map[string]string

	calls    []string
	failOn   map[string]error
	failNext map[string][]error
	blocks   map[string]*block

	dials  int
	closed int
}

type database struct {
	collections map[string]*collection
	functions   map[string]string
}

type collection struct {
	docs    []bson.Raw
	indexes []mongoadmin.IndexInfo
}

type block struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// New returns an empty server.
func New() *Server {
	return &Server{
		address:     mongoadmin.DefaultAddress,
		version:     defaultVersion,
		databases:   map[string]*database{},
		users:       map[string]map[string]mongoadmin.User{},
		credentials: map[string]string{},
		failOn:      map[string]error{},
		failNext:    map[string][]error{},
		blocks:      map[string]*block{},
	}
}

// Version sets the version reported by the server.
func (s *Server) Version(version string) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.version = version
	return s
}

// AddUser registers a user that can authenticate against database.
func (s *Server) AddUser(database, user, password string, roles ...string) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credentials[credentialKey(database, user)] = password
	s.userMap(database)[user] = mongoadmin.User{Name: user, Database: database, Roles: roles}
	return s
}

// Seed creates ns if needed and appends docs to it.
func (s *Server) Seed(ns mongoadmin.Namespace, docs ...bson.Raw) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(ns, true)
	for _, doc := range docs {
		d, err := withID(doc)
		if err != nil {
			panic(err)
		}
		c.docs = append(c.docs, d)
	}
	return s
}

// FailOn makes every call to op fail with err. A nil err clears it.
func (s *Server) FailOn(op string, err error) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		delete(s.failOn, op)
		return s
	}
	s.failOn[op] = err
	return s
}

// FailNext makes the next call to op fail with err.
func (s *Server) FailNext(op string, err error) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failNext[op] = append(s.failNext[op], err)
	return s
}

// Block makes the next call to op hang until release is called. The
// blocked call ignores its context, like a driver call stuck on the
// network. The returned channel is closed once the call has started.
func (s *Server) Block(op string) (entered <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := &block{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s.blocks[op] = b

	return b.entered, func() {
		b.once.Do(func() { close(b.release) })
	}
}

// Calls returns the names of the operations received so far, in order.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.calls...)
}

// CallCount returns how many times op was called.
func (s *Server) CallCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, call := range s.calls {
		if call == op {
			n++
		}
	}
	return n
}

// Dials returns the number of connections opened.
func (s *Server) Dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dials
}

// Closed returns the number of connections closed.
func (s *Server) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// Documents returns a copy of the documents in ns.
func (s *Server) Documents(ns mongoadmin.Namespace) []bson.Raw {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(ns, false)
	if c == nil {
		return nil
	}
	return append([]bson.Raw(nil), c.docs...)
}

// HasCollection reports whether ns exists.
func (s *Server) HasCollection(ns mongoadmin.Namespace) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.collection(ns, false) != nil
}

// IndexNames returns the names of the indexes of ns.
func (s *Server) IndexNames(ns mongoadmin.Namespace) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(ns, false)
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.indexes))
	for _, idx := range c.indexes {
		names = append(names, idx.Name)
	}
	return names
}

// enter records a call to op and applies any injected block or failure.
func (s *Server) enter(op string) error {
	s.mu.Lock()
	s.calls = append(s.calls, op)
	b := s.blocks[op]
	delete(s.blocks, op)
	err := s.failOn[op]
	if queue := s.failNext[op]; len(queue) > 0 {
		err = queue[0]
		s.failNext[op] = queue[1:]
	}
	s.mu.Unlock()

	if b != nil {
		close(b.entered)
		<-b.release
	}
	return err
}

func (s *Server) db(name string, create bool) *database {
	d, ok := s.databases[name]
	if !ok && create {
		d = &database{
			collections: map[string]*collection{},
			functions:   map[string]string{},
		}
		s.databases[name] = d
	}
	return d
}

func (s *Server) collection(ns mongoadmin.Namespace, create bool) *collection {
	d := s.db(ns.Database, create)
	if d == nil {
		return nil
	}
	c, ok := d.collections[ns.Collection]
	if !ok && create {
		c = newCollection(ns)
		d.collections[ns.Collection] = c
	}
	return c
}

func (s *Server) userMap(database string) map[string]mongoadmin.User {
	m, ok := s.users[database]
	if !ok {
		m = map[string]mongoadmin.User{}
		s.users[database] = m
	}
	return m
}

func (s *Server) databaseNames() []string {
	names := make([]string, 0, len(s.databases))
	for name, d := range s.databases {
		if len(d.collections) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func newCollection(ns mongoadmin.Namespace) *collection {
	return &collection{
		indexes: []mongoadmin.IndexInfo{{
			Namespace: ns,
			Name:      "_id_",
			Keys:      bson.D{{Key: "_id", Value: int32(1)}},
		}},
	}
}

func credentialKey(database, user string) string {
	return strings.ToLower(database) + "/" + user
}

func nsError(err error, ns mongoadmin.Namespace) error {
	return fmt.Errorf("%w: %s", err, ns)
}
