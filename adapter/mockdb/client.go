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
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upper/mongoadmin"
)

type client struct {
	conn *conn
}

var _ mongoadmin.Client = &client{}

func (c *client) Done() {}

func (c *client) DatabaseNames(ctx context.Context) ([]string, error) {
	s, err := c.lock("DatabaseNames")
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	return s.databaseNames(), nil
}

func (c *client) ServerVersion(ctx context.Context) (string, error) {
	s, err := c.lock("ServerVersion")
	if err != nil {
		return "", err
	}
	defer s.mu.Unlock()

	return s.version, nil
}

func (c *client) CollectionNames(ctx context.Context, database string) ([]string, error) {
	s, err := c.lock("CollectionNames")
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	d := s.db(database, false)
	if d == nil {
		return []string{}, nil
	}
	names := make([]string, 0, len(d.collections))
	for name := range d.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (c *client) CollectionStats(ctx context.Context, database string, names []string) ([]mongoadmin.CollectionInfo, error) {
	s, err := c.lock("CollectionStats")
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	infos := make([]mongoadmin.CollectionInfo, 0, len(names))
	for _, name := range names {
		ns := mongoadmin.Namespace{Database: database, Collection: name}
		coll := s.collection(ns, false)
		if coll == nil {
			return nil, nsError(ErrNamespaceNotFound, ns)
		}

		info := mongoadmin.CollectionInfo{
			Name:           name,
			Count:          int64(len(coll.docs)),
			TotalIndexSize: int64(4096 * len(coll.indexes)),
		}
		for _, doc := range coll.docs {
			info.Size += int64(len(doc))
		}
		info.StorageSize = info.Size
		if info.Count > 0 {
			info.AvgObjSize = info.Size / info.Count
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (c *client) Users(ctx context.Context, database string) ([]mongoadmin.User, error) {
	s, err := c.lock("Users")
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	users := []mongoadmin.User{}
	for _, u := range s.users[database] {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Name < users[j].Name
	})
	return users, nil
}

func (c *client) CreateUser(ctx context.Context, database string, user mongoadmin.User, overwrite bool) error {
	s, err := c.lock("CreateUser")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	users := s.userMap(database)
	if _, ok := users[user.Name]; ok && !overwrite {
		return fmt.Errorf("%w: %s@%s", ErrUserExists, user.Name, database)
	}
	if _, ok := users[user.Name]; !ok && overwrite {
		return fmt.Errorf("%w: %s@%s", ErrUserNotFound, user.Name, database)
	}

	user.Database = database
	if user.Password != "" {
		s.credentials[credentialKey(database, user.Name)] = user.Password
	}
	user.Password = ""
	users[user.Name] = user
	return nil
}

func (c *client) DropUser(ctx context.Context, database, name string) error {
	s, err := c.lock("DropUser")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	users := s.userMap(database)
	if _, ok := users[name]; !ok {
		return fmt.Errorf("%w: %s@%s", ErrUserNotFound, name, database)
	}
	delete(users, name)
	delete(s.credentials, credentialKey(database, name))
	return nil
}

func (c *client) Indexes(ctx context.Context, ns mongoadmin.Namespace) ([]mongoadmin.IndexInfo, error) {
	s, err := c.lock("Indexes")
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	coll := s.collection(ns, false)
	if coll == nil {
		return nil, nsError(ErrNamespaceNotFound, ns)
	}
	return append([]mongoadmin.IndexInfo(nil), coll.indexes...), nil
}

func (c *client) CreateIndex(ctx context.Context, info mongoadmin.IndexInfo) error {
	s, err := c.lock("CreateIndex")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	if len(info.Keys) == 0 {
		return fmt.Errorf("mockdb: index on %s has no keys", info.Namespace)
	}
	if info.Name == "" {
		info.Name = indexName(info.Keys)
	}

	coll := s.collection(info.Namespace, true)
	for _, idx := range coll.indexes {
		if idx.Name == info.Name {
			return fmt.Errorf("%w: %s", ErrIndexExists, info.Name)
		}
	}
	coll.indexes = append(coll.indexes, info)
	return nil
}

func (c *client) DropIndex(ctx context.Context, ns mongoadmin.Namespace, name string) error {
	s, err := c.lock("DropIndex")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	coll := s.collection(ns, false)
	if coll == nil {
		return nsError(ErrNamespaceNotFound, ns)
	}
	if name == "_id_" {
		return fmt.Errorf("mockdb: cannot drop _id index")
	}
	for i, idx := range coll.indexes {
		if idx.Name == name {
			coll.indexes = append(coll.indexes[:i], coll.indexes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrIndexNotFound, name)
}

func (c *client) Functions(ctx context.Context, database string) ([]mongoadmin.Function, error) {
	s, err := c.lock("Functions")
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	funcs := []mongoadmin.Function{}
	if d := s.db(database, false); d != nil {
		for name, code := range d.functions {
			funcs = append(funcs, mongoadmin.Function{Name: name, Code: code})
		}
	}
	sort.Slice(funcs, func(i, j int) bool {
		return funcs[i].Name < funcs[j].Name
	})
	return funcs, nil
}

func (c *client) SaveFunction(ctx context.Context, database string, fn mongoadmin.Function) error {
	s, err := c.lock("SaveFunction")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	s.db(database, true).functions[fn.Name] = fn.Code
	return nil
}

func (c *client) DropFunction(ctx context.Context, database, name string) error {
	s, err := c.lock("DropFunction")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	if d := s.db(database, false); d != nil {
		delete(d.functions, name)
	}
	return nil
}

func (c *client) InsertDocument(ctx context.Context, ns mongoadmin.Namespace, doc bson.Raw) error {
	s, err := c.lock("InsertDocument")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	return s.insert(ns, doc)
}

func (c *client) SaveDocument(ctx context.Context, ns mongoadmin.Namespace, doc bson.Raw) error {
	s, err := c.lock("SaveDocument")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	id := doc.Lookup("_id")
	if id.Type == 0 {
		return s.insert(ns, doc)
	}

	coll := s.collection(ns, true)
	for i, existing := range coll.docs {
		if existing.Lookup("_id").Equal(id) {
			coll.docs[i] = doc
			return nil
		}
	}
	coll.docs = append(coll.docs, doc)
	return nil
}

func (c *client) InsertDocuments(ctx context.Context, ns mongoadmin.Namespace, docs []bson.Raw) error {
	s, err := c.lock("InsertDocuments")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	for _, doc := range docs {
		if err := s.insert(ns, doc); err != nil {
			return err
		}
	}
	return nil
}

func (c *client) RemoveDocuments(ctx context.Context, ns mongoadmin.Namespace, query bson.Raw, justOne bool) error {
	s, err := c.lock("RemoveDocuments")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	coll := s.collection(ns, false)
	if coll == nil {
		return nil
	}

	kept := coll.docs[:0]
	removed := 0
	for _, doc := range coll.docs {
		ok, err := matches(doc, query)
		if err != nil {
			return err
		}
		if ok && (!justOne || removed == 0) {
			removed++
			continue
		}
		kept = append(kept, doc)
	}
	coll.docs = kept
	return nil
}

// Query filters by top-level equality. Projection and sort are ignored.
func (c *client) Query(ctx context.Context, q mongoadmin.QueryInfo) ([]bson.Raw, error) {
	s, err := c.lock("Query")
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	docs := []bson.Raw{}
	coll := s.collection(q.Namespace, false)
	if coll == nil {
		return docs, nil
	}

	skipped := int64(0)
	for _, doc := range coll.docs {
		ok, err := matches(doc, q.Filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if skipped < q.Skip {
			skipped++
			continue
		}
		docs = append(docs, doc)
		if q.Limit > 0 && int64(len(docs)) >= q.Limit {
			break
		}
	}
	return docs, nil
}

func (c *client) Scan(ctx context.Context, ns mongoadmin.Namespace, batchSize int, fn func([]bson.Raw) error) error {
	s, err := c.lock("Scan")
	if err != nil {
		return err
	}
	var docs []bson.Raw
	if coll := s.collection(ns, false); coll != nil {
		docs = append(docs, coll.docs...)
	}
	s.mu.Unlock()

	if batchSize <= 0 {
		batchSize = len(docs)
	}
	for len(docs) > 0 {
		n := batchSize
		if n > len(docs) {
			n = len(docs)
		}
		if err := fn(docs[:n]); err != nil {
			return err
		}
		docs = docs[n:]
	}
	return nil
}

func (c *client) DropDatabase(ctx context.Context, database string) error {
	s, err := c.lock("DropDatabase")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	delete(s.databases, database)
	return nil
}

func (c *client) CreateCollection(ctx context.Context, ns mongoadmin.Namespace) error {
	s, err := c.lock("CreateCollection")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	if s.collection(ns, false) != nil {
		return nsError(ErrNamespaceExists, ns)
	}
	s.collection(ns, true)
	return nil
}

func (c *client) DropCollection(ctx context.Context, ns mongoadmin.Namespace) error {
	s, err := c.lock("DropCollection")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	if d := s.db(ns.Database, false); d != nil {
		delete(d.collections, ns.Collection)
	}
	return nil
}

func (c *client) RenameCollection(ctx context.Context, ns mongoadmin.Namespace, newName string) error {
	s, err := c.lock("RenameCollection")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	coll := s.collection(ns, false)
	if coll == nil {
		return nsError(ErrNamespaceNotFound, ns)
	}
	to := mongoadmin.Namespace{Database: ns.Database, Collection: newName}
	if s.collection(to, false) != nil {
		return nsError(ErrNamespaceExists, to)
	}

	d := s.db(ns.Database, false)
	delete(d.collections, ns.Collection)
	for i := range coll.indexes {
		coll.indexes[i].Namespace = to
	}
	d.collections[newName] = coll
	return nil
}

func (c *client) DuplicateCollection(ctx context.Context, ns mongoadmin.Namespace, newName string) error {
	s, err := c.lock("DuplicateCollection")
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	coll := s.collection(ns, false)
	if coll == nil {
		return nsError(ErrNamespaceNotFound, ns)
	}
	to := mongoadmin.Namespace{Database: ns.Database, Collection: newName}
	dup := newCollection(to)
	dup.docs = append([]bson.Raw(nil), coll.docs...)
	s.db(ns.Database, true).collections[newName] = dup
	return nil
}

// lock records op, checks the connection and locks the server. The
// caller unlocks it.
func (c *client) lock(op string) (*Server, error) {
	if err := c.conn.check(op); err != nil {
		return nil, err
	}
	c.conn.server.mu.Lock()
	return c.conn.server, nil
}

func (s *Server) insert(ns mongoadmin.Namespace, doc bson.Raw) error {
	doc, err := withID(doc)
	if err != nil {
		return err
	}

	coll := s.collection(ns, true)
	id := doc.Lookup("_id")
	for _, existing := range coll.docs {
		if existing.Lookup("_id").Equal(id) {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, id)
		}
	}
	coll.docs = append(coll.docs, doc)
	return nil
}

// withID returns doc with a generated _id when it has none.
func withID(doc bson.Raw) (bson.Raw, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if doc.Lookup("_id").Type != 0 {
		return doc, nil
	}

	var d bson.D
	if err := bson.Unmarshal(doc, &d); err != nil {
		return nil, err
	}
	d = append(bson.D{{Key: "_id", Value: primitive.NewObjectID()}}, d...)
	return bson.Marshal(d)
}

// matches reports whether every top-level field of filter equals the
// same field of doc. An empty filter matches everything.
func matches(doc, filter bson.Raw) (bool, error) {
	if len(filter) == 0 {
		return true, nil
	}
	elems, err := filter.Elements()
	if err != nil {
		return false, err
	}
	for _, elem := range elems {
		if !doc.Lookup(elem.Key()).Equal(elem.Value()) {
			return false, nil
		}
	}
	return true, nil
}

func indexName(keys bson.D) string {
	parts := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		parts = append(parts, k.Key, fmt.Sprint(k.Value))
	}
	return strings.Join(parts, "_")
}
