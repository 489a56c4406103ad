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

package mongo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/upper/mongoadmin"
)

// functionsCollection holds stored server-side JavaScript functions.
const functionsCollection = "system.js"

type client struct {
	client *mongo.Client
}

var _ mongoadmin.Client = &client{}

func (c *client) Done() {}

func (c *client) collection(ns mongoadmin.Namespace) *mongo.Collection {
	return c.client.Database(ns.Database).Collection(ns.Collection)
}

func (c *client) DatabaseNames(ctx context.Context) ([]string, error) {
	names, err := c.client.ListDatabaseNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("ListDatabaseNames: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (c *client) ServerVersion(ctx context.Context) (string, error) {
	var info struct {
		Version string `bson:"version"`
	}
	err := c.client.Database(mongoadmin.AdminDatabase).
		RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).
		Decode(&info)
	if err != nil {
		return "", fmt.Errorf("buildInfo: %w", err)
	}
	return info.Version, nil
}

func (c *client) CollectionNames(ctx context.Context, database string) ([]string, error) {
	names, err := c.client.Database(database).ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("ListCollectionNames: %w", err)
	}
	return names, nil
}

func (c *client) CollectionStats(ctx context.Context, database string, names []string) ([]mongoadmin.CollectionInfo, error) {
	infos := make([]mongoadmin.CollectionInfo, 0, len(names))
	for _, name := range names {
		info, err := c.collectionStats(ctx, mongoadmin.Namespace{Database: database, Collection: name})
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (c *client) collectionStats(ctx context.Context, ns mongoadmin.Namespace) (mongoadmin.CollectionInfo, error) {
	info := mongoadmin.CollectionInfo{Name: ns.Collection}

	pipeline := mongo.Pipeline{
		{{Key: "$collStats", Value: bson.D{{Key: "storageStats", Value: bson.D{}}}}},
	}
	cur, err := c.collection(ns).Aggregate(ctx, pipeline)
	if err != nil {
		return info, fmt.Errorf("$collStats %s: %w", ns, err)
	}
	defer cur.Close(ctx)

	if cur.Next(ctx) {
		stats := cur.Current.Lookup("storageStats")
		if doc, ok := stats.DocumentOK(); ok {
			info.Count = asInt64(doc.Lookup("count"))
			info.Size = asInt64(doc.Lookup("size"))
			info.StorageSize = asInt64(doc.Lookup("storageSize"))
			info.TotalIndexSize = asInt64(doc.Lookup("totalIndexSize"))
			info.AvgObjSize = asInt64(doc.Lookup("avgObjSize"))
		}
	}
	if err := cur.Err(); err != nil {
		return info, fmt.Errorf("$collStats %s: %w", ns, err)
	}
	return info, nil
}

func (c *client) Users(ctx context.Context, database string) ([]mongoadmin.User, error) {
	var res struct {
		Users []struct {
			User  string `bson:"user"`
			DB    string `bson:"db"`
			Roles []struct {
				Role string `bson:"role"`
				DB   string `bson:"db"`
			} `bson:"roles"`
		} `bson:"users"`
	}
	err := c.client.Database(database).
		RunCommand(ctx, bson.D{{Key: "usersInfo", Value: 1}}).
		Decode(&res)
	if err != nil {
		return nil, fmt.Errorf("usersInfo: %w", err)
	}

	users := make([]mongoadmin.User, 0, len(res.Users))
	for _, u := range res.Users {
		user := mongoadmin.User{Name: u.User, Database: u.DB}
		for _, r := range u.Roles {
			if r.DB == "" || r.DB == u.DB {
				user.Roles = append(user.Roles, r.Role)
			} else {
				user.Roles = append(user.Roles, r.Role+"@"+r.DB)
			}
		}
		users = append(users, user)
	}
	return users, nil
}

func (c *client) CreateUser(ctx context.Context, database string, user mongoadmin.User, overwrite bool) error {
	name := "createUser"
	if overwrite {
		name = "updateUser"
	}

	cmd := bson.D{{Key: name, Value: user.Name}}
	if user.Password != "" || !overwrite {
		cmd = append(cmd, bson.E{Key: "pwd", Value: user.Password})
	}
	cmd = append(cmd, bson.E{Key: "roles", Value: rolesDoc(database, user.Roles)})

	if err := c.client.Database(database).RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (c *client) DropUser(ctx context.Context, database, name string) error {
	err := c.client.Database(database).
		RunCommand(ctx, bson.D{{Key: "dropUser", Value: name}}).
		Err()
	if err != nil {
		return fmt.Errorf("dropUser: %w", err)
	}
	return nil
}

func (c *client) Functions(ctx context.Context, database string) ([]mongoadmin.Function, error) {
	coll := c.client.Database(database).Collection(functionsCollection)

	cur, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("Find: %w", err)
	}
	defer cur.Close(ctx)

	funcs := []mongoadmin.Function{}
	for cur.Next(ctx) {
		fn := mongoadmin.Function{}
		if id, ok := cur.Current.Lookup("_id").StringValueOK(); ok {
			fn.Name = id
		}
		value := cur.Current.Lookup("value")
		switch value.Type {
		case bson.TypeJavaScript:
			fn.Code = value.JavaScript()
		case bson.TypeCodeWithScope:
			fn.Code, _ = value.CodeWithScope()
		case bson.TypeString:
			fn.Code = value.StringValue()
		}
		funcs = append(funcs, fn)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("cursor: %w", err)
	}
	return funcs, nil
}

func (c *client) SaveFunction(ctx context.Context, database string, fn mongoadmin.Function) error {
	coll := c.client.Database(database).Collection(functionsCollection)

	doc := bson.D{
		{Key: "_id", Value: fn.Name},
		{Key: "value", Value: primitive.JavaScript(fn.Code)},
	}
	_, err := coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: fn.Name}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("ReplaceOne: %w", err)
	}
	return nil
}

func (c *client) DropFunction(ctx context.Context, database, name string) error {
	coll := c.client.Database(database).Collection(functionsCollection)

	if _, err := coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: name}}); err != nil {
		return fmt.Errorf("DeleteOne: %w", err)
	}
	return nil
}

func (c *client) InsertDocument(ctx context.Context, ns mongoadmin.Namespace, doc bson.Raw) error {
	if _, err := c.collection(ns).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("InsertOne: %w", err)
	}
	return nil
}

func (c *client) SaveDocument(ctx context.Context, ns mongoadmin.Namespace, doc bson.Raw) error {
	id := doc.Lookup("_id")
	if id.Type == 0 {
		return c.InsertDocument(ctx, ns, doc)
	}

	_, err := c.collection(ns).ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("ReplaceOne: %w", err)
	}
	return nil
}

func (c *client) InsertDocuments(ctx context.Context, ns mongoadmin.Namespace, docs []bson.Raw) error {
	if len(docs) == 0 {
		return nil
	}

	items := make([]interface{}, len(docs))
	for i := range docs {
		items[i] = docs[i]
	}
	if _, err := c.collection(ns).InsertMany(ctx, items); err != nil {
		return fmt.Errorf("InsertMany: %w", err)
	}
	return nil
}

func (c *client) RemoveDocuments(ctx context.Context, ns mongoadmin.Namespace, query bson.Raw, justOne bool) error {
	filter := filterOf(query)

	var err error
	if justOne {
		_, err = c.collection(ns).DeleteOne(ctx, filter)
	} else {
		_, err = c.collection(ns).DeleteMany(ctx, filter)
	}
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

func (c *client) Query(ctx context.Context, q mongoadmin.QueryInfo) ([]bson.Raw, error) {
	opts := options.Find()
	if len(q.Projection) > 0 {
		opts.SetProjection(q.Projection)
	}
	if len(q.Sort) > 0 {
		opts.SetSort(q.Sort)
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	if q.BatchSize > 0 {
		opts.SetBatchSize(q.BatchSize)
	}

	cur, err := c.collection(q.Namespace).Find(ctx, filterOf(q.Filter), opts)
	if err != nil {
		return nil, fmt.Errorf("Find: %w", err)
	}
	defer cur.Close(ctx)

	docs := []bson.Raw{}
	for cur.Next(ctx) {
		docs = append(docs, copyRaw(cur.Current))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("cursor: %w", err)
	}
	return docs, nil
}

func (c *client) Scan(ctx context.Context, ns mongoadmin.Namespace, batchSize int, fn func([]bson.Raw) error) error {
	opts := options.Find()
	if batchSize > 0 {
		opts.SetBatchSize(int32(batchSize))
	}

	cur, err := c.collection(ns).Find(ctx, bson.D{}, opts)
	if err != nil {
		return fmt.Errorf("Find: %w", err)
	}
	defer cur.Close(ctx)

	batch := make([]bson.Raw, 0, batchSize)
	for cur.Next(ctx) {
		batch = append(batch, copyRaw(cur.Current))
		if batchSize > 0 && len(batch) >= batchSize {
			if err := fn(batch); err != nil {
				return err
			}
			batch = make([]bson.Raw, 0, batchSize)
		}
	}
	if err := cur.Err(); err != nil {
		return fmt.Errorf("cursor: %w", err)
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

func (c *client) DropDatabase(ctx context.Context, database string) error {
	if err := c.client.Database(database).Drop(ctx); err != nil {
		return fmt.Errorf("Drop: %w", err)
	}
	return nil
}

func (c *client) CreateCollection(ctx context.Context, ns mongoadmin.Namespace) error {
	if err := c.client.Database(ns.Database).CreateCollection(ctx, ns.Collection); err != nil {
		return fmt.Errorf("CreateCollection: %w", err)
	}
	return nil
}

func (c *client) DropCollection(ctx context.Context, ns mongoadmin.Namespace) error {
	if err := c.collection(ns).Drop(ctx); err != nil {
		return fmt.Errorf("Drop: %w", err)
	}
	return nil
}

func (c *client) RenameCollection(ctx context.Context, ns mongoadmin.Namespace, newName string) error {
	cmd := bson.D{
		{Key: "renameCollection", Value: ns.String()},
		{Key: "to", Value: mongoadmin.Namespace{Database: ns.Database, Collection: newName}.String()},
	}
	if err := c.client.Database(mongoadmin.AdminDatabase).RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("renameCollection: %w", err)
	}
	return nil
}

// DuplicateCollection copies ns into newName on the server with $out.
func (c *client) DuplicateCollection(ctx context.Context, ns mongoadmin.Namespace, newName string) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{}}},
		{{Key: "$out", Value: newName}},
	}
	cur, err := c.collection(ns).Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("$out: %w", err)
	}
	return cur.Close(ctx)
}

func filterOf(query bson.Raw) interface{} {
	if len(query) == 0 {
		return bson.D{}
	}
	return query
}

// copyRaw detaches a document from the cursor's buffer.
func copyRaw(doc bson.Raw) bson.Raw {
	return append(bson.Raw(nil), doc...)
}

func asInt64(v bson.RawValue) int64 {
	switch v.Type {
	case bson.TypeInt32:
		return int64(v.Int32())
	case bson.TypeInt64:
		return v.Int64()
	case bson.TypeDouble:
		return int64(v.Double())
	}
	return 0
}

// rolesDoc turns "role" and "role@db" names into role documents.
func rolesDoc(database string, roles []string) bson.A {
	out := bson.A{}
	for _, role := range roles {
		name, db := role, database
		if i := strings.LastIndex(role, "@"); i > 0 {
			name, db = role[:i], role[i+1:]
		}
		out = append(out, bson.D{{Key: "role", Value: name}, {Key: "db", Value: db}})
	}
	return out
}
