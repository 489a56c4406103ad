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
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Namespace names a collection within a database.
type Namespace struct {
	Database   string
	Collection string
}

// String returns "database.collection".
func (ns Namespace) String() string {
	if ns.Collection == "" {
		return ns.Database
	}
	return ns.Database + "." + ns.Collection
}

func (ns Namespace) valid() bool {
	return ns.Database != "" && ns.Collection != ""
}

// ConnectionInfo is the payload of a successful EstablishConnection.
type ConnectionInfo struct {
	Address       string
	DatabaseNames []string
	Version       string
}

// CollectionInfo describes a collection and its storage statistics.
type CollectionInfo struct {
	Name           string
	Count          int64
	Size           int64
	StorageSize    int64
	TotalIndexSize int64
	AvgObjSize     int64
}

// IndexInfo describes an index definition.
type IndexInfo struct {
	Namespace Namespace
	Name      string
	// Keys is the ordered key specification, e.g. {a: 1, b: -1}.
	Keys       bson.D
	Unique     bool
	Background bool
	Sparse     bool
	// ExpireAfterSeconds is set for TTL indexes.
	ExpireAfterSeconds *int32
	DefaultLanguage    string
	LanguageOverride   string
	TextWeights        bson.D
}

// IsZero reports whether i names no index.
func (i IndexInfo) IsZero() bool {
	return i.Name == "" && len(i.Keys) == 0
}

// User describes a database user.
type User struct {
	Name     string
	Database string
	Roles    []string
	// Password is only used when creating or updating a user.
	Password string
}

// Function is a stored server-side JavaScript function.
type Function struct {
	Name string
	Code string
}

// QueryInfo describes a find operation.
type QueryInfo struct {
	Namespace  Namespace
	Filter     bson.Raw
	Projection bson.Raw
	Sort       bson.Raw
	Skip       int64
	Limit      int64
	BatchSize  int32
}

// StatementResult is the outcome of one shell statement.
type StatementResult struct {
	Statement string
	Type      string
	Documents []bson.Raw
	Message   string
	Elapsed   time.Duration
}

// ScriptResult is the outcome of a shell script.
type ScriptResult struct {
	// Database is the shell's working database after the script ran.
	Database string
	Results  []StatementResult
}
