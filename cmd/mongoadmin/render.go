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

package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/upper/mongoadmin"
)

func databasesTable(names []string) pterm.TableData {
	data := pterm.TableData{{"Database"}}
	for _, name := range names {
		data = append(data, []string{name})
	}
	return data
}

func collectionsTable(infos []mongoadmin.CollectionInfo) pterm.TableData {
	data := pterm.TableData{{"Collection", "Documents", "Size", "Storage", "Indexes", "Avg. object"}}
	for _, info := range infos {
		data = append(data, []string{
			info.Name,
			humanize.Comma(info.Count),
			size(info.Size),
			size(info.StorageSize),
			size(info.TotalIndexSize),
			size(info.AvgObjSize),
		})
	}
	return data
}

func indexesTable(indexes []mongoadmin.IndexInfo) (pterm.TableData, error) {
	data := pterm.TableData{{"Index", "Keys", "Options"}}
	for _, idx := range indexes {
		keys, err := bson.MarshalExtJSON(idx.Keys, false, false)
		if err != nil {
			return nil, fmt.Errorf("index %q: %w", idx.Name, err)
		}
		data = append(data, []string{idx.Name, string(keys), indexOptions(idx)})
	}
	return data, nil
}

func indexOptions(idx mongoadmin.IndexInfo) string {
	var opts []string
	if idx.Unique {
		opts = append(opts, "unique")
	}
	if idx.Sparse {
		opts = append(opts, "sparse")
	}
	if idx.Background {
		opts = append(opts, "background")
	}
	if idx.ExpireAfterSeconds != nil {
		opts = append(opts, fmt.Sprintf("ttl=%ds", *idx.ExpireAfterSeconds))
	}
	if idx.DefaultLanguage != "" {
		opts = append(opts, "language="+idx.DefaultLanguage)
	}
	return strings.Join(opts, ", ")
}

func usersTable(users []mongoadmin.User) pterm.TableData {
	data := pterm.TableData{{"User", "Database", "Roles"}}
	for _, u := range users {
		data = append(data, []string{u.Name, u.Database, strings.Join(u.Roles, ", ")})
	}
	return data
}

func functionsTable(funcs []mongoadmin.Function) pterm.TableData {
	data := pterm.TableData{{"Function", "Code"}}
	for _, fn := range funcs {
		code := strings.TrimSpace(fn.Code)
		if i := strings.IndexByte(code, '\n'); i >= 0 {
			code = code[:i] + " ..."
		}
		data = append(data, []string{fn.Name, code})
	}
	return data
}

// documentLines renders documents as relaxed extended JSON, one per line.
func documentLines(docs []bson.Raw) ([]string, error) {
	lines := make([]string, 0, len(docs))
	for _, doc := range docs {
		out, err := bson.MarshalExtJSON(doc, false, false)
		if err != nil {
			return nil, err
		}
		lines = append(lines, string(out))
	}
	return lines, nil
}

func size(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
