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

package shell

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/upper/mongoadmin"
)

// Statement types reported in results.
const (
	TypeUse     = "use"
	TypeShow    = "show"
	TypeFind    = "find"
	TypeCommand = "command"
)

var findStatement = regexp.MustCompile(`^db\.([^.()\s]+)\.find\((.*)\)$`)

func (s *Shell) exec(ctx context.Context, stmt string) (mongoadmin.StatementResult, error) {
	fields := strings.Fields(stmt)

	switch {
	case fields[0] == "use":
		return s.execUse(fields)
	case fields[0] == "show":
		return s.execShow(ctx, fields)
	case strings.HasPrefix(stmt, "{"):
		return s.execCommand(ctx, stmt)
	}

	if m := findStatement.FindStringSubmatch(stmt); m != nil {
		return s.execFind(ctx, m[1], strings.TrimSpace(m[2]))
	}

	return mongoadmin.StatementResult{}, fmt.Errorf("%w: %q", ErrSyntax, stmt)
}

func (s *Shell) execUse(fields []string) (mongoadmin.StatementResult, error) {
	if len(fields) != 2 {
		return mongoadmin.StatementResult{}, fmt.Errorf("%w: use <database>", ErrSyntax)
	}
	if err := s.Use(fields[1]); err != nil {
		return mongoadmin.StatementResult{}, err
	}
	return mongoadmin.StatementResult{
		Type:    TypeUse,
		Message: "switched to db " + fields[1],
	}, nil
}

func (s *Shell) execShow(ctx context.Context, fields []string) (mongoadmin.StatementResult, error) {
	if len(fields) != 2 {
		return mongoadmin.StatementResult{}, fmt.Errorf("%w: show dbs|collections|users", ErrSyntax)
	}

	res := mongoadmin.StatementResult{Type: TypeShow}
	err := s.withClient(ctx, func(c mongoadmin.Client) error {
		switch fields[1] {
		case "dbs", "databases":
			names, err := c.DatabaseNames(ctx)
			res.Message = strings.Join(names, "\n")
			return err
		case "collections", "tables":
			names, err := c.CollectionNames(ctx, s.database)
			res.Message = strings.Join(names, "\n")
			return err
		case "users":
			users, err := c.Users(ctx, s.database)
			if err != nil {
				return err
			}
			for _, u := range users {
				doc, err := bson.Marshal(bson.D{
					{Key: "user", Value: u.Name},
					{Key: "db", Value: u.Database},
					{Key: "roles", Value: u.Roles},
				})
				if err != nil {
					return err
				}
				res.Documents = append(res.Documents, doc)
			}
			return nil
		}
		return fmt.Errorf("%w: show %s", ErrSyntax, fields[1])
	})
	return res, err
}

func (s *Shell) execFind(ctx context.Context, collection, filter string) (mongoadmin.StatementResult, error) {
	q := mongoadmin.QueryInfo{
		Namespace: mongoadmin.Namespace{Database: s.database, Collection: collection},
		Limit:     int64(s.batchSize),
		BatchSize: int32(s.batchSize),
	}
	if filter != "" {
		raw, err := parseDocument(filter)
		if err != nil {
			return mongoadmin.StatementResult{}, err
		}
		q.Filter = raw
	}

	res := mongoadmin.StatementResult{Type: TypeFind}
	err := s.withClient(ctx, func(c mongoadmin.Client) (err error) {
		res.Documents, err = c.Query(ctx, q)
		return err
	})
	return res, err
}

func (s *Shell) execCommand(ctx context.Context, stmt string) (mongoadmin.StatementResult, error) {
	var cmd bson.D
	if err := bson.UnmarshalExtJSON([]byte(stmt), false, &cmd); err != nil {
		return mongoadmin.StatementResult{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if len(cmd) == 0 {
		return mongoadmin.StatementResult{}, fmt.Errorf("%w: empty command", ErrSyntax)
	}

	conn, err := s.connection(ctx)
	if err != nil {
		return mongoadmin.StatementResult{}, err
	}
	reply, err := conn.RunCommand(ctx, s.database, cmd)
	if err != nil {
		return mongoadmin.StatementResult{}, err
	}
	return mongoadmin.StatementResult{
		Type:      TypeCommand,
		Documents: []bson.Raw{reply},
	}, nil
}

func parseDocument(s string) (bson.Raw, error) {
	var d bson.D
	if err := bson.UnmarshalExtJSON([]byte(s), false, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return bson.Marshal(d)
}
