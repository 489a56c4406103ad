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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/upper/mongoadmin"
	"github.com/upper/mongoadmin/adapter/mockdb"
)

var items = mongoadmin.Namespace{Database: "shop", Collection: "items"}

func newServer(t *testing.T) *mockdb.Server {
	s := mockdb.New()
	for i, kind := range []string{"a", "b", "a"} {
		doc, err := bson.Marshal(bson.D{{Key: "_id", Value: i}, {Key: "kind", Value: kind}})
		require.NoError(t, err)
		s.Seed(items, doc)
	}
	s.Seed(mongoadmin.Namespace{Database: "shop", Collection: "orders"})
	return s
}

func newShell(t *testing.T, server *mockdb.Server, settings mongoadmin.Settings) *Shell {
	profile := mongoadmin.ConnectionProfile{DefaultDatabase: "shop"}

	sh, err := New(server, profile, settings, nil)
	require.NoError(t, err)
	require.NoError(t, sh.Init(context.Background(), false))
	t.Cleanup(func() {
		assert.NoError(t, sh.Close())
	})
	return sh
}

func TestExec(t *testing.T) {
	ctx := context.Background()
	sh := newShell(t, newServer(t), mongoadmin.DefaultSettings())

	script := `
// list what is there
show dbs
show collections
db.items.find({"kind": "a"})
use other
{"ping": 1}
`
	res, err := sh.Exec(ctx, script, "")
	require.NoError(t, err)
	require.Len(t, res.Results, 5)

	assert.Equal(t, "other", res.Database)

	assert.Equal(t, TypeShow, res.Results[0].Type)
	assert.Equal(t, "shop", res.Results[0].Message)

	assert.Equal(t, "items\norders", res.Results[1].Message)

	assert.Equal(t, TypeFind, res.Results[2].Type)
	assert.Len(t, res.Results[2].Documents, 2)

	assert.Equal(t, TypeUse, res.Results[3].Type)
	assert.Equal(t, "switched to db other", res.Results[3].Message)

	assert.Equal(t, TypeCommand, res.Results[4].Type)
	require.Len(t, res.Results[4].Documents, 1)
	assert.Equal(t, 1.0, res.Results[4].Documents[0].Lookup("ok").Double())
}

func TestExecDatabaseOverride(t *testing.T) {
	sh := newShell(t, newServer(t), mongoadmin.DefaultSettings())

	res, err := sh.Exec(context.Background(), "db.items.find()", "other")
	require.NoError(t, err)
	assert.Equal(t, "other", res.Database)
	assert.Empty(t, res.Results[0].Documents)
}

func TestExecBatchSize(t *testing.T) {
	sh := newShell(t, newServer(t), mongoadmin.DefaultSettings())
	sh.SetBatchSize(1)

	res, err := sh.Exec(context.Background(), "db.items.find()", "")
	require.NoError(t, err)
	assert.Len(t, res.Results[0].Documents, 1)
}

func TestExecSyntaxError(t *testing.T) {
	sh := newShell(t, newServer(t), mongoadmin.DefaultSettings())

	res, err := sh.Exec(context.Background(), "show dbs\nselect * from items", "")
	assert.ErrorIs(t, err, ErrSyntax)
	assert.Len(t, res.Results, 1)

	_, err = sh.Exec(context.Background(), `{"ping": `, "")
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestExecBeforeInit(t *testing.T) {
	sh, err := New(mockdb.New(), mongoadmin.ConnectionProfile{}, mongoadmin.DefaultSettings(), nil)
	require.NoError(t, err)

	_, err = sh.Exec(context.Background(), "show dbs", "")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, sh.Ping(context.Background()), ErrNotInitialized)
	assert.Equal(t, mongoadmin.DefaultDatabase, sh.Database())
}

func TestComplete(t *testing.T) {
	sh := newShell(t, newServer(t), mongoadmin.DefaultSettings())

	suggestions, err := sh.Complete(context.Background(), "db.it")
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, []string{"db.items", "db.items.find("}, suggestions[:2])

	suggestions, err = sh.Complete(context.Background(), "shcol")
	require.NoError(t, err)
	assert.Contains(t, suggestions, "show collections")
}

func TestStartupScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "startup.js")
	require.NoError(t, os.WriteFile(path, []byte("use other\n"), 0o600))

	settings := mongoadmin.DefaultSettings()
	settings.StartupScript = path

	server := newServer(t)
	sh, err := New(server, mongoadmin.ConnectionProfile{DefaultDatabase: "shop"}, settings, nil)
	require.NoError(t, err)
	defer sh.Close()

	require.NoError(t, sh.Init(context.Background(), true))
	assert.Equal(t, "shop", sh.Database())
	assert.Equal(t, 0, server.Dials(), "Init does not connect")

	res, err := sh.Exec(context.Background(), "show collections", "")
	require.NoError(t, err)
	assert.Equal(t, "other", res.Database)
	assert.Equal(t, "other", sh.Database())

	// The startup script runs once.
	require.NoError(t, sh.Use("shop"))
	_, err = sh.Exec(context.Background(), "show collections", "")
	require.NoError(t, err)
	assert.Equal(t, "shop", sh.Database())
	assert.Equal(t, 1, server.Dials())
}

func TestFailingStartupScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "startup.js")
	require.NoError(t, os.WriteFile(path, []byte("select * from items\n"), 0o600))

	settings := mongoadmin.DefaultSettings()
	settings.StartupScript = path

	sh, err := New(newServer(t), mongoadmin.ConnectionProfile{DefaultDatabase: "shop"}, settings, nil)
	require.NoError(t, err)
	defer sh.Close()

	require.NoError(t, sh.Init(context.Background(), true))

	res, err := sh.Exec(context.Background(), "show collections", "")
	require.NoError(t, err)
	assert.Len(t, res.Results, 1)
}

func TestMissingStartupScript(t *testing.T) {
	settings := mongoadmin.DefaultSettings()
	settings.StartupScript = filepath.Join(t.TempDir(), "missing.js")

	sh, err := New(newServer(t), mongoadmin.ConnectionProfile{}, settings, nil)
	require.NoError(t, err)
	defer sh.Close()

	assert.NoError(t, sh.Init(context.Background(), true))
}

func TestConnectAuthenticates(t *testing.T) {
	server := newServer(t).AddUser("shop", "john", "doe")
	profile := mongoadmin.ConnectionProfile{
		Credential: &mongoadmin.Credential{Database: "shop", User: "john", Password: "wrong"},
	}

	sh, err := Factory(server, nil)(profile, mongoadmin.DefaultSettings())
	require.NoError(t, err)

	require.NoError(t, sh.Init(context.Background(), false), "a bad credential does not fail Init")
	assert.Equal(t, 0, server.Dials())

	_, err = sh.Exec(context.Background(), "show dbs", "")
	assert.ErrorIs(t, err, mockdb.ErrAuthFailed)
	assert.Equal(t, 1, server.Closed())

	_, err = sh.Complete(context.Background(), "db.")
	assert.ErrorIs(t, err, mockdb.ErrAuthFailed)
}

func TestPing(t *testing.T) {
	server := newServer(t)
	sh := newShell(t, server, mongoadmin.DefaultSettings())

	assert.NoError(t, sh.Ping(context.Background()))
	assert.Equal(t, 0, server.CallCount("RunCommand"), "nothing to ping before the shell connects")

	_, err := sh.Exec(context.Background(), "show dbs", "")
	require.NoError(t, err)

	assert.NoError(t, sh.Ping(context.Background()))
	assert.Equal(t, 1, server.CallCount("RunCommand"))
}
