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
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	findFlags.skip, findFlags.limit = 0, 20
	execDatabase = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--mock"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDbsCommand(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	out, err := run(t, "dbs")
	require.NoError(t, err)
	assert.Contains(t, out, "admin")
	assert.Contains(t, out, "shop")
}

func TestCollectionsCommand(t *testing.T) {
	out, err := run(t, "collections", "shop")
	require.NoError(t, err)
	assert.Contains(t, out, "items")
	assert.Contains(t, out, "orders")
}

func TestIndexesCommand(t *testing.T) {
	out, err := run(t, "indexes", "shop", "items")
	require.NoError(t, err)
	assert.Contains(t, out, "_id_")

	_, err = run(t, "indexes", "shop", "missing")
	assert.EqualError(t, err, "Unable to load list of indexes.")
}

func TestUsersCommand(t *testing.T) {
	out, err := run(t, "users", "shop")
	require.NoError(t, err)
	assert.Contains(t, out, "clerk")
}

func TestFindCommand(t *testing.T) {
	out, err := run(t, "find", "shop", "items", `{"name": "desk"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"_id":3,"name":"desk","price":30}`+"\n", out)

	out, err = run(t, "find", "shop", "items", "--limit", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count([]byte(out), []byte("\n")))

	_, err = run(t, "find", "shop", "items", "{")
	assert.Error(t, err)
}

func TestExecCommand(t *testing.T) {
	out, err := run(t, "exec", "show collections\ndb.orders.find()")
	require.NoError(t, err)
	assert.Contains(t, out, "> show collections")
	assert.Contains(t, out, "items\norders")
	assert.Contains(t, out, `"qty":3`)

	_, err = run(t, "exec", "drop everything")
	assert.EqualError(t, err, "Unable to complete script.")
}

func TestCompleteCommand(t *testing.T) {
	out, err := run(t, "complete", "db.it")
	require.NoError(t, err)
	assert.Contains(t, out, "db.items.find(")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "mongoadmin "+Version+"\nserver 7.0.0-mock\n", out)
}
