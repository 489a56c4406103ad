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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialIsAdmin(t *testing.T) {
	assert.True(t, Credential{Database: "admin"}.IsAdmin())
	assert.True(t, Credential{Database: "ADMIN"}.IsAdmin())
	assert.True(t, Credential{Database: "Admin"}.IsAdmin())
	assert.False(t, Credential{Database: "sales"}.IsAdmin())
	assert.False(t, Credential{Database: "administration"}.IsAdmin())
}

func TestProfileDefaults(t *testing.T) {
	var p ConnectionProfile
	assert.Equal(t, DefaultAddress, p.FullAddress())
	assert.Equal(t, DefaultDatabase, p.WorkingDatabase())
	assert.False(t, p.HasCredential())

	p = ConnectionProfile{Address: "db1:27018,db2:27018", DefaultDatabase: "shop"}
	assert.Equal(t, "db1:27018,db2:27018", p.FullAddress())
	assert.Equal(t, "shop", p.WorkingDatabase())
}

func TestProfileString(t *testing.T) {
	p := ConnectionProfile{
		Name:       "prod",
		Address:    "db1:27017",
		Credential: &Credential{Database: "admin", User: "root", Password: "s3cret"},
	}
	assert.Equal(t, "prod (root@db1:27017/admin)", p.String())
	assert.NotContains(t, p.String(), "s3cret")

	assert.Equal(t, "localhost:27017 (localhost:27017)", ConnectionProfile{}.String())
}

func TestProfileClone(t *testing.T) {
	p := ConnectionProfile{
		Credential: &Credential{Database: "admin", User: "root"},
		Options:    map[string]string{"replicaSet": "rs0"},
	}
	c := p.clone()

	c.Credential.User = "other"
	c.Options["replicaSet"] = "rs1"

	assert.Equal(t, "root", p.Credential.User)
	assert.Equal(t, "rs0", p.Options["replicaSet"])
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.True(t, StateAnonymous.Connected())
	assert.False(t, StateReady.Connected())
}
