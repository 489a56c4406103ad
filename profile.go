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
	"fmt"
	"strings"
)

// DefaultAddress is used when a profile names no server.
const DefaultAddress = "localhost:27017"

// DefaultDatabase is the shell's working database when a profile names
// none.
const DefaultDatabase = "test"

// AdminDatabase is the database that grants administrative scope.
const AdminDatabase = "admin"

// Credential is used once, during EstablishConnection.
type Credential struct {
	// Database the user is defined in (the authentication database).
	Database string
	User     string
	Password string
}

// IsAdmin reports whether authenticating with c grants administrative
// scope, which is the case only for the admin database in any letter case.
func (c Credential) IsAdmin() bool {
	return strings.EqualFold(c.Database, AdminDatabase)
}

// ConnectionProfile describes the server a Worker talks to. Workers keep
// their own copy and never modify it.
type ConnectionProfile struct {
	// Name identifies the profile in logs.
	Name string
	// Address is a host:port pair or a comma-separated list of them.
	Address string
	// DefaultDatabase is the shell's initial working database.
	DefaultDatabase string
	// Credential is the primary credential, nil if none is configured.
	Credential *Credential
	// Options are passed to the driver as connection string options.
	Options map[string]string
}

// HasCredential reports whether a primary credential is configured.
func (p ConnectionProfile) HasCredential() bool {
	return p.Credential != nil
}

// FullAddress returns the server address, with the default filled in.
func (p ConnectionProfile) FullAddress() string {
	if p.Address == "" {
		return DefaultAddress
	}
	return p.Address
}

// WorkingDatabase returns the database the shell starts in.
func (p ConnectionProfile) WorkingDatabase() string {
	if p.DefaultDatabase == "" {
		return DefaultDatabase
	}
	return p.DefaultDatabase
}

// String describes the profile without revealing the secret.
func (p ConnectionProfile) String() string {
	name := p.Name
	if name == "" {
		name = p.FullAddress()
	}
	if p.Credential != nil {
		return fmt.Sprintf("%s (%s@%s/%s)", name, p.Credential.User, p.FullAddress(), p.Credential.Database)
	}
	return fmt.Sprintf("%s (%s)", name, p.FullAddress())
}

func (p ConnectionProfile) clone() ConnectionProfile {
	c := p
	if p.Credential != nil {
		cred := *p.Credential
		c.Credential = &cred
	}
	if p.Options != nil {
		c.Options = make(map[string]string, len(p.Options))
		for k, v := range p.Options {
			c.Options[k] = v
		}
	}
	return c
}
