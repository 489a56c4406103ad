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
	"os"

	"github.com/sirupsen/logrus"

	"github.com/upper/mongoadmin"
)

var settings = ConnectionURL{
	Database: os.Getenv("DB_NAME"),
	User:     os.Getenv("DB_USERNAME"),
	Password: os.Getenv("DB_PASSWORD"),
	Host:     os.Getenv("DB_HOST") + ":" + os.Getenv("DB_PORT"),
}

// Helper connects the integration tests to the server named by the DB_*
// environment variables.
type Helper struct {
	conn mongoadmin.Connection
}

func (h *Helper) Enabled() bool {
	return os.Getenv("DB_HOST") != ""
}

func (h *Helper) Profile() mongoadmin.ConnectionProfile {
	profile, err := ParseProfile(settings.String())
	if err != nil {
		panic(err)
	}
	return profile
}

func (h *Helper) Connection() mongoadmin.Connection {
	return h.conn
}

func (h *Helper) TearUp() error {
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)

	ctx := context.Background()
	profile := h.Profile()

	conn, err := NewDriver(log).Dial(ctx, profile)
	if err != nil {
		return err
	}
	if profile.Credential != nil {
		if err := conn.Authenticate(ctx, *profile.Credential); err != nil {
			_ = conn.Close(ctx)
			return err
		}
	}
	h.conn = conn

	c := conn.Client()
	defer c.Done()

	return c.DropDatabase(ctx, settings.Database)
}

func (h *Helper) TearDown() error {
	return h.conn.Close(context.Background())
}
