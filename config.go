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

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/upper/mongoadmin/bus"
	"github.com/upper/mongoadmin/internal/logger"
)

// Config holds everything a Worker needs.
type Config struct {
	// Profile describes the server the worker connects to.
	Profile ConnectionProfile
	// Bus carries requests in and responses out.
	Bus *bus.Bus
	// Driver opens the worker's connection.
	Driver Driver
	// NewInterpreter constructs the shell session during Init.
	NewInterpreter NewInterpreterFunc
	// Clock drives the liveness monitor and the stop deadline. Defaults to
	// the wall clock.
	Clock clock.Clock
	// Logger defaults to a logger honouring MONGOADMIN_DEBUG.
	Logger logrus.FieldLogger
	// Settings are completed with DefaultSettings.
	Settings Settings
}

// Validate ensures that the config values are valid.
func (c *Config) Validate() error {
	if c.Bus == nil {
		return fmt.Errorf("%w: missing Bus", ErrInvalidConfig)
	}
	if c.Driver == nil {
		return fmt.Errorf("%w: missing Driver", ErrInvalidConfig)
	}
	if c.NewInterpreter == nil {
		return fmt.Errorf("%w: missing NewInterpreter", ErrInvalidConfig)
	}
	if c.Profile.Credential != nil && c.Profile.Credential.Database == "" {
		return fmt.Errorf("%w: credential without database", ErrInvalidConfig)
	}
	return c.Settings.validate()
}

func (c Config) withDefaults() Config {
	if c.Clock == nil {
		c.Clock = clock.WallClock
	}
	if c.Logger == nil {
		c.Logger = logger.New()
	}
	c.Settings = c.Settings.withDefaults()
	c.Profile = c.Profile.clone()
	return c
}
