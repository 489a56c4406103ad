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
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds the worker's tunables. Zero fields are replaced by their
// defaults, see DefaultSettings.
//
// Example:
//
//	keep_alive_interval: 60s
//	stop_timeout: 2s
//	batch_size: 100
type Settings struct {
	// KeepAliveInterval is the period of the liveness monitor.
	KeepAliveInterval time.Duration `yaml:"keep_alive_interval"`
	// StopTimeout bounds how long Close waits for the worker to stop.
	StopTimeout time.Duration `yaml:"stop_timeout"`
	// ConnectTimeout bounds dialing, authenticating and keep-alive pings.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// OperationTimeout bounds each request. Zero means no timeout.
	OperationTimeout time.Duration `yaml:"operation_timeout"`
	// BatchSize is the shell's batch size and the chunk size used when
	// copying collections.
	BatchSize int `yaml:"batch_size"`
	// LoadStartupScript makes Init run the startup script even when the
	// request does not ask for it.
	LoadStartupScript bool `yaml:"load_startup_script"`
	// StartupScript is the path of the shell's startup script; empty means
	// the shell's default.
	StartupScript string `yaml:"startup_script"`
}

// DefaultSettings returns the settings used when none are given.
func DefaultSettings() Settings {
	return Settings{
		KeepAliveInterval: 60 * time.Second,
		StopTimeout:       2 * time.Second,
		ConnectTimeout:    5 * time.Second,
		BatchSize:         50,
	}
}

// ParseSettings reads YAML settings on top of the defaults.
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("yaml.Unmarshal: %w", err)
	}
	if err := s.validate(); err != nil {
		return Settings{}, err
	}
	return s.withDefaults(), nil
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.KeepAliveInterval == 0 {
		s.KeepAliveInterval = d.KeepAliveInterval
	}
	if s.StopTimeout == 0 {
		s.StopTimeout = d.StopTimeout
	}
	if s.ConnectTimeout == 0 {
		s.ConnectTimeout = d.ConnectTimeout
	}
	if s.BatchSize == 0 {
		s.BatchSize = d.BatchSize
	}
	return s
}

func (s Settings) validate() error {
	switch {
	case s.KeepAliveInterval < 0:
		return fmt.Errorf("%w: negative keep-alive interval", ErrInvalidConfig)
	case s.StopTimeout < 0:
		return fmt.Errorf("%w: negative stop timeout", ErrInvalidConfig)
	case s.ConnectTimeout < 0:
		return fmt.Errorf("%w: negative connect timeout", ErrInvalidConfig)
	case s.OperationTimeout < 0:
		return fmt.Errorf("%w: negative operation timeout", ErrInvalidConfig)
	case s.BatchSize < 0:
		return fmt.Errorf("%w: negative batch size", ErrInvalidConfig)
	}
	return nil
}
