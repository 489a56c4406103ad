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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSettings(t *testing.T) {
	s, err := ParseSettings([]byte(`
keep_alive_interval: 30s
operation_timeout: 1m
batch_size: 200
load_startup_script: true
startup_script: /etc/mongoadmin/startup.js
`))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, s.KeepAliveInterval)
	assert.Equal(t, time.Minute, s.OperationTimeout)
	assert.Equal(t, 200, s.BatchSize)
	assert.True(t, s.LoadStartupScript)
	assert.Equal(t, "/etc/mongoadmin/startup.js", s.StartupScript)

	// Unset fields keep their defaults.
	assert.Equal(t, DefaultSettings().StopTimeout, s.StopTimeout)
	assert.Equal(t, DefaultSettings().ConnectTimeout, s.ConnectTimeout)
}

func TestParseSettingsEmpty(t *testing.T) {
	s, err := ParseSettings(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestParseSettingsInvalid(t *testing.T) {
	for _, in := range []string{
		"keep_alive_interval: -1s",
		"stop_timeout: -1s",
		"connect_timeout: -5s",
		"operation_timeout: -1ms",
		"batch_size: -10",
	} {
		_, err := ParseSettings([]byte(in))
		assert.ErrorIs(t, err, ErrInvalidConfig, in)
	}

	_, err := ParseSettings([]byte("batch_size: [1, 2"))
	assert.Error(t, err)
}

func TestSettingsWithDefaults(t *testing.T) {
	s := Settings{BatchSize: 7}.withDefaults()
	assert.Equal(t, 7, s.BatchSize)
	assert.Equal(t, DefaultSettings().KeepAliveInterval, s.KeepAliveInterval)
	assert.Zero(t, s.OperationTimeout)
}
