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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorWrapping(t *testing.T) {
	cause := fmt.Errorf("dial localhost: %w", ErrNotConnected)
	err := newError(KindDriver, msgConnect, cause)

	assert.Equal(t, "Unable to connect.", err.Error())
	assert.True(t, errors.Is(err, ErrNotConnected))

	var target *Error
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &target))
	assert.Equal(t, KindDriver, target.Kind)
}

func TestErrorDetail(t *testing.T) {
	err := newError(KindAuth, msgAuthorize, errors.New("bad credentials"))
	assert.Equal(t, "auth: Unable to authorize.: bad credentials", err.Detail())

	err = newError(KindSetup, msgClosed, nil)
	assert.Equal(t, "setup: Worker is closed.", err.Detail())
	assert.Nil(t, err.Unwrap())
}
