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

// State is a Worker's lifecycle state.
type State int32

const (
	// StateUninitialized is the state before Init.
	StateUninitialized State = iota
	// StateInitializing lasts while Init builds the shell session.
	StateInitializing
	// StateReady follows a successful Init.
	StateReady
	// StateAuthenticated follows an EstablishConnection that authenticated
	// the profile's credential.
	StateAuthenticated
	// StateAnonymous follows an EstablishConnection without a credential.
	StateAnonymous
	// StateClosed is entered on teardown or after a failed Init.
	StateClosed
)

var stateNames = map[State]string{
	StateUninitialized: "uninitialized",
	StateInitializing:  "initializing",
	StateReady:         "ready",
	StateAuthenticated: "authenticated",
	StateAnonymous:     "anonymous",
	StateClosed:        "closed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Connected reports whether EstablishConnection has succeeded.
func (s State) Connected() bool {
	return s == StateAuthenticated || s == StateAnonymous
}
