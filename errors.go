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
)

// Error messages
var (
	ErrInvalidConfig           = errors.New(`invalid worker configuration`)
	ErrNotConnected            = errors.New(`not connected to a database server`)
	ErrDestinationNotConnected = errors.New(`destination worker is not connected`)
	ErrStopTimeout             = errors.New(`worker did not stop in time`)
	ErrWorkerClosed            = errors.New(`worker is closed`)
	ErrAlreadyInitialized      = errors.New(`worker is already initialized`)
	ErrShellNotReady           = errors.New(`shell is not initialized`)
	ErrUnknownRequest          = errors.New(`unknown request`)
	ErrIndexNotFound           = errors.New(`index not found`)
	ErrMissingNamespace        = errors.New(`missing database or collection name`)
	ErrMissingDocument         = errors.New(`missing document`)
)

// Kind categorizes a failed operation.
type Kind string

const (
	// KindSetup is a failure to construct or initialize the shell session.
	KindSetup Kind = "setup"
	// KindAuth is a rejected credential during EstablishConnection.
	KindAuth Kind = "auth"
	// KindDriver is any failure raised by a database or shell call.
	KindDriver Kind = "driver"
	// KindLiveness is a failed keep-alive ping. It is logged, never
	// delivered.
	KindLiveness Kind = "liveness"
)

// Error is the failure carried by a Response. Its text is a short,
// operation-scoped description; the underlying cause is kept for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Detail describes the error including its cause.
func (e *Error) Detail() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Operation-scoped messages delivered to callers.
const (
	msgInit                = "Unable to initialize shell."
	msgUnavailable         = "Worker is not available."
	msgClosed              = "Worker is closed."
	msgUnexpected          = "Unexpected failure."
	msgConnect             = "Unable to connect."
	msgAuthorize           = "Unable to authorize."
	msgLoadDatabases       = "Unable to load database names."
	msgLoadCollections     = "Unable to load list of collections."
	msgLoadUsers           = "Unable to load list of users."
	msgLoadIndexes         = "Unable to load list of indexes."
	msgEnsureIndex         = "Unable to create index."
	msgDropIndex           = "Unable to drop index."
	msgEditIndex           = "Unable to edit index."
	msgLoadFunctions       = "Unable to load list of functions."
	msgInsertDocument      = "Unable to insert document."
	msgRemoveDocuments     = "Unable to remove documents."
	msgExecuteQuery        = "Unable to complete query."
	msgExecuteScript       = "Unable to complete script."
	msgAutocomplete        = "Unable to autocomplete query."
	msgCreateDatabase      = "Unable to create database."
	msgDropDatabase        = "Unable to drop database."
	msgCreateCollection    = "Unable to create collection."
	msgDropCollection      = "Unable to drop collection."
	msgRenameCollection    = "Unable to rename collection."
	msgDuplicateCollection = "Unable to duplicate collection."
	msgCopyCollection      = "Unable to copy collection."
	msgCreateUser          = "Unable to create/overwrite user."
	msgDropUser            = "Unable to drop user."
	msgCreateFunction      = "Unable to create/overwrite function."
	msgDropFunction        = "Unable to drop function."
)
