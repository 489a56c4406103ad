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
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/upper/mongoadmin/bus"
)

// Request is a message addressed to a Worker. Every Request is answered
// with exactly one Response sent to its sender.
type Request interface {
	RequestID() uuid.UUID
	Sender() bus.Target

	envelope() *Envelope
	fail(e *Error) Response
}

// Envelope carries a request's identity and reply address.
type Envelope struct {
	ID   uuid.UUID
	From bus.Target
}

// NewEnvelope addresses a new request from sender.
func NewEnvelope(sender bus.Target) Envelope {
	return Envelope{ID: uuid.New(), From: sender}
}

// RequestID returns the request's correlation id.
func (e *Envelope) RequestID() uuid.UUID {
	return e.ID
}

// Sender returns the reply address.
func (e *Envelope) Sender() bus.Target {
	return e.From
}

func (e *Envelope) envelope() *Envelope {
	return e
}

// InitRequest sets up the shell session and starts the liveness monitor.
type InitRequest struct {
	Envelope

	LoadStartupScript bool
	BatchSize         int
}

// FinalizeRequest is accepted and answered; it changes no state.
type FinalizeRequest struct {
	Envelope
}

// EstablishConnectionRequest connects and authenticates.
type EstablishConnectionRequest struct {
	Envelope
}

// LoadDatabaseNamesRequest lists the databases visible to the worker.
type LoadDatabaseNamesRequest struct {
	Envelope
}

// LoadCollectionNamesRequest lists the collections of Database with their
// stats.
type LoadCollectionNamesRequest struct {
	Envelope

	Database string
}

// LoadUsersRequest lists the users defined on Database.
type LoadUsersRequest struct {
	Envelope

	Database string
}

// LoadCollectionIndexesRequest lists the indexes of Namespace.
type LoadCollectionIndexesRequest struct {
	Envelope

	Namespace Namespace
}

// EnsureIndexRequest creates New, dropping Old first when Old is set.
type EnsureIndexRequest struct {
	Envelope

	Old IndexInfo
	New IndexInfo
}

// DropCollectionIndexRequest drops the index Name from Namespace.
type DropCollectionIndexRequest struct {
	Envelope

	Namespace Namespace
	Name      string
}

// EditIndexRequest renames an index by dropping and recreating it.
type EditIndexRequest struct {
	Envelope

	Namespace Namespace
	OldName   string
	NewName   string
}

// LoadFunctionsRequest lists the stored functions of Database.
type LoadFunctionsRequest struct {
	Envelope

	Database string
}

// InsertDocumentRequest inserts Document, or replaces the document with the
// same _id when Overwrite is set.
type InsertDocumentRequest struct {
	Envelope

	Namespace Namespace
	Document  bson.Raw
	Overwrite bool
}

// RemoveDocumentRequest removes the documents matching Query, at most one
// when JustOne is set.
type RemoveDocumentRequest struct {
	Envelope

	Namespace Namespace
	Query     bson.Raw
	JustOne   bool
}

// ExecuteQueryRequest runs a find. ResultIndex is echoed back untouched.
type ExecuteQueryRequest struct {
	Envelope

	ResultIndex int
	Query       QueryInfo
}

// ExecuteScriptRequest runs Script in the shell, against Database when it
// is set.
type ExecuteScriptRequest struct {
	Envelope

	Script   string
	Database string
}

// AutocompleteRequest asks the shell for completions of Prefix.
type AutocompleteRequest struct {
	Envelope

	Prefix string
}

// CreateDatabaseRequest creates Database.
type CreateDatabaseRequest struct {
	Envelope

	Database string
}

// DropDatabaseRequest drops Database.
type DropDatabaseRequest struct {
	Envelope

	Database string
}

// CreateCollectionRequest creates the collection at Namespace.
type CreateCollectionRequest struct {
	Envelope

	Namespace Namespace
}

// DropCollectionRequest drops the collection at Namespace.
type DropCollectionRequest struct {
	Envelope

	Namespace Namespace
}

// RenameCollectionRequest renames the collection at Namespace to NewName.
type RenameCollectionRequest struct {
	Envelope

	Namespace Namespace
	NewName   string
}

// DuplicateCollectionRequest copies the collection at Namespace into
// NewName in the same database.
type DuplicateCollectionRequest struct {
	Envelope

	Namespace Namespace
	NewName   string
}

// CopyCollectionToDifferentServerRequest copies From into ToDatabase on the server
// Destination is connected to.
type CopyCollectionToDifferentServerRequest struct {
	Envelope

	Destination *Worker
	From        Namespace
	ToDatabase  string
}

// CreateUserRequest adds User to Database, replacing an existing user when
// Overwrite is set.
type CreateUserRequest struct {
	Envelope

	Database  string
	User      User
	Overwrite bool
}

// DropUserRequest removes the user Name from Database.
type DropUserRequest struct {
	Envelope

	Database string
	Name     string
}

// CreateFunctionRequest saves Function. A different, non-empty ExistingName is
// removed afterwards.
type CreateFunctionRequest struct {
	Envelope

	Database     string
	Function     Function
	ExistingName string
}

// DropFunctionRequest removes the stored function Name from Database.
type DropFunctionRequest struct {
	Envelope

	Database string
	Name     string
}

func (r *InitRequest) fail(e *Error) Response {
	return &InitResponse{Reply: newReply(r.ID, e)}
}

func (r *FinalizeRequest) fail(e *Error) Response {
	return &FinalizeResponse{Reply: newReply(r.ID, e)}
}

func (r *EstablishConnectionRequest) fail(e *Error) Response {
	return &EstablishConnectionResponse{Reply: newReply(r.ID, e)}
}

func (r *LoadDatabaseNamesRequest) fail(e *Error) Response {
	return &LoadDatabaseNamesResponse{Reply: newReply(r.ID, e)}
}

func (r *LoadCollectionNamesRequest) fail(e *Error) Response {
	return &LoadCollectionNamesResponse{Reply: newReply(r.ID, e)}
}

func (r *LoadUsersRequest) fail(e *Error) Response {
	return &LoadUsersResponse{Reply: newReply(r.ID, e)}
}

func (r *LoadCollectionIndexesRequest) fail(e *Error) Response {
	return &LoadCollectionIndexesResponse{Reply: newReply(r.ID, e)}
}

func (r *EnsureIndexRequest) fail(e *Error) Response {
	return &EnsureIndexResponse{Reply: newReply(r.ID, e)}
}

func (r *DropCollectionIndexRequest) fail(e *Error) Response {
	return &DropCollectionIndexResponse{Reply: newReply(r.ID, e)}
}

func (r *EditIndexRequest) fail(e *Error) Response {
	return &EditIndexResponse{Reply: newReply(r.ID, e)}
}

func (r *LoadFunctionsRequest) fail(e *Error) Response {
	return &LoadFunctionsResponse{Reply: newReply(r.ID, e)}
}

func (r *InsertDocumentRequest) fail(e *Error) Response {
	return &InsertDocumentResponse{Reply: newReply(r.ID, e)}
}

func (r *RemoveDocumentRequest) fail(e *Error) Response {
	return &RemoveDocumentResponse{Reply: newReply(r.ID, e)}
}

func (r *ExecuteQueryRequest) fail(e *Error) Response {
	return &ExecuteQueryResponse{Reply: newReply(r.ID, e)}
}

func (r *ExecuteScriptRequest) fail(e *Error) Response {
	return &ExecuteScriptResponse{Reply: newReply(r.ID, e)}
}

func (r *AutocompleteRequest) fail(e *Error) Response {
	return &AutocompleteResponse{Reply: newReply(r.ID, e)}
}

func (r *CreateDatabaseRequest) fail(e *Error) Response {
	return &CreateDatabaseResponse{Reply: newReply(r.ID, e)}
}

func (r *DropDatabaseRequest) fail(e *Error) Response {
	return &DropDatabaseResponse{Reply: newReply(r.ID, e)}
}

func (r *CreateCollectionRequest) fail(e *Error) Response {
	return &CreateCollectionResponse{Reply: newReply(r.ID, e)}
}

func (r *DropCollectionRequest) fail(e *Error) Response {
	return &DropCollectionResponse{Reply: newReply(r.ID, e)}
}

func (r *RenameCollectionRequest) fail(e *Error) Response {
	return &RenameCollectionResponse{Reply: newReply(r.ID, e)}
}

func (r *DuplicateCollectionRequest) fail(e *Error) Response {
	return &DuplicateCollectionResponse{Reply: newReply(r.ID, e)}
}

func (r *CopyCollectionToDifferentServerRequest) fail(e *Error) Response {
	return &CopyCollectionToDifferentServerResponse{Reply: newReply(r.ID, e)}
}

func (r *CreateUserRequest) fail(e *Error) Response {
	return &CreateUserResponse{Reply: newReply(r.ID, e)}
}

func (r *DropUserRequest) fail(e *Error) Response {
	return &DropUserResponse{Reply: newReply(r.ID, e)}
}

func (r *CreateFunctionRequest) fail(e *Error) Response {
	return &CreateFunctionResponse{Reply: newReply(r.ID, e)}
}

func (r *DropFunctionRequest) fail(e *Error) Response {
	return &DropFunctionResponse{Reply: newReply(r.ID, e)}
}
var (
	_ Request = &InitRequest{}
	_ Request = &FinalizeRequest{}
	_ Request = &EstablishConnectionRequest{}
	_ Request = &LoadDatabaseNamesRequest{}
	_ Request = &LoadCollectionNamesRequest{}
	_ Request = &LoadUsersRequest{}
	_ Request = &LoadCollectionIndexesRequest{}
	_ Request = &EnsureIndexRequest{}
	_ Request = &DropCollectionIndexRequest{}
	_ Request = &EditIndexRequest{}
	_ Request = &LoadFunctionsRequest{}
	_ Request = &InsertDocumentRequest{}
	_ Request = &RemoveDocumentRequest{}
	_ Request = &ExecuteQueryRequest{}
	_ Request = &ExecuteScriptRequest{}
	_ Request = &AutocompleteRequest{}
	_ Request = &CreateDatabaseRequest{}
	_ Request = &DropDatabaseRequest{}
	_ Request = &CreateCollectionRequest{}
	_ Request = &DropCollectionRequest{}
	_ Request = &RenameCollectionRequest{}
	_ Request = &DuplicateCollectionRequest{}
	_ Request = &CopyCollectionToDifferentServerRequest{}
	_ Request = &CreateUserRequest{}
	_ Request = &DropUserRequest{}
	_ Request = &CreateFunctionRequest{}
	_ Request = &DropFunctionRequest{}
)
