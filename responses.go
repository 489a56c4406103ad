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
)

// Response answers a Request. A failed operation carries a non-nil
// Failure and no payload.
type Response interface {
	RequestID() uuid.UUID
	Failure() *Error
}

// Reply is embedded in every Response.
type Reply struct {
	ID  uuid.UUID
	Err *Error
}

func newReply(id uuid.UUID, e *Error) Reply {
	return Reply{ID: id, Err: e}
}

// RequestID returns the id of the request being answered.
func (r *Reply) RequestID() uuid.UUID {
	return r.ID
}

// Failure returns the operation's error, nil on success.
func (r *Reply) Failure() *Error {
	return r.Err
}

// Failed reports whether the operation failed.
func (r *Reply) Failed() bool {
	return r.Err != nil
}

// InitResponse answers InitRequest.
type InitResponse struct {
	Reply
}

// FinalizeResponse answers FinalizeRequest.
type FinalizeResponse struct {
	Reply
}

// EstablishConnectionResponse describes the server the worker connected to.
type EstablishConnectionResponse struct {
	Reply

	Info ConnectionInfo
}

// LoadDatabaseNamesResponse carries the visible database names.
type LoadDatabaseNamesResponse struct {
	Reply

	Databases []string
}

// LoadCollectionNamesResponse carries the collections of Database.
type LoadCollectionNamesResponse struct {
	Reply

	Database    string
	Collections []CollectionInfo
}

// LoadUsersResponse carries the users of Database.
type LoadUsersResponse struct {
	Reply

	Database string
	Users    []User
}

// LoadCollectionIndexesResponse carries the indexes of Namespace.
type LoadCollectionIndexesResponse struct {
	Reply

	Namespace Namespace
	Indexes   []IndexInfo
}

// EnsureIndexResponse carries the full index list after the change.
type EnsureIndexResponse struct {
	Reply

	Namespace Namespace
	Indexes   []IndexInfo
}

// DropCollectionIndexResponse names the dropped index and carries the
// indexes left on the collection. Name and Indexes are empty on failure.
type DropCollectionIndexResponse struct {
	Reply

	Namespace Namespace
	Name      string
	Indexes   []IndexInfo
}

// EditIndexResponse carries the full index list after the change.
type EditIndexResponse struct {
	Reply

	Namespace Namespace
	Indexes   []IndexInfo
}

// LoadFunctionsResponse carries the stored functions of Database.
type LoadFunctionsResponse struct {
	Reply

	Database  string
	Functions []Function
}

// InsertDocumentResponse answers InsertDocumentRequest.
type InsertDocumentResponse struct {
	Reply
}

// RemoveDocumentResponse answers RemoveDocumentRequest.
type RemoveDocumentResponse struct {
	Reply
}

// ExecuteQueryResponse carries one batch of documents for Query.
type ExecuteQueryResponse struct {
	Reply

	ResultIndex int
	Query       QueryInfo
	Documents   []bson.Raw
}

// ExecuteScriptResponse carries the shell's result. Empty is set when the
// script text was empty.
type ExecuteScriptResponse struct {
	Reply

	Result ScriptResult
	Empty  bool
}

// AutocompleteResponse carries the shell's completions for Prefix.
type AutocompleteResponse struct {
	Reply

	Prefix      string
	Suggestions []string
}

// CreateDatabaseResponse answers CreateDatabaseRequest.
type CreateDatabaseResponse struct {
	Reply
}

// DropDatabaseResponse answers DropDatabaseRequest.
type DropDatabaseResponse struct {
	Reply
}

// CreateCollectionResponse answers CreateCollectionRequest.
type CreateCollectionResponse struct {
	Reply
}

// DropCollectionResponse answers DropCollectionRequest.
type DropCollectionResponse struct {
	Reply
}

// RenameCollectionResponse answers RenameCollectionRequest.
type RenameCollectionResponse struct {
	Reply
}

// DuplicateCollectionResponse answers DuplicateCollectionRequest.
type DuplicateCollectionResponse struct {
	Reply
}

// CopyCollectionToDifferentServerResponse answers
// CopyCollectionToDifferentServerRequest.
type CopyCollectionToDifferentServerResponse struct {
	Reply
}

// CreateUserResponse answers CreateUserRequest.
type CreateUserResponse struct {
	Reply
}

// DropUserResponse answers DropUserRequest.
type DropUserResponse struct {
	Reply
}

// CreateFunctionResponse answers CreateFunctionRequest.
type CreateFunctionResponse struct {
	Reply
}

// DropFunctionResponse answers DropFunctionRequest.
type DropFunctionResponse struct {
	Reply
}

var (
	_ Response = &InitResponse{}
	_ Response = &FinalizeResponse{}
	_ Response = &EstablishConnectionResponse{}
	_ Response = &LoadDatabaseNamesResponse{}
	_ Response = &LoadCollectionNamesResponse{}
	_ Response = &LoadUsersResponse{}
	_ Response = &LoadCollectionIndexesResponse{}
	_ Response = &EnsureIndexResponse{}
	_ Response = &DropCollectionIndexResponse{}
	_ Response = &EditIndexResponse{}
	_ Response = &LoadFunctionsResponse{}
	_ Response = &InsertDocumentResponse{}
	_ Response = &RemoveDocumentResponse{}
	_ Response = &ExecuteQueryResponse{}
	_ Response = &ExecuteScriptResponse{}
	_ Response = &AutocompleteResponse{}
	_ Response = &CreateDatabaseResponse{}
	_ Response = &DropDatabaseResponse{}
	_ Response = &CreateCollectionResponse{}
	_ Response = &DropCollectionResponse{}
	_ Response = &RenameCollectionResponse{}
	_ Response = &DuplicateCollectionResponse{}
	_ Response = &CopyCollectionToDifferentServerResponse{}
	_ Response = &CreateUserResponse{}
	_ Response = &DropUserResponse{}
	_ Response = &CreateFunctionResponse{}
	_ Response = &DropFunctionResponse{}
)
