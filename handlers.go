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
	"context"
	"fmt"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Every handler acquires a short-lived accessor, makes one driver call (or
// a short fixed sequence of them) and turns the outcome into a response.
// Failures never escape a handler and are never retried.

func (w *Worker) handleInit(ctx context.Context, req *InitRequest) Response {
	if w.initialized {
		return &InitResponse{Reply: newReply(req.ID, newError(KindSetup, msgInit, ErrAlreadyInitialized))}
	}

	prev := w.State()
	w.setState(StateInitializing)

	if req.BatchSize > 0 {
		w.batchSize = req.BatchSize
	}

	shell, err := w.newShell(ctx, req.LoadStartupScript || w.settings.LoadStartupScript)
	if err != nil {
		w.setupErr = err
		w.setState(StateClosed)
		return &InitResponse{Reply: newReply(req.ID, newError(KindSetup, msgInit, err))}
	}

	w.mu.Lock()
	w.shell = shell
	w.mu.Unlock()

	w.initialized = true
	w.startKeepAlive()

	if prev.Connected() {
		w.setState(prev)
	} else {
		w.setState(StateReady)
	}

	return &InitResponse{Reply: newReply(req.ID, nil)}
}

func (w *Worker) newShell(ctx context.Context, loadStartupScript bool) (Interpreter, error) {
	shell, err := w.cfg.NewInterpreter(w.profile, w.settings)
	if err != nil {
		return nil, fmt.Errorf("new shell: %w", err)
	}

	if err := shell.Init(ctx, loadStartupScript); err != nil {
		_ = shell.Close()
		return nil, fmt.Errorf("init shell: %w", err)
	}
	if err := shell.Use(w.profile.WorkingDatabase()); err != nil {
		_ = shell.Close()
		return nil, fmt.Errorf("use %s: %w", w.profile.WorkingDatabase(), err)
	}
	shell.SetBatchSize(w.batchSize)

	return shell, nil
}

func (w *Worker) handleEstablishConnection(ctx context.Context, req *EstablishConnectionRequest) Response {
	conn, err := w.connection(ctx)
	if err != nil {
		return &EstablishConnectionResponse{Reply: newReply(req.ID, newError(KindDriver, msgConnect, err))}
	}

	if err := w.authenticate(ctx, conn); err != nil {
		return &EstablishConnectionResponse{Reply: newReply(req.ID, newError(KindAuth, msgAuthorize, err))}
	}

	info := ConnectionInfo{Address: conn.Address()}
	err = w.withClient(ctx, func(c Client) error {
		var err error
		if info.DatabaseNames, err = w.databaseNames(ctx, c); err != nil {
			return fmt.Errorf("database names: %w", err)
		}
		if info.Version, err = c.ServerVersion(ctx); err != nil {
			return fmt.Errorf("server version: %w", err)
		}
		return nil
	})
	if err != nil {
		return &EstablishConnectionResponse{Reply: newReply(req.ID, newError(KindDriver, msgConnect, err))}
	}

	return &EstablishConnectionResponse{Reply: newReply(req.ID, nil), Info: info}
}

func (w *Worker) handleLoadDatabaseNames(ctx context.Context, req *LoadDatabaseNamesRequest) Response {
	var names []string
	err := w.withClient(ctx, func(c Client) (err error) {
		names, err = w.databaseNames(ctx, c)
		return err
	})
	if err != nil {
		return &LoadDatabaseNamesResponse{Reply: newReply(req.ID, newError(KindDriver, msgLoadDatabases, err))}
	}
	return &LoadDatabaseNamesResponse{Reply: newReply(req.ID, nil), Databases: names}
}

// handleLoadCollectionNames lists the collections of a database with their
// statistics. System collections are skipped. If statistics cannot be
// fetched the whole operation fails; no partial list is returned.
func (w *Worker) handleLoadCollectionNames(ctx context.Context, req *LoadCollectionNamesRequest) Response {
	var infos []CollectionInfo
	err := w.withClient(ctx, func(c Client) error {
		all, err := c.CollectionNames(ctx, req.Database)
		if err != nil {
			return fmt.Errorf("collection names: %w", err)
		}

		names := make([]string, 0, len(all))
		for _, name := range all {
			if !strings.HasPrefix(name, "system.") {
				names = append(names, name)
			}
		}
		sort.Strings(names)

		if infos, err = c.CollectionStats(ctx, req.Database, names); err != nil {
			return fmt.Errorf("collection stats: %w", err)
		}
		return nil
	})
	if err != nil {
		return &LoadCollectionNamesResponse{Reply: newReply(req.ID, newError(KindDriver, msgLoadCollections, err))}
	}
	return &LoadCollectionNamesResponse{Reply: newReply(req.ID, nil), Database: req.Database, Collections: infos}
}

func (w *Worker) handleLoadUsers(ctx context.Context, req *LoadUsersRequest) Response {
	var users []User
	err := w.withClient(ctx, func(c Client) (err error) {
		users, err = c.Users(ctx, req.Database)
		return err
	})
	if err != nil {
		return &LoadUsersResponse{Reply: newReply(req.ID, newError(KindDriver, msgLoadUsers, err))}
	}
	return &LoadUsersResponse{Reply: newReply(req.ID, nil), Database: req.Database, Users: users}
}

func (w *Worker) handleCreateUser(ctx context.Context, req *CreateUserRequest) Response {
	err := w.withClient(ctx, func(c Client) error {
		return c.CreateUser(ctx, req.Database, req.User, req.Overwrite)
	})
	if err != nil {
		return &CreateUserResponse{Reply: newReply(req.ID, newError(KindDriver, msgCreateUser, err))}
	}
	return &CreateUserResponse{Reply: newReply(req.ID, nil)}
}

func (w *Worker) handleDropUser(ctx context.Context, req *DropUserRequest) Response {
	err := w.withClient(ctx, func(c Client) error {
		return c.DropUser(ctx, req.Database, req.Name)
	})
	if err != nil {
		return &DropUserResponse{Reply: newReply(req.ID, newError(KindDriver, msgDropUser, err))}
	}
	return &DropUserResponse{Reply: newReply(req.ID, nil)}
}

func (w *Worker) handleLoadFunctions(ctx context.Context, req *LoadFunctionsRequest) Response {
	var funcs []Function
	err := w.withClient(ctx, func(c Client) (err error) {
		funcs, err = c.Functions(ctx, req.Database)
		return err
	})
	if err != nil {
		return &LoadFunctionsResponse{Reply: newReply(req.ID, newError(KindDriver, msgLoadFunctions, err))}
	}
	return &LoadFunctionsResponse{Reply: newReply(req.ID, nil), Database: req.Database, Functions: funcs}
}

// handleCreateFunction saves the function first, so a failed rename never
// loses the old definition.
func (w *Worker) handleCreateFunction(ctx context.Context, req *CreateFunctionRequest) Response {
	err := w.withClient(ctx, func(c Client) error {
		if err := c.SaveFunction(ctx, req.Database, req.Function); err != nil {
			return err
		}
		if req.ExistingName != "" && req.ExistingName != req.Function.Name {
			return c.DropFunction(ctx, req.Database, req.ExistingName)
		}
		return nil
	})
	if err != nil {
		return &CreateFunctionResponse{Reply: newReply(req.ID, newError(KindDriver, msgCreateFunction, err))}
	}
	return &CreateFunctionResponse{Reply: newReply(req.ID, nil)}
}

func (w *Worker) handleDropFunction(ctx context.Context, req *DropFunctionRequest) Response {
	err := w.withClient(ctx, func(c Client) error {
		return c.DropFunction(ctx, req.Database, req.Name)
	})
	if err != nil {
		return &DropFunctionResponse{Reply: newReply(req.ID, newError(KindDriver, msgDropFunction, err))}
	}
	return &DropFunctionResponse{Reply: newReply(req.ID, nil)}
}

func (w *Worker) handleInsertDocument(ctx context.Context, req *InsertDocumentRequest) Response {
	err := w.withClient(ctx, func(c Client) error {
		if !req.Namespace.valid() {
			return ErrMissingNamespace
		}
		if len(req.Document) == 0 {
			return ErrMissingDocument
		}
		if req.Overwrite {
			return c.SaveDocument(ctx, req.Namespace, req.Document)
		}
		return c.InsertDocument(ctx, req.Namespace, req.Document)
	})
	if err != nil {
		return &InsertDocumentResponse{Reply: newReply(req.ID, newError(KindDriver, msgInsertDocument, err))}
	}
	return &InsertDocumentResponse{Reply: newReply(req.ID, nil)}
}

func (w *Worker) handleRemoveDocument(ctx context.Context, req *RemoveDocumentRequest) Response {
	err := w.withClient(ctx, func(c Client) error {
		return c.RemoveDocuments(ctx, req.Namespace, req.Query, req.JustOne)
	})
	if err != nil {
		return &RemoveDocumentResponse{Reply: newReply(req.ID, newError(KindDriver, msgRemoveDocuments, err))}
	}
	return &RemoveDocumentResponse{Reply: newReply(req.ID, nil)}
}

func (w *Worker) handleExecuteQuery(ctx context.Context, req *ExecuteQueryRequest) Response {
	resp := &ExecuteQueryResponse{ResultIndex: req.ResultIndex, Query: req.Query}
	err := w.withClient(ctx, func(c Client) (err error) {
		resp.Documents, err = c.Query(ctx, req.Query)
		return err
	})
	if err != nil {
		return &ExecuteQueryResponse{Reply: newReply(req.ID, newError(KindDriver, msgExecuteQuery, err))}
	}
	resp.Reply = newReply(req.ID, nil)
	return resp
}

// handleCreateDatabase creates a placeholder collection, since the server
// only materializes a database once it holds a collection.
func (w *Worker) handleCreateDatabase(ctx context.Context, req *CreateDatabaseRequest) Response {
	err := w.withClient(ctx, func(c Client) error {
		return c.CreateCollection(ctx, Namespace{Database: req.Database, Collection: placeholderCollection})
	})
	if err != nil {
		return &CreateDatabaseResponse{Reply: newReply(req.ID, newError(KindDriver, msgCreateDatabase, err))}
	}
	return &CreateDatabaseResponse{Reply: newReply(req.ID, nil)}
}

const placeholderCollection = "temp"

func (w *Worker) handleDropDatabase(ctx context.Context, req *DropDatabaseRequest) Response {
	err := w.withClient(ctx, func(c Client) error {
		return c.DropDatabase(ctx, req.Database)
	})
	if err != nil {
		return &DropDatabaseResponse{Reply: newReply(req.ID, newError(KindDriver, msgDropDatabase, err))}
	}
	return &DropDatabaseResponse{Reply: newReply(req.ID, nil)}
}

func (w *Worker) handleCreateCollection(ctx context.Context, req *CreateCollectionRequest) Response {
	err := w.withClient(ctx, func(c Client) error {
		return c.CreateCollection(ctx, req.Namespace)
	})
	if err != nil {
		return &CreateCollectionResponse{Reply: newReply(req.ID, newError(KindDriver, msgCreateCollection, err))}
	}
	return &CreateCollectionResponse{Reply: newReply(req.ID, nil)}
}

func (w *Worker) handleDropCollection(ctx context.Context, req *DropCollectionRequest) Response {
	err := w.withClient(ctx, func(c Client) error {
		return c.DropCollection(ctx, req.Namespace)
	})
	if err != nil {
		return &DropCollectionResponse{Reply: newReply(req.ID, newError(KindDriver, msgDropCollection, err))}
	}
	return &DropCollectionResponse{Reply: newReply(req.ID, nil)}
}

func (w *Worker) handleRenameCollection(ctx context.Context, req *RenameCollectionRequest) Response {
	err := w.withClient(ctx, func(c Client) error {
		return c.RenameCollection(ctx, req.Namespace, req.NewName)
	})
	if err != nil {
		return &RenameCollectionResponse{Reply: newReply(req.ID, newError(KindDriver, msgRenameCollection, err))}
	}
	return &RenameCollectionResponse{Reply: newReply(req.ID, nil)}
}

func (w *Worker) handleDuplicateCollection(ctx context.Context, req *DuplicateCollectionRequest) Response {
	err := w.withClient(ctx, func(c Client) error {
		return c.DuplicateCollection(ctx, req.Namespace, req.NewName)
	})
	if err != nil {
		return &DuplicateCollectionResponse{Reply: newReply(req.ID, newError(KindDriver, msgDuplicateCollection, err))}
	}
	return &DuplicateCollectionResponse{Reply: newReply(req.ID, nil)}
}

// handleCopyCollectionToDifferentServer streams documents into the live
// connection of another worker. It is the only handler that depends on a
// second worker, and it never dials on the destination's behalf.
func (w *Worker) handleCopyCollectionToDifferentServer(ctx context.Context, req *CopyCollectionToDifferentServerRequest) Response {
	err := w.withClient(ctx, func(c Client) error {
		if req.Destination == nil {
			return ErrDestinationNotConnected
		}
		dst := req.Destination.currentConnection()
		if dst == nil {
			return ErrDestinationNotConnected
		}
		if !req.From.valid() || req.ToDatabase == "" {
			return ErrMissingNamespace
		}

		dc := dst.Client()
		defer dc.Done()

		to := Namespace{Database: req.ToDatabase, Collection: req.From.Collection}
		return c.Scan(ctx, req.From, w.batchSize, func(docs []bson.Raw) error {
			return dc.InsertDocuments(ctx, to, docs)
		})
	})
	if err != nil {
		return &CopyCollectionToDifferentServerResponse{Reply: newReply(req.ID, newError(KindDriver, msgCopyCollection, err))}
	}
	return &CopyCollectionToDifferentServerResponse{Reply: newReply(req.ID, nil)}
}
