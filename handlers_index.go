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
)

func (w *Worker) handleLoadCollectionIndexes(ctx context.Context, req *LoadCollectionIndexesRequest) Response {
	var indexes []IndexInfo
	err := w.withClient(ctx, func(c Client) (err error) {
		indexes, err = c.Indexes(ctx, req.Namespace)
		return err
	})
	if err != nil {
		return &LoadCollectionIndexesResponse{Reply: newReply(req.ID, newError(KindDriver, msgLoadIndexes, err))}
	}
	return &LoadCollectionIndexesResponse{Reply: newReply(req.ID, nil), Namespace: req.Namespace, Indexes: indexes}
}

// handleEnsureIndex replaces Old with New. When Old names no index, New is
// simply created. The reply lists every index of New's collection.
func (w *Worker) handleEnsureIndex(ctx context.Context, req *EnsureIndexRequest) Response {
	var indexes []IndexInfo
	err := w.withClient(ctx, func(c Client) error {
		if req.Old.Name != "" {
			if err := c.DropIndex(ctx, req.Old.Namespace, req.Old.Name); err != nil {
				return fmt.Errorf("drop %q: %w", req.Old.Name, err)
			}
		}
		if err := c.CreateIndex(ctx, req.New); err != nil {
			return fmt.Errorf("create %q: %w", req.New.Name, err)
		}

		var err error
		indexes, err = c.Indexes(ctx, req.New.Namespace)
		return err
	})
	if err != nil {
		return &EnsureIndexResponse{Reply: newReply(req.ID, newError(KindDriver, msgEnsureIndex, err))}
	}
	return &EnsureIndexResponse{Reply: newReply(req.ID, nil), Namespace: req.New.Namespace, Indexes: indexes}
}

func (w *Worker) handleDropCollectionIndex(ctx context.Context, req *DropCollectionIndexRequest) Response {
	var indexes []IndexInfo
	err := w.withClient(ctx, func(c Client) error {
		if err := c.DropIndex(ctx, req.Namespace, req.Name); err != nil {
			return err
		}
		var err error
		indexes, err = c.Indexes(ctx, req.Namespace)
		return err
	})
	if err != nil {
		return &DropCollectionIndexResponse{Reply: newReply(req.ID, newError(KindDriver, msgDropIndex, err)), Namespace: req.Namespace}
	}
	return &DropCollectionIndexResponse{Reply: newReply(req.ID, nil), Namespace: req.Namespace, Name: req.Name, Indexes: indexes}
}

// handleEditIndex renames an index. The server has no rename, so the index
// is dropped and created again under the new name with the same
// definition.
func (w *Worker) handleEditIndex(ctx context.Context, req *EditIndexRequest) Response {
	var indexes []IndexInfo
	err := w.withClient(ctx, func(c Client) error {
		current, err := c.Indexes(ctx, req.Namespace)
		if err != nil {
			return err
		}

		var found *IndexInfo
		for i := range current {
			if current[i].Name == req.OldName {
				found = &current[i]
				break
			}
		}
		if found == nil {
			return fmt.Errorf("%w: %q", ErrIndexNotFound, req.OldName)
		}

		renamed := *found
		renamed.Namespace = req.Namespace
		renamed.Name = req.NewName

		if err := c.DropIndex(ctx, req.Namespace, req.OldName); err != nil {
			return fmt.Errorf("drop %q: %w", req.OldName, err)
		}
		if err := c.CreateIndex(ctx, renamed); err != nil {
			return fmt.Errorf("create %q: %w", req.NewName, err)
		}

		indexes, err = c.Indexes(ctx, req.Namespace)
		return err
	})
	if err != nil {
		return &EditIndexResponse{Reply: newReply(req.ID, newError(KindDriver, msgEditIndex, err))}
	}
	return &EditIndexResponse{Reply: newReply(req.ID, nil), Namespace: req.Namespace, Indexes: indexes}
}
