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
	"strings"
)

func (w *Worker) handleExecuteScript(ctx context.Context, req *ExecuteScriptRequest) Response {
	shell := w.currentShell()
	if shell == nil {
		return &ExecuteScriptResponse{Reply: newReply(req.ID, newError(KindSetup, msgExecuteScript, ErrShellNotReady))}
	}

	resp := &ExecuteScriptResponse{Empty: strings.TrimSpace(req.Script) == ""}

	result, err := shell.Exec(ctx, req.Script, req.Database)
	if err != nil {
		resp.Reply = newReply(req.ID, newError(KindDriver, msgExecuteScript, err))
		return resp
	}

	resp.Reply = newReply(req.ID, nil)
	resp.Result = result
	return resp
}

func (w *Worker) handleAutocomplete(ctx context.Context, req *AutocompleteRequest) Response {
	shell := w.currentShell()
	if shell == nil {
		return &AutocompleteResponse{Reply: newReply(req.ID, newError(KindSetup, msgAutocomplete, ErrShellNotReady)), Prefix: req.Prefix}
	}

	suggestions, err := shell.Complete(ctx, req.Prefix)
	if err != nil {
		return &AutocompleteResponse{Reply: newReply(req.ID, newError(KindDriver, msgAutocomplete, err)), Prefix: req.Prefix}
	}
	return &AutocompleteResponse{Reply: newReply(req.ID, nil), Prefix: req.Prefix, Suggestions: suggestions}
}
