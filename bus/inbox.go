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

package bus

import (
	"context"
	"fmt"
)

// Inbox is a Target for callers that want to await their replies.
type Inbox struct {
	box *Mailbox[Message]
}

// NewInbox creates an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{box: NewMailbox[Message]()}
}

// Deliver queues msg. It is part of the Target interface.
func (in *Inbox) Deliver(msg Message) {
	in.box.Push(msg)
}

// Receive blocks until a message is available or ctx is done.
func (in *Inbox) Receive(ctx context.Context) (Message, error) {
	for {
		if msg, ok := in.box.Pop(); ok {
			return msg, nil
		}
		select {
		case <-in.box.Ready():
		case <-ctx.Done():
			return nil, fmt.Errorf("inbox: %w", ctx.Err())
		}
	}
}

// TryReceive returns the next message without blocking.
func (in *Inbox) TryReceive() (Message, bool) {
	return in.box.Pop()
}

// Len returns the number of messages waiting.
func (in *Inbox) Len() int {
	return in.box.Len()
}

func typeName(msg Message) string {
	return fmt.Sprintf("%T", msg)
}
