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

// Package bus delivers typed messages to specific targets. It is the only
// boundary crossed between goroutines that issue requests and the workers
// that serve them.
//
// Delivery is asynchronous and fire-and-forget: Send never blocks and gives
// no acknowledgment. A message is delivered at most once, and messages sent
// from one goroutine to one target arrive in the order they were sent.
package bus

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Message is any value carried by the bus.
type Message interface{}

// Target receives messages. Deliver must not block.
type Target interface {
	Deliver(msg Message)
}

// TargetFunc adapts a function to Target. The function is called on the
// sender's goroutine, so it must return promptly.
type TargetFunc func(msg Message)

// Deliver calls f(msg).
func (f TargetFunc) Deliver(msg Message) {
	f(msg)
}

// Stats holds delivery counters.
type Stats struct {
	Delivered uint64
	Dropped   uint64
}

// Bus routes messages to their targets. A Bus is created at process start,
// passed to every component that needs it and closed at shutdown.
type Bus struct {
	log    logrus.FieldLogger
	closed atomic.Bool

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// New creates a bus. A nil logger discards diagnostics.
func New(log logrus.FieldLogger) *Bus {
	if log == nil {
		lg := logrus.New()
		lg.SetLevel(logrus.PanicLevel)
		log = lg
	}
	return &Bus{log: log}
}

// Send hands msg to target. It is dropped if the bus is closed or target
// is nil.
func (b *Bus) Send(target Target, msg Message) {
	if target == nil {
		b.dropped.Add(1)
		b.log.WithField("message", typeName(msg)).Debug("bus: dropping message without target")
		return
	}
	if b.closed.Load() {
		b.dropped.Add(1)
		b.log.WithField("message", typeName(msg)).Debug("bus: dropping message, bus is closed")
		return
	}

	target.Deliver(msg)
	b.delivered.Add(1)
}

// Close stops all further deliveries.
func (b *Bus) Close() {
	b.closed.Store(true)
}

// Closed reports whether the bus was closed.
func (b *Bus) Closed() bool {
	return b.closed.Load()
}

// Stats returns a snapshot of the delivery counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Delivered: b.delivered.Load(),
		Dropped:   b.dropped.Load(),
	}
}
