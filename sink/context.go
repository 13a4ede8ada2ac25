// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

import "sync/atomic"

// Context is the shared handoff state between a [ConsumerWorker] and an
// [Endpoint]. Topic, QoS, Partition, Offset and HandoffName are set once
// during OPENING and are immutable thereafter; Tracker is installed
// before the worker starts and is likewise immutable. SendQueueFull is the
// single field mutated after startup: the reactor writes it, the worker
// only reads it.
type Context struct {
	Topic       string
	GroupID     string
	QoS         QoS
	Partition   *int32
	Offset      *int64
	HandoffName string
	Tracker     *OffsetTracker

	sendQueueFull atomic.Bool
}

// SendQueueFull reports whether the reactor's sender currently has no
// credit. Safe to call from either thread.
func (c *Context) SendQueueFull() bool {
	return c.sendQueueFull.Load()
}

// SetSendQueueFull updates the queue-full flag. Only the reactor should
// call this.
func (c *Context) SetSendQueueFull(full bool) {
	c.sendQueueFull.Store(full)
}
