// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

import (
	"context"

	"github.com/Azure/go-amqp"
)

// Sender is the narrow collaborator the [Endpoint] drives; a caller
// supplies it as an adapter over the real AMQP transport, keeping this
// module free of full connection/session bootstrap.
type Sender interface {
	// Send emits msg over the link. opts.Settled true sends pre-settled
	// (AT_MOST_ONCE); otherwise the returned error is nil only once the
	// transfer has been accepted for delivery (settlement itself is
	// reported separately via [SettlingSender.SendSettled]'s onSettled).
	Send(ctx context.Context, msg *amqp.Message, opts *amqp.SendOptions) error
	// HasCredit reports whether the sender currently has at least one
	// unit of credit granted by the peer.
	HasCredit() bool
	// Close closes the underlying AMQP sender link.
	Close(ctx context.Context) error
}

// SettlingSender is implemented by a [Sender] that can notify the caller
// when a specific send has been settled by the peer, required for
// AT_LEAST_ONCE delivery. A [Sender] that does not implement this is
// dispatched best-effort even under AT_LEAST_ONCE: with no settlement
// signal to wait on, the record is sent but never handed to
// [OffsetTracker.Track], the same "advance without blocking commit
// progress" trade-off applied to a record that fails conversion.
type SettlingSender interface {
	Sender
	// SendSettled behaves like Send but invokes onSettled, on the reactor
	// thread, once the peer has settled the transfer.
	SendSettled(ctx context.Context, msg *amqp.Message, onSettled func()) error
}
