// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Azure/go-amqp"

	"go.opentelemetry.io/otel/trace"
)

// State is a position in the [Endpoint] lifecycle: INIT -> VALIDATING ->
// OPENING -> RUNNING -> CLOSING -> CLOSED, with an error fork
// VALIDATING/OPENING -> REJECTED -> CLOSED. A worker error received while
// RUNNING goes through CLOSING to CLOSED.
type State int

const (
	StateInit State = iota
	StateValidating
	StateOpening
	StateRunning
	StateClosing
	StateClosed
	StateRejected
)

// WorkerStarter launches the consumer worker backing an endpoint once its
// [Context] has been populated, returning the running worker so the
// endpoint can signal it to shut down on close. ho is the same handoff
// namespace the endpoint's reactor reads from; the worker must stage
// records and post notifications into it directly rather than resolve it
// by [Context.HandoffName] (that field is informational; nothing in this
// package reads it).
type WorkerStarter func(ctx context.Context, ectx *Context, ho *handoff) (*ConsumerWorker, error)

// Endpoint is the AMQP-side state machine: it owns link validation,
// credit-driven dispatch, and delivery settlement.
type Endpoint struct {
	log    *slog.Logger
	tracer trace.Tracer

	sender     Sender
	converter  Converter
	deadLetter DeadLetterSink
	metrics    *metricsRecorder

	state     State
	rejected  *ConditionError
	address   Address
	filter    Filter
	qos       QoS

	ectx *Context
	ho   *handoff

	pending []DeliveryTag

	worker    *ConsumerWorker
	onClose   func()
	closeOnce sync.Once
}

// NewEndpoint validates rawAddress and rawFilter (the INIT -> VALIDATING
// transition). On success the returned endpoint is in StateValidating,
// ready for [Endpoint.Open]. On failure the endpoint is in StateRejected
// and err is the [ConditionError] to surface to the peer; the caller must
// open the link with a null source and immediately close it with that
// condition.
func NewEndpoint(rawAddress string, rawFilter map[string]any, qos QoS, sender Sender, converter Converter, opts ...EndpointOption) (*Endpoint, error) {
	ep := &Endpoint{
		log:        logger(),
		tracer:     tracer(),
		sender:     sender,
		converter:  converter,
		deadLetter: NoDeadLetter,
		metrics:    newMetricsRecorder(),
		state:      StateValidating,
	}
	for _, opt := range opts {
		opt(ep)
	}

	addr, err := ParseAddress(rawAddress)
	if err != nil {
		return ep.reject(err)
	}
	ep.address = addr

	filter, err := ParseFilter(rawFilter)
	if err != nil {
		return ep.reject(err)
	}
	ep.filter = filter
	ep.qos = qos

	return ep, nil
}

// EndpointOption configures optional [Endpoint] behaviour.
type EndpointOption func(*Endpoint)

// WithDeadLetterSink archives records that fail conversion instead of
// only logging them.
func WithDeadLetterSink(dl DeadLetterSink) EndpointOption {
	return func(ep *Endpoint) {
		ep.deadLetter = dl
	}
}

func (ep *Endpoint) reject(err error) (*Endpoint, error) {
	ep.state = StateRejected
	if ce, ok := err.(*ConditionError); ok {
		ep.rejected = ce
	}
	return ep, err
}

// State returns the endpoint's current lifecycle state.
func (ep *Endpoint) State() State {
	return ep.state
}

// Open performs the VALIDATING -> OPENING transition: it installs a
// unique handoff namespace, initializes the offset tracker, populates the
// [Context], and launches the consumer worker via start. It does not
// itself transition to RUNNING; that happens in [Endpoint.Run] on the
// first Assigned notification.
func (ep *Endpoint) Open(ctx context.Context, start WorkerStarter, onClose func()) error {
	if ep.state != StateValidating {
		return nil
	}
	ep.state = StateOpening
	ep.onClose = onClose

	ep.ho = newHandoff(uuid.NewString(), 256)
	ep.ectx = &Context{
		Topic:       ep.address.Topic,
		GroupID:     ep.address.GroupID,
		QoS:         ep.qos,
		Partition:   ep.filter.Partition,
		Offset:      ep.filter.Offset,
		HandoffName: ep.ho.name,
		Tracker:     NewOffsetTracker(),
	}

	worker, err := start(ctx, ep.ectx, ep.ho)
	if err != nil {
		ep.state = StateRejected
		return err
	}
	ep.worker = worker
	return nil
}

// Run is the reactor loop: it consumes notifications from the handoff
// namespace until ctx is done or the handoff is closed, dispatching
// Send/Assigned/Error notifications. The caller is expected to invoke Run
// on its single reactor goroutine.
func (ep *Endpoint) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ep.ho.closeCh:
			return nil
		case n, ok := <-ep.ho.Notifications():
			if !ok {
				return nil
			}
			if done := ep.handle(ctx, n); done {
				return nil
			}
		}
	}
}

func (ep *Endpoint) handle(ctx context.Context, n Notification) (done bool) {
	if cond, desc, ok := n.IsError(); ok {
		ep.log.Error("sink endpoint received fatal worker error", slog.String("condition", cond), slog.String("description", desc))
		ep.state = StateClosing
		_ = ep.Close(ctx)
		return true
	}

	if n.IsAssigned() {
		if ep.state == StateOpening {
			ep.state = StateRunning
		}
		return false
	}

	if tag, ok := n.IsSend(); ok {
		ep.dispatch(ctx, tag)
		return false
	}

	return false
}

// dispatch sends the record staged under tag if credit allows, otherwise
// it queues the tag for replay by [Endpoint.SendQueueDrain].
func (ep *Endpoint) dispatch(ctx context.Context, tag DeliveryTag) {
	if ep.state != StateRunning {
		return
	}

	if !ep.sender.HasCredit() {
		ep.pending = append(ep.pending, tag)
		ep.ectx.SetSendQueueFull(true)
		return
	}

	rec, ok := ep.ho.Take(tag)
	if !ok {
		return
	}

	spanCtx, span := ep.tracer.Start(ctx, "Endpoint.dispatch")
	defer span.End()

	msg, err := ep.converter.ToAMQP(ep.address.Topic, rec)
	if err != nil {
		err = &errConversion{rec: rec, err: err}
		// A record that fails conversion advances without redelivery: the
		// offset is never tracked, so it does not block commit progress.
		ep.log.Error("failed to convert record, advancing without redelivery",
			PartitionAttr(rec.Partition), OffsetAttr(rec.Offset),
			slog.Any("error", err))
		_ = ep.deadLetter.Archive(ctx, rec, err)
		ep.metrics.recordDropped(ctx)
		ep.ectx.SetSendQueueFull(!ep.sender.HasCredit())
		return
	}
	ep.metrics.recordDispatched(ctx)

	if ep.qos == AtMostOnce {
		settled := true
		_ = ep.sender.Send(spanCtx, msg, &amqp.SendOptions{Settled: &settled})
		ep.ectx.SetSendQueueFull(!ep.sender.HasCredit())
		return
	}

	settling, ok := ep.sender.(SettlingSender)
	if !ok {
		// No collaborator can ever report settlement for this send, so
		// tracking the offset here would withhold its commit forever.
		// Send best-effort instead of silently stalling the partition.
		ep.log.Warn("sender does not support settlement callbacks, sending AT_LEAST_ONCE record best-effort",
			PartitionAttr(rec.Partition), OffsetAttr(rec.Offset))
		_ = ep.sender.Send(spanCtx, msg, &amqp.SendOptions{})
		ep.ectx.SetSendQueueFull(!ep.sender.HasCredit())
		return
	}

	ep.ectx.Tracker.Track(tag, rec.Partition, rec.Offset)
	_ = settling.SendSettled(spanCtx, msg, func() {
		ep.ectx.Tracker.Delivered(tag)
	})
	ep.ectx.SetSendQueueFull(!ep.sender.HasCredit())
}

// SendQueueDrain replays queued tags once credit becomes available again;
// invoke it whenever the AMQP layer reports new credit.
func (ep *Endpoint) SendQueueDrain(ctx context.Context) {
	if len(ep.pending) == 0 {
		ep.ectx.SetSendQueueFull(!ep.sender.HasCredit())
		return
	}

	for len(ep.pending) > 0 && ep.sender.HasCredit() {
		tag := ep.pending[0]
		ep.pending = ep.pending[1:]
		ep.ho.Post(SendNotification(tag))
	}
	ep.ectx.SetSendQueueFull(!ep.sender.HasCredit())
}

// Close tears the endpoint down: signal the worker to shut down, drop
// the handoff namespace, clear the offset tracker and
// pending-send FIFO, close the sender, and invoke the close listener
// exactly once, regardless of how many times Close is called.
func (ep *Endpoint) Close(ctx context.Context) error {
	var err error
	ep.closeOnce.Do(func() {
		ep.state = StateClosing
		if ep.worker != nil {
			ep.worker.Shutdown()
		}
		if ep.ho != nil {
			ep.ho.Close()
		}
		if ep.ectx != nil && ep.ectx.Tracker != nil {
			ep.ectx.Tracker.Clear()
		}
		ep.pending = nil
		if ep.sender != nil {
			err = ep.sender.Close(ctx)
		}
		ep.state = StateClosed
		if ep.onClose != nil {
			ep.onClose()
		}
	})
	return err
}
