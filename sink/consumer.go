// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// stagedThreshold is the staging-map size at or above which the worker
// pauses all assigned partitions until the reactor drains them below it.
const stagedThreshold = 1024

// pollTimeout bounds each Kafka poll call.
const pollTimeout = 1 * time.Second

// kafkaClient is the narrow slice of *kgo.Client the poll loop drives,
// grounded on queue/kafka/event_loop.go's pollFetcher/recordsCommitter
// split: isolating it behind an interface lets the loop's pause/resume
// and commit-scheduling logic be unit tested without a live broker.
type kafkaClient interface {
	PollFetches(ctx context.Context) kgo.Fetches
	PauseFetchTopics(topics ...string) []string
	ResumeFetchTopics(topics ...string)
	CommitRecords(ctx context.Context, rs ...*kgo.Record) error
	CommitOffsets(ctx context.Context, uncommitted map[string]map[int32]kgo.EpochOffset, onDone func(*kgo.Client, *kmsg.OffsetCommitRequest, *kmsg.OffsetCommitResponse, error))
	Close()
}

// ConsumerWorker owns a Kafka consumer on a dedicated goroutine: it
// polls, stages records into the handoff namespace, and commits offsets
// for AT_LEAST_ONCE links.
type ConsumerWorker struct {
	log    *slog.Logger
	tracer trace.Tracer
	staged metric.Int64Counter

	client  kafkaClient
	ectx    *Context
	ho      *handoff
	metrics *metricsRecorder

	assigned      bool
	pausedByQueue bool

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
	doneCh       chan struct{}
}

// NewConsumerWorker constructs a worker bound to client, publishing
// staged records into ho and reading backpressure/assignment state from
// ectx. client must have DisableAutoCommit set; auto-commit must be false
// for AT_LEAST_ONCE correctness.
func NewConsumerWorker(client *kgo.Client, ectx *Context, ho *handoff) *ConsumerWorker {
	return &ConsumerWorker{
		log:        logger(),
		tracer:     tracer(),
		staged:     mustInt64Counter("sink.records.staged"),
		client:     client,
		ectx:       ectx,
		ho:         ho,
		metrics:    newMetricsRecorder(),
		shutdownCh: make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Run starts the poll loop. It blocks until Shutdown is called or ctx is
// done. A Kafka fetch error does not end the loop by itself: it is posted
// as an Error notification, on which the endpoint closes and calls
// Shutdown. Callers should launch Run on its own goroutine,
// conventionally via a bounded worker pool.
func (w *ConsumerWorker) Run(ctx context.Context) {
	defer close(w.doneCh)
	defer w.client.Close()
	defer w.finalCommit(ctx)

	for {
		select {
		case <-w.shutdownCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		w.tick(ctx)
	}
}

func (w *ConsumerWorker) tick(ctx context.Context) {
	full := w.ectx.SendQueueFull()
	if full && !w.pausedByQueue {
		w.pauseAssigned()
		w.pausedByQueue = true
	} else if !full && w.pausedByQueue && w.ho.StagedCount() < stagedThreshold {
		w.resumeAssigned()
		w.pausedByQueue = false
	}

	pollCtx, cancel := context.WithTimeout(ctx, pollTimeout)
	fetches := w.client.PollFetches(pollCtx)
	cancel()

	fetches.EachError(func(topic string, partition int32, err error) {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			// The bounded poll expired or the worker is stopping; not a Kafka error.
			return
		}
		w.log.Error("kafka fetch error",
			slog.String("topic", topic),
			slog.Int64("partition", int64(partition)),
			slog.Any("error", err))
		w.ho.Post(ErrorNotification("kafka-fetch-error", err.Error()))
	})

	staged := 0
	fetches.EachRecord(func(rec *kgo.Record) {
		tag := NewDeliveryTag()
		count := w.ho.Stage(tag, Record{
			Topic:     rec.Topic,
			Partition: rec.Partition,
			Offset:    rec.Offset,
			Key:       rec.Key,
			Value:     rec.Value,
		})
		w.ho.Post(SendNotification(tag))
		staged++

		if count >= stagedThreshold {
			w.pauseAssigned()
			w.pausedByQueue = true
		}
	})
	if staged > 0 && w.staged != nil {
		w.staged.Add(ctx, int64(staged))
	}

	if w.ectx.QoS == AtLeastOnce {
		w.commitSafe(ctx, false)
	}
}

func (w *ConsumerWorker) pauseAssigned() {
	w.client.PauseFetchTopics(w.ectx.Topic)
}

func (w *ConsumerWorker) resumeAssigned() {
	w.client.ResumeFetchTopics(w.ectx.Topic)
}

// OnPartitionsAssigned posts an Assigned notification once; subsequent
// reassignments are transparent to the endpoint, since it is already
// running and needs no further signal.
func (w *ConsumerWorker) OnPartitionsAssigned(_ context.Context, _ *kgo.Client, _ map[string][]int32) {
	if w.assigned {
		return
	}
	w.assigned = true
	w.ho.Post(AssignedNotification())
}

// OnPartitionsRevoked commits currently safe offsets synchronously before
// giving up the partitions.
func (w *ConsumerWorker) OnPartitionsRevoked(ctx context.Context, _ *kgo.Client, _ map[string][]int32) {
	w.commitSafe(ctx, true)
}

// OnPartitionsLost attempts the same synchronous commit as a revoke. The
// partitions may already be reassigned elsewhere, so the commit is
// best-effort: a failure is only logged.
func (w *ConsumerWorker) OnPartitionsLost(ctx context.Context, _ *kgo.Client, _ map[string][]int32) {
	w.commitSafe(ctx, true)
}

// commitSafe commits the offsets the offset tracker reports as safe.
// Revocation and shutdown commit synchronously via CommitRecords; the
// periodic in-loop commit is asynchronous via CommitOffsets so it never
// blocks polling.
func (w *ConsumerWorker) commitSafe(ctx context.Context, synchronous bool) {
	commits := w.ectx.Tracker.Commits()
	if len(commits) == 0 {
		return
	}

	if synchronous {
		records := make([]*kgo.Record, 0, len(commits))
		for partition, offset := range commits {
			records = append(records, &kgo.Record{
				Topic:     w.ectx.Topic,
				Partition: partition,
				Offset:    offset - 1,
			})
		}
		if err := w.client.CommitRecords(ctx, records...); err != nil {
			w.log.Error("failed to commit offsets", slog.Any("error", err))
			return
		}
		w.metrics.recordCommitted(ctx, len(commits))
		return
	}

	topicOffsets := make(map[int32]kgo.EpochOffset, len(commits))
	for partition, offset := range commits {
		topicOffsets[partition] = kgo.EpochOffset{Epoch: -1, Offset: offset}
	}
	w.client.CommitOffsets(ctx, map[string]map[int32]kgo.EpochOffset{w.ectx.Topic: topicOffsets}, nil)
	w.metrics.recordCommitted(ctx, len(commits))
}

func (w *ConsumerWorker) finalCommit(ctx context.Context) {
	if w.ectx.QoS == AtLeastOnce {
		w.commitSafe(ctx, true)
	}
}

// Shutdown signals the poll loop to exit. Idempotent.
func (w *ConsumerWorker) Shutdown() {
	w.shutdownOnce.Do(func() {
		close(w.shutdownCh)
	})
}

// Done returns a channel closed once Run has returned.
func (w *ConsumerWorker) Done() <-chan struct{} {
	return w.doneCh
}

func mustInt64Counter(name string) metric.Int64Counter {
	c, err := meter().Int64Counter(name)
	if err != nil {
		return nil
	}
	return c
}
