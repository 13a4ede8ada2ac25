// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"github.com/twmb/franz-go/plugin/kslog"

	"go.opentelemetry.io/otel"
)

// NewKafkaClient builds the *kgo.Client backing a single link: bootstrap
// servers and OTel/slog instrumentation from cfg, startup behaviour
// (manual-assign+seek vs subscribe) from topic/groupID/filter per
// spec.md §4.3, and the rebalance hooks that drive worker's Assigned
// notification and safe-offset commits. Auto-commit is always disabled;
// AT_LEAST_ONCE correctness depends on the worker committing explicitly.
//
// Grounded on queue/kafka.go's Runtime.ProcessQueue client construction.
func NewKafkaClient(cfg Config, topic, groupID string, filter Filter, worker *ConsumerWorker) (*kgo.Client, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.BootstrapServers...),
		kgo.WithLogger(kslog.New(logger())),
		kgo.WithHooks(
			kotel.NewTracer(
				kotel.TracerProvider(otel.GetTracerProvider()),
				kotel.TracerPropagator(otel.GetTextMapPropagator()),
				kotel.LinkSpans(),
				kotel.ConsumerGroup(groupID),
			),
			kotel.NewMeter(
				kotel.MeterProvider(otel.GetMeterProvider()),
				kotel.WithMergedConnectsMeter(),
			),
		),
		kgo.DisableAutoCommit(),
		kgo.OnPartitionsAssigned(worker.OnPartitionsAssigned),
		kgo.OnPartitionsRevoked(worker.OnPartitionsRevoked),
		kgo.OnPartitionsLost(worker.OnPartitionsLost),
	}
	opts = append(opts, startupOptions(topic, groupID, cfg.OffsetReset, filter)...)

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("sink: failed to create kafka client: %w", err)
	}
	return client, nil
}

// NewKafkaWorkerStarter returns a [WorkerStarter] that builds a real
// [kgo.Client] for the link's context (topic/group/QoS/filter, all
// populated by [Endpoint.Open] before the starter runs) and launches its
// poll loop on workers, returning the running [ConsumerWorker] for the
// endpoint to signal on [Endpoint.Close]. cfg.Validate is checked against
// the link's QoS before any Kafka client is created.
//
// Grounded on queue/kafka.go's Runtime.ProcessQueue, which launches the
// event loop on a *pool.ContextPool rather than a bare goroutine so a
// panicking consumer surfaces through the pool instead of vanishing.
func NewKafkaWorkerStarter(cfg Config, workers *pool.ContextPool) WorkerStarter {
	return func(_ context.Context, ectx *Context, ho *handoff) (*ConsumerWorker, error) {
		if err := cfg.Validate(ectx.QoS); err != nil {
			return nil, err
		}

		worker := &ConsumerWorker{
			log:        logger(),
			tracer:     tracer(),
			staged:     mustInt64Counter("sink.records.staged"),
			ectx:       ectx,
			ho:         ho,
			metrics:    newMetricsRecorder(),
			shutdownCh: make(chan struct{}),
			doneCh:     make(chan struct{}),
		}

		filter := Filter{Partition: ectx.Partition, Offset: ectx.Offset}
		client, err := NewKafkaClient(cfg, ectx.Topic, ectx.GroupID, filter, worker)
		if err != nil {
			return nil, err
		}
		worker.client = client

		workers.Go(func(ctx context.Context) error {
			worker.Run(ctx)
			return nil
		})
		return worker, nil
	}
}
