// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// metricsRecorder holds the counters emitted by an [Endpoint] and its
// [ConsumerWorker], grounded on queue/kafka's metricsRecorder.
type metricsRecorder struct {
	dispatched metric.Int64Counter
	dropped    metric.Int64Counter
	committed  metric.Int64Counter
}

func newMetricsRecorder() *metricsRecorder {
	m := meter()

	dispatched, _ := m.Int64Counter("sink.records.dispatched")
	dropped, _ := m.Int64Counter("sink.records.dropped")
	committed, _ := m.Int64Counter("sink.offsets.committed")

	return &metricsRecorder{
		dispatched: dispatched,
		dropped:    dropped,
		committed:  committed,
	}
}

func (m *metricsRecorder) recordDispatched(ctx context.Context) {
	if m.dispatched == nil {
		return
	}
	m.dispatched.Add(ctx, 1)
}

func (m *metricsRecorder) recordDropped(ctx context.Context) {
	if m.dropped == nil {
		return
	}
	m.dropped.Add(ctx, 1)
}

func (m *metricsRecorder) recordCommitted(ctx context.Context, partitions int) {
	if m.committed == nil {
		return
	}
	m.committed.Add(ctx, int64(partitions))
}
