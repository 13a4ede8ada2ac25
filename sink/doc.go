// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package sink implements an AMQP 1.0 sender-facing endpoint backed by a
// Kafka topic and consumer group.
//
// A remote AMQP receiver attaches to a link whose address encodes a Kafka
// topic and consumer group ([ParseAddress]). The [Endpoint] (reactor side)
// validates the address and any filters, then starts a [ConsumerWorker] on
// a dedicated goroutine that polls Kafka and hands records to the endpoint
// across a [handoff] namespace. The endpoint converts each record via a
// [Converter] and emits it as an AMQP transfer, honouring sender credit and
// the configured [QoS].
//
// Two execution domains never share state directly: the endpoint owns the
// AMQP sender and runs on whatever goroutine drives the caller's reactor
// loop; the consumer worker owns the Kafka client and polls on its own
// goroutine. They communicate only through the staging map and notification
// channel described by [handoff] and [Notification].
package sink
