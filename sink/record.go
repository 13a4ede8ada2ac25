// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

// Record is an immutable Kafka record staged for delivery over an AMQP
// link. Once constructed it is never mutated; the staging map stores and
// returns Record values whose Key and Value share the same underlying
// bytes, which are never copied.
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
}
