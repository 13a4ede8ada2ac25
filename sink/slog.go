// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

import "log/slog"

// Structured log attribute keys shared across this package's log lines,
// matching the messaging semantic-convention style already used in
// queue/kafka.
const (
	groupIDKey   = "messaging.consumer.group.name"
	topicKey     = "messaging.destination.name"
	partitionKey = "messaging.destination.partition.id"
	offsetKey    = "messaging.kafka.offset"
)

func GroupIDAttr(groupID string) slog.Attr {
	return slog.String(groupIDKey, groupID)
}

func TopicAttr(topic string) slog.Attr {
	return slog.String(topicKey, topic)
}

func PartitionAttr(partition int32) slog.Attr {
	return slog.Int64(partitionKey, int64(partition))
}

func OffsetAttr(offset int64) slog.Attr {
	return slog.Int64(offsetKey, offset)
}
