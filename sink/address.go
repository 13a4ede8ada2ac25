// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

import (
	"errors"
	"strings"

	"github.com/z5labs/sdk-go/ptr"
)

// errWrongType is an internal sentinel distinguishing a type mismatch from
// a parse failure; callers translate it into the appropriate named AMQP
// error condition.
var errWrongType = errors.New("sink: filter value has unsupported type")

// groupIDSegment is the literal, case-sensitive separator between the
// topic and group id portions of a link address.
const groupIDSegment = "/group.id/"

// Address is the parsed form of an AMQP link address of the form
// "TOPIC/group.id/GROUP". The topic portion may itself contain "/" in a
// domain sense; it is normalized for Kafka by replacing "/" with ".".
type Address struct {
	// Topic is the normalized Kafka topic name (all "/" replaced by ".").
	Topic string
	// GroupID is the Kafka consumer group id.
	GroupID string
}

// ParseAddress parses raw into an [Address]. It returns [ErrNoGroupID] if
// raw does not contain the literal "/group.id/" segment, or if the topic
// or group portions are empty.
func ParseAddress(raw string) (Address, error) {
	idx := strings.Index(raw, groupIDSegment)
	if idx < 0 {
		return Address{}, ErrNoGroupID
	}

	topic := raw[:idx]
	group := raw[idx+len(groupIDSegment):]
	if topic == "" || group == "" {
		return Address{}, ErrNoGroupID
	}

	return Address{
		Topic:   strings.ReplaceAll(topic, "/", "."),
		GroupID: group,
	}, nil
}

// Filter constrains which Kafka partition and offset a link starts from.
// The zero value means no filter was supplied.
type Filter struct {
	Partition *int32
	Offset    *int64
}

// ParseFilter validates and converts a raw filter map (as carried by the
// AMQP source filter set, see the x-opt-bridge.partition-filter and
// x-opt-bridge.offset-filter symbols) into a [Filter].
//
// Valid combinations are: no entries; "partition" alone; "partition" and
// "offset" together. Any other combination, or a value of the wrong type
// or sign, is an error.
func ParseFilter(raw map[string]any) (Filter, error) {
	partitionRaw, hasPartition := raw["partition"]
	offsetRaw, hasOffset := raw["offset"]

	if hasOffset && !hasPartition {
		return Filter{}, ErrNoPartitionFilter
	}

	if !hasPartition && !hasOffset {
		return Filter{}, nil
	}

	partitionVal, err := asInt64(partitionRaw)
	if err != nil {
		return Filter{}, ErrWrongPartitionFilter
	}
	if partitionVal < 0 {
		return Filter{}, ErrWrongFilter
	}
	f := Filter{Partition: ptr.Ref(int32(partitionVal))}
	if !hasOffset {
		return f, nil
	}

	offsetVal, err := asInt64(offsetRaw)
	if err != nil || offsetVal < 0 {
		return Filter{}, ErrWrongOffsetFilter
	}
	f.Offset = ptr.Ref(offsetVal)
	return f, nil
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, errWrongType
	}
}
