// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

import (
	"github.com/twmb/franz-go/pkg/kgo"
)

// resetOffset maps the configured offset-reset policy name ("earliest" /
// "latest") to the [kgo.Offset] a fresh consumer group or an unseeked
// partition filter should start from. Unrecognized or empty values
// default to earliest, matching franz-go's own default.
func resetOffset(offsetReset string) kgo.Offset {
	if offsetReset == "latest" {
		return kgo.NewOffset().AtEnd()
	}
	return kgo.NewOffset().AtStart()
}

// startupOptions returns the kgo.Client options for the requested link: a
// partition filter means manual assignment to that single partition
// (seeking to an offset filter if present, otherwise to offsetReset's
// policy); otherwise the client subscribes to the topic under
// consumer-group rebalancing, resetting to offsetReset's policy whenever
// the group has no committed offset.
func startupOptions(topic, groupID, offsetReset string, filter Filter) []kgo.Opt {
	if filter.Partition == nil {
		return []kgo.Opt{
			kgo.ConsumeTopics(topic),
			kgo.ConsumerGroup(groupID),
			kgo.ConsumeResetOffset(resetOffset(offsetReset)),
		}
	}

	offset := resetOffset(offsetReset)
	if filter.Offset != nil {
		offset = kgo.NewOffset().At(*filter.Offset)
	}

	return []kgo.Opt{
		kgo.ConsumePartitions(map[string]map[int32]kgo.Offset{
			topic: {*filter.Partition: offset},
		}),
	}
}
