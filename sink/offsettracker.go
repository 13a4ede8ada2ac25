// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

import "sync"

// OffsetTracker is the per-partition ledger of in-flight and delivered
// offsets. It yields, per partition, the offset safe to commit back to
// Kafka.
//
// [OffsetTracker.Track] and [OffsetTracker.Delivered] may be called from
// the reactor thread; [OffsetTracker.Commits] is called from the worker
// thread and always observes a consistent snapshot.
type OffsetTracker struct {
	mu         sync.Mutex
	partitions map[int32]*partitionLedger
	tags       map[DeliveryTag]trackedOffset
}

type trackedOffset struct {
	partition int32
	offset    int64
}

// partitionLedger holds nextToCommit (the lowest offset not yet known to
// be peer-settled) and settledAbove, the set of offsets settled
// out-of-order above nextToCommit.
type partitionLedger struct {
	nextToCommit int64
	hasFloor     bool
	settledAbove map[int64]struct{}
}

// NewOffsetTracker constructs an empty [OffsetTracker].
func NewOffsetTracker() *OffsetTracker {
	return &OffsetTracker{
		partitions: make(map[int32]*partitionLedger),
		tags:       make(map[DeliveryTag]trackedOffset),
	}
}

// Track records that the offset identified by tag has been dispatched to
// the peer on the given partition.
func (t *OffsetTracker) Track(tag DeliveryTag, partition int32, offset int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tags[tag] = trackedOffset{partition: partition, offset: offset}

	p, ok := t.partitions[partition]
	if !ok {
		p = &partitionLedger{
			nextToCommit: offset,
			hasFloor:     true,
			settledAbove: make(map[int64]struct{}),
		}
		t.partitions[partition] = p
		return
	}
	if !p.hasFloor || offset < p.nextToCommit {
		p.nextToCommit = offset
		p.hasFloor = true
	}
}

// Delivered marks the offset associated with tag as peer-settled. Unknown
// tags (already cleared, or never tracked — e.g. AT_MOST_ONCE records) are
// tolerated as no-ops, so that a settlement callback arriving after
// [OffsetTracker.Clear] is harmless.
func (t *OffsetTracker) Delivered(tag DeliveryTag) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracked, ok := t.tags[tag]
	if !ok {
		return
	}
	delete(t.tags, tag)

	p, ok := t.partitions[tracked.partition]
	if !ok {
		return
	}

	if tracked.offset != p.nextToCommit {
		p.settledAbove[tracked.offset] = struct{}{}
		return
	}

	next := p.nextToCommit + 1
	for {
		if _, ok := p.settledAbove[next]; !ok {
			break
		}
		delete(p.settledAbove, next)
		next++
	}
	p.nextToCommit = next
}

// Commits returns, per partition, the Kafka offset safe to commit (the
// next offset to fetch, per Kafka's own commit convention). Every tracked
// partition is included; one with nothing settled at its floor yet
// reports that floor, the lowest unsettled offset.
func (t *OffsetTracker) Commits() map[int32]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[int32]int64, len(t.partitions))
	for partition, p := range t.partitions {
		if !p.hasFloor {
			continue
		}
		out[partition] = p.nextToCommit
	}
	return out
}

// Clear drops all tracked state, as happens on link tear-down. Settlement
// callbacks referencing tags minted before Clear become no-ops.
func (t *OffsetTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.partitions = make(map[int32]*partitionLedger)
	t.tags = make(map[DeliveryTag]trackedOffset)
}
