// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

// Error conditions signalled on link rejection. The symbol strings are
// part of the contract with AMQP clients and must not change.
const (
	CondNoGroupID            = "no-group-id"
	CondWrongPartitionFilter = "wrong-partition-filter"
	CondWrongOffsetFilter    = "wrong-offset-filter"
	CondNoPartitionFilter    = "no-partition-filter"
	CondWrongFilter          = "wrong-filter"
)

// ConditionError pairs an AMQP error condition symbol with a human
// readable description, ready to attach to a rejected link.
type ConditionError struct {
	Condition   string
	Description string
}

func (e *ConditionError) Error() string {
	return e.Condition + ": " + e.Description
}

var (
	// ErrNoGroupID is returned when a link address does not contain the
	// literal "/group.id/" segment, or either side of it is empty.
	ErrNoGroupID = &ConditionError{
		Condition:   CondNoGroupID,
		Description: "link address must be of the form TOPIC/group.id/GROUP",
	}

	// ErrWrongPartitionFilter is returned when the partition filter entry
	// is present but is not an integer (a negative one is [ErrWrongFilter]).
	ErrWrongPartitionFilter = &ConditionError{
		Condition:   CondWrongPartitionFilter,
		Description: "partition filter must be an integer",
	}

	// ErrWrongOffsetFilter is returned when the offset filter entry is
	// present but is not a non-negative integer.
	ErrWrongOffsetFilter = &ConditionError{
		Condition:   CondWrongOffsetFilter,
		Description: "offset filter must be a non-negative integer",
	}

	// ErrNoPartitionFilter is returned when an offset filter is supplied
	// without an accompanying partition filter.
	ErrNoPartitionFilter = &ConditionError{
		Condition:   CondNoPartitionFilter,
		Description: "offset filter requires a partition filter",
	}

	// ErrWrongFilter is returned for any other invalid filter combination,
	// such as a negative partition number.
	ErrWrongFilter = &ConditionError{
		Condition:   CondWrongFilter,
		Description: "invalid filter combination",
	}
)
