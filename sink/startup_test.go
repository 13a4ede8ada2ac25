// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sink

import (
	"reflect"
	"testing"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/z5labs/sdk-go/ptr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetOffset(t *testing.T) {
	earliest := kgo.NewOffset().AtStart()
	latest := kgo.NewOffset().AtEnd()

	assert.True(t, reflect.DeepEqual(earliest, resetOffset("earliest")))
	assert.True(t, reflect.DeepEqual(latest, resetOffset("latest")))
	assert.True(t, reflect.DeepEqual(earliest, resetOffset("")), "unset offsetReset defaults to earliest")
	assert.True(t, reflect.DeepEqual(earliest, resetOffset("nonsense")), "unrecognized offsetReset defaults to earliest")
}

func TestStartupOptions_GroupSubscribe(t *testing.T) {
	opts := startupOptions("orders", "g1", "latest", Filter{})
	assert.Len(t, opts, 3, "subscribe + group + reset-offset")
}

func TestStartupOptions_PartitionFilterSeeksToFilterOffset(t *testing.T) {
	opts := startupOptions("orders", "g1", "latest", Filter{Partition: ptr.Ref(int32(2)), Offset: ptr.Ref(int64(100))})
	require.Len(t, opts, 1)
}

func TestStartupOptions_PartitionFilterWithoutOffsetUsesResetPolicy(t *testing.T) {
	opts := startupOptions("orders", "g1", "earliest", Filter{Partition: ptr.Ref(int32(2))})
	require.Len(t, opts, 1)
}
