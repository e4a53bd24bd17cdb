package system

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSystem(t *testing.T, n int) *System {
	t.Helper()
	sys, err := New(n, nil)
	require.NoError(t, err)
	return sys
}

func TestEnqueueDequeueRoundTrip(t *testing.T) {
	sys := newTestSystem(t, 3)
	ctx := context.Background()

	require.NoError(t, sys.Enqueue(ctx, 0, 55))

	for r := 0; r < sys.N(); r++ {
		items, err := sys.Snapshot(r)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, uint16(55), items[0].Value)
	}

	result, err := sys.Dequeue(ctx, 2)
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, uint16(55), result.Value)
}

func TestOutOfRangeInvocationIsRejectedWithoutMutatingState(t *testing.T) {
	sys := newTestSystem(t, 2)
	ctx := context.Background()

	err := sys.Enqueue(ctx, 5, 1)
	require.Error(t, err)

	_, err = sys.Dequeue(ctx, -1)
	require.Error(t, err)

	for r := 0; r < sys.N(); r++ {
		items, err := sys.Snapshot(r)
		require.NoError(t, err)
		assert.Empty(t, items)
	}
}

func TestTraceRecordsInvocations(t *testing.T) {
	sys := newTestSystem(t, 2)
	ctx := context.Background()

	require.NoError(t, sys.Enqueue(ctx, 0, 1))
	_, err := sys.Dequeue(ctx, 1)
	require.NoError(t, err)

	dump, err := sys.Trace(0)
	require.NoError(t, err)
	assert.Contains(t, dump, "ENQ_INVOKE")

	dump, err = sys.Trace(1)
	require.NoError(t, err)
	assert.Contains(t, dump, "DEQ_INVOKE")
}

// TestTraceIncludesConfirmationListDump exercises confirm.Store.DebugString
// (property P6's propagation/vote state is the thing an operator would
// inspect through this dump) by asserting System.Trace surfaces the
// confirmation list created for a completed dequeue, not just the recorder's
// own invoke/commit lines.
func TestTraceIncludesConfirmationListDump(t *testing.T) {
	sys := newTestSystem(t, 2)
	ctx := context.Background()

	require.NoError(t, sys.Enqueue(ctx, 0, 9))
	_, err := sys.Dequeue(ctx, 1)
	require.NoError(t, err)

	dump, err := sys.Trace(1)
	require.NoError(t, err)
	assert.Contains(t, dump, "confirmation lists for process 1")
	assert.Contains(t, dump, "votes=")
	assert.Contains(t, dump, "handled=true")
}

func TestFifoOrderAcrossMultipleEnqueues(t *testing.T) {
	sys := newTestSystem(t, 3)
	ctx := context.Background()

	require.NoError(t, sys.Enqueue(ctx, 0, 1))
	require.NoError(t, sys.Enqueue(ctx, 1, 2))
	require.NoError(t, sys.Enqueue(ctx, 2, 3))

	for i, want := range []uint16{1, 2, 3} {
		result, err := sys.Dequeue(ctx, i%sys.N())
		require.NoError(t, err)
		require.True(t, result.OK)
		assert.Equal(t, want, result.Value)
	}
}
