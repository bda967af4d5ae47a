package txn

import (
	"context"
	"testing"

	"github.com/fsvxavier/nexs-stomp/broker"
	"github.com/fsvxavier/nexs-stomp/broker/brokertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginRejectsDuplicate(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Begin("tx1"))
	err := r.Begin("tx1")
	require.Error(t, err)
}

func TestEnqueueUnknownTxFails(t *testing.T) {
	r := NewRegistry(nil)
	err := r.Enqueue("missing", func(broker.UOW) {})
	require.Error(t, err)
	assert.ErrorContains(t, err, "transaction not active")
}

func TestCommitWithoutStoreReplaysSynchronously(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Begin("tx1"))

	var order []string
	require.NoError(t, r.Enqueue("tx1", func(broker.UOW) { order = append(order, "a") }))
	require.NoError(t, r.Enqueue("tx1", func(broker.UOW) { order = append(order, "b") }))

	completed := false
	require.NoError(t, r.Commit(context.Background(), "tx1", func() { completed = true }))

	assert.Equal(t, []string{"a", "b"}, order)
	assert.True(t, completed)
	assert.False(t, r.Active("tx1"))
}

func TestCommitWithStoreUsesSingleUOW(t *testing.T) {
	store := &brokertest.Store{}
	r := NewRegistry(store)
	require.NoError(t, r.Begin("tx1"))

	var seen []broker.UOW
	require.NoError(t, r.Enqueue("tx1", func(uow broker.UOW) { seen = append(seen, uow) }))
	require.NoError(t, r.Enqueue("tx1", func(uow broker.UOW) { seen = append(seen, uow) }))

	completed := false
	require.NoError(t, r.Commit(context.Background(), "tx1", func() { completed = true }))

	require.Len(t, seen, 2)
	assert.Same(t, seen[0], seen[1], "both actions must replay against the same UOW")
	assert.True(t, completed, "on_complete must fire once the UOW is released")
	require.Len(t, store.UOWs(), 1)
}

func TestAbortNeverInvokesQueuedActions(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Begin("tx1"))

	invoked := false
	require.NoError(t, r.Enqueue("tx1", func(broker.UOW) { invoked = true }))
	require.NoError(t, r.Abort("tx1"))

	assert.False(t, invoked)
	assert.False(t, r.Active("tx1"))
}

func TestCommitUnknownTxFails(t *testing.T) {
	r := NewRegistry(nil)
	err := r.Commit(context.Background(), "missing", nil)
	require.Error(t, err)
}

func TestAbortUnknownTxFails(t *testing.T) {
	r := NewRegistry(nil)
	err := r.Abort("missing")
	require.Error(t, err)
}

func TestTransactionsAreIsolated(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Begin("a"))
	require.NoError(t, r.Begin("b"))

	var aRan, bRan bool
	require.NoError(t, r.Enqueue("a", func(broker.UOW) { aRan = true }))
	require.NoError(t, r.Enqueue("b", func(broker.UOW) { bRan = true }))

	require.NoError(t, r.Abort("a"))
	require.NoError(t, r.Commit(context.Background(), "b", nil))

	assert.False(t, aRan)
	assert.True(t, bRan)
}
