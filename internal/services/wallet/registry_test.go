package wallet

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Get(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.set("walletBalance:alice", "1200")

	r, err := NewRegistry(store, testConfig())
	require.NoError(t, err)

	alice, err := r.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), alice.Balance())

	again, err := r.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Same(t, alice, again)

	bob, err := r.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(0), bob.Balance())
	assert.Equal(t, 2, r.Len())

	_, err = bob.AddFunds(ctx, 300)
	require.NoError(t, err)
	stored, ok := store.get("walletBalance:bob")
	require.True(t, ok)
	assert.Equal(t, "300", stored)

	stored, _ = store.get("walletBalance:alice")
	assert.Equal(t, "1200", stored)
}

func TestRegistry_InvalidOwner(t *testing.T) {
	r, err := NewRegistry(newFakeStore(), testConfig())
	require.NoError(t, err)

	_, err = r.Get(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidOwner)
}

func TestRegistry_InvalidConfig(t *testing.T) {
	_, err := NewRegistry(newFakeStore(), Config{MaxBalance: -100})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRegistry_ConcurrentGetReturnsOneLedger(t *testing.T) {
	r, err := NewRegistry(newFakeStore(), testConfig())
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ledgers = make(map[*Ledger]struct{})
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l, err := r.Get(context.Background(), "carol")
			assert.NoError(t, err)
			mu.Lock()
			ledgers[l] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, ledgers, 1)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_HydrationSurvivesCancelledCaller(t *testing.T) {
	store := newFakeStore()
	store.set("walletBalance:dave", "700")

	r, err := NewRegistry(store, testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l, err := r.Get(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, int64(700), l.Balance())
}

func TestRegistry_CloseFlushesPendingWrites(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	r, err := NewRegistry(store, testConfig())
	require.NoError(t, err)

	l, err := r.Get(ctx, "erin")
	require.NoError(t, err)

	store.setFailWrite(true)
	_, err = l.AddFunds(ctx, 400)
	require.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, r.Close(ctx), ErrPersistence)

	store.setFailWrite(false)
	require.NoError(t, r.Close(ctx))
	stored, _ := store.get("walletBalance:erin")
	assert.Equal(t, "400", stored)
}

func TestRegistry_ReadOutageDoesNotOverwriteStoredBalance(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.set("walletBalance:alice", "4200")
	store.setReadErr(errStoreDown)

	r, err := NewRegistry(store, testConfig())
	require.NoError(t, err)

	first, err := r.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.Balance())
	assert.False(t, first.InSync())

	store.setReadErr(nil)
	again, err := r.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, int64(4200), again.Balance())

	res, err := again.AddFunds(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Amount)

	stored, _ := store.get("walletBalance:alice")
	assert.Equal(t, "4300", stored)
}

func TestRegistry_EvictIdle(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	r, err := NewRegistry(store, testConfig())
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	r.clock = func() time.Time { return now }

	idle, err := r.Get(ctx, "idle")
	require.NoError(t, err)
	_, err = idle.AddFunds(ctx, 700)
	require.NoError(t, err)

	pending, err := r.Get(ctx, "pending")
	require.NoError(t, err)
	store.setFailWrite(true)
	_, err = pending.AddFunds(ctx, 50)
	require.ErrorIs(t, err, ErrPersistence)

	now = now.Add(10 * time.Minute)
	_, err = r.Get(ctx, "active")
	require.NoError(t, err)

	// pending cannot be flushed yet and stays
	evicted, err := r.EvictIdle(ctx, 5*time.Minute)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 2, r.Len())

	store.setFailWrite(false)
	evicted, err = r.EvictIdle(ctx, 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, r.Len())

	stored, _ := store.get("walletBalance:pending")
	assert.Equal(t, "50", stored)

	// a later Get hydrates a fresh ledger from the store
	back, err := r.Get(ctx, "idle")
	require.NoError(t, err)
	assert.NotSame(t, idle, back)
	assert.Equal(t, int64(700), back.Balance())
}
