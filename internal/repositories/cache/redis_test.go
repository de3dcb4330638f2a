package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"

	"walletd/internal/services/wallet"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ wallet.Store = (*RedisStore)(nil)

// fakeRedis answers GET/SET/DEL/PING in a hook so no server is needed.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	err  error
	seen []string
}

func (f *fakeRedis) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("dial disabled in tests")
	}
}

func (f *fakeRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (f *fakeRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		f.mu.Lock()
		defer f.mu.Unlock()

		args := cmd.Args()
		f.seen = append(f.seen, strings.TrimSpace(fmt.Sprintln(args...)))
		if f.err != nil {
			cmd.SetErr(f.err)
			return f.err
		}

		switch cmd.Name() {
		case "get":
			v, ok := f.data[args[1].(string)]
			if !ok {
				cmd.SetErr(redis.Nil)
				return redis.Nil
			}
			cmd.(*redis.StringCmd).SetVal(v)
		case "set":
			f.data[args[1].(string)] = fmt.Sprint(args[2])
			cmd.(*redis.StatusCmd).SetVal("OK")
		case "del":
			delete(f.data, args[1].(string))
			cmd.(*redis.IntCmd).SetVal(1)
		case "ping":
			cmd.(*redis.StatusCmd).SetVal("PONG")
		default:
			err := fmt.Errorf("unexpected command %s", cmd.Name())
			cmd.SetErr(err)
			return err
		}
		return nil
	}
}

func newTestStore(t *testing.T) (*RedisStore, *fakeRedis) {
	t.Helper()
	fake := &fakeRedis{data: make(map[string]string)}
	client := NewRedisClient(&RedisConfig{Host: "localhost", Port: "6379"})
	client.AddHook(fake)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), fake
}

func TestRedisStore_ReadWriteRemove(t *testing.T) {
	ctx := context.Background()
	store, fake := newTestStore(t)

	_, found, err := store.Read(ctx, "walletBalance:alice")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Write(ctx, "walletBalance:alice", "1500"))
	value, found, err := store.Read(ctx, "walletBalance:alice")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "1500", value)

	require.NoError(t, store.Remove(ctx, "walletBalance:alice"))
	_, found, err = store.Read(ctx, "walletBalance:alice")
	require.NoError(t, err)
	assert.False(t, found)

	// balances are written without expiry
	assert.Contains(t, fake.seen, "set walletBalance:alice 1500")
}

func TestRedisStore_Errors(t *testing.T) {
	ctx := context.Background()
	store, fake := newTestStore(t)
	fake.err = errors.New("connection refused")

	_, _, err := store.Read(ctx, "k")
	assert.ErrorContains(t, err, "connection refused")
	assert.Error(t, store.Write(ctx, "k", "1"))
	assert.Error(t, store.Remove(ctx, "k"))
	assert.ErrorContains(t, store.Ping(ctx), "redis connection failed")
}

func TestRedisStore_BacksLedger(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	l, err := wallet.Open(ctx, store, wallet.Config{MaxBalance: 5000, TopUpAmount: 1000})
	require.NoError(t, err)
	_, err = l.AddFunds(ctx, 2200)
	require.NoError(t, err)

	reopened, err := wallet.Open(ctx, store, wallet.Config{MaxBalance: 5000, TopUpAmount: 1000})
	require.NoError(t, err)
	assert.Equal(t, int64(2200), reopened.Balance())
}
