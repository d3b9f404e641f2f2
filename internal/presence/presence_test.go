package presence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryJoinLeaveCount(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	const n, left = 40, 15
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, m.Add(ctx, fmt.Sprintf("u%d", i), fmt.Sprintf("0x%02x", i)))
		}(i)
	}
	wg.Wait()
	for i := 0; i < left; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, m.Remove(ctx, fmt.Sprintf("u%d", i)))
		}(i)
	}
	wg.Wait()

	cnt, err := m.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, n-left, cnt)

	w, err := m.Wallet(ctx, "u20")
	require.NoError(t, err)
	assert.Equal(t, "0x14", w)

	_, err = m.Wallet(ctx, "u3")
	assert.ErrorIs(t, err, ErrUnknownBidder)

	require.NoError(t, m.Reset(ctx))
	cnt, _ = m.Count(ctx)
	assert.Zero(t, cnt)
}

func TestMemoryRejoinUpdatesWallet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Add(ctx, "alice", "0xaaa"))
	require.NoError(t, m.Add(ctx, "alice", "0xbbb"))

	cnt, _ := m.Count(ctx)
	assert.EqualValues(t, 1, cnt)
	w, _ := m.Wallet(ctx, "alice")
	assert.Equal(t, "0xbbb", w)
}

func TestRedisAdd(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedis(db, "lobby")

	mock.ExpectTxPipeline()
	mock.ExpectHSet("presence:lobby:wallets", "alice", "0xabc").SetVal(1)
	mock.ExpectSAdd("presence:lobby:online", "alice").SetVal(1)
	mock.ExpectTxPipelineExec()

	require.NoError(t, r.Add(context.Background(), "alice", "0xabc"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisRemove(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedis(db, "lobby")

	mock.ExpectTxPipeline()
	mock.ExpectHDel("presence:lobby:wallets", "alice").SetVal(1)
	mock.ExpectSRem("presence:lobby:online", "alice").SetVal(1)
	mock.ExpectTxPipelineExec()

	require.NoError(t, r.Remove(context.Background(), "alice"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisAddFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedis(db, "lobby")

	// nothing expected: every command fails
	err := r.Add(context.Background(), "alice", "0xabc")
	assert.Error(t, err)

	mock.ExpectSCard("presence:lobby:online").SetErr(errors.New("connection refused"))
	_, err = r.Count(context.Background())
	assert.Error(t, err)
}

func TestRedisCountAndWallet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedis(db, "lobby")
	ctx := context.Background()

	mock.ExpectSCard("presence:lobby:online").SetVal(3)
	mock.ExpectHGet("presence:lobby:wallets", "bob").SetVal("0xb0b")
	mock.ExpectHGet("presence:lobby:wallets", "ghost").RedisNil()
	mock.ExpectDel("presence:lobby:wallets", "presence:lobby:online").SetVal(2)

	cnt, err := r.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, cnt)

	w, err := r.Wallet(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "0xb0b", w)

	_, err = r.Wallet(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUnknownBidder)

	require.NoError(t, r.Reset(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}
