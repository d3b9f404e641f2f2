// Package presence tracks which bidders are connected to a room.
package presence

import (
	"context"
	"errors"
	"sync"
)

var ErrUnknownBidder = errors.New("unknown_bidder")

// Registry is shared by every connection of a room and by its reporter.
type Registry interface {
	Add(ctx context.Context, bidderID, wallet string) error
	Remove(ctx context.Context, bidderID string) error
	Count(ctx context.Context) (int64, error)
	Wallet(ctx context.Context, bidderID string) (string, error)
	Reset(ctx context.Context) error
}

// Memory keeps presence in process; used for single-node runs.
type Memory struct {
	mu      sync.RWMutex
	wallets map[string]string
	online  map[string]struct{}
}

var _ Registry = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		wallets: make(map[string]string),
		online:  make(map[string]struct{}),
	}
}

func (m *Memory) Add(_ context.Context, bidderID, wallet string) error {
	m.mu.Lock()
	m.wallets[bidderID] = wallet
	m.online[bidderID] = struct{}{}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Remove(_ context.Context, bidderID string) error {
	m.mu.Lock()
	delete(m.wallets, bidderID)
	delete(m.online, bidderID)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.online)), nil
}

func (m *Memory) Wallet(_ context.Context, bidderID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.wallets[bidderID]
	if !ok {
		return "", ErrUnknownBidder
	}
	return w, nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	clear(m.wallets)
	clear(m.online)
	m.mu.Unlock()
	return nil
}
