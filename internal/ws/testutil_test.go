package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeConn records every frame it is handed.
type fakeConn struct {
	id string

	mu     sync.Mutex
	frames [][]byte
	closed bool
	broken bool
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: id} }

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrConnClosed
	}
	if f.broken {
		return errors.New("broken pipe")
	}
	f.frames = append(f.frames, msg)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) raw() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.frames))
	for i, b := range f.frames {
		out[i] = string(b)
	}
	return out
}

func (f *fakeConn) decoded(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, r := range f.raw() {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(r), &m))
		out = append(out, m)
	}
	return out
}

// withEvent returns the frames whose "event" field equals name.
func (f *fakeConn) withEvent(t *testing.T, name string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, m := range f.decoded(t) {
		if m["event"] == name {
			out = append(out, m)
		}
	}
	return out
}

// flush publishes a marker to group and waits until every observer saw it.
// Because the hub delivers in FIFO order, anything published earlier has
// been delivered by the time flush returns.
func flush(t *testing.T, h *Hub, group string, observers ...*fakeConn) {
	t.Helper()
	marker := `{"event":"marker"}`
	h.PublishRaw(group, []byte(marker))
	require.Eventually(t, func() bool {
		for _, o := range observers {
			seen := false
			for _, r := range o.raw() {
				if r == marker {
					seen = true
				}
			}
			if !seen {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)
}
