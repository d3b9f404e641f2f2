package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// reservedSlots are queue slots only urgent frames may use.
const reservedSlots = 16

type outbound struct {
	group  string
	msg    []byte
	urgent bool
}

// Hub keeps named groups of connections and fans frames out to them.
// Publish only enqueues; Run delivers in FIFO order, so frames from one
// publisher reach every member in the order they were published.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]*group

	queue   chan outbound
	limit   int64        // ordinary frames allowed in queue
	pending atomic.Int64 // ordinary frames currently in queue
}

func NewHub(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Hub{
		groups: make(map[string]*group),
		queue:  make(chan outbound, queueSize+reservedSlots),
		limit:  int64(queueSize),
	}
}

// Run drains the publish queue until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	zap.L().Info("ws.hub_started")
	for {
		select {
		case <-ctx.Done():
			zap.L().Info("ws.hub_stopped")
			return
		case o := <-h.queue:
			if !o.urgent {
				h.pending.Add(-1)
			}
			h.deliver(o)
		}
	}
}

// Publish marshals v and queues it for every member of group.
func (h *Hub) Publish(group string, v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("ws.publish_marshal", zap.String("group", group), zap.Error(err))
		return
	}
	h.PublishRaw(group, msg)
}

// PublishRaw queues an already encoded frame. It drops the frame when the
// ordinary part of the queue is full.
func (h *Hub) PublishRaw(group string, msg []byte) {
	for {
		n := h.pending.Load()
		if n >= h.limit {
			zap.L().Warn("ws.hub_queue_full", zap.String("group", group))
			return
		}
		if h.pending.CompareAndSwap(n, n+1) {
			break
		}
	}
	select {
	case h.queue <- outbound{group: group, msg: msg}:
	default:
		h.pending.Add(-1)
		zap.L().Warn("ws.hub_queue_full", zap.String("group", group))
	}
}

// PublishUrgent queues v in the reserved part of the queue, so client
// driven traffic such as chat can never crowd it out. Order relative to
// frames queued earlier is kept.
func (h *Hub) PublishUrgent(group string, v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("ws.publish_marshal", zap.String("group", group), zap.Error(err))
		return
	}
	select {
	case h.queue <- outbound{group: group, msg: msg, urgent: true}:
	default:
		zap.L().Error("ws.hub_reserved_full", zap.String("group", group))
	}
}

func (h *Hub) deliver(o outbound) {
	// Take a quick snapshot of the current members, do the I/O outside the lock
	h.mu.RLock()
	g, ok := h.groups[o.group]
	var members []Member
	if ok {
		members = g.snapshot()
	}
	h.mu.RUnlock()

	broadcast(o.group, members, o.msg)
}

func (h *Hub) Join(name string, m Member) {
	h.mu.Lock()
	g, ok := h.groups[name]
	if !ok {
		g = newGroup(name)
		h.groups[name] = g
	}
	g.members[m] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Leave(name string, m Member) {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.groups[name]
	if !ok {
		return
	}
	delete(g.members, m)
	if len(g.members) == 0 {
		delete(h.groups, name)
	}
}

// Members returns how many connections are in group.
func (h *Hub) Members(name string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if g, ok := h.groups[name]; ok {
		return len(g.members)
	}
	return 0
}
