package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrConnClosed     = errors.New("connection_closed")
	ErrSendBufferFull = errors.New("send_buffer_full")
)

const writeWait = 10 * time.Second

// clientConn owns one websocket. Frames are queued on send and written by
// writePump, so a slow socket only ever backs up its own queue.
type clientConn struct {
	id      string
	rawConn *websocket.Conn

	send chan []byte
	done chan struct{}

	mu   sync.Mutex // serialises writes to rawConn
	once sync.Once
}

var _ Member = (*clientConn)(nil)

func newClientConn(raw *websocket.Conn, buffer int) *clientConn {
	return &clientConn{
		id:      uuid.NewString(),
		rawConn: raw,
		send:    make(chan []byte, buffer),
		done:    make(chan struct{}),
	}
}

func (c *clientConn) ID() string { return c.id }

func (c *clientConn) Send(msg []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrSendBufferFull
	}
}

func (c *clientConn) write(mt int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rawConn == nil {
		return ErrConnClosed
	}
	_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.rawConn.WriteMessage(mt, data)
}

// writePump drains the send queue and pings the peer every pingPeriod.
func (c *clientConn) writePump(pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				zap.L().Debug("ws.write", zap.String("conn_id", c.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				zap.L().Debug("ws.ping", zap.String("conn_id", c.id), zap.Error(err))
				return
			}
		}
	}
}

// Close is idempotent; queued frames not yet written are dropped.
func (c *clientConn) Close() {
	c.once.Do(func() {
		close(c.done)
		if c.rawConn != nil {
			_ = c.rawConn.Close()
		}
	})
}
