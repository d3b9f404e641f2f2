package ws

import (
	"context"
	"net/http"
	"time"

	"lastbidder/internal/presence"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ServerConfig tunes the websocket transport.
type ServerConfig struct {
	Group      string
	SendBuffer int
	ReadLimit  int64
	PongWait   time.Duration
	PingPeriod time.Duration // must be < PongWait
}

type WsServer struct {
	hub      *Hub
	bidder   Bidder
	presence presence.Registry
	cfg      ServerConfig
	upgrader websocket.Upgrader
}

func NewWsServer(h *Hub, bidder Bidder, reg presence.Registry, cfg ServerConfig) *WsServer {
	return &WsServer{
		hub:      h,
		bidder:   bidder,
		presence: reg,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// identity is established upstream; any origin may watch the lobby
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ---------------------------------------------------------------------------
//  Public: Gin entry‑point
// ---------------------------------------------------------------------------

func (s *WsServer) Handle(ginCtx *gin.Context) {
	rawConn, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.accept", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(s.cfg.ReadLimit)

	// ─────────────────── Client connected ────────────────────────
	conn := newClientConn(rawConn, s.cfg.SendBuffer)
	sess := NewSession(conn, s.hub, s.bidder, s.presence, s.cfg.Group)
	sess.Open()
	zap.L().Info("ws.connected",
		zap.String("conn_id", conn.ID()),
		zap.String("remote", ginCtx.ClientIP()),
	)

	go conn.writePump(s.cfg.PingPeriod)
	go s.reader(sess, conn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) reader(sess *Session, conn *clientConn) {
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		sess.Close(ctx)
		cancel()
	}()

	raw := conn.rawConn
	_ = raw.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	for {
		_, msg, err := raw.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Debug("ws.read", zap.String("conn_id", conn.ID()), zap.Error(err))
			}
			return // client closed or errored
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1900*time.Millisecond)
		sess.HandleMessage(ctx, msg)
		cancel()
	}
}
