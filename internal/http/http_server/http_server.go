package http_server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"lastbidder/internal/room"
	"lastbidder/internal/ws"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	disposeTimeout = 10 * time.Second
	healthTimeout  = 2 * time.Second
)

type httpServer struct {
	listenPort uint16
	srv        *http.Server
	ln         net.Listener
	room       *room.Room
	hub        *ws.Hub
	wsSrv      *ws.WsServer
	ctx        context.Context
}

func NewHttpServer(ctx context.Context, listenPort uint16, rm *room.Room, hub *ws.Hub, wsSrv *ws.WsServer) *httpServer {
	h := &httpServer{
		listenPort: listenPort,
		room:       rm,
		hub:        hub,
		wsSrv:      wsSrv,
		ctx:        ctx,
	}
	h.srv = &http.Server{
		Handler:           h.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return h
}

func (h *httpServer) routes() *gin.Engine {
	routerEngine := gin.New()
	routerEngine.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))
	routerEngine.Use(ginzap.RecoveryWithZap(zap.L(), true))

	// websocket endpoint, one per room
	routerEngine.GET("/"+h.room.Name(), h.wsSrv.Handle)
	routerEngine.GET("/healthz", h.health)
	return routerEngine
}

// Start blocks serving until Dispose is called.
func (h *httpServer) Start() error {
	var err error
	h.ln, err = net.Listen("tcp", fmt.Sprintf(":%d", h.listenPort))
	if err != nil {
		return err
	}
	zap.L().Info("http.listening", zap.String("addr", h.ln.Addr().String()))

	if err := h.srv.Serve(h.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type healthBody struct {
	Room           string `json:"room"`
	Clock          any    `json:"clock"`
	ConnectedUsers int64  `json:"num_connected_users"`
	Sockets        int    `json:"sockets"`
}

func (h *httpServer) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	n, err := h.room.Presence().Count(ctx)
	if err != nil {
		zap.L().Warn("http.health", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "presence unavailable"})
		return
	}
	c.JSON(http.StatusOK, healthBody{
		Room:           h.room.Name(),
		Clock:          h.room.Clock().Snapshot(),
		ConnectedUsers: n,
		Sockets:        h.hub.Members(h.room.Name()),
	})
}

// Dispose gracefully shuts the HTTP server down.
// It waits up to 10 s for in-flight requests to finish.
func (h *httpServer) Dispose() error {
	// the parent ctx is already cancelled on shutdown
	ctx, cancel := context.WithTimeout(context.WithoutCancel(h.ctx), disposeTimeout)
	defer cancel()

	if err := h.srv.Shutdown(ctx); err != nil {
		zap.L().Error("http.dispose", zap.Error(err))
		return err
	}
	zap.L().Info("http.disposed")
	return nil
}
