package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"lastbidder/internal/config"
	"lastbidder/internal/http/http_server"
	"lastbidder/internal/presence"
	"lastbidder/internal/redis/redis_client"
	"lastbidder/internal/room"
	"lastbidder/internal/ws"

	"go.uber.org/zap"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Presence registry
	var reg presence.Registry
	switch cfg.PresenceBackend {
	case config.BackendRedis:
		redisClient, err := redis_client.NewRedisClient(ctx, cfg.RedisHost, cfg.RedisPort)
		if err != nil {
			Log.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()
		reg = presence.NewRedis(redisClient, cfg.RoomName)
	default:
		reg = presence.NewMemory()
	}
	Log.Debug("Presence registry ready", zap.String("backend", cfg.PresenceBackend))

	// 4. Broadcast hub
	hub := ws.NewHub(cfg.HubQueueSize)
	go hub.Run(ctx)

	// 5. Room: clock + reporter, open before any connection is accepted
	rm, err := room.New(cfg, hub, reg, nil)
	if err != nil {
		Log.Fatal("Failed to create room", zap.Error(err))
	}
	if err := rm.Open(ctx); err != nil {
		Log.Fatal("Failed to open room", zap.Error(err))
	}
	roomDone := make(chan struct{})
	go func() {
		defer close(roomDone)
		rm.Run(ctx)
	}()

	// 6. WS server
	wsSrv := ws.NewWsServer(hub, rm.Clock(), reg, ws.ServerConfig{
		Group:      cfg.RoomName,
		SendBuffer: cfg.WsSendBuffer,
		ReadLimit:  cfg.WsReadLimit,
		PongWait:   cfg.WsPongWait,
		PingPeriod: cfg.WsPingPeriod,
	})

	// 7. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, rm, hub, wsSrv)
	go func() {
		<-ctx.Done()
		_ = httpServer.Dispose()
	}()
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}

	<-roomDone
	Log.Info("shutdown complete")
}
