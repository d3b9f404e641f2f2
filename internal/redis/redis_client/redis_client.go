package redis_client

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// NewRedisClient connects to the presence store and pings it once.
func NewRedisClient(ctx context.Context, host string, port uint16) (*redis.Client, error) {
	// presence traffic is one pipeline per join/leave plus a count per report
	poolSize := runtime.NumCPU() * 4
	if poolSize > 128 {
		poolSize = 128
	}

	rc := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		PoolSize: poolSize,
	})

	if err := ping(ctx, rc); err != nil {
		_ = rc.Close()
		return nil, err
	}
	zap.L().Info("redis.connected", zap.String("addr", rc.Options().Addr), zap.Int("pool", poolSize))
	return rc, nil
}

func ping(ctx context.Context, rc redis.Cmdable) error {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rc.Ping(pctx).Err(); err != nil {
		err = fmt.Errorf("redis connection failed: %w", err)
		zap.L().Error("redis.connect", zap.Error(err))
		return err
	}
	return nil
}
