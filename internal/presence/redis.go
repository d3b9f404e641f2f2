package presence

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "presence:"

// Redis keeps presence in a shared Redis so every handler sees the same
// state: a hash bidder -> wallet and a set of connected bidders.
type Redis struct {
	rdc       redis.Cmdable
	walletKey string
	onlineKey string
}

var _ Registry = (*Redis)(nil)

func NewRedis(rdc redis.Cmdable, room string) *Redis {
	return &Redis{
		rdc:       rdc,
		walletKey: keyPrefix + room + ":wallets",
		onlineKey: keyPrefix + room + ":online",
	}
}

func (r *Redis) Add(ctx context.Context, bidderID, wallet string) error {
	_, err := r.rdc.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.walletKey, bidderID, wallet)
		pipe.SAdd(ctx, r.onlineKey, bidderID)
		return nil
	})
	if err != nil {
		zap.L().Warn("presence.add", zap.String("bidder", bidderID), zap.Error(err))
		return fmt.Errorf("presence add %s: %w", bidderID, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, bidderID string) error {
	_, err := r.rdc.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, r.walletKey, bidderID)
		pipe.SRem(ctx, r.onlineKey, bidderID)
		return nil
	})
	if err != nil {
		zap.L().Warn("presence.remove", zap.String("bidder", bidderID), zap.Error(err))
		return fmt.Errorf("presence remove %s: %w", bidderID, err)
	}
	return nil
}

func (r *Redis) Count(ctx context.Context) (int64, error) {
	return r.rdc.SCard(ctx, r.onlineKey).Result()
}

func (r *Redis) Wallet(ctx context.Context, bidderID string) (string, error) {
	w, err := r.rdc.HGet(ctx, r.walletKey, bidderID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrUnknownBidder
	}
	return w, err
}

// Reset drops presence left over from a previous process.
func (r *Redis) Reset(ctx context.Context) error {
	return r.rdc.Del(ctx, r.walletKey, r.onlineKey).Err()
}
