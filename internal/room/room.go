// Package room bundles everything one auction room owns: its clock, its
// periodic reporter and its presence registry.
package room

import (
	"context"
	"fmt"
	"time"

	"lastbidder/internal/clock"
	"lastbidder/internal/config"
	"lastbidder/internal/presence"
	"lastbidder/internal/reporter"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const resetTimeout = 5 * time.Second

type Room struct {
	name     string
	clock    *clock.Clock
	reporter *reporter.Reporter
	presence presence.Registry
}

// New wires a room from configuration. clk may be nil for the real clock.
func New(cfg *config.Config, pub clock.Publisher, reg presence.Registry, clk clockwork.Clock) (*Room, error) {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	c, err := clock.New(clock.Options{
		Group:            cfg.RoomName,
		InitialSeconds:   cfg.ClockInitialSeconds,
		IncrementSeconds: cfg.BidIncrementSeconds,
		Policy:           clock.Policy(cfg.ExpiredBidPolicy),
		Publisher:        pub,
		Clock:            clk,
	})
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", cfg.RoomName, err)
	}
	return &Room{
		name:     cfg.RoomName,
		clock:    c,
		reporter: reporter.New(cfg.RoomName, cfg.ReportInterval, pub, reg, c, clk),
		presence: reg,
	}, nil
}

func (r *Room) Name() string { return r.name }

func (r *Room) Clock() *clock.Clock { return r.clock }

func (r *Room) Presence() presence.Registry { return r.presence }

// Open clears stale presence and starts the clock. It must return before
// the room accepts connections, so no join or bid can race the reset.
func (r *Room) Open(ctx context.Context) error {
	rctx, cancel := context.WithTimeout(ctx, resetTimeout)
	err := r.presence.Reset(rctx)
	cancel()
	if err != nil {
		return fmt.Errorf("room %s: reset presence: %w", r.name, err)
	}

	if err := r.clock.Start(ctx); err != nil {
		return fmt.Errorf("room %s: %w", r.name, err)
	}
	zap.L().Info("room.open", zap.String("room", r.name))
	return nil
}

// Run reports until ctx is cancelled, then waits for the reporter and every
// decrement loop to return. ctx should be the one given to Open.
func (r *Room) Run(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.reporter.Run(ctx)
	}()

	<-ctx.Done()
	<-done
	r.clock.Wait()
	zap.L().Info("room.closed", zap.String("room", r.name))
}
