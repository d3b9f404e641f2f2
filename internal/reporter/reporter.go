package reporter

import (
	"context"
	"time"

	"lastbidder/internal/events"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const countTimeout = 250 * time.Millisecond

type Publisher interface {
	Publish(group string, v any)
}

type Counter interface {
	Count(ctx context.Context) (int64, error)
}

type RemainingReader interface {
	Remaining() int
}

// Reporter pushes {num_connected_users, remaining_time} to a group on a fixed interval.
type Reporter struct {
	group    string
	interval time.Duration
	pub      Publisher
	presence Counter
	clock    RemainingReader
	clk      clockwork.Clock
}

func New(group string, interval time.Duration, pub Publisher, presence Counter, clock RemainingReader, clk clockwork.Clock) *Reporter {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Reporter{
		group:    group,
		interval: interval,
		pub:      pub,
		presence: presence,
		clock:    clock,
		clk:      clk,
	}
}

// Run reports every interval until ctx is cancelled.
func (r *Reporter) Run(ctx context.Context) {
	tk := r.clk.NewTicker(r.interval)
	defer tk.Stop()

	zap.L().Info("reporter.started", zap.String("group", r.group), zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			zap.L().Info("reporter.stopped", zap.String("group", r.group))
			return
		case <-tk.Chan():
			r.reportOnce(ctx)
		}
	}
}

func (r *Reporter) reportOnce(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, countTimeout)
	n, err := r.presence.Count(cctx)
	cancel()
	if err != nil {
		zap.L().Warn("reporter.count", zap.String("group", r.group), zap.Error(err))
		return
	}
	r.pub.Publish(r.group, events.New(events.Update, events.RoomUpdateData{
		NumConnectedUsers: n,
		RemainingTime:     r.clock.Remaining(),
	}))
}
