// Package clock implements the shared countdown of an auction room.
//
// Every field of a Clock is guarded by its mutex. Exactly one decrement loop
// runs while the clock is active: the loop is only started by whoever flips
// active from false to true under the lock, and it only exits after flipping
// it back under the same lock.
package clock

import (
	"context"
	"errors"
	"sync"
	"time"

	"lastbidder/internal/events"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Policy decides what a bid does once the clock has expired.
type Policy string

const (
	// PolicyReject leaves an expired clock expired.
	PolicyReject Policy = "reject"
	// PolicyRestart re-arms an expired clock with one increment.
	PolicyRestart Policy = "restart"
)

type Phase int

const (
	Idle Phase = iota
	Running
	Expired
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Expired:
		return "expired"
	}
	return "unknown"
}

var (
	ErrClockInactive   = errors.New("clock_inactive")
	ErrClockNotStarted = errors.New("clock_not_started")
	ErrClockStopped    = errors.New("clock_stopped")
	ErrAlreadyRunning  = errors.New("already_running")
	ErrMissingBidderID = errors.New("missing_bidder_id")
)

// Publisher fans a frame out to a group. Implementations must not block.
// PublishUrgent is used for the terminal end_clock frame and must not be
// starved by ordinary traffic.
type Publisher interface {
	Publish(group string, v any)
	PublishUrgent(group string, v any)
}

type Options struct {
	Group            string
	InitialSeconds   int
	IncrementSeconds int
	Policy           Policy
	Publisher        Publisher
	Clock            clockwork.Clock // nil means the real clock
}

type ExtendResult struct {
	OldSeconds int
	NewSeconds int
	Added      int
	Restarted  bool
}

// State is a consistent copy of the clock fields.
type State struct {
	Remaining  int    `json:"remaining_time"`
	Active     bool   `json:"active"`
	Increment  int    `json:"bid_increment"`
	LastBidder string `json:"last_bidder,omitempty"`
	Phase      string `json:"phase"`
}

type Clock struct {
	group  string
	policy Policy
	pub    Publisher
	clk    clockwork.Clock

	mu         sync.Mutex
	remaining  int
	active     bool
	increment  int
	lastBidder string
	phase      Phase
	ctx        context.Context // room lifetime, set by Start

	loops sync.WaitGroup
	live  int // decrement loops currently owned, guarded by mu
}

func New(opts Options) (*Clock, error) {
	if opts.InitialSeconds <= 0 {
		return nil, errors.New("initial seconds must be positive")
	}
	if opts.IncrementSeconds <= 0 {
		return nil, errors.New("bid increment must be positive")
	}
	if opts.Publisher == nil {
		return nil, errors.New("publisher is required")
	}
	switch opts.Policy {
	case PolicyReject, PolicyRestart:
	case "":
		opts.Policy = PolicyRestart
	default:
		return nil, errors.New("unknown expired bid policy: " + string(opts.Policy))
	}
	clk := opts.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Clock{
		group:     opts.Group,
		policy:    opts.Policy,
		pub:       opts.Publisher,
		clk:       clk,
		remaining: opts.InitialSeconds,
		increment: opts.IncrementSeconds,
		phase:     Idle,
	}, nil
}

// Start arms an idle clock and launches its decrement loop. The loop and any
// loop started later by a restarting bid stop when ctx is cancelled.
func (c *Clock) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx != nil && c.ctx.Err() != nil {
		return ErrClockStopped
	}
	if c.phase != Idle {
		return ErrAlreadyRunning
	}
	c.ctx = ctx
	c.armLocked()
	zap.L().Info("clock.started", zap.String("group", c.group), zap.Int("remaining", c.remaining))
	return nil
}

// Extend applies one accepted bid. Bids before Start are rejected.
func (c *Clock) Extend(bidderID string) (ExtendResult, error) {
	if bidderID == "" {
		return ExtendResult{}, ErrMissingBidderID
	}

	c.mu.Lock()
	if c.ctx == nil {
		c.mu.Unlock()
		return ExtendResult{}, ErrClockNotStarted
	}
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return ExtendResult{}, ErrClockStopped
	}
	if c.phase == Expired && c.policy == PolicyReject {
		c.mu.Unlock()
		return ExtendResult{}, ErrClockInactive
	}

	res := ExtendResult{OldSeconds: c.remaining, Added: c.increment}
	c.remaining += c.increment
	c.lastBidder = bidderID
	if !c.active {
		res.Restarted = c.phase == Expired
		c.armLocked()
	}
	res.NewSeconds = c.remaining
	c.mu.Unlock()

	if res.Restarted {
		zap.L().Info("clock.restarted", zap.String("group", c.group), zap.String("bidder", bidderID))
	}
	c.pub.Publish(c.group, events.New(events.Update, events.ClockUpdateData{
		RemainingTime: res.NewSeconds,
		LastBidder:    bidderID,
		BidAdded:      res.Added,
	}))
	return res, nil
}

// armLocked must be called with c.mu held and the clock inactive.
func (c *Clock) armLocked() {
	c.active = true
	c.phase = Running
	c.live++
	c.loops.Add(1)
	go c.run(c.ctx)
}

func (c *Clock) run(ctx context.Context) {
	defer c.loops.Done()

	for {
		if !c.tick() {
			return
		}
		select {
		case <-ctx.Done():
			c.mu.Lock()
			c.active = false
			c.live--
			c.mu.Unlock()
			zap.L().Info("clock.stopped", zap.String("group", c.group))
			return
		case <-c.clk.After(time.Second):
		}
	}
}

// tick decrements the clock, or expires it and reports false.
func (c *Clock) tick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.remaining <= 0 {
		c.active = false
		c.phase = Expired
		c.live--
		var winner *string
		if c.lastBidder != "" {
			w := c.lastBidder
			winner = &w
		}
		// Publish enqueues only, so holding the lock here is safe and keeps a
		// concurrent Extend from reviving the clock before the end frame.
		c.pub.PublishUrgent(c.group, events.New(events.EndClock, events.EndClockData{
			Message:    events.MsgTimeExpired,
			LastBidder: winner,
		}))
		zap.L().Info("clock.expired", zap.String("group", c.group), zap.String("winner", c.lastBidder))
		return false
	}
	c.remaining--
	return true
}

func (c *Clock) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Clock) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Remaining:  c.remaining,
		Active:     c.active,
		Increment:  c.increment,
		LastBidder: c.lastBidder,
		Phase:      c.phase.String(),
	}
}

// Wait blocks until every decrement loop has returned.
func (c *Clock) Wait() {
	c.loops.Wait()
}
