package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"lastbidder/internal/clock"
	"lastbidder/internal/events"
	"lastbidder/internal/presence"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	ErrMalformedEvent      = errors.New("malformed_event")
	ErrMissingIdentity     = errors.New("missing_identity")
	ErrUnknownEvent        = errors.New("unknown_event")
	ErrAlreadyJoined       = errors.New("already_joined")
	ErrPresenceUnavailable = errors.New("presence_unavailable")
)

type SessionState int

const (
	Connecting SessionState = iota
	Joined
	Closed
)

func (s SessionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Joined:
		return "joined"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Conn is the handle a session writes its private replies to.
type Conn interface {
	Member
	Close()
}

// Bidder is the part of the auction clock a session drives.
type Bidder interface {
	Extend(bidderID string) (clock.ExtendResult, error)
}

// Session handles the inbound events of one connection.
type Session struct {
	conn     Conn
	hub      *Hub
	bidder   Bidder
	presence presence.Registry
	group    string

	mu       sync.Mutex
	state    SessionState
	bidderID string
	wallet   string
}

func NewSession(conn Conn, hub *Hub, bidder Bidder, reg presence.Registry, group string) *Session {
	return &Session{
		conn:     conn,
		hub:      hub,
		bidder:   bidder,
		presence: reg,
		group:    group,
		state:    Connecting,
	}
}

// Open puts the connection in the room group.
func (s *Session) Open() {
	s.hub.Join(s.group, s.conn)
	zap.L().Debug("ws.session_open", zap.String("conn_id", s.conn.ID()), zap.String("group", s.group))
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the bidder id and wallet set by the first join.
func (s *Session) Identity() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bidderID, s.wallet
}

// HandleMessage processes one inbound frame. Errors are answered to this
// connection only; nothing here closes the connection.
func (s *Session) HandleMessage(ctx context.Context, raw []byte) {
	if s.State() == Closed {
		return
	}
	env, err := parseEnvelope(raw)
	if err == nil {
		err = s.dispatch(ctx, env)
	}
	if err != nil {
		zap.L().Debug("ws.event_failed",
			zap.String("conn_id", s.conn.ID()),
			zap.String("event", env.Event),
			zap.Error(err),
		)
		s.reply(events.ErrorReply{Error: err.Error()})
	}
}

func (s *Session) dispatch(ctx context.Context, env Envelope) error {
	switch ParseEventKind(env.Event) {
	case EventJoin:
		return s.join(ctx, env.Data)
	case EventBid:
		return s.bid(env.Data)
	case EventRelay:
		s.hub.Publish(s.group, events.Chat(env.Data))
		return nil
	case EventTransactionConfirmed:
		return s.transactionConfirmed(env.Data)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, env.Event)
	}
}

func (s *Session) join(ctx context.Context, data json.RawMessage) error {
	if !isObject(data) {
		return fmt.Errorf("%w: data must be an object", ErrMalformedEvent)
	}
	req, err := decode[JoinRequest](data)
	if err != nil {
		return err
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s is required", ErrMissingIdentity, verrs[0].Field())
		}
		return fmt.Errorf("%w: %v", ErrMissingIdentity, err)
	}

	s.mu.Lock()
	switch s.state {
	case Joined:
		same := s.bidderID == req.UserID && s.wallet == req.WalletAddress
		s.mu.Unlock()
		if same {
			return nil
		}
		return ErrAlreadyJoined
	case Closed:
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.presence.Add(ctx, req.UserID, req.WalletAddress); err != nil {
		return fmt.Errorf("%w: %v", ErrPresenceUnavailable, err)
	}

	s.mu.Lock()
	if s.state == Closed {
		// closed while registering
		s.mu.Unlock()
		_ = s.presence.Remove(ctx, req.UserID)
		return nil
	}
	s.state = Joined
	s.bidderID = req.UserID
	s.wallet = req.WalletAddress
	s.mu.Unlock()

	zap.L().Info("ws.joined",
		zap.String("conn_id", s.conn.ID()),
		zap.String("bidder", req.UserID),
		zap.String("wallet", req.WalletAddress),
	)
	return nil
}

func (s *Session) bid(data json.RawMessage) error {
	req, err := decode[BidRequest](data)
	if err != nil {
		return err
	}
	bidderID := req.UserID
	if bidderID == "" {
		bidderID, _ = s.Identity()
	}
	if bidderID == "" {
		s.reply(events.New(events.BidError, events.BidErrorData{Message: events.MsgMissingUserID}))
		return nil
	}

	res, err := s.bidder.Extend(bidderID)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, clock.ErrClockInactive) {
			msg = events.MsgAuctionEnded
		}
		zap.L().Debug("ws.bid_rejected", zap.String("bidder", bidderID), zap.Error(err))
		s.reply(events.New(events.BidError, events.BidErrorData{Message: msg}))
		return nil
	}

	zap.L().Info("ws.bid_accepted",
		zap.String("bidder", bidderID),
		zap.Int("old_time", res.OldSeconds),
		zap.Int("new_time", res.NewSeconds),
		zap.Bool("restarted", res.Restarted),
	)
	s.hub.Publish(s.group, events.New(events.BidNotification, events.BidNotificationData{
		Bidder:          bidderID,
		NewTime:         res.NewSeconds,
		OldTime:         res.OldSeconds,
		AddedTime:       res.Added,
		TransactionHash: req.TransactionHash,
	}))
	s.reply(events.New(events.BidSuccess, events.BidSuccessData{
		Message:         events.MsgBidSuccess,
		NewTime:         res.NewSeconds,
		TransactionHash: req.TransactionHash,
	}))
	return nil
}

func (s *Session) transactionConfirmed(data json.RawMessage) error {
	req, err := decode[TransactionConfirmedRequest](data)
	if err != nil {
		return err
	}
	zap.L().Info("ws.transaction_confirmed",
		zap.String("conn_id", s.conn.ID()),
		zap.String("bidder", req.UserID),
		zap.Stringp("transaction_hash", req.TransactionHash),
	)
	s.reply(events.New(events.TransactionConfirmed, events.TransactionConfirmedData{
		Message:         events.MsgTransactionConfirmed,
		TransactionHash: req.TransactionHash,
	}))
	return nil
}

func (s *Session) reply(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("ws.reply_marshal", zap.Error(err))
		return
	}
	if err := s.conn.Send(msg); err != nil {
		zap.L().Debug("ws.reply_failed", zap.String("conn_id", s.conn.ID()), zap.Error(err))
	}
}

// Close leaves the group, drops presence and releases the connection. It
// never touches room-scoped tasks.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		return
	}
	wasJoined := s.state == Joined
	bidderID := s.bidderID
	s.state = Closed
	s.mu.Unlock()

	s.hub.Leave(s.group, s.conn)
	if wasJoined {
		if err := s.presence.Remove(ctx, bidderID); err != nil {
			zap.L().Warn("ws.presence_remove", zap.String("bidder", bidderID), zap.Error(err))
		}
	}
	s.conn.Close()
	zap.L().Debug("ws.session_closed", zap.String("conn_id", s.conn.ID()), zap.String("bidder", bidderID))
}
