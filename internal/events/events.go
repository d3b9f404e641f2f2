// Package events holds the outbound frames pushed to lobby connections.
package events

// Outbound event names.
const (
	BidNotification      = "bid_notification"
	BidSuccess           = "bid_success"
	BidError             = "bid_error"
	Update               = "update"
	EndClock             = "end_clock"
	TransactionConfirmed = "transaction_confirmed"
)

const (
	MsgBidSuccess           = "Your bid was successful"
	MsgTimeExpired          = "Time has expired!"
	MsgMissingUserID        = "Missing user ID"
	MsgAuctionEnded         = "Auction has ended"
	MsgTransactionConfirmed = "Your transaction has been confirmed on the blockchain"
)

// Message is the `{"event": ..., "data": ...}` frame.
type Message[T any] struct {
	Event string `json:"event"`
	Data  T      `json:"data"`
}

func New[T any](event string, data T) Message[T] {
	return Message[T]{Event: event, Data: data}
}

// ChatRelay carries a relayed payload verbatim.
type ChatRelay struct {
	Type    string `json:"type"`
	Message any    `json:"message"`
}

func Chat(payload any) ChatRelay {
	return ChatRelay{Type: "chat", Message: payload}
}

// ErrorReply is sent to the originating connection only.
type ErrorReply struct {
	Error string `json:"error"`
}

type BidNotificationData struct {
	Bidder          string  `json:"bidder"`
	NewTime         int     `json:"new_time"`
	OldTime         int     `json:"old_time"`
	AddedTime       int     `json:"added_time"`
	TransactionHash *string `json:"transaction_hash"`
}

type BidSuccessData struct {
	Message         string  `json:"message"`
	NewTime         int     `json:"new_time"`
	TransactionHash *string `json:"transaction_hash"`
}

type BidErrorData struct {
	Message string `json:"message"`
}

// RoomUpdateData is the periodic reporter snapshot.
type RoomUpdateData struct {
	NumConnectedUsers int64 `json:"num_connected_users"`
	RemainingTime     int   `json:"remaining_time"`
}

// ClockUpdateData is published after every accepted extension.
type ClockUpdateData struct {
	RemainingTime int    `json:"remaining_time"`
	LastBidder    string `json:"last_bidder"`
	BidAdded      int    `json:"bid_added"`
}

type EndClockData struct {
	Message    string  `json:"message"`
	LastBidder *string `json:"last_bidder"`
}

type TransactionConfirmedData struct {
	Message         string  `json:"message"`
	TransactionHash *string `json:"transaction_hash"`
}
