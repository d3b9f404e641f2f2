package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip[T any](t *testing.T, in T) {
	t.Helper()
	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestOutboundFramesRoundTrip(t *testing.T) {
	tx := "0xdeadbeef"
	winner := "alice"

	roundTrip(t, New(BidNotification, BidNotificationData{Bidder: "alice", NewTime: 6, OldTime: 1, AddedTime: 5, TransactionHash: &tx}))
	roundTrip(t, New(BidSuccess, BidSuccessData{Message: MsgBidSuccess, NewTime: 6}))
	roundTrip(t, New(BidError, BidErrorData{Message: MsgMissingUserID}))
	roundTrip(t, New(Update, RoomUpdateData{NumConnectedUsers: 3, RemainingTime: 42}))
	roundTrip(t, New(Update, ClockUpdateData{RemainingTime: 6, LastBidder: "alice", BidAdded: 5}))
	roundTrip(t, New(EndClock, EndClockData{Message: MsgTimeExpired, LastBidder: &winner}))
	roundTrip(t, New(TransactionConfirmed, TransactionConfirmedData{Message: MsgTransactionConfirmed, TransactionHash: &tx}))
	roundTrip(t, ErrorReply{Error: "unknown_event"})
}

func TestWireShape(t *testing.T) {
	raw, err := json.Marshal(New(EndClock, EndClockData{Message: MsgTimeExpired}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"end_clock","data":{"message":"Time has expired!","last_bidder":null}}`, string(raw))

	raw, err = json.Marshal(Chat(map[string]any{"text": "hi"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"chat","message":{"text":"hi"}}`, string(raw))

	// relayed payloads keep their exact bytes
	raw, err = json.Marshal(Chat(json.RawMessage(`{"x":1,"y":[true,null]}`)))
	require.NoError(t, err)
	assert.Equal(t, `{"type":"chat","message":{"x":1,"y":[true,null]}}`, string(raw))
}
