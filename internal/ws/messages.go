package ws

import (
	"encoding/json"
	"fmt"
)

// Envelope wraps every inbound WS frame.
type Envelope struct {
	Event string          `json:"event"` // e.g. "bid"
	Data  json.RawMessage `json:"data"`  // arbitrary JSON, required
}

// ──────────────────────────── Request DTOs ─────────────────────────

// JoinRequest is the body for "join" / "connect".
type JoinRequest struct {
	UserID        string `json:"userId"        validate:"required"`
	WalletAddress string `json:"walletAddress" validate:"required"`
}

// BidRequest is the body for "bid". UserID overrides the session identity.
type BidRequest struct {
	UserID          string  `json:"userId"`
	TransactionHash *string `json:"transactionHash"`
}

// TransactionConfirmedRequest is the body for "transaction_confirmed".
type TransactionConfirmedRequest struct {
	UserID          string  `json:"userId"`
	TransactionHash *string `json:"transactionHash"`
}

// parseEnvelope rejects anything that is not `{"event": "...", "data": ...}`.
func parseEnvelope(raw []byte) (Envelope, error) {
	var in struct {
		Event *string         `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return Envelope{}, fmt.Errorf("%w: invalid JSON", ErrMalformedEvent)
	}
	if in.Event == nil || *in.Event == "" || len(in.Data) == 0 || string(in.Data) == "null" {
		return Envelope{}, fmt.Errorf("%w: missing event or data", ErrMalformedEvent)
	}
	return Envelope{Event: *in.Event, Data: in.Data}, nil
}

// isObject reports whether data is a JSON object.
func isObject(data json.RawMessage) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}
