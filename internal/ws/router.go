package ws

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// EventKind is the closed set of inbound events a session understands.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventJoin
	EventBid
	EventRelay
	EventTransactionConfirmed
)

func (k EventKind) String() string {
	switch k {
	case EventJoin:
		return "join"
	case EventBid:
		return "bid"
	case EventRelay:
		return "relay"
	case EventTransactionConfirmed:
		return "transaction_confirmed"
	default:
		return "unknown"
	}
}

// ParseEventKind maps a wire event name onto its kind.
func ParseEventKind(name string) EventKind {
	switch name {
	case "join", "connect":
		return EventJoin
	case "bid":
		return EventBid
	case "chat", "paddle_moved":
		return EventRelay
	case "transaction_confirmed":
		return EventTransactionConfirmed
	default:
		return EventUnknown
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json names ("userId") instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode unmarshals an object body into Req. Non-object bodies yield the zero value.
func decode[Req any](data json.RawMessage) (Req, error) {
	var req Req
	if !isObject(data) {
		return req, nil
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return req, nil
}
