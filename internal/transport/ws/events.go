package ws

import (
	"encoding/json"
	"time"
)

// Event types - Client → Server
const (
	EventTypeQuerySubscribe   = "query.subscribe"
	EventTypeQueryUnsubscribe = "query.unsubscribe"
	EventTypePing             = "ping"
)

// Event types - Server → Client
const (
	EventTypeQueryResult = "query.result"
	EventTypeQueryError  = "query.error"
	EventTypePong        = "pong"
	EventTypeError       = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type SubscribePayload struct {
	// ID is chosen by the client and names the subscription in every reply.
	ID    string          `json:"id"`
	Query string          `json:"query"`
	Args  json.RawMessage `json:"args,omitempty"`
}

type UnsubscribePayload struct {
	ID string `json:"id"`
}

// --- Server → Client payloads ---

type QueryResultPayload struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

type QueryErrorPayload struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, payload any) (*Event, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return nil, err
		}
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
