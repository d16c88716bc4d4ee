package websocket

import (
	"encoding/json"
	"time"
)

// Message types exchanged over the socket.
const (
	MessageTypeGameProcessed = "game_processed"
	MessageTypeSubscribe     = "subscribe"
	MessageTypeUnsubscribe   = "unsubscribe"
	MessageTypeSubscribed    = "subscribed"
	MessageTypeHeartbeat     = "heartbeat"
	MessageTypeError         = "error"
)

// ServerMessage is sent from the server to clients.
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ClientMessage is received from clients.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SubscriptionFilter limits which games a client hears about. An empty
// filter receives everything.
type SubscriptionFilter struct {
	Teams []string `json:"teams,omitempty"`
}

func (f SubscriptionFilter) matches(teams []string) bool {
	if len(f.Teams) == 0 {
		return true
	}
	for _, want := range f.Teams {
		for _, t := range teams {
			if want == t {
				return true
			}
		}
	}
	return false
}
