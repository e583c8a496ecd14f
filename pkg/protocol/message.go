// Package protocol defines the messages exchanged between the browser
// and the form server.
package protocol

import (
	"errors"
	"time"
)

// ErrInvalidMessage is returned for frames that do not decode to a
// usable message.
var ErrInvalidMessage = errors.New("invalid message format")

// MessageType identifies the type of protocol message.
type MessageType uint8

const (
	// MsgEvent carries a user interaction for the current step.
	MsgEvent MessageType = iota
	// MsgHeartbeat keeps an idle connection and session alive.
	MsgHeartbeat
)

// String returns a string representation of the message type.
func (mt MessageType) String() string {
	switch mt {
	case MsgEvent:
		return "event"
	case MsgHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Message is a client to server frame.
type Message struct {
	// Type identifies what kind of message this is
	Type MessageType `json:"t" msgpack:"t"`

	// Ref is echoed in the reply so the client can match it
	Ref string `json:"ref,omitempty" msgpack:"ref,omitempty"`

	// Event is the event name (e.g., "change", "submit")
	Event string `json:"event,omitempty" msgpack:"event,omitempty"`

	// Payload contains the event data
	Payload map[string]any `json:"payload,omitempty" msgpack:"payload,omitempty"`

	// Timestamp when the message was created, in Unix milliseconds
	Timestamp int64 `json:"ts,omitempty" msgpack:"ts,omitempty"`
}

// NewEvent creates an event message.
func NewEvent(event string, payload map[string]any) *Message {
	if payload == nil {
		payload = make(map[string]any)
	}
	return &Message{
		Type:      MsgEvent,
		Event:     event,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
}

// WithRef adds a reference ID to the message.
func (m *Message) WithRef(ref string) *Message {
	m.Ref = ref
	return m
}

// Validate checks that the message can be dispatched.
func (m *Message) Validate() error {
	switch m.Type {
	case MsgEvent:
		if m.Event == "" {
			return errors.Join(ErrInvalidMessage, errors.New("event name is empty"))
		}
	case MsgHeartbeat:
	default:
		return errors.Join(ErrInvalidMessage, errors.New("unknown message type "+m.Type.String()))
	}
	return nil
}

// Reply is a server to client frame: the re-rendered form plus any
// notice, error or pending download.
type Reply struct {
	Ref      string `json:"ref,omitempty" msgpack:"ref,omitempty"`
	HTML     string `json:"html,omitempty" msgpack:"html,omitempty"`
	Notice   string `json:"notice,omitempty" msgpack:"notice,omitempty"`
	Error    string `json:"error,omitempty" msgpack:"error,omitempty"`
	Redirect string `json:"redirect,omitempty" msgpack:"redirect,omitempty"`
}

// ErrorReply creates a reply that only carries an error.
func ErrorReply(ref, reason string) *Reply {
	return &Reply{Ref: ref, Error: reason}
}
