package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEvent is returned for events a component does not handle.
	ErrUnknownEvent = errors.New("unknown event")

	// ErrInvalidPayload is returned when an event payload is malformed.
	ErrInvalidPayload = errors.New("invalid payload")
)

// UnknownEvent wraps ErrUnknownEvent with the event name.
func UnknownEvent(event string) error {
	return fmt.Errorf("%w: %q", ErrUnknownEvent, event)
}

// InvalidPayload wraps ErrInvalidPayload with the offending key.
func InvalidPayload(event, key string) error {
	return fmt.Errorf("%w: %s: missing or bad %q", ErrInvalidPayload, event, key)
}
