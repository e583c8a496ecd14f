package protocol

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Common handler errors.
var (
	ErrHandlerNotFound = errors.New("handler not found for message type")
	ErrHandlerPanic    = errors.New("handler panicked")
)

// MessageHandler processes protocol messages.
type MessageHandler interface {
	// HandleMessage processes a message and returns the reply to send.
	HandleMessage(ctx context.Context, msg *Message) (*Reply, error)
}

// MessageHandlerFunc is an adapter to allow functions as MessageHandler.
type MessageHandlerFunc func(ctx context.Context, msg *Message) (*Reply, error)

// HandleMessage implements MessageHandler.
func (f MessageHandlerFunc) HandleMessage(ctx context.Context, msg *Message) (*Reply, error) {
	return f(ctx, msg)
}

// Dispatcher routes messages to the handler for their type.
type Dispatcher struct {
	handlers map[MessageType]MessageHandler
	mu       sync.RWMutex
}

// NewDispatcher creates a dispatcher that answers heartbeats with an
// empty reply.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{handlers: make(map[MessageType]MessageHandler)}
	d.RegisterFunc(MsgHeartbeat, func(ctx context.Context, msg *Message) (*Reply, error) {
		return &Reply{Ref: msg.Ref}, nil
	})
	return d
}

// Register adds a handler for a message type.
func (d *Dispatcher) Register(msgType MessageType, handler MessageHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[msgType] = handler
}

// RegisterFunc adds a handler function for a message type.
func (d *Dispatcher) RegisterFunc(msgType MessageType, fn func(ctx context.Context, msg *Message) (*Reply, error)) {
	d.Register(msgType, MessageHandlerFunc(fn))
}

// Dispatch routes a message to its handler. The reply ref is always the
// message ref.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message) (*Reply, error) {
	d.mu.RLock()
	handler, ok := d.handlers[msg.Type]
	d.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, msg.Type)
	}

	reply, err := d.executeWithRecovery(ctx, handler, msg)
	if reply != nil {
		reply.Ref = msg.Ref
	}
	return reply, err
}

// executeWithRecovery executes a handler with panic recovery.
func (d *Dispatcher) executeWithRecovery(ctx context.Context, handler MessageHandler, msg *Message) (reply *Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()

	return handler.HandleMessage(ctx, msg)
}
