// Package transport carries protocol frames between the browser and a
// session's dispatcher.
package transport

import (
	"errors"
	"net/http"
	"time"

	"github.com/accreditkit/quoteform/pkg/protocol"
)

// Transport errors.
var (
	ErrOriginNotAllowed = errors.New("origin not allowed")
	ErrNoSession        = errors.New("no session for connection")
)

// TransportConfig configures connection limits and timeouts.
type TransportConfig struct {
	// WriteTimeout bounds a single reply write.
	WriteTimeout time.Duration

	// PingInterval is how often idle connections are pinged.
	PingInterval time.Duration

	// MaxMessageSize is the largest frame accepted from a client.
	MaxMessageSize int64
}

// DefaultTransportConfig returns sensible defaults.
func DefaultTransportConfig() *TransportConfig {
	return &TransportConfig{
		WriteTimeout:   10 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 512 * 1024, // 512KB
	}
}

// Resolver finds the dispatcher serving the session of r.
type Resolver func(r *http.Request) (*protocol.Dispatcher, error)
