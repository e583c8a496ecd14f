package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/coder/websocket"

	"github.com/accreditkit/quoteform/pkg/logging"
	"github.com/accreditkit/quoteform/pkg/protocol"
)

// WebSocketConfig configures WebSocket security settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of allowed origins for WebSocket connections.
	// If empty and InsecureDevMode is false, only same-origin connections are allowed.
	AllowedOrigins []string

	// InsecureDevMode disables origin validation (ONLY for development).
	InsecureDevMode bool
}

// DefaultWebSocketConfig returns secure default configuration.
func DefaultWebSocketConfig() *WebSocketConfig {
	return &WebSocketConfig{}
}

// isOriginAllowed checks if the origin is allowed for WebSocket connections.
func (c *WebSocketConfig) isOriginAllowed(origin string, requestHost string) bool {
	if c.InsecureDevMode {
		return true
	}

	// Empty origin = same-origin request (allowed)
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if originURL.Host == requestHost {
		return true
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
		if allowedURL, err := url.Parse(allowed); err == nil && allowedURL.Host != "" && allowedURL.Host == originURL.Host {
			return true
		}
	}
	return false
}

// acceptOptions maps the config onto the library's own origin check,
// which runs after ours.
func (c *WebSocketConfig) acceptOptions() *websocket.AcceptOptions {
	if c.InsecureDevMode || slices.Contains(c.AllowedOrigins, "*") {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	var patterns []string
	for _, allowed := range c.AllowedOrigins {
		if u, err := url.Parse(allowed); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		}
	}
	return &websocket.AcceptOptions{OriginPatterns: patterns}
}

// WebSocketHandler upgrades requests and serves one session per
// connection. Text frames are JSON and binary frames are MessagePack;
// each reply uses the frame type of its request.
type WebSocketHandler struct {
	config   *TransportConfig
	wsConfig *WebSocketConfig
	resolve  Resolver
	logger   logging.Logger
	json     protocol.Codec
	msgpack  protocol.Codec
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(config *TransportConfig, wsConfig *WebSocketConfig, resolve Resolver, logger logging.Logger) *WebSocketHandler {
	if config == nil {
		config = DefaultTransportConfig()
	}
	if wsConfig == nil {
		wsConfig = DefaultWebSocketConfig()
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &WebSocketHandler{
		config:   config,
		wsConfig: wsConfig,
		resolve:  resolve,
		logger:   logger,
		json:     protocol.NewJSONCodec(),
		msgpack:  protocol.NewMsgPackCodec(),
	}
}

// ServeHTTP validates the origin, upgrades the connection and serves
// frames until the client goes away.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.wsConfig.isOriginAllowed(r.Header.Get("Origin"), r.Host) {
		http.Error(w, ErrOriginNotAllowed.Error(), http.StatusForbidden)
		return
	}

	d, err := h.resolve(r)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrNoSession) {
			status = http.StatusUnauthorized
		}
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := websocket.Accept(w, r, h.wsConfig.acceptOptions())
	if err != nil {
		h.logger.Warn("websocket accept failed", logging.Err(err))
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(h.config.MaxMessageSize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.pingLoop(ctx, conn)

	err = h.serve(ctx, conn, d)
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		conn.Close(websocket.StatusNormalClosure, "")
	default:
		if err != nil && !errors.Is(err, context.Canceled) {
			h.logger.Debug("websocket closed", logging.Err(err))
		}
	}
}

func (h *WebSocketHandler) serve(ctx context.Context, conn *websocket.Conn, d *protocol.Dispatcher) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		codec := h.json
		if typ == websocket.MessageBinary {
			codec = h.msgpack
		}

		reply := h.handle(ctx, codec, d, data)
		out, err := protocol.EncodeReply(codec, reply)
		if err != nil {
			return err
		}

		wctx, cancel := context.WithTimeout(ctx, h.config.WriteTimeout)
		err = conn.Write(wctx, typ, out)
		cancel()
		if err != nil {
			return fmt.Errorf("write reply: %w", err)
		}
	}
}

// handle turns one frame into a reply. Decode and handler failures are
// reported in the reply rather than closing the connection.
func (h *WebSocketHandler) handle(ctx context.Context, codec protocol.Codec, d *protocol.Dispatcher, data []byte) *protocol.Reply {
	msg, err := protocol.DecodeMessage(codec, data)
	if err != nil {
		return protocol.ErrorReply("", err.Error())
	}

	reply, err := d.Dispatch(ctx, msg)
	if reply == nil {
		reply = &protocol.Reply{Ref: msg.Ref}
	}
	if err != nil {
		reply.Error = err.Error()
	}
	return reply
}

// pingLoop sends periodic pings to keep the connection alive.
func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	if h.config.PingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, h.config.WriteTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
