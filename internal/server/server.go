// Package server exposes the quote form over HTTP and WebSocket.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/accreditkit/quoteform/client"
	"github.com/accreditkit/quoteform/internal/config"
	"github.com/accreditkit/quoteform/internal/session"
	"github.com/accreditkit/quoteform/internal/steps"
	"github.com/accreditkit/quoteform/internal/website"
	"github.com/accreditkit/quoteform/internal/wizard"
	"github.com/accreditkit/quoteform/pkg/export"
	"github.com/accreditkit/quoteform/pkg/health"
	"github.com/accreditkit/quoteform/pkg/intake"
	"github.com/accreditkit/quoteform/pkg/logging"
	"github.com/accreditkit/quoteform/pkg/metrics"
	"github.com/accreditkit/quoteform/pkg/protocol"
	"github.com/accreditkit/quoteform/pkg/transport"
	"github.com/accreditkit/quoteform/pkg/uploads"
)

// Routes.
const (
	PathEvents   = "/events"
	PathLive     = "/live"
	PathForm     = "/form"
	PathUploads  = "/uploads"
	PathHealth   = "/healthz"
	PathMetrics  = "/metrics"
	PathAssets   = "/assets/"
	SiteTemplate = "site_template.csv"
)

type options struct {
	logger  logging.Logger
	clock   intake.Clock
	version string
}

// Option configures a Server.
type Option func(*options)

// WithLogger sets the server logger.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock sets the clock of every new form. Used by tests to pin
// "today" for date rules and export filenames.
func WithClock(c intake.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithVersion sets the version reported by /healthz.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// Server wires sessions, the form endpoints and middleware.
type Server struct {
	cfg      config.Config
	logger   logging.Logger
	sessions *session.Manager
	limiter  *RateLimiter
	health   *health.Checker
	metrics  *metrics.Metrics
	page     website.PageConfig
	codec    protocol.Codec
	handler  http.Handler
}

// New builds a server from cfg. Close releases its background loops.
func New(cfg config.Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{logger: logging.DefaultLogger, clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	catalog := intake.Default()
	if cfg.CatalogPath != "" {
		data, err := os.ReadFile(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		if catalog, err = intake.ParseCatalog(data); err != nil {
			return nil, fmt.Errorf("load catalog %q: %w", cfg.CatalogPath, err)
		}
	}

	upCfg := uploads.DefaultConfig()
	upCfg.MaxFileSize = cfg.MaxUploadSize

	s := &Server{
		cfg:     cfg,
		logger:  o.logger,
		health:  health.NewChecker(),
		metrics: metrics.NewMetrics("quoteform"),
		page:    website.DefaultPageConfig(),
		codec:   protocol.NewJSONCodec(),
	}
	s.page.ScriptSrc = PathAssets + client.ScriptName

	s.sessions = session.NewManager(
		session.WithTTL(cfg.SessionTTL),
		session.WithCleanupInterval(cfg.CleanupInterval),
		session.WithLogger(o.logger),
		session.WithFactory(func(id string) *wizard.Wizard {
			return wizard.New(
				wizard.WithStore(intake.NewStore(intake.WithClock(o.clock))),
				wizard.WithCatalog(catalog),
				wizard.WithUploads(upCfg),
				wizard.WithLogger(o.logger.With(logging.String("session", id))),
			)
		}),
	)

	s.health.SetVersion(o.version)
	s.health.AddCheck("sessions", health.CapacityCheck("sessions", s.sessions.Len, cfg.MaxSessions), time.Second)

	s.metrics.SetGauge("sessions_active", func() float64 { return float64(s.sessions.Len()) })

	mws := []Middleware{
		Recovery(o.logger, s.metrics.PanicsTotal),
		logging.RequestLogger(o.logger),
		SecureHeaders(cfg.Security.SecureCookies),
	}
	if cfg.Security.RateLimitEnabled {
		s.limiter = NewRateLimiter(cfg.Security.RateLimitPerSecond, cfg.Security.RateLimitBurst, 3*time.Minute)
		mws = append(mws, s.limiter.Middleware())
	}
	s.handler = Chain(s.routes(upCfg), mws...)
	return s, nil
}

func (s *Server) routes(upCfg uploads.Config) http.Handler {
	mux := http.NewServeMux()

	wsCfg := &transport.WebSocketConfig{
		AllowedOrigins:  s.cfg.Security.AllowedOrigins,
		InsecureDevMode: s.cfg.Security.InsecureDevMode,
	}
	tCfg := &transport.TransportConfig{
		WriteTimeout:   s.cfg.Timeouts.WebSocketWrite,
		PingInterval:   s.cfg.Timeouts.WebSocketPing,
		MaxMessageSize: s.cfg.MaxMessageSize,
	}
	live := transport.NewWebSocketHandler(tCfg, wsCfg, s.resolve, s.logger)

	upload := uploads.NewHandler(upCfg).OnAccept(func(r *http.Request, entries []uploads.Entry) error {
		wz, err := s.sessions.Get(session.FromRequest(r))
		if err != nil {
			return err
		}
		if err := wz.AddFiles(r.Context(), entries...); err != nil {
			return err
		}
		s.metrics.UploadsTotal.Add(int64(len(entries)))
		return nil
	})

	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET "+PathForm, s.handleForm)
	mux.HandleFunc("POST "+PathEvents, s.handleEvent)
	mux.Handle("GET "+PathLive, noDeadlines(live))
	mux.Handle("POST "+PathUploads, upload)
	mux.HandleFunc("GET "+steps.ExportCSVPath, s.handleExport(wizard.ExportCSV))
	mux.HandleFunc("GET "+steps.ExportPDFPath, s.handleExport(wizard.ExportPDF))
	mux.HandleFunc("GET "+steps.TemplatePath, handleTemplate)
	mux.Handle("GET "+PathHealth, s.health.Handler())
	mux.Handle("GET "+PathMetrics, s.metrics.Handler())
	mux.Handle("GET "+PathAssets, http.StripPrefix(PathAssets, client.Handler()))
	return mux
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Sessions returns the session manager.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Run serves on the configured address until ctx is done, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.Timeouts.Read,
		ReadTimeout:       s.cfg.Timeouts.Read,
		WriteTimeout:      s.cfg.Timeouts.Write,
		IdleTimeout:       s.cfg.Timeouts.Idle,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", logging.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", logging.Duration("timeout", s.cfg.Timeouts.Shutdown))
	sctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeouts.Shutdown)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close stops the session and rate limiter loops.
func (s *Server) Close() error {
	var err error
	if s.limiter != nil {
		err = s.limiter.Close()
	}
	return errors.Join(err, s.sessions.Close())
}

// session returns the wizard of r, creating a session and setting the
// cookie when r has none or it expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*wizard.Wizard, error) {
	old := session.FromRequest(r)
	id, wz, err := s.sessions.GetOrCreate(old)
	if err != nil {
		return nil, err
	}
	if id != old {
		session.SetCookie(w, id, s.cfg.Security.SecureCookies)
	}
	return wz, nil
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	wz, err := s.session(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	form, err := wz.Render(r.Context())
	if err != nil {
		logging.L(r.Context()).Error("render form", logging.Err(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	io.WriteString(w, website.RenderDocument(s.page, CSPNonce(r.Context()), form))
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	wz, err := s.session(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	form, err := wz.Render(r.Context())
	if err != nil {
		logging.L(r.Context()).Error("render form", logging.Err(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	io.WriteString(w, form)
}

// handleEvent is the plain HTTP path for clients without a WebSocket.
// The body is one JSON event frame and the response one reply frame.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxMessageSize))
	if err != nil {
		s.writeReply(w, http.StatusRequestEntityTooLarge, protocol.ErrorReply("", err.Error()))
		return
	}
	msg, err := protocol.DecodeMessage(s.codec, data)
	if err != nil {
		s.writeReply(w, http.StatusBadRequest, protocol.ErrorReply("", err.Error()))
		return
	}

	d, err := s.resolve(r)
	if err != nil {
		s.writeReply(w, http.StatusUnauthorized, protocol.ErrorReply(msg.Ref, err.Error()))
		return
	}
	reply, err := d.Dispatch(r.Context(), msg)
	if reply == nil {
		reply = &protocol.Reply{Ref: msg.Ref}
	}
	if err != nil {
		reply.Error = err.Error()
	}
	s.writeReply(w, http.StatusOK, reply)
}

func (s *Server) writeReply(w http.ResponseWriter, status int, reply *protocol.Reply) {
	data, err := protocol.EncodeReply(s.codec, reply)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", s.codec.ContentType())
	w.WriteHeader(status)
	w.Write(data)
}

// resolve builds the dispatcher for the session of r. Every frame
// looks the session up again so activity keeps it alive and an expired
// session stops answering.
func (s *Server) resolve(r *http.Request) (*protocol.Dispatcher, error) {
	id := session.FromRequest(r)
	if _, err := s.sessions.Get(id); err != nil {
		return nil, fmt.Errorf("%w: %v", transport.ErrNoSession, err)
	}

	d := protocol.NewDispatcher()
	d.RegisterFunc(protocol.MsgEvent, func(ctx context.Context, msg *protocol.Message) (*protocol.Reply, error) {
		wz, err := s.sessions.Get(id)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		res, err := wz.Dispatch(ctx, msg.Event, msg.Payload)
		s.metrics.ObserveEvent(msg.Event, time.Since(start), err)
		return &protocol.Reply{HTML: res.HTML, Notice: res.Notice, Redirect: res.Redirect}, err
	})
	d.RegisterFunc(protocol.MsgHeartbeat, func(ctx context.Context, msg *protocol.Message) (*protocol.Reply, error) {
		_, err := s.sessions.Get(id)
		return &protocol.Reply{}, err
	})
	return d, nil
}

func (s *Server) handleExport(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wz, err := s.sessions.Get(session.FromRequest(r))
		if err != nil {
			http.Error(w, "Session expired, reload the form", http.StatusNotFound)
			return
		}

		var buf bytes.Buffer
		name, err := wz.Export(&buf, kind)
		if err != nil {
			logging.L(r.Context()).Error("export failed", logging.String("kind", kind), logging.Err(err))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		s.metrics.ExportsTotal.Inc(kind)

		contentType := "text/csv; charset=utf-8"
		if kind == wizard.ExportPDF {
			contentType = "application/pdf"
		}
		attachment(w, contentType, name, buf.Len())
		w.Write(buf.Bytes())
	}
}

func handleTemplate(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.SiteTemplate(&buf); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	attachment(w, "text/csv; charset=utf-8", SiteTemplate, buf.Len())
	w.Write(buf.Bytes())
}

func attachment(w http.ResponseWriter, contentType, name string, size int) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", `attachment; filename="`+name+`"`)
	h.Set("Content-Length", strconv.Itoa(size))
	h.Set("Cache-Control", "no-store")
}

// noDeadlines clears the server read and write deadlines so long-lived
// WebSocket connections outlive the HTTP timeouts.
func noDeadlines(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)
		rc.SetReadDeadline(time.Time{})
		rc.SetWriteDeadline(time.Time{})
		next.ServeHTTP(w, r)
	})
}
