// Package wizard drives one form: a store, the six steps, and the chrome
// around the current step.
package wizard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/accreditkit/quoteform/internal/steps"
	"github.com/accreditkit/quoteform/pkg/core"
	"github.com/accreditkit/quoteform/pkg/export"
	"github.com/accreditkit/quoteform/pkg/intake"
	"github.com/accreditkit/quoteform/pkg/logging"
	"github.com/accreditkit/quoteform/pkg/uploads"
)

// Navigation events handled by the wizard itself.
const (
	EventPrevious = steps.EventPrevious
	EventGoTo     = "goto"
)

// Export kinds.
const (
	ExportCSV = "csv"
	ExportPDF = "pdf"
)

// ErrUnknownExport is returned by Export for kinds other than csv and pdf.
var ErrUnknownExport = errors.New("unknown export kind")

// Result is what the client needs after an event.
type Result struct {
	HTML     string
	Notice   string
	Redirect string
}

// Wizard owns one form. It is safe for concurrent use; events are
// handled one at a time.
type Wizard struct {
	mu      sync.Mutex
	store   *intake.Store
	catalog *intake.Catalog
	steps   map[intake.Step]core.Component
	mounted intake.Step
	notice  string
	logger  logging.Logger
}

type config struct {
	store   *intake.Store
	catalog *intake.Catalog
	uploads uploads.Config
	logger  logging.Logger
}

// Option configures a Wizard.
type Option func(*config)

// WithStore uses s instead of a fresh store.
func WithStore(s *intake.Store) Option {
	return func(c *config) { c.store = s }
}

// WithCatalog sets the lookup tables.
func WithCatalog(cat *intake.Catalog) Option {
	return func(c *config) { c.catalog = cat }
}

// WithUploads sets the accepted upload types and size.
func WithUploads(cfg uploads.Config) Option {
	return func(c *config) { c.uploads = cfg }
}

// WithLogger sets the logger used for transitions and submissions.
func WithLogger(l logging.Logger) Option {
	return func(c *config) { c.logger = l }
}

// New creates a wizard on the store's current step.
func New(opts ...Option) *Wizard {
	cfg := config{
		catalog: intake.Default(),
		uploads: uploads.DefaultConfig(),
		logger:  logging.DefaultLogger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.store == nil {
		cfg.store = intake.NewStore()
	}

	w := &Wizard{
		store:   cfg.store,
		catalog: cfg.catalog,
		steps:   make(map[intake.Step]core.Component),
		logger:  cfg.logger,
	}

	reg := core.NewComponentRegistry()
	steps.Register(reg, steps.Deps{
		Store:   cfg.store,
		Catalog: cfg.catalog,
		Uploads: cfg.uploads,
		Notify:  func(msg string) { w.notice = msg },
	})
	for s := intake.FirstStep; s <= intake.LastStep; s++ {
		c, _ := reg.Create(steps.NameFor(s))
		w.steps[s] = c
	}

	w.store.Subscribe(func(prev, next intake.Step) {
		if prev != next {
			w.logger.Debug("step changed",
				logging.Int("from", int(prev)),
				logging.Int("to", int(next)),
				logging.String("step", next.String()))
		}
	})
	return w
}

// Store returns the form store.
func (w *Wizard) Store() *intake.Store {
	return w.store
}

// Current returns the component of the current step.
func (w *Wizard) Current() core.Component {
	return w.steps[w.store.Step()]
}

// sync mounts the current step when it changed since the last mount.
func (w *Wizard) sync(ctx context.Context) error {
	s := w.store.Step()
	if s == w.mounted {
		return nil
	}
	if err := w.steps[s].Mount(ctx); err != nil {
		return fmt.Errorf("mount %s: %w", steps.NameFor(s), err)
	}
	w.mounted = s
	return nil
}

// Dispatch handles one event and returns the re-rendered form. The
// result is filled in even when the event is rejected.
func (w *Wizard) Dispatch(ctx context.Context, event string, payload map[string]any) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.sync(ctx); err != nil {
		return Result{}, err
	}

	ctx = logging.ContextWithLogger(ctx, w.logger)
	err := w.handle(ctx, event, payload)
	if err != nil {
		w.logger.Warn("event rejected",
			logging.String("event", event),
			logging.String("step", steps.NameFor(w.mounted)),
			logging.Err(err))
	}

	var res Result
	if r, ok := w.steps[w.mounted].(interface{ Redirect() string }); ok {
		res.Redirect = r.Redirect()
	}
	if serr := w.sync(ctx); serr != nil {
		return res, errors.Join(err, serr)
	}

	html, rerr := w.render(ctx)
	res.HTML = html
	res.Notice = w.notice
	w.notice = ""
	return res, errors.Join(err, rerr)
}

func (w *Wizard) handle(ctx context.Context, event string, payload map[string]any) error {
	switch event {
	case EventPrevious:
		w.store.Previous()
		return nil
	case EventGoTo:
		n, ok := core.Int(payload, "step")
		if !ok {
			return core.InvalidPayload(event, "step")
		}
		w.store.GoTo(intake.Step(n))
		return nil
	}
	return w.steps[w.mounted].HandleEvent(ctx, event, payload)
}

// Render renders the progress chrome, the pending notice and the
// current step.
func (w *Wizard) Render(ctx context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.sync(ctx); err != nil {
		return "", err
	}
	return w.render(ctx)
}

func (w *Wizard) render(ctx context.Context) (string, error) {
	var body bytes.Buffer
	if err := w.steps[w.mounted].Render(ctx).Render(ctx, &body); err != nil {
		return "", fmt.Errorf("render %s: %w", steps.NameFor(w.mounted), err)
	}

	var sb strings.Builder
	sb.WriteString(`<div class="form-container">`)
	sb.WriteString(steps.Progress(w.catalog, w.mounted))
	sb.WriteString(steps.Notice(w.notice))
	sb.Write(body.Bytes())
	sb.WriteString(`</div>`)
	return sb.String(), nil
}

// AddFiles records accepted uploads on the site step.
func (w *Wizard) AddFiles(ctx context.Context, entries ...uploads.Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.sync(ctx); err != nil {
		return err
	}
	site, ok := w.steps[intake.StepSite].(*steps.Site)
	if !ok {
		return errors.New("site step not registered")
	}
	site.AddFiles(entries...)
	return nil
}

// Export writes the answers as kind ("csv" or "pdf") and returns the
// download filename.
func (w *Wizard) Export(out io.Writer, kind string) (string, error) {
	now := w.store.Clock()()
	a := w.store.Answers()

	switch kind {
	case ExportCSV:
		if err := export.WriteCSV(out, export.Rows(a)); err != nil {
			return "", fmt.Errorf("export csv: %w", err)
		}
	case ExportPDF:
		if err := export.WritePDF(out, a, now); err != nil {
			return "", fmt.Errorf("export pdf: %w", err)
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownExport, kind)
	}
	return export.Filename(kind, now), nil
}
