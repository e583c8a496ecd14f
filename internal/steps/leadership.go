package steps

import (
	"context"
	"io"
	"maps"
	"strings"

	"github.com/accreditkit/quoteform/pkg/core"
	"github.com/accreditkit/quoteform/pkg/forms"
	"github.com/accreditkit/quoteform/pkg/intake"
)

// EventToggleSameAsPrimary links or unlinks a contact block.
const EventToggleSameAsPrimary = "toggle_same_as_primary"

// Leadership is step 3: leadership contacts and billing address.
// Fields are validated as they change.
type Leadership struct {
	base
	primary intake.PrimaryContact
	draft   intake.Leadership
}

// NewLeadership creates step 3.
func NewLeadership(d Deps) *Leadership {
	return &Leadership{base: newBase(d)}
}

func (l *Leadership) Name() string { return NameLeadership }

// Mount loads the draft and resyncs linked blocks with the primary contact.
func (l *Leadership) Mount(ctx context.Context) error {
	a := l.deps.Store.Answers()
	l.primary = a.Organization.Primary
	l.draft = a.Leadership
	l.draft.Resync(l.primary)
	l.resetErrors()
	return nil
}

// Draft returns the local draft.
func (l *Leadership) Draft() intake.Leadership {
	return l.draft
}

func (l *Leadership) fields() []forms.Field {
	var out []forms.Field
	for _, b := range contactBlocks {
		out = append(out, contactFields(b, l.draft.Block(b.Key).SameAsPrimary)...)
	}
	return append(out, billingFields(l.deps.Catalog.States)...)
}

func (l *Leadership) values() map[string]string {
	out := make(map[string]string)
	for _, key := range intake.Blocks {
		maps.Copy(out, contactValues(key, *l.draft.Block(key)))
	}
	maps.Copy(out, billingValues(l.draft.Billing))
	return out
}

func (l *Leadership) validate(keys ...string) {
	fs := l.fields()
	vals := l.values()
	for _, key := range keys {
		if f, ok := fieldNamed(fs, key); ok {
			l.errors.Set(key, f.Check(vals[key]))
		}
	}
}

// HandleEvent handles step 3 events.
func (l *Leadership) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	switch event {
	case EventChange:
		block := core.String(payload, "block")
		field := core.String(payload, "field")
		value := core.String(payload, "value")

		if block == BlockBilling {
			if !setBillingField(&l.draft.Billing, field, value) {
				return core.InvalidPayload(event, "field")
			}
		} else {
			c := l.draft.Block(block)
			if c == nil {
				return core.InvalidPayload(event, "block")
			}
			if c.SameAsPrimary {
				return nil
			}
			if !setContactField(c, field, value) {
				return core.InvalidPayload(event, "field")
			}
		}
		l.validate(fieldKey(block, field))

	case EventToggleSameAsPrimary:
		block := core.String(payload, "block")
		c := l.draft.Block(block)
		if c == nil {
			return core.InvalidPayload(event, "block")
		}
		if !core.Bool(payload, "checked") {
			c.Unlink()
			return nil
		}
		c.LinkTo(l.primary)
		keys := make([]string, len(contactFieldNames))
		for i, f := range contactFieldNames {
			keys[i] = fieldKey(block, f)
		}
		l.validate(keys...)

	case EventSave:
		l.commit()
		l.saved()

	case EventSubmit:
		l.errors = forms.Validate(l.fields(), l.values())
		if len(l.errors) > 0 {
			return nil
		}
		l.commit()
		l.deps.Store.Next()

	default:
		return core.UnknownEvent(event)
	}
	return nil
}

func (l *Leadership) commit() {
	draft := l.draft
	l.deps.Store.Update(intake.Partial{Leadership: &draft})
}

// Render renders step 3.
func (l *Leadership) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, l.render())
		return err
	})
}

func (l *Leadership) render() string {
	vals := l.values()

	var blocks strings.Builder
	for _, b := range contactBlocks {
		c := l.draft.Block(b.Key)
		fs := contactFields(b, c.SameAsPrimary)
		input := func(f forms.Field, short string) string {
			return textInput(f, vals[f.Name], l.errors.Get(f.Name), EventChange, values{"block": b.Key, "field": short})
		}

		blocks.WriteString(`<div class="contact-section" data-block="` + b.Key + `">`)
		blocks.WriteString(`<h4 class="contact-title">` + esc(b.Title) + `</h4>`)
		blocks.WriteString(checkbox(b.Key+"SameAsPrimary", "Same as Primary Contact entered in Step 1",
			EventToggleSameAsPrimary, c.SameAsPrimary, false, values{"block": b.Key}))
		blocks.WriteString(`<div class="form-row">` + input(fs[0], fieldFirstName) + input(fs[1], fieldLastName) + `</div>`)
		blocks.WriteString(input(fs[2], fieldPhone))
		blocks.WriteString(input(fs[3], fieldEmail))

		if b.Key == intake.BlockInvoicing {
			blocks.WriteString(l.renderBilling(vals))
		}
		blocks.WriteString(`</div>`)
	}

	return `<div class="step" data-step="3">` +
		section("Contact Information", blocks.String()) +
		Navigation(NavOptions{ShowPrevious: true}) +
		`</div>`
}

func (l *Leadership) renderBilling(vals map[string]string) string {
	fs := billingFields(l.deps.Catalog.States)
	v := func(short string) values { return values{"block": BlockBilling, "field": short} }
	get := func(f forms.Field) (string, string) { return vals[f.Name], l.errors.Get(f.Name) }

	street, streetErr := get(fs[0])
	city, cityErr := get(fs[1])
	state, stateErr := get(fs[2])
	zip, zipErr := get(fs[3])

	return `<div class="billing-address"><h4 class="contact-title">Billing Address</h4>` +
		textInput(fs[0], street, streetErr, EventChange, v(fieldStreet)) +
		`<div class="form-row">` +
		textInput(fs[1], city, cityErr, EventChange, v(fieldCity)) +
		selectInput(fs[2], state, "Select State", stateErr, EventChange, v(fieldState)) +
		textInput(fs[3], zip, zipErr, EventChange, v(fieldZIP)) +
		`</div></div>`
}
