package steps

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/accreditkit/quoteform/pkg/core"
	"github.com/accreditkit/quoteform/pkg/forms"
	"github.com/accreditkit/quoteform/pkg/intake"
)

// EventSelectFacility chooses the facility type.
const EventSelectFacility = "select_facility"

// Facility is step 2: facility type.
type Facility struct {
	base
	draft string
}

// NewFacility creates step 2.
func NewFacility(d Deps) *Facility {
	return &Facility{base: newBase(d)}
}

func (f *Facility) Name() string { return NameFacility }

// Mount loads the draft from the store.
func (f *Facility) Mount(ctx context.Context) error {
	f.draft = f.deps.Store.Answers().FacilityType
	f.resetErrors()
	return nil
}

func (f *Facility) field() forms.Field {
	types := f.deps.Catalog.FacilityTypes
	return forms.NewField("facilityType", forms.FieldRadio, "Facility Type",
		forms.WithRequired("Please select a facility type"),
		forms.WithValidator(forms.OneOf(types, "Please select a facility type")),
		forms.WithOptions(options(types...)...))
}

// HandleEvent handles step 2 events.
func (f *Facility) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	switch event {
	case EventSelectFacility:
		v := core.String(payload, "value")
		if msg := f.field().Check(v); msg != "" {
			return core.InvalidPayload(event, "value")
		}
		f.draft = v
		f.errors.Set("facilityType", "")

	case EventSave:
		f.commit()
		f.saved()

	case EventSubmit:
		f.errors = forms.Validate([]forms.Field{f.field()}, map[string]string{"facilityType": f.draft})
		if len(f.errors) > 0 {
			return nil
		}
		f.commit()
		f.deps.Store.Next()

	default:
		return core.UnknownEvent(event)
	}
	return nil
}

func (f *Facility) commit() {
	v := f.draft
	f.deps.Store.Update(intake.Partial{FacilityType: &v})
}

// Render renders step 2.
func (f *Facility) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, f.render())
		return err
	})
}

func (f *Facility) render() string {
	field := f.field()

	var radios strings.Builder
	for _, o := range field.Options {
		fmt.Fprintf(&radios, `<label class="radio-option"><input type="radio" name="facilityType" value="%s" lv-click="%s"%s%s> %s</label>`,
			esc(o.Value), EventSelectFacility, values{"value": o.Value}, attrIf(o.Value == f.draft, "checked"), esc(o.Label))
	}

	body := fmt.Sprintf(`<div class="form-group">
	%s
	<div class="radio-group" role="radiogroup">%s</div>
	%s
</div>
`, label(field), radios.String(), fieldError(f.errors.Get("facilityType")))

	return `<div class="step" data-step="2">` +
		section("Facility and Organization Type", body) +
		Navigation(NavOptions{ShowPrevious: true}) +
		`</div>`
}
