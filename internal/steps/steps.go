// Package steps implements the six form steps as server-side components.
package steps

import (
	"github.com/accreditkit/quoteform/pkg/core"
	"github.com/accreditkit/quoteform/pkg/forms"
	"github.com/accreditkit/quoteform/pkg/intake"
	"github.com/accreditkit/quoteform/pkg/uploads"
)

// Events shared by several steps.
const (
	EventChange   = "change"
	EventPrevious = "previous"
	EventSave     = "save"
	EventSubmit   = "submit"
	EventExit     = "exit"
)

// Notices.
const (
	NoticeSaved     = "Progress saved!"
	NoticeSubmitted = "Application submitted successfully!"
)

// Component names, one per step.
const (
	NameOrganization = "organization"
	NameFacility     = "facility"
	NameLeadership   = "leadership"
	NameSite         = "site"
	NameServices     = "services"
	NameReview       = "review"
)

var stepNames = map[intake.Step]string{
	intake.StepOrganization: NameOrganization,
	intake.StepFacility:     NameFacility,
	intake.StepLeadership:   NameLeadership,
	intake.StepSite:         NameSite,
	intake.StepServices:     NameServices,
	intake.StepReview:       NameReview,
}

// NameFor returns the component name of step s.
func NameFor(s intake.Step) string {
	return stepNames[s]
}

// Deps are shared by every step of one form.
type Deps struct {
	Store   *intake.Store
	Catalog *intake.Catalog
	Uploads uploads.Config

	// Notify shows a transient notice to the user.
	Notify func(msg string)
}

func (d Deps) withDefaults() Deps {
	if d.Catalog == nil {
		d.Catalog = intake.Default()
	}
	if d.Uploads.Accept == nil {
		d.Uploads = uploads.DefaultConfig()
	}
	if d.Notify == nil {
		d.Notify = func(string) {}
	}
	return d
}

// Register adds a factory for every step to reg.
func Register(reg *core.ComponentRegistry, d Deps) {
	d = d.withDefaults()
	reg.Register(NameOrganization, func() core.Component { return NewOrganization(d) })
	reg.Register(NameFacility, func() core.Component { return NewFacility(d) })
	reg.Register(NameLeadership, func() core.Component { return NewLeadership(d) })
	reg.Register(NameSite, func() core.Component { return NewSite(d) })
	reg.Register(NameServices, func() core.Component { return NewServices(d) })
	reg.Register(NameReview, func() core.Component { return NewReview(d) })
}

// base carries the dependencies and field errors every step needs.
type base struct {
	core.BaseComponent
	deps   Deps
	errors forms.Errors
}

func newBase(d Deps) base {
	return base{deps: d.withDefaults(), errors: make(forms.Errors)}
}

// Errors returns a copy of the active field errors.
func (b *base) Errors() forms.Errors {
	out := make(forms.Errors, len(b.errors))
	for k, v := range b.errors {
		out[k] = v
	}
	return out
}

func (b *base) resetErrors() {
	b.errors = make(forms.Errors)
}

func (b *base) saved() {
	b.deps.Notify(NoticeSaved)
}
