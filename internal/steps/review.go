package steps

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/accreditkit/quoteform/pkg/core"
	"github.com/accreditkit/quoteform/pkg/export"
	"github.com/accreditkit/quoteform/pkg/intake"
	"github.com/accreditkit/quoteform/pkg/logging"
)

// Step 6 events.
const (
	EventToggleSection = "toggle_section"
	EventEdit          = "edit"
	EventCertify       = "certify"
)

// Export links.
const (
	ExportCSVPath = "/export/csv"
	ExportPDFPath = "/export/pdf"
)

const errNotCertified = "Please certify that the information is accurate before submitting."

type reviewSection struct {
	key   string
	title string
	step  intake.Step
}

var reviewSections = []reviewSection{
	{"basicInformation", export.SectionBasic, intake.StepOrganization},
	{"facilityDetails", export.SectionFacility, intake.StepFacility},
	{"leadershipContacts", export.SectionLeadership, intake.StepLeadership},
	{"siteInformation", export.SectionSite, intake.StepSite},
	{"servicesCertifications", export.SectionServices, intake.StepServices},
}

// Review is step 6: read-only summary, certification and submit.
type Review struct {
	base
	collapsed map[string]bool
	certified bool
	submitted bool
}

// NewReview creates step 6.
func NewReview(d Deps) *Review {
	return &Review{base: newBase(d), collapsed: make(map[string]bool)}
}

func (r *Review) Name() string { return NameReview }

// Mount expands every section and clears the certification.
func (r *Review) Mount(ctx context.Context) error {
	r.resetErrors()
	r.collapsed = make(map[string]bool)
	r.certified = false
	r.submitted = false
	return nil
}

// Certified reports whether the certification box is checked.
func (r *Review) Certified() bool { return r.certified }

// Submitted reports whether the form has been submitted since mount.
func (r *Review) Submitted() bool { return r.submitted }

// Collapsed reports whether the section with key is collapsed.
func (r *Review) Collapsed(key string) bool { return r.collapsed[key] }

// HandleEvent handles step 6 events.
func (r *Review) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	switch event {
	case EventToggleSection:
		key := core.String(payload, "section")
		if _, ok := sectionByKey(key); !ok {
			return core.InvalidPayload(event, "section")
		}
		r.collapsed[key] = !r.collapsed[key]

	case EventEdit:
		n, ok := core.Int(payload, "step")
		if !ok || n < int(intake.FirstStep) || n >= int(intake.StepReview) {
			return core.InvalidPayload(event, "step")
		}
		r.deps.Store.GoTo(intake.Step(n))

	case EventCertify:
		r.certified = core.Bool(payload, "checked")
		if r.certified {
			r.errors.Set("certify", "")
		}

	case EventSave:
		r.saved()

	case EventSubmit:
		if !r.certified {
			r.errors.Set("certify", errNotCertified)
			return nil
		}
		snap := r.deps.Store.Snapshot()
		logging.L(ctx).Info("form submission payload", logging.Any("snapshot", snap))
		r.submitted = true
		r.deps.Notify(NoticeSubmitted)

	default:
		return core.UnknownEvent(event)
	}
	return nil
}

func sectionByKey(key string) (reviewSection, bool) {
	for _, s := range reviewSections {
		if s.key == key {
			return s, true
		}
	}
	return reviewSection{}, false
}

// Render renders step 6.
func (r *Review) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, r.render())
		return err
	})
}

func (r *Review) render() string {
	rows := export.Rows(r.deps.Store.Answers())

	var sb strings.Builder
	sb.WriteString(`<div class="step" data-step="6"><div class="review-container">`)
	sb.WriteString(`<h3 class="main-title">Hospital Information</h3>`)

	for _, sec := range reviewSections {
		collapsed := r.collapsed[sec.key]
		icon := "&#9650;"
		if collapsed {
			icon = "&#9660;"
		}
		fmt.Fprintf(&sb, `<div class="review-section" data-section="%s">
<div class="section-header" lv-click="%s"%s aria-expanded="%t">
	<span class="collapse-icon">%s</span>
	<h4 class="section-title">%s</h4>
	%s
</div>
`, sec.key, EventToggleSection, values{"section": sec.key}, !collapsed, icon, esc(sec.title),
			button("edit-button", "Edit", EventEdit, false, values{"step": fmt.Sprint(int(sec.step))}))

		if !collapsed {
			sb.WriteString(`<div class="section-content"><div class="info-table">`)
			for _, row := range rows {
				if row.Section != sec.title {
					continue
				}
				fmt.Fprintf(&sb, `<div class="info-row"><div class="label">%s</div><div class="value">%s</div></div>`,
					esc(row.Field), esc(row.Value))
			}
			sb.WriteString(`</div></div>`)
		}
		sb.WriteString("</div>\n")
	}

	sb.WriteString(`<div class="submit-section"><h3 class="submit-title">Ready to Submit?</h3>`)
	sb.WriteString(`<div class="certification-check">`)
	sb.WriteString(checkbox("certification", "I certify that all information provided is accurate and complete to the best of my knowledge",
		EventCertify, r.certified, false, nil))
	sb.WriteString(fieldError(r.errors.Get("certify")))
	sb.WriteString(`</div>`)
	sb.WriteString(`<p class="disclaimer">By submitting this form, you agree to our terms and conditions. ` +
		`DNV will review your application and contact you within 2-3 business days.</p>`)
	fmt.Fprintf(&sb, `<div class="export-buttons"><a class="export-button" href="%s" download>Download as PDF</a><a class="export-button" href="%s" download>Export to CSV</a></div>`,
		ExportPDFPath, ExportCSVPath)
	sb.WriteString(`</div></div>`)

	sb.WriteString(Navigation(NavOptions{ShowPrevious: true, ButtonText: "Submit Application", Disabled: !r.certified}))
	sb.WriteString(`</div>`)
	return sb.String()
}
