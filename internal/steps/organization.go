package steps

import (
	"context"
	"io"
	"strings"

	"github.com/accreditkit/quoteform/pkg/core"
	"github.com/accreditkit/quoteform/pkg/forms"
	"github.com/accreditkit/quoteform/pkg/intake"
)

// Step 1 events.
const (
	EventToggleSameAsLegal = "toggle_same_as_legal"
	EventVerifyEmail       = "verify_email"
)

// Organization is step 1: organization identity and primary contact.
// Edits stay in a local draft until save or submit.
type Organization struct {
	base
	draft intake.Organization
}

// NewOrganization creates step 1.
func NewOrganization(d Deps) *Organization {
	return &Organization{base: newBase(d)}
}

func (o *Organization) Name() string { return NameOrganization }

// Mount loads the draft from the store.
func (o *Organization) Mount(ctx context.Context) error {
	o.draft = o.deps.Store.Answers().Organization
	o.resetErrors()
	return nil
}

// Draft returns the local draft.
func (o *Organization) Draft() intake.Organization {
	return o.draft
}

func (o *Organization) fields() []forms.Field {
	return []forms.Field{
		forms.NewField("legalEntityName", forms.FieldText, "Legal Entity Name",
			forms.WithRequired("Legal Entity Name is required")),
		forms.NewField("doingBusinessAs", forms.FieldText, "Doing Business As (d/b/a) Name",
			forms.WithRequired("Doing Business As Name is required"),
			forms.WithDisabled(o.draft.SameAsLegalEntity)),
		forms.NewField("firstName", forms.FieldText, "First Name",
			forms.WithRequired("First Name is required"),
			forms.WithValidator(forms.LettersOnly("First Name can only contain letters"))),
		forms.NewField("lastName", forms.FieldText, "Last Name",
			forms.WithRequired("Last Name is required"),
			forms.WithValidator(forms.LettersOnly("Last Name can only contain letters"))),
		forms.NewField("title", forms.FieldText, "Title",
			forms.WithRequired("Title is required"),
			forms.WithValidator(forms.LettersOnly("Title can only contain letters"))),
		forms.NewField("workPhone", forms.FieldTel, "Work Phone",
			forms.WithRequired("Work Phone is required"),
			forms.WithValidator(forms.Phone()),
			forms.WithMaxLength(10)),
		forms.NewField("cellPhone", forms.FieldTel, "Cell Phone",
			forms.WithValidator(forms.Phone()),
			forms.WithMaxLength(10)),
		forms.NewField("email", forms.FieldEmail, "Email",
			forms.WithRequired("Email is required"),
			forms.WithValidator(forms.Email())),
	}
}

// checked returns the fields that are validated; a synced d/b/a is skipped.
func (o *Organization) checked() []forms.Field {
	var out []forms.Field
	for _, f := range o.fields() {
		if !f.Disabled {
			out = append(out, f)
		}
	}
	return out
}

func (o *Organization) values() map[string]string {
	p := o.draft.Primary
	return map[string]string{
		"legalEntityName": o.draft.LegalEntityName,
		"doingBusinessAs": o.draft.DoingBusinessAs,
		"firstName":       p.FirstName,
		"lastName":        p.LastName,
		"title":           p.Title,
		"workPhone":       p.WorkPhone,
		"cellPhone":       p.CellPhone,
		"email":           p.Email,
	}
}

func (o *Organization) set(field, value string) bool {
	p := &o.draft.Primary
	switch field {
	case "legalEntityName":
		o.draft.LegalEntityName = value
		if o.draft.SameAsLegalEntity {
			o.draft.SameAsLegalEntity = false
			o.draft.DoingBusinessAs = ""
		}
	case "doingBusinessAs":
		if o.draft.SameAsLegalEntity {
			return true
		}
		o.draft.DoingBusinessAs = value
	case "firstName":
		p.FirstName = value
	case "lastName":
		p.LastName = value
	case "title":
		p.Title = value
	case "workPhone":
		p.WorkPhone = forms.DigitsOnly(value, 10)
	case "cellPhone":
		p.CellPhone = forms.DigitsOnly(value, 10)
	case "email":
		if value != p.Email {
			p.EmailVerified = false
		}
		p.Email = value
	default:
		return false
	}
	return true
}

// HandleEvent handles step 1 events.
func (o *Organization) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	switch event {
	case EventChange:
		field := core.String(payload, "field")
		if !o.set(field, core.String(payload, "value")) {
			return core.InvalidPayload(event, "field")
		}
		forms.Revalidate(o.errors, o.fields(), o.values())
		if o.draft.SameAsLegalEntity {
			o.errors.Set("doingBusinessAs", "")
		}

	case EventToggleSameAsLegal:
		if core.Bool(payload, "checked") {
			o.draft.SameAsLegalEntity = true
			o.draft.DoingBusinessAs = o.draft.LegalEntityName
			o.errors.Set("doingBusinessAs", "")
		} else {
			o.draft.SameAsLegalEntity = false
			o.draft.DoingBusinessAs = ""
		}

	case EventVerifyEmail:
		email, _ := fieldNamed(o.fields(), "email")
		if msg := email.Check(o.draft.Primary.Email); msg != "" {
			o.errors.Set("email", msg)
			return nil
		}
		o.draft.Primary.EmailVerified = true

	case EventExit:
		if !core.Bool(payload, "confirmed") {
			return nil
		}
		o.deps.Store.Reset()
		return o.Mount(ctx)

	case EventSave:
		o.commit()
		o.saved()

	case EventSubmit:
		o.errors = forms.Validate(o.checked(), o.values())
		if len(o.errors) > 0 {
			return nil
		}
		o.commit()
		o.deps.Store.Next()

	default:
		return core.UnknownEvent(event)
	}
	return nil
}

func (o *Organization) commit() {
	draft := o.draft
	o.deps.Store.Update(intake.Partial{Organization: &draft})
}

// Render renders step 1.
func (o *Organization) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, o.render())
		return err
	})
}

func (o *Organization) render() string {
	fs := o.fields()
	vals := o.values()
	input := func(i int) string {
		f := fs[i]
		return textInput(f, vals[f.Name], o.errors.Get(f.Name), EventChange, nil)
	}

	var sb strings.Builder
	sb.WriteString(`<div class="step" data-step="1">`)

	identity := input(0) + input(1) +
		checkbox("sameAsLegal", "Same as Legal Entity Name", EventToggleSameAsLegal, o.draft.SameAsLegalEntity, false, nil)
	sb.WriteString(section("Identify Healthcare Organization", identity))
	sb.WriteString(`<div class="divider"></div>`)

	status := `<span class="not-verified">Not verified</span>`
	if o.draft.Primary.EmailVerified {
		status = `<span class="verified">Verified</span>`
	}
	verifyText := "Send Verification Email"
	if o.draft.Primary.EmailVerified {
		verifyText = "Verification Sent"
	}

	contact := `<p class="section-subtitle">Primary contact receives all DNV Healthcare official communications</p>` +
		`<div class="form-row">` + input(2) + input(3) + `</div>` +
		input(4) +
		`<div class="form-row">` + input(5) + input(6) + `</div>` +
		input(7) +
		`<div class="verification">` + button("verify-button", verifyText, EventVerifyEmail, o.draft.Primary.EmailVerified, nil) + status + `</div>`
	sb.WriteString(section("Primary Contact Information", contact))

	sb.WriteString(Navigation(NavOptions{}))
	sb.WriteString(`</div>`)
	return sb.String()
}
