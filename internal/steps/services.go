package steps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/accreditkit/quoteform/pkg/core"
	"github.com/accreditkit/quoteform/pkg/forms"
	"github.com/accreditkit/quoteform/pkg/intake"
)

// Step 5 events.
const (
	EventSearch             = "search"
	EventSelectTab          = "select_tab"
	EventToggleService      = "toggle_service"
	EventServiceContact     = "service_contact"
	EventToggleOtherService = "toggle_other_service"
	EventOtherService       = "other_service"
	EventAddStandard        = "add_standard"
	EventRemoveStandard     = "remove_standard"
	EventAddDate            = "add_date"
	EventRemoveDate         = "remove_date"
	EventStrokeExpiry       = "stroke_expiry"
	EventApplicationDate    = "application_date"
)

// DefaultTab is the tab shown on mount.
const DefaultTab = "All Services"

const (
	errFutureDate     = "Date cannot be in the future"
	errExpiryNotAfter = "Expiration date must be in the future"
	keyStrokeExpiry   = "strokeCertificationExpiry"
)

// Services is step 5: services, standards and stroke certification dates.
// Edits are written straight to the store and never block Continue.
type Services struct {
	base
	tab   string
	query string
}

// NewServices creates step 5.
func NewServices(d Deps) *Services {
	return &Services{base: newBase(d), tab: DefaultTab}
}

func (s *Services) Name() string { return NameServices }

// Mount resets the filters and errors.
func (s *Services) Mount(ctx context.Context) error {
	s.tab = DefaultTab
	s.query = ""
	s.resetErrors()
	return nil
}

func (s *Services) services() intake.Services {
	return s.deps.Store.Answers().Services
}

func (s *Services) update(svc intake.Services) {
	s.deps.Store.Update(intake.Partial{Services: &svc})
}

func (s *Services) day() func() time.Time {
	return s.deps.Store.Today
}

// HandleEvent handles step 5 events.
func (s *Services) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	switch event {
	case EventSearch:
		s.query = core.String(payload, "value")

	case EventSelectTab:
		tab := core.String(payload, "value")
		if _, ok := s.deps.Catalog.Tab(tab); !ok {
			return core.InvalidPayload(event, "value")
		}
		s.tab = tab

	case EventToggleService:
		name := core.String(payload, "name")
		if !s.deps.Catalog.HasService(name) {
			return core.InvalidPayload(event, "name")
		}
		svc := s.services()
		i := svc.Index(name)
		switch {
		case core.Bool(payload, "checked") && i < 0:
			svc.Selected = append(svc.Selected, intake.ServiceEntry{Name: name})
		case !core.Bool(payload, "checked") && i >= 0:
			svc.Selected = slices.Delete(svc.Selected, i, i+1)
		default:
			return nil
		}
		s.update(svc)

	case EventServiceContact:
		svc := s.services()
		i := svc.Index(core.String(payload, "name"))
		if i < 0 {
			return core.InvalidPayload(event, "name")
		}
		c := &svc.Selected[i].Contact
		value := core.String(payload, "value")
		switch core.String(payload, "field") {
		case "name":
			c.Name = value
		case "phone":
			c.Phone = forms.DigitsOnly(value, 10)
		case "email":
			c.Email = value
		default:
			return core.InvalidPayload(event, "field")
		}
		s.update(svc)

	case EventToggleOtherService:
		svc := s.services()
		svc.OtherServiceOpen = core.Bool(payload, "checked")
		if !svc.OtherServiceOpen {
			svc.OtherService = ""
		}
		s.update(svc)

	case EventOtherService:
		svc := s.services()
		if !svc.OtherServiceOpen {
			return nil
		}
		svc.OtherService = core.String(payload, "value")
		s.update(svc)

	case EventAddStandard:
		v := core.String(payload, "value")
		if v == "" {
			return nil
		}
		if !slices.Contains(s.deps.Catalog.Standards, v) {
			return core.InvalidPayload(event, "value")
		}
		svc := s.services()
		if slices.Contains(svc.Standards, v) {
			return nil
		}
		svc.Standards = append(svc.Standards, v)
		s.update(svc)

	case EventRemoveStandard:
		i, ok := core.Int(payload, "index")
		if !ok {
			return core.InvalidPayload(event, "index")
		}
		svc := s.services()
		if i < 0 || i >= len(svc.Standards) {
			return nil
		}
		svc.Standards = slices.Delete(svc.Standards, i, i+1)
		s.update(svc)

	case EventAddDate:
		return s.addDate(event, payload)

	case EventRemoveDate:
		key := core.String(payload, "list")
		i, ok := core.Int(payload, "index")
		if !ok {
			return core.InvalidPayload(event, "index")
		}
		svc := s.services()
		list, dates := s.list(key, &svc)
		if list == nil {
			return core.InvalidPayload(event, "list")
		}
		list.Remove(i)
		*dates = list.Values()
		s.update(svc)

	case EventStrokeExpiry:
		v := core.String(payload, "value")
		svc := s.services()
		svc.StrokeCertificationExpiry = v
		s.update(svc)
		rule := forms.After(s.day(), errExpiryNotAfter)
		if rule.Validate(v) != nil {
			s.errors.Set(keyStrokeExpiry, rule.Message())
		} else {
			s.errors.Set(keyStrokeExpiry, "")
		}

	case EventApplicationDate:
		svc := s.services()
		svc.ApplicationDate = core.String(payload, "value")
		s.update(svc)

	case EventSave:
		s.saved()

	case EventSubmit:
		s.deps.Store.Next()

	default:
		return core.UnknownEvent(event)
	}
	return nil
}

// list returns a bounded view of the named date list and the slice it
// writes back to.
func (s *Services) list(key string, svc *intake.Services) (*intake.BoundedList, *[]string) {
	d, ok := s.deps.Catalog.DateList(key)
	if !ok {
		return nil, nil
	}
	var dates *[]string
	switch key {
	case intake.ListThrombolytic:
		dates = &svc.ThrombolyticDates
	case intake.ListThrombectomy:
		dates = &svc.ThrombectomyDates
	default:
		return nil, nil
	}
	return intake.NewBoundedList(d.Max, *dates...), dates
}

func (s *Services) addDate(event string, payload map[string]any) error {
	key := core.String(payload, "list")
	v := strings.TrimSpace(core.String(payload, "value"))

	svc := s.services()
	list, dates := s.list(key, &svc)
	if list == nil {
		return core.InvalidPayload(event, "list")
	}
	if v == "" {
		return nil
	}
	if _, err := forms.ParseDate(v); err != nil {
		return core.InvalidPayload(event, "value")
	}

	rule := forms.NotAfter(s.day(), errFutureDate)
	if rule.Validate(v) != nil {
		s.errors.Set(key, rule.Message())
		return nil
	}
	s.errors.Set(key, "")

	if err := list.Add(v); err != nil {
		if errors.Is(err, intake.ErrListFull) || errors.Is(err, intake.ErrDuplicate) {
			return nil
		}
		return err
	}
	*dates = list.Values()
	s.update(svc)
	return nil
}

// Render renders step 5.
func (s *Services) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s.render())
		return err
	})
}

func (s *Services) render() string {
	svc := s.services()
	cat := s.deps.Catalog

	var sb strings.Builder
	sb.WriteString(`<div class="step" data-step="5">`)

	var offering strings.Builder
	offering.WriteString(`<p class="section-subtitle">Primary Site Service offering</p><div class="service-tabs">`)
	for _, t := range cat.ServiceTabs {
		cls := "tab"
		if t.Name == s.tab {
			cls += " active"
		}
		offering.WriteString(button(cls, t.Name, EventSelectTab, false, values{"value": t.Name}))
	}
	offering.WriteString(`</div>`)
	fmt.Fprintf(&offering, `<input type="text" class="search" placeholder="Search services..." value="%s" lv-change="%s">`,
		esc(s.query), EventSearch)

	for _, c := range cat.FilterServices(s.tab, s.query) {
		fmt.Fprintf(&offering, `<div class="category"><h4 class="category-title">%s</h4>`, esc(c.Name))
		for _, name := range c.Services {
			i := svc.Index(name)
			offering.WriteString(checkbox("service-"+name, name, EventToggleService, i >= 0, false, values{"name": name}))
			if i >= 0 {
				offering.WriteString(renderServiceContact(name, svc.Selected[i].Contact))
			}
		}
		offering.WriteString(`</div>`)
	}

	offering.WriteString(checkbox("otherService", "Other", EventToggleOtherService, svc.OtherServiceOpen, false, nil))
	if svc.OtherServiceOpen {
		fmt.Fprintf(&offering, `<input type="text" class="input" placeholder="Please specify" value="%s" lv-change="%s">`,
			esc(svc.OtherService), EventOtherService)
	}
	sb.WriteString(section("Service Offering", offering.String()))

	var standards strings.Builder
	standards.WriteString(`<label class="label">Standards to Apply</label>`)
	fmt.Fprintf(&standards, `<select class="select" lv-change="%s"><option value="">Select Standard(s)</option>`, EventAddStandard)
	for _, st := range cat.Standards {
		fmt.Fprintf(&standards, `<option value="%s">%s</option>`, esc(st), esc(st))
	}
	standards.WriteString(`</select><div class="tags">`)
	for i, st := range svc.Standards {
		fmt.Fprintf(&standards, `<span class="tag">%s%s</span>`, esc(st),
			button("tag-remove", "×", EventRemoveStandard, false, values{"index": fmt.Sprint(i)}))
	}
	standards.WriteString(`</div>`)
	sb.WriteString(section("Standards", standards.String()))

	var dates strings.Builder
	fmt.Fprintf(&dates, `<div class="form-group"><label class="label">Expiration Date of Current Stroke Certification</label>
<input type="date" class="input" value="%s" lv-change="%s">%s</div>`,
		esc(svc.StrokeCertificationExpiry), EventStrokeExpiry, fieldError(s.errors.Get(keyStrokeExpiry)))
	fmt.Fprintf(&dates, `<div class="form-group"><label class="label">Date of Application</label>
<input type="date" class="input" value="%s" lv-change="%s"></div>`,
		esc(svc.ApplicationDate), EventApplicationDate)
	dates.WriteString(s.renderDateList(intake.ListThrombolytic, svc.ThrombolyticDates))
	dates.WriteString(s.renderDateList(intake.ListThrombectomy, svc.ThrombectomyDates))
	sb.WriteString(section("Stroke Certification", dates.String()))

	sb.WriteString(Navigation(NavOptions{ShowPrevious: true}))
	sb.WriteString(`</div>`)
	return sb.String()
}

func renderServiceContact(name string, c intake.ServiceContact) string {
	field := func(label, typ, key, value, placeholder string) string {
		return fmt.Sprintf(`<label class="contact-label">%s</label><input type="%s" class="contact-input" value="%s" placeholder="%s" lv-change="%s"%s>`,
			label, typ, esc(value), placeholder, EventServiceContact, values{"name": name, "field": key})
	}
	return `<div class="service-contact">` +
		field("Contact Name:", "text", "name", c.Name, "Enter contact name") +
		field("Phone:", "tel", "phone", c.Phone, "Enter phone number") +
		field("Email:", "email", "email", c.Email, "Enter email address") +
		`</div>`
}

func (s *Services) renderDateList(key string, dates []string) string {
	d, _ := s.deps.Catalog.DateList(key)
	max := s.day()().Format(forms.DateLayout)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<div class="form-group" data-list="%s"><label class="label">%s</label>`, key, esc(d.Prompt))
	fmt.Fprintf(&sb, `<input type="date" class="input" max="%s" lv-change="%s"%s%s>`,
		max, EventAddDate, values{"list": key}, attrIf(len(dates) >= d.Max, "disabled"))
	sb.WriteString(fieldError(s.errors.Get(key)))
	sb.WriteString(`<div class="tags">`)
	for i, v := range dates {
		fmt.Fprintf(&sb, `<span class="tag">%s%s</span>`, esc(v),
			button("tag-remove", "×", EventRemoveDate, false, values{"list": key, "index": fmt.Sprint(i)}))
	}
	fmt.Fprintf(&sb, `</div><p class="helper-text">Selected: %d/%d</p></div>`, len(dates), d.Max)
	return sb.String()
}
