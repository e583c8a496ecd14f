package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accreditkit/quoteform/pkg/core"
	"github.com/accreditkit/quoteform/pkg/intake"
	"github.com/accreditkit/quoteform/pkg/logging"
	"github.com/accreditkit/quoteform/pkg/uploads"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type harness struct {
	store   *intake.Store
	deps    Deps
	notices []string
}

func newHarness(opts ...intake.StoreOption) *harness {
	h := &harness{}
	opts = append([]intake.StoreOption{intake.WithClock(func() time.Time { return fixedNow })}, opts...)
	h.store = intake.NewStore(opts...)
	h.deps = Deps{
		Store:  h.store,
		Notify: func(msg string) { h.notices = append(h.notices, msg) },
	}
	return h
}

func send(t *testing.T, c core.Component, event string, payload map[string]any) {
	t.Helper()
	require.NoError(t, c.HandleEvent(context.Background(), event, payload))
}

func change(t *testing.T, c core.Component, field, value string) {
	t.Helper()
	send(t, c, EventChange, map[string]any{"field": field, "value": value})
}

func rendered(t *testing.T, c core.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background()).Render(context.Background(), &buf))
	return buf.String()
}

func mounted[C core.Component](t *testing.T, c C) C {
	t.Helper()
	require.NoError(t, c.Mount(context.Background()))
	return c
}

func fillOrganization(t *testing.T, o *Organization) {
	t.Helper()
	change(t, o, "legalEntityName", "Test Hospital")
	change(t, o, "doingBusinessAs", "Test DBA")
	change(t, o, "firstName", "John")
	change(t, o, "lastName", "Doe")
	change(t, o, "title", "Administrator")
	change(t, o, "workPhone", "5551234567")
	change(t, o, "email", "john@test.com")
}

func TestRegisterAllSteps(t *testing.T) {
	h := newHarness()
	reg := core.NewComponentRegistry()
	Register(reg, h.deps)

	for s := intake.FirstStep; s <= intake.LastStep; s++ {
		c, ok := reg.Create(NameFor(s))
		require.True(t, ok, "step %d", s)
		assert.Equal(t, NameFor(s), c.Name())
	}
}

func TestOrganizationSubmitEmptyShowsErrors(t *testing.T) {
	h := newHarness()
	o := mounted(t, NewOrganization(h.deps))

	send(t, o, EventSubmit, nil)

	errs := o.Errors()
	assert.Equal(t, "Legal Entity Name is required", errs["legalEntityName"])
	assert.Equal(t, "Doing Business As Name is required", errs["doingBusinessAs"])
	assert.Equal(t, "First Name is required", errs["firstName"])
	assert.Equal(t, "Work Phone is required", errs["workPhone"])
	assert.Equal(t, "Email is required", errs["email"])
	assert.NotContains(t, errs, "cellPhone", "cell phone is optional")
	assert.Equal(t, intake.StepOrganization, h.store.Step())
	assert.Equal(t, intake.Organization{}, h.store.Answers().Organization, "nothing committed")
}

func TestOrganizationSubmitValidAdvances(t *testing.T) {
	h := newHarness()
	o := mounted(t, NewOrganization(h.deps))
	fillOrganization(t, o)

	send(t, o, EventSubmit, nil)

	assert.Empty(t, o.Errors())
	assert.Equal(t, intake.StepFacility, h.store.Step())
	assert.Equal(t, "Test Hospital", h.store.Answers().Organization.LegalEntityName)
}

func TestOrganizationSameAsLegal(t *testing.T) {
	h := newHarness()
	o := mounted(t, NewOrganization(h.deps))
	change(t, o, "legalEntityName", "Test Hospital")

	send(t, o, EventToggleSameAsLegal, map[string]any{"checked": true})
	assert.Equal(t, "Test Hospital", o.Draft().DoingBusinessAs)

	change(t, o, "doingBusinessAs", "Ignored")
	assert.Equal(t, "Test Hospital", o.Draft().DoingBusinessAs, "synced d/b/a is read-only")

	change(t, o, "legalEntityName", "Renamed")
	assert.False(t, o.Draft().SameAsLegalEntity, "editing the legal name unchecks the sync")
	assert.Empty(t, o.Draft().DoingBusinessAs)

	send(t, o, EventToggleSameAsLegal, map[string]any{"checked": true})
	send(t, o, EventToggleSameAsLegal, map[string]any{"checked": false})
	assert.Empty(t, o.Draft().DoingBusinessAs, "unchecking clears d/b/a")
}

func TestOrganizationPhoneFilter(t *testing.T) {
	h := newHarness()
	o := mounted(t, NewOrganization(h.deps))

	change(t, o, "workPhone", "(555) 123-4567 ext 89")
	assert.Equal(t, "5551234567", o.Draft().Primary.WorkPhone)
}

func TestOrganizationRevalidatesOnlyFieldsWithErrors(t *testing.T) {
	h := newHarness()
	o := mounted(t, NewOrganization(h.deps))

	change(t, o, "email", "bad")
	assert.Empty(t, o.Errors(), "untouched fields are not validated before submit")

	send(t, o, EventSubmit, nil)
	assert.Equal(t, "Please enter a valid email address", o.Errors()["email"])

	change(t, o, "email", "john@test.com")
	assert.NotContains(t, o.Errors(), "email")
	assert.Contains(t, o.Errors(), "firstName", "other errors stay")
}

func TestOrganizationVerifyEmail(t *testing.T) {
	h := newHarness()
	o := mounted(t, NewOrganization(h.deps))

	send(t, o, EventVerifyEmail, nil)
	assert.Equal(t, "Email is required", o.Errors()["email"])
	assert.False(t, o.Draft().Primary.EmailVerified)

	change(t, o, "email", "john@test.com")
	send(t, o, EventVerifyEmail, nil)
	assert.True(t, o.Draft().Primary.EmailVerified)
	assert.Contains(t, rendered(t, o), "Verification Sent")

	change(t, o, "email", "jane@test.com")
	assert.False(t, o.Draft().Primary.EmailVerified, "a new address needs verifying again")
}

func TestOrganizationSaveAndExit(t *testing.T) {
	h := newHarness()
	o := mounted(t, NewOrganization(h.deps))
	change(t, o, "legalEntityName", "Test Hospital")

	send(t, o, EventSave, nil)
	assert.Equal(t, []string{NoticeSaved}, h.notices)
	assert.Equal(t, "Test Hospital", h.store.Answers().Organization.LegalEntityName)

	send(t, o, EventExit, map[string]any{"confirmed": false})
	assert.Equal(t, "Test Hospital", h.store.Answers().Organization.LegalEntityName)

	send(t, o, EventExit, map[string]any{"confirmed": true})
	assert.Equal(t, intake.Answers{}, h.store.Answers())
	assert.Empty(t, o.Draft().LegalEntityName)
}

func TestFacility(t *testing.T) {
	h := newHarness(intake.WithSnapshot(intake.Snapshot{Step: intake.StepFacility}))
	f := mounted(t, NewFacility(h.deps))

	send(t, f, EventSubmit, nil)
	assert.Equal(t, "Please select a facility type", f.Errors()["facilityType"])
	assert.Equal(t, intake.StepFacility, h.store.Step())

	err := f.HandleEvent(context.Background(), EventSelectFacility, map[string]any{"value": "Spaceport"})
	assert.ErrorIs(t, err, core.ErrInvalidPayload)

	send(t, f, EventSelectFacility, map[string]any{"value": "Critical Access"})
	assert.Empty(t, f.Errors())
	send(t, f, EventSubmit, nil)
	assert.Equal(t, "Critical Access", h.store.Answers().FacilityType)
	assert.Equal(t, intake.StepLeadership, h.store.Step())
}

func TestUnknownEvent(t *testing.T) {
	h := newHarness()
	f := mounted(t, NewFacility(h.deps))
	err := f.HandleEvent(context.Background(), "launch", nil)
	assert.ErrorIs(t, err, core.ErrUnknownEvent)
}

func leadershipChange(t *testing.T, l *Leadership, block, field, value string) {
	t.Helper()
	send(t, l, EventChange, map[string]any{"block": block, "field": field, "value": value})
}

func primaryStore() *harness {
	return newHarness(intake.WithSnapshot(intake.Snapshot{
		Step: intake.StepLeadership,
		Answers: intake.Answers{Organization: intake.Organization{Primary: intake.PrimaryContact{
			FirstName: "John", LastName: "Doe", WorkPhone: "5551234567", Email: "john@test.com",
		}}},
	}))
}

func TestLeadershipSameAsPrimary(t *testing.T) {
	h := primaryStore()
	l := mounted(t, NewLeadership(h.deps))

	send(t, l, EventToggleSameAsPrimary, map[string]any{"block": intake.BlockCEO, "checked": true})
	ceo := l.Draft().CEO
	assert.Equal(t, intake.Contact{FirstName: "John", LastName: "Doe", Phone: "5551234567", Email: "john@test.com", SameAsPrimary: true}, ceo)
	assert.Empty(t, l.Errors())

	leadershipChange(t, l, intake.BlockCEO, fieldFirstName, "Jane")
	assert.Equal(t, "John", l.Draft().CEO.FirstName, "linked blocks ignore edits")

	send(t, l, EventToggleSameAsPrimary, map[string]any{"block": intake.BlockCEO, "checked": false})
	assert.Equal(t, "John", l.Draft().CEO.FirstName, "unlinking keeps the last synced values")
	leadershipChange(t, l, intake.BlockCEO, fieldFirstName, "Jane")
	assert.Equal(t, "Jane", l.Draft().CEO.FirstName)
}

func TestLeadershipLinkedBlocksTrackPrimary(t *testing.T) {
	h := primaryStore()
	l := mounted(t, NewLeadership(h.deps))
	send(t, l, EventToggleSameAsPrimary, map[string]any{"block": intake.BlockInvoicing, "checked": true})
	send(t, l, EventSave, nil)

	org := h.store.Answers().Organization
	org.Primary.Email = "new@test.com"
	h.store.Update(intake.Partial{Organization: &org})

	assert.Equal(t, "new@test.com", h.store.Answers().Leadership.Invoicing.Email)
	require.NoError(t, l.Mount(context.Background()))
	assert.Equal(t, "new@test.com", l.Draft().Invoicing.Email)
}

func TestLeadershipValidatesChangedField(t *testing.T) {
	h := primaryStore()
	l := mounted(t, NewLeadership(h.deps))

	leadershipChange(t, l, intake.BlockCEO, fieldEmail, "nope")
	assert.Equal(t, map[string]string{"ceo.email": "Please enter a valid email address"}, map[string]string(l.Errors()))

	leadershipChange(t, l, intake.BlockQuality, fieldFirstName, "")
	assert.NotContains(t, l.Errors(), "quality.firstName", "quality contact is optional")

	leadershipChange(t, l, intake.BlockQuality, fieldFirstName, "J0hn")
	assert.Equal(t, "First Name can only contain letters", l.Errors()["quality.firstName"])

	leadershipChange(t, l, BlockBilling, fieldZIP, "12a34")
	assert.Equal(t, "1234", l.Draft().Billing.ZIP)
	assert.Equal(t, "ZIP Code must be exactly 5 digits", l.Errors()["billing.zip"])

	leadershipChange(t, l, BlockBilling, fieldCity, "Austin2")
	assert.Equal(t, "Austin", l.Draft().Billing.City)
}

func TestLeadershipSubmit(t *testing.T) {
	h := primaryStore()
	l := mounted(t, NewLeadership(h.deps))

	send(t, l, EventSubmit, nil)
	errs := l.Errors()
	assert.Equal(t, "Chief Executive Officer (CEO) First Name is required", errs["ceo.firstName"])
	assert.Equal(t, "Invoicing Contact Email is required", errs["invoicing.email"])
	assert.Equal(t, "Please select a state", errs["billing.state"])
	assert.NotContains(t, errs, "quality.firstName")
	assert.Equal(t, intake.StepLeadership, h.store.Step())

	send(t, l, EventToggleSameAsPrimary, map[string]any{"block": intake.BlockCEO, "checked": true})
	send(t, l, EventToggleSameAsPrimary, map[string]any{"block": intake.BlockInvoicing, "checked": true})
	leadershipChange(t, l, BlockBilling, fieldStreet, "1 Main St")
	leadershipChange(t, l, BlockBilling, fieldCity, "Austin")
	leadershipChange(t, l, BlockBilling, fieldState, "TX")
	leadershipChange(t, l, BlockBilling, fieldZIP, "78701")

	send(t, l, EventSubmit, nil)
	assert.Empty(t, l.Errors())
	assert.Equal(t, intake.StepSite, h.store.Step())
	assert.Equal(t, "TX", h.store.Answers().Leadership.Billing.State)
}

func siteStore() *harness {
	return newHarness(intake.WithSnapshot(intake.Snapshot{Step: intake.StepSite}))
}

func TestSiteContinueRules(t *testing.T) {
	h := siteStore()
	s := mounted(t, NewSite(h.deps))

	send(t, s, EventSubmit, nil)
	assert.Equal(t, errNoLocation, s.Errors()["site"])

	send(t, s, EventSelectLocation, map[string]any{"value": intake.LocationMultiple})
	assert.Empty(t, s.Errors(), "choosing a location clears the error")

	send(t, s, EventSubmit, nil)
	assert.Equal(t, errNoFiles, s.Errors()["site"])
	assert.Contains(t, rendered(t, s), errNoFiles)

	send(t, s, EventAddFile, map[string]any{"name": "sites.csv", "size": 1572864})
	assert.Empty(t, s.Errors())
	files := h.store.Answers().Site.Files
	require.Len(t, files, 1)
	assert.Equal(t, "1.5MB", files[0].Size)
	assert.NotEmpty(t, files[0].ID)

	send(t, s, EventSubmit, nil)
	assert.Equal(t, intake.StepServices, h.store.Step())
}

func TestSiteFiles(t *testing.T) {
	h := newHarness()
	s := mounted(t, NewSite(h.deps))
	send(t, s, EventSelectLocation, map[string]any{"value": intake.LocationMultiple})

	err := s.HandleEvent(context.Background(), EventAddFile, map[string]any{"name": "notes.pdf", "size": 10})
	assert.ErrorIs(t, err, uploads.ErrInvalidFileType)

	for _, name := range []string{"a.csv", "b.xlsx", "c.xls"} {
		send(t, s, EventAddFile, map[string]any{"name": name, "size": 10})
	}
	files := h.store.Answers().Site.Files
	require.Len(t, files, 3)

	send(t, s, EventRemoveFile, map[string]any{"id": files[1].ID})
	got := h.store.Answers().Site.Files
	require.Len(t, got, 2)
	assert.Equal(t, "a.csv", got[0].Name)
	assert.Equal(t, "c.xls", got[1].Name)

	send(t, s, EventDownloadTemplate, nil)
	assert.Equal(t, TemplatePath, s.Redirect())
	assert.Empty(t, s.Redirect(), "redirect is consumed")
}

func TestSiteSingleNeedsNoFiles(t *testing.T) {
	h := siteStore()
	s := mounted(t, NewSite(h.deps))
	send(t, s, EventSelectLocation, map[string]any{"value": intake.LocationSingle})
	send(t, s, EventSubmit, nil)
	assert.Empty(t, s.Errors())
	assert.Equal(t, intake.StepServices, h.store.Step())
	assert.NotContains(t, rendered(t, s), "Upload CSV / Excel")
}

func TestServicesSelection(t *testing.T) {
	h := newHarness()
	s := mounted(t, NewServices(h.deps))

	send(t, s, EventToggleService, map[string]any{"name": "Open Heart", "checked": true})
	send(t, s, EventServiceContact, map[string]any{"name": "Open Heart", "field": "phone", "value": "555-123-4567"})
	svc := h.store.Answers().Services
	require.Len(t, svc.Selected, 1)
	assert.Equal(t, "5551234567", svc.Selected[0].Contact.Phone)

	send(t, s, EventToggleService, map[string]any{"name": "Open Heart", "checked": false})
	assert.Empty(t, h.store.Answers().Services.Selected, "unchecking removes the entry")

	err := s.HandleEvent(context.Background(), EventToggleService, map[string]any{"name": "Teleportation", "checked": true})
	assert.ErrorIs(t, err, core.ErrInvalidPayload)
}

func TestServicesFilters(t *testing.T) {
	h := newHarness()
	s := mounted(t, NewServices(h.deps))

	send(t, s, EventSelectTab, map[string]any{"value": "Surgical"})
	out := rendered(t, s)
	assert.Contains(t, out, "Open Heart")
	assert.NotContains(t, out, "Emergency Department")

	send(t, s, EventSelectTab, map[string]any{"value": DefaultTab})
	send(t, s, EventSearch, map[string]any{"value": "EMERGENCY"})
	out = rendered(t, s)
	assert.Contains(t, out, "Emergency Department")
	assert.NotContains(t, out, "Open Heart")
}

func TestServicesOtherAndStandards(t *testing.T) {
	h := newHarness()
	s := mounted(t, NewServices(h.deps))

	send(t, s, EventToggleOtherService, map[string]any{"checked": true})
	send(t, s, EventOtherService, map[string]any{"value": "Wound care"})
	assert.Equal(t, "Wound care", h.store.Answers().Services.OtherService)
	send(t, s, EventToggleOtherService, map[string]any{"checked": false})
	assert.Empty(t, h.store.Answers().Services.OtherService, "closing clears the text")

	send(t, s, EventAddStandard, map[string]any{"value": "Standard 2"})
	send(t, s, EventAddStandard, map[string]any{"value": "Standard 1"})
	send(t, s, EventAddStandard, map[string]any{"value": "Standard 2"})
	assert.Equal(t, []string{"Standard 2", "Standard 1"}, h.store.Answers().Services.Standards)

	send(t, s, EventRemoveStandard, map[string]any{"index": 0})
	assert.Equal(t, []string{"Standard 1"}, h.store.Answers().Services.Standards)
}

func TestServicesDates(t *testing.T) {
	h := newHarness()
	s := mounted(t, NewServices(h.deps))
	add := func(list, v string) {
		send(t, s, EventAddDate, map[string]any{"list": list, "value": v})
	}

	add(intake.ListThrombolytic, "2024-06-16")
	assert.Equal(t, errFutureDate, s.Errors()[intake.ListThrombolytic])
	assert.Empty(t, h.store.Answers().Services.ThrombolyticDates)

	add(intake.ListThrombolytic, "2024-06-15")
	assert.Empty(t, s.Errors(), "today is allowed")
	add(intake.ListThrombolytic, "2024-06-15")
	assert.Equal(t, []string{"2024-06-15"}, h.store.Answers().Services.ThrombolyticDates, "duplicates are dropped")

	for d := 1; d <= 20; d++ {
		add(intake.ListThrombectomy, time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC).Format("2006-01-02"))
	}
	dates := h.store.Answers().Services.ThrombectomyDates
	assert.Len(t, dates, 15, "list is capped")
	assert.Contains(t, rendered(t, s), "Selected: 15/15")

	send(t, s, EventRemoveDate, map[string]any{"list": intake.ListThrombectomy, "index": 0})
	got := h.store.Answers().Services.ThrombectomyDates
	assert.Equal(t, dates[1:], got)
}

func TestServicesStrokeExpiryIsAdvisory(t *testing.T) {
	h := newHarness(intake.WithSnapshot(intake.Snapshot{Step: intake.StepServices}))
	s := mounted(t, NewServices(h.deps))

	send(t, s, EventStrokeExpiry, map[string]any{"value": "2024-06-15"})
	assert.Equal(t, errExpiryNotAfter, s.Errors()[keyStrokeExpiry])
	assert.Equal(t, "2024-06-15", h.store.Answers().Services.StrokeCertificationExpiry)

	send(t, s, EventSubmit, nil)
	assert.Equal(t, intake.StepReview, h.store.Step(), "continue is never blocked")

	send(t, s, EventStrokeExpiry, map[string]any{"value": "2024-06-16"})
	assert.NotContains(t, s.Errors(), keyStrokeExpiry)
}

func TestReviewCertification(t *testing.T) {
	h := newHarness(intake.WithSnapshot(intake.Snapshot{Step: intake.StepReview}))
	r := mounted(t, NewReview(h.deps))

	assert.Contains(t, rendered(t, r), `lv-click="submit" disabled`)
	send(t, r, EventSubmit, nil)
	assert.Equal(t, errNotCertified, r.Errors()["certify"])
	assert.False(t, r.Submitted())
	assert.Empty(t, h.notices)

	var buf bytes.Buffer
	logger := logging.New(logging.WithOutput(&buf), logging.WithJSON())
	ctx := logging.ContextWithLogger(context.Background(), logger)

	send(t, r, EventCertify, map[string]any{"checked": true})
	assert.Empty(t, r.Errors())
	require.NoError(t, r.HandleEvent(ctx, EventSubmit, nil))
	assert.True(t, r.Submitted())
	assert.Equal(t, []string{NoticeSubmitted}, h.notices)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "form submission payload", line["message"])
	assert.Contains(t, line, "snapshot")
}

func TestReviewSectionsAndEdit(t *testing.T) {
	h := newHarness(intake.WithSnapshot(intake.Snapshot{
		Step:    intake.StepReview,
		Answers: intake.Answers{FacilityType: "Critical Access"},
	}))
	r := mounted(t, NewReview(h.deps))

	out := rendered(t, r)
	assert.Contains(t, out, "Critical Access")
	assert.Contains(t, out, "/export/csv")

	send(t, r, EventToggleSection, map[string]any{"section": "facilityDetails"})
	assert.True(t, r.Collapsed("facilityDetails"))
	assert.NotContains(t, rendered(t, r), "Critical Access")

	err := r.HandleEvent(context.Background(), EventToggleSection, map[string]any{"section": "nope"})
	assert.ErrorIs(t, err, core.ErrInvalidPayload)

	send(t, r, EventEdit, map[string]any{"step": "3"})
	assert.Equal(t, intake.StepLeadership, h.store.Step())
	assert.Equal(t, "Critical Access", h.store.Answers().FacilityType, "edit does not touch answers")

	err = r.HandleEvent(context.Background(), EventEdit, map[string]any{"step": 6})
	assert.ErrorIs(t, err, core.ErrInvalidPayload)
}

func TestProgressAndNavigation(t *testing.T) {
	cat := intake.Default()
	out := Progress(cat, intake.StepLeadership)
	assert.Contains(t, out, "Step 3 of 6")
	assert.Equal(t, 2, strings.Count(out, `class="step completed"`))
	assert.Equal(t, 1, strings.Count(out, `class="step current"`))
	assert.Equal(t, 3, strings.Count(out, `class="step inactive"`))

	first := Navigation(NavOptions{})
	assert.Contains(t, first, "Exit")
	assert.NotContains(t, first, "Previous")
	assert.Contains(t, first, "Continue")

	last := Navigation(NavOptions{ShowPrevious: true, ButtonText: "Submit Application", Disabled: true})
	assert.Contains(t, last, "Previous")
	assert.Contains(t, last, "Submit Application")
	assert.Contains(t, last, "continue-button disabled")
}
