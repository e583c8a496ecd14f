package wizard

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accreditkit/quoteform/internal/steps"
	"github.com/accreditkit/quoteform/pkg/core"
	"github.com/accreditkit/quoteform/pkg/intake"
	"github.com/accreditkit/quoteform/pkg/logging"
	"github.com/accreditkit/quoteform/pkg/uploads"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newWizard(t *testing.T, snap intake.Snapshot) (*Wizard, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	store := intake.NewStore(
		intake.WithClock(func() time.Time { return fixedNow }),
		intake.WithSnapshot(snap),
	)
	w := New(
		WithStore(store),
		WithLogger(logging.New(logging.WithOutput(&logs), logging.WithJSON(), logging.WithLevel(zerolog.DebugLevel))),
	)
	return w, &logs
}

func dispatch(t *testing.T, w *Wizard, event string, payload map[string]any) Result {
	t.Helper()
	res, err := w.Dispatch(context.Background(), event, payload)
	require.NoError(t, err)
	return res
}

func TestRenderStartsOnFirstStep(t *testing.T) {
	w, _ := newWizard(t, intake.Snapshot{})
	html, err := w.Render(context.Background())
	require.NoError(t, err)
	assert.Contains(t, html, "Step 1 of 6")
	assert.Contains(t, html, "Identify Healthcare Organization")
	assert.Contains(t, html, ">Exit<")
}

func TestNavigation(t *testing.T) {
	w, logs := newWizard(t, intake.Snapshot{Step: intake.StepSite})

	res := dispatch(t, w, EventPrevious, nil)
	assert.Equal(t, intake.StepLeadership, w.Store().Step())
	assert.Contains(t, res.HTML, "Step 3 of 6")
	assert.Contains(t, res.HTML, "Contact Information", "new step is mounted and rendered")

	dispatch(t, w, EventGoTo, map[string]any{"step": 9})
	assert.Equal(t, intake.StepLeadership, w.Store().Step(), "out-of-range goto is ignored")

	res = dispatch(t, w, EventGoTo, map[string]any{"step": 6})
	assert.Equal(t, intake.StepReview, w.Store().Step())
	assert.Contains(t, res.HTML, "Ready to Submit?")

	_, err := w.Dispatch(context.Background(), EventGoTo, nil)
	assert.ErrorIs(t, err, core.ErrInvalidPayload)

	assert.Contains(t, logs.String(), `"message":"step changed"`)
	assert.Contains(t, logs.String(), `"to":6`)
}

func TestDispatchForwardsToCurrentStep(t *testing.T) {
	w, _ := newWizard(t, intake.Snapshot{Step: intake.StepFacility})

	res := dispatch(t, w, steps.EventSubmit, nil)
	assert.Contains(t, res.HTML, "Please select a facility type")
	assert.Equal(t, intake.StepFacility, w.Store().Step())

	dispatch(t, w, steps.EventSelectFacility, map[string]any{"value": "Critical Access"})
	res = dispatch(t, w, steps.EventSubmit, nil)
	assert.Equal(t, intake.StepLeadership, w.Store().Step())
	assert.Contains(t, res.HTML, "Step 3 of 6")
}

func TestRejectedEventStillRenders(t *testing.T) {
	w, logs := newWizard(t, intake.Snapshot{})
	res, err := w.Dispatch(context.Background(), "warp", nil)
	assert.ErrorIs(t, err, core.ErrUnknownEvent)
	assert.Contains(t, res.HTML, "Step 1 of 6")
	assert.Contains(t, logs.String(), "event rejected")
}

func TestNoticeIsShownOnce(t *testing.T) {
	w, _ := newWizard(t, intake.Snapshot{Step: intake.StepSite})

	res := dispatch(t, w, steps.EventSave, nil)
	assert.Equal(t, steps.NoticeSaved, res.Notice)
	assert.Contains(t, res.HTML, steps.NoticeSaved)

	res = dispatch(t, w, steps.EventSelectLocation, map[string]any{"value": intake.LocationSingle})
	assert.Empty(t, res.Notice)
	assert.NotContains(t, res.HTML, steps.NoticeSaved)
}

func TestRedirect(t *testing.T) {
	w, _ := newWizard(t, intake.Snapshot{Step: intake.StepSite})
	dispatch(t, w, steps.EventSelectLocation, map[string]any{"value": intake.LocationMultiple})
	res := dispatch(t, w, steps.EventDownloadTemplate, nil)
	assert.Equal(t, steps.TemplatePath, res.Redirect)
}

func TestAddFiles(t *testing.T) {
	w, _ := newWizard(t, intake.Snapshot{Step: intake.StepSite})
	dispatch(t, w, steps.EventSelectLocation, map[string]any{"value": intake.LocationMultiple})

	entry, err := uploads.NewEntry(uploads.DefaultConfig(), "sites.csv", 2048)
	require.NoError(t, err)
	require.NoError(t, w.AddFiles(context.Background(), entry))

	files := w.Store().Answers().Site.Files
	require.Len(t, files, 1)
	assert.Equal(t, entry.ID, files[0].ID)

	html, err := w.Render(context.Background())
	require.NoError(t, err)
	assert.Contains(t, html, "sites.csv")
}

func TestSubmitLogsSnapshot(t *testing.T) {
	w, logs := newWizard(t, intake.Snapshot{
		Step:    intake.StepReview,
		Answers: intake.Answers{FacilityType: "Critical Access"},
	})

	dispatch(t, w, steps.EventCertify, map[string]any{"checked": true})
	res := dispatch(t, w, steps.EventSubmit, nil)
	assert.Equal(t, steps.NoticeSubmitted, res.Notice)
	assert.Contains(t, logs.String(), `"message":"form submission payload"`)
	assert.Contains(t, logs.String(), `"facilityType":"Critical Access"`)
}

func TestExport(t *testing.T) {
	w, _ := newWizard(t, intake.Snapshot{Answers: intake.Answers{FacilityType: "Critical Access"}})

	var csv bytes.Buffer
	name, err := w.Export(&csv, ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "hospital_application_2024-06-15.csv", name)
	assert.True(t, strings.HasPrefix(csv.String(), `"Section","Field","Value"`))
	assert.Contains(t, csv.String(), `"Facility Details","Facility Type","Critical Access"`)

	var pdf bytes.Buffer
	name, err = w.Export(&pdf, ExportPDF)
	require.NoError(t, err)
	assert.Equal(t, "hospital_application_2024-06-15.pdf", name)
	assert.True(t, bytes.HasPrefix(pdf.Bytes(), []byte("%PDF-")))

	_, err = w.Export(&bytes.Buffer{}, "xml")
	assert.ErrorIs(t, err, ErrUnknownExport)
}
