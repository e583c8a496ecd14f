package export

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accreditkit/quoteform/pkg/intake"
)

func sampleAnswers() intake.Answers {
	return intake.Answers{
		Organization: intake.Organization{
			LegalEntityName: "Test Hospital",
			Primary: intake.PrimaryContact{
				FirstName: "John",
				LastName:  "Doe",
				Title:     "Administrator",
				WorkPhone: "5551234567",
				Email:     "john@test.com",
			},
		},
		FacilityType: "Short-Term Acute Care",
		Leadership: intake.Leadership{
			CEO:     intake.Contact{FirstName: "Jane", LastName: "Smith", Phone: "5559876543", Email: "jane@test.com"},
			Billing: intake.Address{Street: "1 Main St", City: "Austin", State: "TX", ZIP: "78701"},
		},
		Site: intake.Site{
			LocationType: intake.LocationMultiple,
			Files:        []intake.FileDescriptor{{ID: "a", Name: "sites.csv", Size: "0.1MB"}},
		},
		Services: intake.Services{
			Selected:          []intake.ServiceEntry{{Name: "Emergency Services"}, {Name: "Cardiac Surgery"}},
			Standards:         []string{"Standard 1"},
			ApplicationDate:   "2024-01-15",
			ThrombolyticDates: []string{"2024-01-01", "2024-01-02"},
		},
	}
}

func TestRowsPlaceholders(t *testing.T) {
	rows := Rows(intake.Answers{})

	want := []Row{
		{SectionBasic, "Legal Entity Name", NotProvided},
		{SectionBasic, "d/b/a Name", NotProvided},
		{SectionBasic, "Primary Contact Name", " "},
		{SectionBasic, "Primary Contact Title", NotProvided},
		{SectionBasic, "Work Phone", NotProvided},
		{SectionBasic, "Cell Phone", NotProvided},
		{SectionBasic, "Email", NotProvided},
		{SectionBasic, "Email Verified", "No"},
		{SectionFacility, "Facility Type", NotSelected},
		{SectionLeadership, "CEO Name", " "},
		{SectionLeadership, "CEO Phone", NotProvided},
		{SectionLeadership, "CEO Email", NotProvided},
		{SectionLeadership, "Director of Quality Name", " "},
		{SectionLeadership, "Director of Quality Phone", NotProvided},
		{SectionLeadership, "Director of Quality Email", NotProvided},
		{SectionLeadership, "Invoicing Contact Name", " "},
		{SectionLeadership, "Invoicing Contact Phone", NotProvided},
		{SectionLeadership, "Invoicing Contact Email", NotProvided},
		{SectionLeadership, "Billing Address", ", ,  "},
		{SectionSite, "Site Configuration", NotSelected},
		{SectionSite, "Uploaded Files", NoFiles},
		{SectionServices, "Services Provided", NoServices},
		{SectionServices, "Standards to Apply", NoStandards},
		{SectionServices, "Date of Application", NotProvided},
		{SectionServices, "Stroke Certification Expiry", NotProvided},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestRowsJoinsLists(t *testing.T) {
	rows := Rows(sampleAnswers())
	byField := make(map[string]string, len(rows))
	for _, r := range rows {
		byField[r.Field] = r.Value
	}

	assert.Equal(t, "John Doe", byField["Primary Contact Name"])
	assert.Equal(t, "5551234567", byField["Work Phone"], "csv keeps raw phones")
	assert.Equal(t, "Multiple Locations", byField["Site Configuration"])
	assert.Equal(t, "sites.csv", byField["Uploaded Files"])
	assert.Equal(t, "Emergency Services; Cardiac Surgery", byField["Services Provided"])
	assert.Equal(t, "2024-01-01; 2024-01-02", byField["Thrombolytic Dates"])
	assert.Equal(t, "1 Main St, Austin, TX 78701", byField["Billing Address"])
	_, ok := byField["Thrombectomy Dates"]
	assert.False(t, ok, "empty date lists produce no row")
}

func TestWriteCSVQuotesEveryCell(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Row{
		{"Basic Information", "Legal Entity Name", `St. "Mary" Hospital`},
		{"Site Information", "Uploaded Files", "a.csv; b.csv"},
	}))

	want := `"Section","Field","Value"` + "\n" +
		`"Basic Information","Legal Entity Name","St. ""Mary"" Hospital"` + "\n" +
		`"Site Information","Uploaded Files","a.csv; b.csv"`
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVFullAnswers(t *testing.T) {
	var buf bytes.Buffer
	rows := Rows(sampleAnswers())
	require.NoError(t, WriteCSV(&buf, rows))

	lines := strings.Split(buf.String(), "\n")
	assert.Len(t, lines, len(rows)+1)
	assert.Contains(t, lines, `"Basic Information","Email Verified","No"`)
}

func TestFilenameUsesUTCDate(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	now := time.Date(2024, 3, 9, 20, 0, 0, 0, loc)
	assert.Equal(t, "hospital_application_2024-03-10.csv", Filename("csv", now))
	assert.Equal(t, "hospital_application_2024-03-10.pdf", Filename("pdf", now))
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "(555) 123-4567", FormatPhone("5551234567"))
	assert.Equal(t, "555123", FormatPhone("555123"))
	assert.Equal(t, NotProvided, FormatPhone(""))
}

func TestSiteTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SiteTemplate(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), "Site Name,"))
}

type textOp struct {
	page int
	x, y float64
	text string
	font string
}

// recorder is a Canvas that records drawn text.
type recorder struct {
	page  int
	font  string
	texts []textOp
	rects int
}

func newRecorder() *recorder { return &recorder{page: 1} }

func (r *recorder) AddPage()           { r.page++ }
func (r *recorder) PageWidth() float64 { return 210 }
func (r *recorder) SetFont(style string, size float64) {
	r.font = fmt.Sprintf("%s%g", style, size)
}
func (r *recorder) SetTextColor(int, int, int) {}
func (r *recorder) SetFillColor(int, int, int) {}
func (r *recorder) FillRect(float64, float64, float64, float64) {
	r.rects++
}
func (r *recorder) Text(x, y float64, s string) {
	r.texts = append(r.texts, textOp{page: r.page, x: x, y: y, text: s, font: r.font})
}

func (r *recorder) find(t *testing.T, prefix string) textOp {
	t.Helper()
	for _, op := range r.texts {
		if strings.HasPrefix(op.text, prefix) {
			return op
		}
	}
	t.Fatalf("no text starting with %q", prefix)
	return textOp{}
}

func TestLayoutHeader(t *testing.T) {
	r := newRecorder()
	Layout(r, intake.Answers{}, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))

	title := r.find(t, "Hospital Application Form")
	assert.Equal(t, textOp{page: 1, x: 20, y: 20, text: "Hospital Application Form", font: "B20"}, title)

	gen := r.find(t, "Generated:")
	assert.Equal(t, "Generated: 1/5/2024", gen.text)
	assert.Equal(t, 30.0, gen.y)

	band := r.find(t, SectionBasic)
	assert.Equal(t, 50.0, band.y)
	assert.Equal(t, 23.0, band.x)
	assert.Equal(t, "B12", band.font)
	assert.Equal(t, 5, r.rects, "one band per section")
}

func TestLayoutBreaksPageAfterCursorPasses270(t *testing.T) {
	r := newRecorder()
	Layout(r, intake.Answers{}, time.Now())

	site := r.find(t, "Site Configuration:")
	assert.Equal(t, 1, site.page)
	assert.Equal(t, 268.0, site.y, "a cursor at 268 still fits")

	files := r.find(t, "Uploaded Files:")
	assert.Equal(t, 2, files.page)
	assert.Equal(t, 20.0, files.y)

	for _, op := range r.texts {
		assert.LessOrEqual(t, op.y, 277.0, "%q drawn below the break line", op.text)
	}
}

func TestLayoutBodyLines(t *testing.T) {
	r := newRecorder()
	Layout(r, sampleAnswers(), time.Now())

	assert.Equal(t, "  Work Phone: (555) 123-4567", r.find(t, "  Work Phone:").text)
	assert.Equal(t, "  Cell Phone: Not Provided", r.find(t, "  Cell Phone:").text)
	assert.Equal(t, "  Email: john@test.com (Not Verified)", r.find(t, "  Email: john").text)
	assert.Equal(t, "B10", r.find(t, "Primary Contact:").font)
	assert.Equal(t, "  Name: Jane Smith", r.find(t, "  Name: Jane").text)
	assert.Equal(t, "Services Provided: Emergency Services, Cardiac Surgery", r.find(t, "Services Provided:").text)
	assert.Equal(t, "Thrombolytic Dates: 2024-01-01, 2024-01-02", r.find(t, "Thrombolytic Dates:").text)
	for _, op := range r.texts {
		assert.NotContains(t, op.text, "Thrombectomy Dates:")
	}
}

func TestLayoutMissingLastNameAndStreet(t *testing.T) {
	r := newRecorder()
	a := intake.Answers{}
	a.Leadership.CEO.FirstName = "Jane"
	Layout(r, a, time.Now())

	assert.Equal(t, "  Name: Jane Not Provided", r.find(t, "  Name: Jane").text)
	assert.Equal(t, "  Billing Address: Not Provided, ,  ", r.find(t, "  Billing Address:").text)
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, sampleAnswers(), time.Now()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
