package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/accreditkit/quoteform/pkg/intake"
)

// Canvas is the drawing surface the PDF layout writes to.
// Coordinates are millimetres from the top-left corner of the page.
type Canvas interface {
	AddPage()
	PageWidth() float64
	SetFont(style string, size float64)
	SetTextColor(r, g, b int)
	SetFillColor(r, g, b int)
	FillRect(x, y, w, h float64)
	Text(x, y float64, s string)
}

// Layout constants, in millimetres.
const (
	pageTop    = 20.0
	margin     = 20.0
	lineHeight = 7.0
	pageBreakY = 270.0
)

var bandColor = [3]int{0, 82, 165}

type layout struct {
	c        Canvas
	y        float64
	maxWidth float64
}

// line draws one 10pt body line, starting a new page first when the
// cursor has passed the break line.
func (l *layout) line(s string, bold bool) {
	if l.y > pageBreakY {
		l.c.AddPage()
		l.y = pageTop
	}
	style := ""
	if bold {
		style = "B"
	}
	l.c.SetFont(style, 10)
	l.c.Text(margin, l.y, s)
	l.y += lineHeight
}

func (l *layout) section(title string) {
	l.y += 5
	l.c.SetFillColor(bandColor[0], bandColor[1], bandColor[2])
	l.c.FillRect(margin, l.y-5, l.maxWidth, 8)
	l.c.SetTextColor(255, 255, 255)
	l.c.SetFont("B", 12)
	l.c.Text(margin+3, l.y, title)
	l.c.SetTextColor(0, 0, 0)
	l.y += 10
}

func (l *layout) gap() {
	l.y += 3
}

// Layout draws the application summary onto c, which must already have
// a first page.
func Layout(c Canvas, a intake.Answers, now time.Time) {
	l := &layout{c: c, y: pageTop, maxWidth: c.PageWidth() - 2*margin}

	c.SetFont("B", 20)
	c.SetTextColor(bandColor[0], bandColor[1], bandColor[2])
	c.Text(margin, l.y, "Hospital Application Form")
	l.y += 10
	c.SetTextColor(100, 100, 100)
	c.SetFont("", 10)
	c.Text(margin, l.y, "Generated: "+now.Format("1/2/2006"))
	c.SetTextColor(0, 0, 0)
	l.y += 15

	org := a.Organization
	p := org.Primary
	verified := "Not Verified"
	if p.EmailVerified {
		verified = "Verified"
	}

	l.section(SectionBasic)
	l.line("Legal Entity Name: "+or(org.LegalEntityName, NotProvided), false)
	l.line("d/b/a Name: "+or(org.DoingBusinessAs, NotProvided), false)
	l.gap()
	l.line("Primary Contact:", true)
	l.line("  Name: "+p.FirstName+" "+p.LastName, false)
	l.line("  Title: "+or(p.Title, NotProvided), false)
	l.line("  Work Phone: "+FormatPhone(p.WorkPhone), false)
	l.line("  Cell Phone: "+FormatPhone(p.CellPhone), false)
	l.line(fmt.Sprintf("  Email: %s (%s)", or(p.Email, NotProvided), verified), false)

	l.section(SectionFacility)
	l.line("Facility Type: "+or(a.FacilityType, NotSelected), false)

	l.section(SectionLeadership)
	lead := a.Leadership
	contacts := []struct {
		title string
		c     intake.Contact
	}{
		{"CEO:", lead.CEO},
		{"Director of Quality:", lead.Quality},
		{"Invoicing Contact:", lead.Invoicing},
	}
	for i, ct := range contacts {
		if i > 0 {
			l.gap()
		}
		l.line(ct.title, true)
		l.line("  Name: "+ct.c.FirstName+" "+or(ct.c.LastName, NotProvided), false)
		l.line("  Phone: "+FormatPhone(ct.c.Phone), false)
		l.line("  Email: "+or(ct.c.Email, NotProvided), false)
	}
	l.line("  Billing Address: "+BillingAddress(lead.Billing, NotProvided), false)

	l.section(SectionSite)
	l.line("Site Configuration: "+SiteConfiguration(a.Site.LocationType), false)
	l.line("Uploaded Files: "+joinOr(FileNames(a.Site), ", ", NoFiles), false)

	svc := a.Services
	l.section(SectionServices)
	l.line("Services Provided: "+joinOr(ServiceNames(svc), ", ", NoServices), false)
	l.line("Standards to Apply: "+joinOr(svc.Standards, ", ", NoStandards), false)
	l.line("Date of Application: "+or(svc.ApplicationDate, NotProvided), false)
	l.line("Stroke Certification Expiry: "+or(svc.StrokeCertificationExpiry, NotProvided), false)
	if len(svc.ThrombolyticDates) > 0 {
		l.line("Thrombolytic Dates: "+strings.Join(svc.ThrombolyticDates, ", "), false)
	}
	if len(svc.ThrombectomyDates) > 0 {
		l.line("Thrombectomy Dates: "+strings.Join(svc.ThrombectomyDates, ", "), false)
	}
}

// WritePDF renders answers as an A4 portrait PDF.
func WritePDF(w io.Writer, a intake.Answers, now time.Time) error {
	c := NewPDFCanvas()
	Layout(c, a, now)
	return c.Output(w)
}

// PDFCanvas draws onto an fpdf document using the Helvetica core font.
type PDFCanvas struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// NewPDFCanvas creates an A4 portrait document with one blank page.
// Automatic page breaks are off; the layout breaks pages itself.
func NewPDFCanvas() *PDFCanvas {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("quoteform", true)
	pdf.SetTitle("Hospital Application Form", true)
	pdf.AddPage()
	return &PDFCanvas{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (c *PDFCanvas) AddPage() { c.pdf.AddPage() }

func (c *PDFCanvas) PageWidth() float64 {
	w, _ := c.pdf.GetPageSize()
	return w
}

func (c *PDFCanvas) SetFont(style string, size float64) {
	c.pdf.SetFont("Helvetica", style, size)
}

func (c *PDFCanvas) SetTextColor(r, g, b int) { c.pdf.SetTextColor(r, g, b) }

func (c *PDFCanvas) SetFillColor(r, g, b int) {
	c.pdf.SetDrawColor(r, g, b)
	c.pdf.SetFillColor(r, g, b)
}

func (c *PDFCanvas) FillRect(x, y, w, h float64) { c.pdf.Rect(x, y, w, h, "F") }

func (c *PDFCanvas) Text(x, y float64, s string) { c.pdf.Text(x, y, c.tr(s)) }

// Output writes the finished document.
func (c *PDFCanvas) Output(w io.Writer) error {
	if err := c.pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := c.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
