// Package export renders form answers as CSV and PDF documents.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/accreditkit/quoteform/pkg/intake"
)

// Section titles, in emission order.
const (
	SectionBasic      = "Basic Information"
	SectionFacility   = "Facility Details"
	SectionLeadership = "Leadership Contacts"
	SectionSite       = "Site Information"
	SectionServices   = "Services & Certifications"
)

// Sections lists the section titles in order.
var Sections = []string{SectionBasic, SectionFacility, SectionLeadership, SectionSite, SectionServices}

// Placeholders for missing values.
const (
	NotProvided  = "Not Provided"
	NotSelected  = "Not Selected"
	NoFiles      = "No files uploaded"
	NoServices   = "No services selected"
	NoStandards  = "No standards selected"
	filePrefix   = "hospital_application_"
	dateFilename = "2006-01-02"
)

// Row is one exported (section, field, value) triple.
type Row struct {
	Section string
	Field   string
	Value   string
}

// Filename returns the download name for ext ("csv" or "pdf") on now's UTC date.
func Filename(ext string, now time.Time) string {
	return filePrefix + now.UTC().Format(dateFilename) + "." + ext
}

// Rows flattens answers into the fixed export order.
func Rows(a intake.Answers) []Row {
	org := a.Organization
	p := org.Primary
	lead := a.Leadership
	svc := a.Services

	rows := []Row{
		{SectionBasic, "Legal Entity Name", or(org.LegalEntityName, NotProvided)},
		{SectionBasic, "d/b/a Name", or(org.DoingBusinessAs, NotProvided)},
		{SectionBasic, "Primary Contact Name", p.FirstName + " " + p.LastName},
		{SectionBasic, "Primary Contact Title", or(p.Title, NotProvided)},
		{SectionBasic, "Work Phone", or(p.WorkPhone, NotProvided)},
		{SectionBasic, "Cell Phone", or(p.CellPhone, NotProvided)},
		{SectionBasic, "Email", or(p.Email, NotProvided)},
		{SectionBasic, "Email Verified", yesNo(p.EmailVerified)},

		{SectionFacility, "Facility Type", or(a.FacilityType, NotSelected)},
	}

	for _, c := range []struct {
		title   string
		contact intake.Contact
	}{
		{"CEO", lead.CEO},
		{"Director of Quality", lead.Quality},
		{"Invoicing Contact", lead.Invoicing},
	} {
		rows = append(rows,
			Row{SectionLeadership, c.title + " Name", c.contact.FirstName + " " + c.contact.LastName},
			Row{SectionLeadership, c.title + " Phone", or(c.contact.Phone, NotProvided)},
			Row{SectionLeadership, c.title + " Email", or(c.contact.Email, NotProvided)},
		)
	}
	rows = append(rows,
		Row{SectionLeadership, "Billing Address", BillingAddress(lead.Billing, "")},

		Row{SectionSite, "Site Configuration", SiteConfiguration(a.Site.LocationType)},
		Row{SectionSite, "Uploaded Files", joinOr(FileNames(a.Site), "; ", NoFiles)},

		Row{SectionServices, "Services Provided", joinOr(ServiceNames(svc), "; ", NoServices)},
		Row{SectionServices, "Standards to Apply", joinOr(svc.Standards, "; ", NoStandards)},
		Row{SectionServices, "Date of Application", or(svc.ApplicationDate, NotProvided)},
		Row{SectionServices, "Stroke Certification Expiry", or(svc.StrokeCertificationExpiry, NotProvided)},
	)
	if len(svc.ThrombolyticDates) > 0 {
		rows = append(rows, Row{SectionServices, "Thrombolytic Dates", strings.Join(svc.ThrombolyticDates, "; ")})
	}
	if len(svc.ThrombectomyDates) > 0 {
		rows = append(rows, Row{SectionServices, "Thrombectomy Dates", strings.Join(svc.ThrombectomyDates, "; ")})
	}
	return rows
}

// FormatPhone renders a 10-digit number as (xxx) xxx-xxxx. Other values
// are returned unchanged, empty ones as NotProvided.
func FormatPhone(phone string) string {
	if len(phone) != 10 {
		return or(phone, NotProvided)
	}
	return fmt.Sprintf("(%s) %s-%s", phone[:3], phone[3:6], phone[6:])
}

// SiteConfiguration labels a location type.
func SiteConfiguration(locationType string) string {
	switch locationType {
	case intake.LocationSingle:
		return "Single Location"
	case intake.LocationMultiple:
		return "Multiple Locations"
	default:
		return NotSelected
	}
}

// BillingAddress formats "street, city, state zip". An empty street is
// replaced with street.
func BillingAddress(a intake.Address, street string) string {
	return fmt.Sprintf("%s, %s, %s %s", or(a.Street, street), a.City, a.State, a.ZIP)
}

// FileNames returns the uploaded file names in order.
func FileNames(s intake.Site) []string {
	names := make([]string, len(s.Files))
	for i, f := range s.Files {
		names[i] = f.Name
	}
	return names
}

// ServiceNames returns the selected service names in selection order.
func ServiceNames(s intake.Services) []string {
	names := make([]string, len(s.Selected))
	for i, e := range s.Selected {
		names[i] = e.Name
	}
	return names
}

func or(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func joinOr(items []string, sep, def string) string {
	if len(items) == 0 {
		return def
	}
	return strings.Join(items, sep)
}
