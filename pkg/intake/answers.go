// Package intake holds the quote-request answers and the store that steps mutate.
package intake

import "slices"

// Location types for Site.LocationType.
const (
	LocationSingle   = "single"
	LocationMultiple = "multiple"
)

// PrimaryContact is the organization's primary contact collected in step 1.
type PrimaryContact struct {
	FirstName     string `json:"firstName" yaml:"firstName"`
	LastName      string `json:"lastName" yaml:"lastName"`
	Title         string `json:"title" yaml:"title"`
	WorkPhone     string `json:"workPhone" yaml:"workPhone"`
	CellPhone     string `json:"cellPhone" yaml:"cellPhone"`
	Email         string `json:"email" yaml:"email"`
	EmailVerified bool   `json:"emailVerified" yaml:"emailVerified"`
}

// Organization is the identity section.
type Organization struct {
	LegalEntityName   string         `json:"legalEntityName" yaml:"legalEntityName"`
	DoingBusinessAs   string         `json:"doingBusinessAs" yaml:"doingBusinessAs"`
	SameAsLegalEntity bool           `json:"sameAsLegalEntity" yaml:"sameAsLegalEntity"`
	Primary           PrimaryContact `json:"primary" yaml:"primary"`
}

// Contact is a leadership contact block.
type Contact struct {
	FirstName     string `json:"firstName" yaml:"firstName"`
	LastName      string `json:"lastName" yaml:"lastName"`
	Phone         string `json:"phone" yaml:"phone"`
	Email         string `json:"email" yaml:"email"`
	SameAsPrimary bool   `json:"sameAsPrimary" yaml:"sameAsPrimary"`
}

// LinkTo copies the primary contact into c and marks it linked.
func (c *Contact) LinkTo(p PrimaryContact) {
	c.FirstName = p.FirstName
	c.LastName = p.LastName
	c.Phone = p.WorkPhone
	c.Email = p.Email
	c.SameAsPrimary = true
}

// Unlink clears the flag. The last synced values stay in place.
func (c *Contact) Unlink() {
	c.SameAsPrimary = false
}

// Address is a postal address.
type Address struct {
	Street string `json:"street" yaml:"street"`
	City   string `json:"city" yaml:"city"`
	State  string `json:"state" yaml:"state"`
	ZIP    string `json:"zip" yaml:"zip"`
}

// Contact block keys.
const (
	BlockCEO       = "ceo"
	BlockQuality   = "quality"
	BlockInvoicing = "invoicing"
)

// Blocks lists the contact block keys in display order.
var Blocks = []string{BlockCEO, BlockQuality, BlockInvoicing}

// Leadership is the leadership contacts section.
type Leadership struct {
	CEO       Contact `json:"ceo" yaml:"ceo"`
	Quality   Contact `json:"quality" yaml:"quality"`
	Invoicing Contact `json:"invoicing" yaml:"invoicing"`
	Billing   Address `json:"billing" yaml:"billing"`
}

// Block returns the contact block for key, or nil.
func (l *Leadership) Block(key string) *Contact {
	switch key {
	case BlockCEO:
		return &l.CEO
	case BlockQuality:
		return &l.Quality
	case BlockInvoicing:
		return &l.Invoicing
	}
	return nil
}

// Resync recopies the primary contact into every linked block.
func (l *Leadership) Resync(p PrimaryContact) {
	for _, key := range Blocks {
		if c := l.Block(key); c.SameAsPrimary {
			c.LinkTo(p)
		}
	}
}

// FileDescriptor is the metadata kept for an uploaded file.
type FileDescriptor struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Size string `json:"size" yaml:"size"`
}

// Site is the site information section.
type Site struct {
	LocationType string           `json:"locationType" yaml:"locationType"`
	Files        []FileDescriptor `json:"files" yaml:"files"`
}

// ServiceContact is the contact attached to a selected service.
type ServiceContact struct {
	Name  string `json:"name" yaml:"name"`
	Phone string `json:"phone" yaml:"phone"`
	Email string `json:"email" yaml:"email"`
}

// ServiceEntry is one selected service.
type ServiceEntry struct {
	Name    string         `json:"name" yaml:"name"`
	Contact ServiceContact `json:"contact" yaml:"contact"`
}

// Services is the services and certifications section.
type Services struct {
	Selected                  []ServiceEntry `json:"selected" yaml:"selected"`
	OtherServiceOpen          bool           `json:"otherServiceOpen" yaml:"otherServiceOpen"`
	OtherService              string         `json:"otherService" yaml:"otherService"`
	Standards                 []string       `json:"standards" yaml:"standards"`
	ApplicationDate           string         `json:"applicationDate" yaml:"applicationDate"`
	StrokeCertificationExpiry string         `json:"strokeCertificationExpiry" yaml:"strokeCertificationExpiry"`
	ThrombolyticDates         []string       `json:"thrombolyticDates" yaml:"thrombolyticDates"`
	ThrombectomyDates         []string       `json:"thrombectomyDates" yaml:"thrombectomyDates"`
}

// Index returns the position of the named service in Selected, or -1.
func (s *Services) Index(name string) int {
	return slices.IndexFunc(s.Selected, func(e ServiceEntry) bool { return e.Name == name })
}

// Answers is everything collected by the form.
type Answers struct {
	Organization Organization `json:"organization" yaml:"organization"`
	FacilityType string       `json:"facilityType" yaml:"facilityType"`
	Leadership   Leadership   `json:"leadership" yaml:"leadership"`
	Site         Site         `json:"site" yaml:"site"`
	Services     Services     `json:"services" yaml:"services"`
}

// Clone returns a deep copy of a.
func (a Answers) Clone() Answers {
	out := a
	out.Site.Files = slices.Clone(a.Site.Files)
	out.Services = a.Services.clone()
	return out
}

func (s Services) clone() Services {
	out := s
	out.Selected = slices.Clone(s.Selected)
	out.Standards = slices.Clone(s.Standards)
	out.ThrombolyticDates = slices.Clone(s.ThrombolyticDates)
	out.ThrombectomyDates = slices.Clone(s.ThrombectomyDates)
	return out
}

// Partial is a sectioned update. Non-nil sections replace the stored ones.
type Partial struct {
	Organization *Organization
	FacilityType *string
	Leadership   *Leadership
	Site         *Site
	Services     *Services
}
