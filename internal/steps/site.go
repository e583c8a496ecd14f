package steps

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/accreditkit/quoteform/pkg/core"
	"github.com/accreditkit/quoteform/pkg/intake"
	"github.com/accreditkit/quoteform/pkg/uploads"
)

// Step 4 events.
const (
	EventSelectLocation   = "select_location"
	EventAddFile          = "add_file"
	EventRemoveFile       = "remove_file"
	EventDownloadTemplate = "download_template"
)

// TemplatePath serves the site list template.
const TemplatePath = "/templates/sites.csv"

const (
	errNoLocation = "Please select a location type to continue."
	errNoFiles    = "Please upload at least one file to continue."
)

// Site is step 4: single or multiple locations, with file metadata for
// multiple. Edits are written straight to the store.
type Site struct {
	base
	redirect string
}

// NewSite creates step 4.
func NewSite(d Deps) *Site {
	return &Site{base: newBase(d)}
}

func (s *Site) Name() string { return NameSite }

// Mount clears the step error.
func (s *Site) Mount(ctx context.Context) error {
	s.resetErrors()
	s.redirect = ""
	return nil
}

// Redirect returns and clears a pending download location.
func (s *Site) Redirect() string {
	r := s.redirect
	s.redirect = ""
	return r
}

func (s *Site) site() intake.Site {
	return s.deps.Store.Answers().Site
}

func (s *Site) update(site intake.Site) {
	s.deps.Store.Update(intake.Partial{Site: &site})
	s.recheck(site)
}

// recheck clears the step error once its condition is satisfied.
func (s *Site) recheck(site intake.Site) {
	switch s.errors.Get("site") {
	case errNoLocation:
		if site.LocationType != "" {
			s.errors.Set("site", "")
		}
	case errNoFiles:
		if site.LocationType != intake.LocationMultiple || len(site.Files) > 0 {
			s.errors.Set("site", "")
		}
	}
}

// AddFiles records accepted upload entries in order.
func (s *Site) AddFiles(entries ...uploads.Entry) {
	site := s.site()
	for _, e := range entries {
		site.Files = append(site.Files, e.Descriptor())
	}
	s.update(site)
}

// HandleEvent handles step 4 events.
func (s *Site) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	switch event {
	case EventSelectLocation:
		v := core.String(payload, "value")
		if v != intake.LocationSingle && v != intake.LocationMultiple {
			return core.InvalidPayload(event, "value")
		}
		site := s.site()
		site.LocationType = v
		s.update(site)

	case EventAddFile:
		size, ok := core.Int64(payload, "size")
		if !ok || size < 0 {
			return core.InvalidPayload(event, "size")
		}
		entry, err := uploads.NewEntry(s.deps.Uploads, core.String(payload, "name"), size)
		if err != nil {
			return fmt.Errorf("add file: %w", err)
		}
		s.AddFiles(entry)

	case EventRemoveFile:
		id := core.String(payload, "id")
		site := s.site()
		site.Files = slices.DeleteFunc(site.Files, func(f intake.FileDescriptor) bool { return f.ID == id })
		s.update(site)

	case EventDownloadTemplate:
		s.redirect = TemplatePath

	case EventSave:
		s.saved()

	case EventSubmit:
		site := s.site()
		switch {
		case site.LocationType == "":
			s.errors.Set("site", errNoLocation)
		case site.LocationType == intake.LocationMultiple && len(site.Files) == 0:
			s.errors.Set("site", errNoFiles)
		default:
			s.errors.Set("site", "")
			s.deps.Store.Next()
		}

	default:
		return core.UnknownEvent(event)
	}
	return nil
}

// Render renders step 4.
func (s *Site) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s.render())
		return err
	})
}

func (s *Site) render() string {
	site := s.site()

	card := func(value, title, text string) string {
		cls := "location-card"
		if site.LocationType == value {
			cls += " selected"
		}
		return fmt.Sprintf(`<div class="%s" lv-click="%s"%s><h4 class="card-title">%s</h4><p>%s</p></div>`,
			cls, EventSelectLocation, values{"value": value}, esc(title), esc(text))
	}

	var sb strings.Builder
	sb.WriteString(`<div class="step" data-step="4">`)
	sb.WriteString(section("Do you have multiple sites or locations?",
		`<div class="location-cards">`+
			card(intake.LocationSingle, "Single Location", "We operate from one facility only")+
			card(intake.LocationMultiple, "Multiple Locations", "We have multiple facilities or practice locations")+
			`</div>`))

	if site.LocationType == intake.LocationMultiple {
		var upload strings.Builder
		upload.WriteString(`<div class="upload-area"><h4 class="upload-title">Upload CSV / Excel</h4>`)
		upload.WriteString(`<p>Upload a spreadsheet with all site information</p>`)
		fmt.Fprintf(&upload, `<input type="file" id="fileUpload" accept="%s" multiple lv-upload="/uploads">`, esc(s.deps.Uploads.AcceptAttr()))
		upload.WriteString(`<label for="fileUpload" class="select-button">Select file</label>`)
		upload.WriteString(button("template-button", "Download CSV Template", EventDownloadTemplate, false, nil))
		upload.WriteString(`</div>`)

		if len(site.Files) > 0 {
			upload.WriteString(`<div class="uploaded"><h4 class="uploaded-title">Uploaded</h4><ul>`)
			for _, f := range site.Files {
				fmt.Fprintf(&upload, `<li data-id="%s"><span class="file-name">%s</span> <span class="file-size">%s</span> %s</li>`,
					esc(f.ID), esc(f.Name), esc(f.Size), button("remove-button", "Remove", EventRemoveFile, false, values{"id": f.ID}))
			}
			upload.WriteString(`</ul></div>`)
		}
		sb.WriteString(section("How would you like to add your site information?", upload.String()))
	}

	if msg := s.errors.Get("site"); msg != "" {
		fmt.Fprintf(&sb, `<p class="error-text" role="alert">%s</p>`, esc(msg))
	}
	sb.WriteString(Navigation(NavOptions{ShowPrevious: true}))
	sb.WriteString(`</div>`)
	return sb.String()
}
