// Package website renders the HTML document that hosts the quote form:
// head metadata, the stylesheet and the client script tag. The form
// itself is rendered by the wizard.
package website

// PageConfig defines the configuration for the form page.
type PageConfig struct {
	// Title is the page title (shown in browser tab)
	Title string
	// Description is the meta description
	Description string
	// Language is the page language (default: "en")
	Language string
	// ThemeColor is the mobile browser theme color
	ThemeColor string
	// ScriptSrc is the URL of the client script.
	ScriptSrc string
	// LivePath is the WebSocket endpoint the client connects to.
	LivePath string
	// EventsPath is the HTTP fallback for events.
	EventsPath string
	// FormPath serves the current form fragment.
	FormPath string
}

// DefaultPageConfig returns a PageConfig with sensible defaults.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Title:       "Hospital Application Form",
		Description: "Request a quote for hospital accreditation and certification services.",
		Language:    "en",
		ThemeColor:  Colors["primary"],
		ScriptSrc:   "/assets/quoteform.js",
		LivePath:    "/live",
		EventsPath:  "/events",
		FormPath:    "/form",
	}
}
