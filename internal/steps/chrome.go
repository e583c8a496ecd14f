package steps

import (
	"fmt"
	"strings"

	"github.com/accreditkit/quoteform/pkg/intake"
)

// Progress renders the step title, the "Step N of 6" counter and the
// step indicator.
func Progress(cat *intake.Catalog, current intake.Step) string {
	title := ""
	if info, ok := cat.Step(current); ok {
		title = info.Title
	}

	var lines strings.Builder
	for _, s := range cat.Steps {
		state := "inactive"
		switch {
		case s.Number < current:
			state = "completed"
		case s.Number == current:
			state = "current"
		}
		fmt.Fprintf(&lines, `<div class="step %s" data-step="%d"><div class="line"></div><span class="step-label">%s</span></div>`,
			state, s.Number, esc(s.Label))
	}

	total := len(cat.Steps)
	return fmt.Sprintf(`<div class="progress-bar" role="navigation" aria-label="Form progress">
<div class="title-section">
	<h2 class="title">%s</h2>
	<span class="step-text" aria-live="polite">Step %d of %d</span>
</div>
<div class="progress-lines" role="progressbar" aria-valuenow="%d" aria-valuemin="1" aria-valuemax="%d">%s</div>
</div>
`, esc(title), current, total, current, total, lines.String())
}

// NavOptions configures the navigation buttons.
type NavOptions struct {
	// ShowPrevious renders Previous instead of Exit.
	ShowPrevious bool

	// ButtonText labels the forward button. Defaults to "Continue".
	ButtonText string

	// Disabled disables the forward button.
	Disabled bool
}

const exitConfirm = "Exit the form? All answers will be cleared."

// Navigation renders Previous/Exit, Save and Continue/Submit.
func Navigation(opts NavOptions) string {
	text := orDefault(opts.ButtonText, "Continue")

	left := button("previous-button", "Previous", EventPrevious, false, nil)
	if !opts.ShowPrevious {
		left = fmt.Sprintf(`<button type="button" class="exit-button" lv-click="%s" lv-confirm="%s"%s>Exit</button>`,
			EventExit, esc(exitConfirm), values{"confirmed": "true"})
	}

	cls := "continue-button"
	if opts.Disabled {
		cls += " disabled"
	}

	return fmt.Sprintf(`<div class="navigation">
<div class="left-buttons">%s</div>
<div class="right-buttons">%s%s</div>
</div>
`, left, button("save-button", "Save", EventSave, false, nil), button(cls, text, EventSubmit, opts.Disabled, nil))
}

// Notice renders a dismissable status message.
func Notice(msg string) string {
	if msg == "" {
		return ""
	}
	return fmt.Sprintf(`<div class="notice" role="status">%s</div>`, esc(msg))
}
