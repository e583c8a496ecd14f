package website

import (
	"fmt"
	"sort"
	"strings"
)

// Color palette. The primary blue matches the section bands of the PDF
// export (RGB 0,82,165).
var Colors = map[string]string{
	// Backgrounds
	"bg":      "#F5F7FA",
	"bgAlt":   "#FFFFFF",
	"bgHover": "#EEF3F9",

	// Text
	"text":      "#1F2937",
	"textMuted": "#4B5563",
	"textDim":   "#6B7280",

	// Brand
	"primary":      "#0052A5",
	"primaryHover": "#003F80",
	"primaryLight": "#E6EEF7",

	// Status
	"success": "#047857",
	"warning": "#B45309",
	"danger":  "#B91C1C",

	// Borders
	"border":      "#D1D5DB",
	"borderLight": "#E5E7EB",
}

// Typography uses system font stack for instant loading
var FontFamily = `system-ui, -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif`

// StyleOption allows customizing the generated CSS
type StyleOption func(*styleConfig)

type styleConfig struct {
	customColors map[string]string
	includeReset bool
}

// WithCustomColors overrides default colors
func WithCustomColors(colors map[string]string) StyleOption {
	return func(cfg *styleConfig) {
		for k, v := range colors {
			cfg.customColors[k] = v
		}
	}
}

// WithReset includes a CSS reset
func WithReset(include bool) StyleOption {
	return func(cfg *styleConfig) {
		cfg.includeReset = include
	}
}

// RenderStyles generates the CSS for the form page.
func RenderStyles(opts ...StyleOption) string {
	cfg := &styleConfig{
		customColors: make(map[string]string),
		includeReset: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	colors := make(map[string]string, len(Colors))
	for k, v := range Colors {
		colors[k] = v
	}
	for k, v := range cfg.customColors {
		colors[k] = v
	}

	var sb strings.Builder
	if cfg.includeReset {
		sb.WriteString(cssReset())
	}
	sb.WriteString(cssVariables(colors))
	sb.WriteString(cssBase())
	sb.WriteString(cssProgress())
	sb.WriteString(cssFields())
	sb.WriteString(cssCards())
	sb.WriteString(cssButtons())
	sb.WriteString(cssReview())
	sb.WriteString(cssAccessibility())
	sb.WriteString(cssResponsive())
	return sb.String()
}

func cssReset() string {
	return `
*,*::before,*::after{box-sizing:border-box;margin:0;padding:0}
html{-webkit-text-size-adjust:100%}
body{line-height:1.5;-webkit-font-smoothing:antialiased}
input,button,textarea,select{font:inherit}
a{color:inherit}
`
}

func cssVariables(colors map[string]string) string {
	names := make([]string, 0, len(colors))
	for name := range colors {
		names = append(names, name)
	}
	sort.Strings(names)

	vars := make([]string, 0, len(names))
	for _, name := range names {
		vars = append(vars, fmt.Sprintf("--color-%s:%s", name, colors[name]))
	}
	return fmt.Sprintf(`:root{%s;--font-sans:%s}`, strings.Join(vars, ";"), FontFamily)
}

func cssBase() string {
	return `
body{font-family:var(--font-sans);background:var(--color-bg);color:var(--color-text);min-height:100vh}
.form-container{max-width:960px;margin:2rem auto;padding:2rem;background:var(--color-bgAlt);border-radius:0.75rem;box-shadow:0 1px 3px rgba(0,0,0,0.08)}
.main-title{font-size:1.5rem;font-weight:700;margin-bottom:1.5rem}
.section{margin-bottom:2rem}
.section-title{font-size:1.125rem;font-weight:600;color:var(--color-primary);margin-bottom:1rem}
.section-subtitle{color:var(--color-textMuted);margin-bottom:1rem}
.helper-text{font-size:0.875rem;color:var(--color-textDim)}
.divider{border:none;border-top:1px solid var(--color-borderLight);margin:1.5rem 0}
.notice{padding:0.75rem 1rem;margin-bottom:1rem;border-radius:0.5rem;background:var(--color-primaryLight);color:var(--color-primary);font-weight:600}
`
}

func cssProgress() string {
	return `
.progress-bar{margin-bottom:2rem}
.title-section{display:flex;justify-content:space-between;align-items:baseline;margin-bottom:0.75rem}
.title{font-size:1.25rem;font-weight:700}
.step-text{color:var(--color-textMuted)}
.progress-lines{display:grid;grid-template-columns:repeat(6,1fr);gap:0.5rem}
.step .line{height:4px;border-radius:2px;background:var(--color-border)}
.step.completed .line{background:var(--color-success)}
.step.current .line{background:var(--color-primary)}
.step-label{display:block;font-size:0.75rem;color:var(--color-textDim);margin-top:0.25rem}
.step.current .step-label{color:var(--color-primary);font-weight:600}
`
}

func cssFields() string {
	return `
.form-row{display:grid;grid-template-columns:1fr;gap:1rem}
.form-group{display:flex;flex-direction:column;gap:0.25rem;margin-bottom:1rem}
.label,.contact-label{font-weight:600;font-size:0.875rem}
.required{color:var(--color-danger)}
.input,.select,.search,.contact-input{padding:0.5rem 0.75rem;border:1px solid var(--color-border);border-radius:0.375rem;background:var(--color-bgAlt);min-height:2.5rem}
.input:focus,.select:focus,.search:focus{outline:2px solid var(--color-primary);outline-offset:1px}
.input:disabled{background:var(--color-bg);color:var(--color-textDim)}
.input.error,.select.error{border-color:var(--color-danger)}
.error-text{color:var(--color-danger);font-size:0.8125rem}
.checkbox,.radio-option{display:flex;align-items:center;gap:0.5rem;margin-bottom:0.5rem}
.radio-group{display:grid;gap:0.25rem}
.verification{display:flex;align-items:center;gap:0.5rem;font-size:0.875rem}
.verified{color:var(--color-success)}
.not-verified{color:var(--color-warning)}
.tags{display:flex;flex-wrap:wrap;gap:0.5rem;margin-top:0.5rem}
.tag{display:inline-flex;align-items:center;gap:0.25rem;padding:0.25rem 0.5rem;border-radius:9999px;background:var(--color-primaryLight);color:var(--color-primary);font-size:0.8125rem}
`
}

func cssCards() string {
	return `
.location-cards{display:grid;grid-template-columns:1fr;gap:1rem;margin-bottom:1.5rem}
.location-card{padding:1.25rem;border:2px solid var(--color-border);border-radius:0.5rem;cursor:pointer}
.location-card.selected{border-color:var(--color-primary);background:var(--color-primaryLight)}
.card-title{font-weight:600;margin-bottom:0.25rem}
.upload-area{padding:1.5rem;border:2px dashed var(--color-border);border-radius:0.5rem;text-align:center}
.upload-title,.uploaded-title{font-weight:600;margin-bottom:0.5rem}
.uploaded{display:flex;justify-content:space-between;align-items:center;padding:0.5rem 0;border-bottom:1px solid var(--color-borderLight)}
.file-size{color:var(--color-textDim);font-size:0.8125rem}
.contact-section{padding:1rem;border:1px solid var(--color-borderLight);border-radius:0.5rem;margin-bottom:1rem}
.contact-title{font-weight:600;margin-bottom:0.75rem}
.service-tabs{display:flex;flex-wrap:wrap;gap:0.5rem;margin-bottom:1rem}
.tab{padding:0.375rem 0.75rem;border:1px solid var(--color-border);border-radius:9999px;background:var(--color-bgAlt);cursor:pointer}
.tab.active{background:var(--color-primary);border-color:var(--color-primary);color:#FFFFFF}
.category{margin-bottom:1.5rem}
.category-title{font-weight:600;margin-bottom:0.5rem}
.service-contact{display:grid;grid-template-columns:1fr;gap:0.5rem;margin:0 0 1rem 1.75rem}
`
}

func cssButtons() string {
	// 44px minimum tap target (2.75rem)
	return `
button{cursor:pointer;min-height:2.75rem;padding:0.5rem 1.25rem;border-radius:0.5rem;font-weight:600;border:1px solid var(--color-border);background:var(--color-bgAlt);color:var(--color-text)}
button:disabled{opacity:0.5;cursor:not-allowed}
button:focus-visible{outline:2px solid var(--color-primary);outline-offset:2px}
.continue-button,.submit-button,.select-button,.verify-button,.export-button{background:var(--color-primary);border-color:var(--color-primary);color:#FFFFFF}
.continue-button:hover:not(:disabled),.submit-button:hover:not(:disabled){background:var(--color-primaryHover)}
.exit-button,.remove-button,.tag-remove{color:var(--color-danger)}
.tag-remove{min-height:auto;padding:0 0.25rem;border:none;background:transparent}
.navigation{display:flex;justify-content:space-between;gap:1rem;margin-top:2rem;padding-top:1.5rem;border-top:1px solid var(--color-borderLight)}
.left-buttons,.right-buttons{display:flex;gap:0.75rem}
.export-buttons{display:flex;gap:0.75rem;margin-top:1rem}
.export-button{display:inline-flex;align-items:center;padding:0.5rem 1.25rem;border-radius:0.5rem;text-decoration:none}
`
}

func cssReview() string {
	return `
.review-section{border:1px solid var(--color-borderLight);border-radius:0.5rem;margin-bottom:1rem}
.section-header{display:flex;justify-content:space-between;align-items:center;padding:0.75rem 1rem;background:var(--color-bg);cursor:pointer}
.section-content{padding:1rem}
.info-table{display:grid;gap:0.25rem}
.info-row{display:grid;grid-template-columns:1fr;gap:0.25rem;padding:0.375rem 0;border-bottom:1px solid var(--color-borderLight)}
.info-row .label{color:var(--color-textMuted)}
.submit-section{margin-top:2rem;padding:1.5rem;border-radius:0.5rem;background:var(--color-primaryLight)}
.submit-title{font-size:1.125rem;font-weight:700;margin-bottom:0.75rem}
.certification-check{margin-bottom:0.75rem}
.disclaimer{font-size:0.8125rem;color:var(--color-textMuted)}
`
}

func cssAccessibility() string {
	return `
.sr-only{position:absolute;width:1px;height:1px;padding:0;margin:-1px;overflow:hidden;clip:rect(0,0,0,0);white-space:nowrap;border:0}
.skip-link{position:absolute;top:-40px;left:0;background:var(--color-primary);color:#FFFFFF;padding:0.5rem 1rem;z-index:1000;font-weight:600}
.skip-link:focus{top:0}
@media(prefers-reduced-motion:reduce){*{transition-duration:0.01ms!important}}
`
}

func cssResponsive() string {
	// Mobile-first: breakpoints use min-width
	return `
@media(min-width:768px){
.form-row{grid-template-columns:repeat(2,1fr)}
.location-cards{grid-template-columns:repeat(2,1fr)}
.service-contact{grid-template-columns:repeat(3,1fr)}
.info-row{grid-template-columns:2fr 3fr}
}
@media(max-width:479px){
.form-container{margin:0;padding:1rem;border-radius:0}
.navigation{flex-direction:column-reverse}
}
`
}
