package website

import (
	"fmt"
	"html"
	"strings"
)

// RenderHead generates the <head> section. A non-empty nonce is set on
// the inline stylesheet so it passes the Content-Security-Policy.
func RenderHead(cfg PageConfig, nonce string) string {
	var sb strings.Builder

	themeColor := cfg.ThemeColor
	if themeColor == "" {
		themeColor = Colors["primary"]
	}

	sb.WriteString("<head>\n")

	// Essential meta tags
	sb.WriteString(`<meta charset="UTF-8">` + "\n")
	sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0">` + "\n")

	sb.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(cfg.Title)))
	if cfg.Description != "" {
		sb.WriteString(fmt.Sprintf(`<meta name="description" content="%s">`+"\n", html.EscapeString(cfg.Description)))
	}
	sb.WriteString(fmt.Sprintf(`<meta name="theme-color" content="%s">`+"\n", html.EscapeString(themeColor)))

	// The form holds personal data.
	sb.WriteString(`<meta name="robots" content="noindex, nofollow">` + "\n")

	if nonce != "" {
		sb.WriteString(fmt.Sprintf(`<style nonce="%s">`, html.EscapeString(nonce)))
	} else {
		sb.WriteString("<style>")
	}
	sb.WriteString(RenderStyles())
	sb.WriteString("</style>\n")

	if cfg.ScriptSrc != "" {
		sb.WriteString(fmt.Sprintf(`<script src="%s" defer></script>`+"\n", html.EscapeString(cfg.ScriptSrc)))
	}

	sb.WriteString("</head>\n")
	return sb.String()
}

// RenderDocument wraps the rendered form in a complete HTML document.
// The root element carries the endpoints the client script talks to.
func RenderDocument(cfg PageConfig, nonce, form string) string {
	lang := cfg.Language
	if lang == "" {
		lang = "en"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="%s">
%s<body>
<a class="skip-link" href="#quoteform">Skip to form</a>
<main id="quoteform" data-live="%s" data-events="%s" data-form="%s">
%s
</main>
</body>
</html>`, lang, RenderHead(cfg, nonce),
		html.EscapeString(cfg.LivePath), html.EscapeString(cfg.EventsPath), html.EscapeString(cfg.FormPath),
		form)
}
