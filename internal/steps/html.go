package steps

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/accreditkit/quoteform/pkg/forms"
)

// values are extra lv-value-* attributes sent back with an event.
type values map[string]string

func (v values) String() string {
	if len(v) == 0 {
		return ""
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, ` lv-value-%s="%s"`, k, esc(v[k]))
	}
	return sb.String()
}

func esc(s string) string {
	return html.EscapeString(s)
}

func attrIf(cond bool, attr string) string {
	if cond {
		return " " + attr
	}
	return ""
}

func fieldError(msg string) string {
	if msg == "" {
		return ""
	}
	return fmt.Sprintf(`<span class="error-text" role="alert">%s</span>`, esc(msg))
}

func label(f forms.Field) string {
	req := ""
	if f.Required {
		req = ` <span class="required">*</span>`
	}
	return fmt.Sprintf(`<label class="label">%s%s</label>`, esc(f.Label), req)
}

// textInput renders a labelled input bound to event with the field name
// under lv-value-field.
func textInput(f forms.Field, value, errMsg, event string, extra values) string {
	v := values{"field": f.Name}
	for k, x := range extra {
		v[k] = x
	}
	maxlen := ""
	if f.MaxLength > 0 {
		maxlen = fmt.Sprintf(` maxlength="%d"`, f.MaxLength)
	}
	return fmt.Sprintf(`<div class="form-group">
	%s
	<input type="%s" name="%s" class="input%s" value="%s" lv-change="%s"%s%s%s>
	%s
</div>
`, label(f), f.Type, esc(f.Name), errClass(errMsg), esc(value), event, v, maxlen, attrIf(f.Disabled, "disabled"), fieldError(errMsg))
}

func errClass(errMsg string) string {
	if errMsg != "" {
		return " error"
	}
	return ""
}

// selectInput renders a labelled select with a leading placeholder option.
func selectInput(f forms.Field, value, placeholder, errMsg, event string, extra values) string {
	v := values{"field": f.Name}
	for k, x := range extra {
		v[k] = x
	}
	var opts strings.Builder
	fmt.Fprintf(&opts, `<option value="">%s</option>`, esc(placeholder))
	for _, o := range f.Options {
		fmt.Fprintf(&opts, `<option value="%s"%s>%s</option>`, esc(o.Value), attrIf(o.Value == value, "selected"), esc(o.Label))
	}
	return fmt.Sprintf(`<div class="form-group">
	%s
	<select name="%s" class="select%s" lv-change="%s"%s%s>%s</select>
	%s
</div>
`, label(f), esc(f.Name), errClass(errMsg), event, v, attrIf(f.Disabled, "disabled"), opts.String(), fieldError(errMsg))
}

func checkbox(id, text, event string, checked, disabled bool, extra values) string {
	return fmt.Sprintf(`<div class="checkbox">
	<input type="checkbox" id="%s" lv-change="%s"%s%s%s>
	<label for="%s">%s</label>
</div>
`, esc(id), event, extra, attrIf(checked, "checked"), attrIf(disabled, "disabled"), esc(id), esc(text))
}

func button(class, text, event string, disabled bool, extra values) string {
	return fmt.Sprintf(`<button type="button" class="%s" lv-click="%s"%s%s>%s</button>`,
		class, event, extra, attrIf(disabled, "disabled"), esc(text))
}

func section(title, body string) string {
	return fmt.Sprintf(`<section class="section">
<h3 class="section-title">%s</h3>
%s</section>
`, esc(title), body)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func fieldNamed(fs []forms.Field, name string) (forms.Field, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f, true
		}
	}
	return forms.Field{}, false
}

func options(vals ...string) []forms.Option {
	out := make([]forms.Option, len(vals))
	for i, v := range vals {
		out[i] = forms.Option{Value: v, Label: v}
	}
	return out
}
