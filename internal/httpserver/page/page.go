// Package page renders the video verification HTML page served at "/",
// substituting the prompt text and generated radio-option markup into
// the embedded pongo2 template.
package page

import (
	_ "embed"
	"fmt"
	"html"
	"sort"

	"github.com/flosch/pongo2/v6"
)

//go:embed video_verification.html
var templateSource string

var compiled *pongo2.Template

func compile() (*pongo2.Template, error) {
	if compiled != nil {
		return compiled, nil
	}
	tpl, err := pongo2.FromString(templateSource)
	if err != nil {
		return nil, err
	}
	compiled = tpl
	return compiled, nil
}

// fallbackHTML is served if the template fails to load or render, so the
// operator still gets something actionable in the browser.
const fallbackHTML = `<!DOCTYPE html><html><body><h1>Video verification unavailable</h1><p>Template failed to render. Check the CLI logs.</p></body></html>`

// Render builds the verification page for promptText and options, where
// options maps a displayed label to its submitted integer value.
func Render(promptText string, options map[string]int) string {
	tpl, err := compile()
	if err != nil {
		return fallbackHTML
	}
	out, err := tpl.Execute(pongo2.Context{
		"prompt_text":        html.EscapeString(promptText),
		"radio_options_html": radioOptionsHTML(options),
	})
	if err != nil {
		return fallbackHTML
	}
	return out
}

// radioOptionsHTML builds one <label><input type=radio>...</label> per
// option, sorted by label for deterministic output.
func radioOptionsHTML(options map[string]int) string {
	labels := make([]string, 0, len(options))
	for label := range options {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	result := ""
	for _, label := range labels {
		value := options[label]
		result += fmt.Sprintf(
			`<label><input type="radio" name="option" value="%d"> %s</label>`,
			value, html.EscapeString(label),
		)
	}
	return result
}
