// Package template renders user-authored message templates against trigger
// event data.
package template

import (
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Render executes templateStr against data and returns the rendered text.
// Templates have access to a "now" function returning the current UTC time in
// RFC 3339 form.
func Render(templateStr string, data any) (string, error) {
	tmpl, err := template.
		New("message").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
		}).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	return buf.String(), nil
}
