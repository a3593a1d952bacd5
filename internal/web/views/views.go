// Package views holds the embedded page templates.
package views

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/yungbote/patternlab/internal/domain"
)

//go:embed templates/*.html
var files embed.FS

// Funcs are the helpers available to every template.
var Funcs = template.FuncMap{
	"langName": func(l domain.Language) string { return l.DisplayName() },
	"scoreClass": func(e *domain.Evaluation) string {
		if e != nil && e.Good() {
			return "good"
		}
		return "bad"
	},
	"published": func(c domain.Challenge) string {
		t, ok := c.PublishedTime()
		if !ok {
			return "-"
		}
		return t.Format("02/01/2006")
	},
	"percent": func(v float64) string { return fmt.Sprintf("%.0f%%", v) },
	"inc":     func(n int) int { return n + 1 },
	"dec":     func(n int) int { return n - 1 },
}

// Parse compiles every embedded template.
func Parse() (*template.Template, error) {
	t, err := template.New("").Funcs(Funcs).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}
