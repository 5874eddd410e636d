// Package templates renders the small set of HTML pages the server
// shows a browser: the upload landing page and a merged job's view.
//
// Grounded on teacher's templates/templates.go (embed.FS + html/template
// with a func map, ParseFS over *.tmpl).
package templates

import (
	"embed"
	"html/template"
)

var (
	funcMap = map[string]any{
		"add": func(a, b int) int { return a + b },
	}
	// Templates holds every *.tmpl file in this package, parsed once at
	// init time.
	Templates = template.Must(
		template.New("").
			Funcs(funcMap).
			ParseFS(templateFS, "*.tmpl"),
	)

	//go:embed *.tmpl
	templateFS embed.FS
)

// JobTemplateData is passed to job.tmpl for a rendered merge job.
type JobTemplateData struct {
	ID       string
	Names    []string
	Ifdef    string
	Unified  string
	TwoFiles bool
}
