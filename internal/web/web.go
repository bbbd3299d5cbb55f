// Package web embeds the landing page served at GET /.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templates embed.FS

// Page parses the embedded templates. The result defines "index.html".
func Page() (*template.Template, error) {
	return template.ParseFS(templates, "templates/*.html")
}

// MustPage is Page for program start-up; it panics on a parse error.
func MustPage() *template.Template {
	return template.Must(Page())
}
