package presentation

import (
	"embed"
	"html/template"
	"strings"
)

//go:embed templates/sections.html
var sectionsFS embed.FS

// Funcs are the template functions the section partials call
func Funcs() template.FuncMap {
	return template.FuncMap{"join": strings.Join}
}

// ParseSections adds the section partials to t. Every page that shows an
// analysis renders these same partials from a View; t must already carry
// Funcs.
func ParseSections(t *template.Template) (*template.Template, error) {
	return t.ParseFS(sectionsFS, "templates/sections.html")
}
