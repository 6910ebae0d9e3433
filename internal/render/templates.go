package render

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// ProjectData feeds the whole-file project templates.
type ProjectData struct {
	Name   string
	Secret string
}

// projectTemplates maps a target path in the scaffolded tree to its embedded
// template.
var projectTemplates = map[string]string{
	"apiforge.toml": "apiforge.toml.tmpl",
	"README.md":     "README.md.tmpl",
	".gitignore":    "gitignore.tmpl",
	"go.mod":        "go.mod.tmpl",
	"main.go":       "main.go.tmpl",
}

// ProjectFiles renders the complete template set for a new project.
func ProjectFiles(data ProjectData) (map[string][]byte, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	files := make(map[string][]byte, len(projectTemplates))
	for rel, name := range projectTemplates {
		var buf bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
			return nil, fmt.Errorf("render %s: %w", rel, err)
		}
		files[rel] = buf.Bytes()
	}
	return files, nil
}
