package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"
)

const (
	PageDashboard = "dashboard.html"
	PageLogin     = "login.html"

	layout = "layout.html"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"clock": func(t time.Time) string { return t.Local().Format("15:04") },
	"stamp": func(t time.Time) string { return t.Local().Format("2006-01-02 15:04:05") },
}

// PageRenderer renders pages, each parsed together with the shared layout.
type PageRenderer struct {
	templates map[string]*template.Template
}

func NewPageRenderer() (*PageRenderer, error) {
	templates := make(map[string]*template.Template)

	for _, page := range []string{PageDashboard, PageLogin} {
		t, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/"+layout, "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", page, err)
		}

		templates[page] = t
	}

	return &PageRenderer{templates: templates}, nil
}

func MustNewPageRenderer() *PageRenderer {
	r, err := NewPageRenderer()
	if err != nil {
		panic(err)
	}

	return r
}

func (pr *PageRenderer) Render(w io.Writer, name string, data any) error {
	t, ok := pr.templates[name]
	if !ok {
		return fmt.Errorf("template is missing: %s", name)
	}

	return t.ExecuteTemplate(w, layout, data)
}
