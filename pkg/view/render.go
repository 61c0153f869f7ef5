package view

import (
	"embed"
	"html/template"
	"io"

	"github.com/matst80/slask-storefront/pkg/catalog"
)

//go:embed templates/*.html
var templateFiles embed.FS

var templates = template.Must(template.ParseFS(templateFiles, "templates/*.html"))

const (
	SurfaceSidebar = "sidebar"
	SurfaceSheet   = "sheet"
)

// SurfaceData pairs the shared model with the name of the surface rendering
// it. The name only prefixes element ids.
type SurfaceData struct {
	Surface string
	Model   Model
}

type PageData struct {
	Filters Model
	Result  *catalog.Result
}

func (PageData) Surface(name string, m Model) SurfaceData {
	return SurfaceData{Surface: name, Model: m}
}

// Sidebar renders the wide viewport filter panel.
func Sidebar(w io.Writer, m Model) error {
	return templates.ExecuteTemplate(w, SurfaceSidebar, SurfaceData{Surface: SurfaceSidebar, Model: m})
}

// Sheet renders the collapsible narrow viewport panel from the same model.
func Sheet(w io.Writer, m Model) error {
	return templates.ExecuteTemplate(w, SurfaceSheet, SurfaceData{Surface: SurfaceSheet, Model: m})
}

func Page(w io.Writer, m Model, result *catalog.Result) error {
	if result == nil {
		result = &catalog.Result{}
	}
	return templates.ExecuteTemplate(w, "page", PageData{Filters: m, Result: result})
}
