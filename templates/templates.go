package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin/render"

	"github.com/cppla/miniblog/utils"
)

//go:embed html/*.html
var files embed.FS

// Pages are the templates a handler can render. Each is parsed together with the layout
// and every partial.
var Pages = []string{
	"index.html",
	"detail.html",
	"create.html",
	"edit.html",
	"login.html",
	"logout.html",
	"page_not_found.html",
}

var functions = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("01/02/2006 at 03:04PM")
	},
	"pageURL":       utils.PageURL,
	"renderContent": utils.RenderContent,
}

// Renderer is a gin HTML renderer over the embedded page templates.
type Renderer struct {
	sets map[string]*template.Template
}

// New parses every page once.
func New() (*Renderer, error) {
	r := &Renderer{sets: make(map[string]*template.Template, len(Pages))}
	for _, page := range Pages {
		ts, err := template.New(page).Funcs(functions).ParseFS(files,
			"html/base.html",
			"html/"+page,
			"html/*.partial.html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.sets[page] = ts
	}
	return r, nil
}

// Instance implements render.HTMLRender.
func (r *Renderer) Instance(name string, data any) render.Render {
	return &page{name: name, tmpl: r.sets[name], data: data}
}

type page struct {
	name string
	tmpl *template.Template
	data any
}

// Render executes into a buffer first so a template error never leaves half a page.
func (p *page) Render(w http.ResponseWriter) error {
	p.WriteContentType(w)
	if p.tmpl == nil {
		return fmt.Errorf("template %q not found", p.name)
	}
	buf := new(bytes.Buffer)
	if err := p.tmpl.ExecuteTemplate(buf, "base", p.data); err != nil {
		return fmt.Errorf("render %s: %w", p.name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func (p *page) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if len(header["Content-Type"]) == 0 {
		header["Content-Type"] = []string{"text/html; charset=utf-8"}
	}
}
