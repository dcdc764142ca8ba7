// Package templates holds the server-rendered pages and the echo.Renderer
// that executes them.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/pkg/storage"
	"github.com/labstack/echo/v4"
)

//go:embed html
var files embed.FS

const (
	layout   = "html/base.html"
	partials = "html/includes.html"
)

// Renderer executes a page inside the base layout. Pages are addressed by
// their path below html/, e.g. "posts/index.html".
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page. media resolves stored image paths to URLs.
func NewRenderer(media storage.Store) (*Renderer, error) {
	funcs := template.FuncMap{
		"media": media.URL,
		"date": func(t time.Time) string {
			return t.Format("2 January 2006")
		},
	}

	r := &Renderer{pages: map[string]*template.Template{}}
	err := fs.WalkDir(files, "html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path == layout || path == partials || !strings.HasSuffix(path, ".html") {
			return nil
		}
		t, err := template.New("base.html").Funcs(funcs).ParseFS(files, layout, partials, path)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		r.pages[strings.TrimPrefix(path, "html/")] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Has reports whether name is a known page
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Render implements echo.Renderer. data must be an echo.Map (or nil); the
// common context is merged into it.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	ctx := echo.Map{}
	if m, ok := data.(echo.Map); ok {
		for k, v := range m {
			ctx[k] = v
		}
	} else if data != nil {
		ctx["Data"] = data
	}
	ctx["Year"] = time.Now().Year()
	ctx["Viewer"] = middleware.CurrentUser(c)
	ctx["CSRF"], _ = c.Get("csrf").(string)
	ctx["Path"] = c.Request().URL.Path
	if _, ok := ctx["Errors"]; !ok {
		ctx["Errors"] = map[string]string{}
	}
	return t.ExecuteTemplate(w, "base.html", ctx)
}
