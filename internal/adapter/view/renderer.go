package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/pkg/flash"
)

// Page names
const (
	PageLogin             = "login"
	PageError             = "error"
	PageDashboard         = "dashboard"
	PageContactList       = "contact_list"
	PageContactDetail     = "contact_detail"
	PageContactForm       = "contact_form"
	PageContactDelete     = "contact_delete"
	PageContactEmails     = "contact_emails"
	PageEmailDelete       = "email_delete"
	PageInteractionList   = "interaction_list"
	PageInteractionForm   = "interaction_form"
	PageInteractionDetail = "interaction_detail"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the embedded assets rooted at the static directory
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Page is the data every template receives
type Page struct {
	Title   string
	User    *entities.User
	Flashes []flash.Message
	Path    string
	Data    interface{}
}

// Renderer renders the embedded pages inside the base layout
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

// NewRenderer parses every page together with the layout and partials
func NewRenderer() (*Renderer, error) {
	shared := []string{"templates/base.html", "templates/partials/*.html"}

	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		if name == "base" {
			continue
		}
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, append(shared, file)...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render implements echo.Renderer
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "base", data)
}

// Has reports whether a page exists
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}
