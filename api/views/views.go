// Package views renders the server-side HTML pages.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/angelmondragon/agridiary/api/requestctx"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	"github.com/angelmondragon/agridiary/pkg/i18n"
)

const (
	PageList  = "list"
	PageForm  = "form"
	PageError = "error"
)

//go:embed templates/*.html
var files embed.FS

// Renderer writes a named page.
type Renderer interface {
	Render(w io.Writer, name string, page Page) error
}

// Page is the data every template receives. Content holds a ListView,
// FormView or ErrorView depending on the page.
type Page struct {
	Title   string
	Locale  string
	User    *models.User
	Flash   *requestctx.Flash
	Site    requestctx.Site
	Content any
}

// Templates is the embedded html/template Renderer. Each page is parsed
// together with the shared layout into its own set.
type Templates struct {
	pages map[string]*template.Template
}

func New() (*Templates, error) {
	funcs := template.FuncMap{
		"t": i18n.T,
		"tf": func(locale, key string, args ...any) string {
			return fmt.Sprintf(i18n.T(locale, key), args...)
		},
	}
	pages := make(map[string]*template.Template, 3)
	for _, name := range []string{PageList, PageForm, PageError} {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Templates{pages: pages}, nil
}

func (t *Templates) Render(w io.Writer, name string, page Page) error {
	tmpl, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	if page.Locale == "" {
		page.Locale = i18n.Default
	}
	return tmpl.ExecuteTemplate(w, "layout", page)
}

// ListView is a sortable, filterable, paged table.
type ListView struct {
	BasePath string
	Filter   string
	SortBy   string
	Order    string
	Columns  []Column
	Rows     []Row
	Total    int64
	Pages    []PageLink

	PreviousURL string
	NextURL     string
	NewURL      string
	ExportURL   string
	// Editable adds edit and delete actions to every row.
	Editable bool
	Links    []Link
	Buttons  []Button
}

type Column struct {
	Label string
	// SortURL is empty for columns that cannot be sorted.
	SortURL string
	Active  bool
	Order   string
}

type Row struct {
	Cells     []string
	EditURL   string
	DeleteURL string
}

type PageLink struct {
	Number  int
	URL     string
	Current bool
}

type Link struct {
	Label string
	URL   string
}

// Button is a single-button POST form guarded by a confirmation prompt.
type Button struct {
	Label   string
	Action  string
	Confirm string
}

// FormView is a generic form.
type FormView struct {
	Action    string
	Multipart bool
	Error     string
	Note      string
	Hidden    []Input
	Inputs    []Input
	Submit    string
	Links     []Link
}

// Input types understood by the form template besides the plain HTML ones.
const (
	InputSelect   = "select"
	InputTextarea = "textarea"
	InputCheckbox = "checkbox"
)

type Input struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Step     string
	Required bool
	Checked  bool
	Options  []Option
	Error    string
}

type Option struct {
	Value    string
	Label    string
	Selected bool
}

type ErrorView struct {
	Status  int
	Message string
}
