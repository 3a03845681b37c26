package view

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	texttemplate "text/template"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates
var templatesFS embed.FS

// ErrRenderFailed wraps every template execution error
var ErrRenderFailed = errors.New("rendering failed")

// Renderer renders the tracker page as HTML (browser) or plain text (CLI)
// Both share the sprig helpers so "Loading..." is decided the same way
type Renderer struct {
	html *template.Template
	text *texttemplate.Template
}

// NewRenderer parses the embedded templates
func NewRenderer() (*Renderer, error) {
	html, err := template.New("page.html").
		Funcs(sprig.HtmlFuncMap()).
		ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}

	text, err := texttemplate.New("page.txt").
		Funcs(sprig.TxtFuncMap()).
		ParseFS(templatesFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}

	return &Renderer{html: html, text: text}, nil
}

// MustNewRenderer is NewRenderer for callers that cannot continue without templates
func MustNewRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// HTML writes the full page
func (r *Renderer) HTML(w io.Writer, page Page) error {
	if err := r.html.ExecuteTemplate(w, "page.html", page); err != nil {
		return fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
	return nil
}

// Text writes the results strip and the map line for terminals
func (r *Renderer) Text(w io.Writer, page Page) error {
	if err := r.text.ExecuteTemplate(w, "page.txt", page); err != nil {
		return fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
	return nil
}
