// Package mailer renders outbound documents and delivers them through an
// email provider. Every sender makes exactly one attempt per call.
package mailer

import (
	"embed"
	"fmt"

	"github.com/ignite/newsletter/internal/domain"
	"github.com/osteele/liquid"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// Rendered is a document ready to send.
type Rendered struct {
	Subject  string
	HTMLBody string
	TextBody string
}

type templatePair struct {
	html *liquid.Template
	text *liquid.Template
}

// Renderer turns a domain.Document into HTML and text bodies using the
// embedded Liquid templates. Templates are parsed once; a Renderer is safe
// for concurrent use.
type Renderer struct {
	confirmation templatePair
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	engine := liquid.NewEngine()

	confirmation, err := parsePair(engine, "confirmation")
	if err != nil {
		return nil, err
	}
	return &Renderer{confirmation: confirmation}, nil
}

func parsePair(engine *liquid.Engine, name string) (templatePair, error) {
	var pair templatePair
	for ext, dst := range map[string]**liquid.Template{"html": &pair.html, "txt": &pair.text} {
		path := fmt.Sprintf("templates/%s.%s", name, ext)
		src, err := templateFS.ReadFile(path)
		if err != nil {
			return pair, fmt.Errorf("read template %s: %w", path, err)
		}
		tpl, perr := engine.ParseTemplate(src)
		if perr != nil {
			return pair, fmt.Errorf("parse template %s: %w", path, perr)
		}
		*dst = tpl
	}
	return pair, nil
}

// Render produces the subject and bodies for doc.
func (r *Renderer) Render(doc domain.Document) (*Rendered, error) {
	var (
		pair     templatePair
		bindings map[string]any
	)
	switch kind := doc.Kind.(type) {
	case domain.Confirmation:
		pair = r.confirmation
		bindings = map[string]any{"title": doc.Title, "link": kind.Link}
	default:
		return nil, fmt.Errorf("render: unsupported document kind %T", doc.Kind)
	}

	html, err := pair.html.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	text, err := pair.text.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("render text: %w", err)
	}
	return &Rendered{Subject: doc.Title, HTMLBody: html, TextBody: text}, nil
}
