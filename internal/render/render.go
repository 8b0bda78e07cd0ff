// Package render turns console view models into HTML fragments. Rows carry
// data-action and data-id attributes; the console script dispatches on
// those instead of calling global functions.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/patrickwarner/troyconsole/internal/listing"
	"github.com/patrickwarner/troyconsole/internal/models"
	"github.com/patrickwarner/troyconsole/internal/progress"
	"github.com/patrickwarner/troyconsole/internal/settlement"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer executes the embedded templates.
type Renderer struct {
	t *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	t, err := template.New("console").Funcs(funcs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{t: t}, nil
}

// Must is New for package initialization; it panics on a template error.
func Must() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Render writes the named template. The output is buffered so a failing
// template never leaves a half-written fragment.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Has reports whether a template with that name exists.
func (r *Renderer) Has(name string) bool { return r.t.Lookup(name) != nil }

func funcs() template.FuncMap {
	return template.FuncMap{
		"money":         money,
		"krw":           settlement.FormatKRW,
		"percent":       percent,
		"progressClass": func(n models.Number) string { return progress.ProgressClass(n.Float()) },
		"date":          date,
		"pageURL":       pageURL,
		"int":           func(n models.Number) int64 { return n.Int() },
		"add":           func(a, b int) int { return a + b },
	}
}

func money(n models.Number) string {
	return settlement.FormatKRW(decimal.NewFromFloat(n.Float()))
}

func percent(v any) string {
	switch p := v.(type) {
	case models.Number:
		return strconv.FormatFloat(p.Float(), 'f', 0, 64) + "%"
	case float64:
		return strconv.FormatFloat(p, 'f', 0, 64) + "%"
	case int:
		return strconv.Itoa(p) + "%"
	}
	return fmt.Sprint(v) + "%"
}

// date shortens backend timestamps to YYYY-MM-DD; unparseable values pass
// through unchanged.
func date(s string) string {
	t, err := models.ParseDate(s, time.UTC)
	if err != nil {
		return s
	}
	return t.Format("2006-01-02")
}

func pageURL(base string, q listing.Query, page int) string {
	v := q.Values()
	v.Set("page", strconv.Itoa(page))
	u := url.URL{Path: base, RawQuery: v.Encode()}
	return u.String()
}
