// Package markup is the small writer the view components share. Text and
// attribute values always go through templ's escaping.
package markup

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Writer accumulates the first write error so components can emit markup
// without checking every call
type Writer struct {
	w   io.Writer
	err error
}

// New wraps w
func New(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Raw writes trusted markup
func (w *Writer) Raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

// Text writes escaped text
func (w *Writer) Text(s string) {
	w.Raw(templ.EscapeString(s))
}

// Attr writes ` name="value"` with the value escaped
func (w *Writer) Attr(name, value string) {
	w.Raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// URLAttr writes an attribute holding a URL, dropping unsafe schemes
func (w *Writer) URLAttr(name, url string) {
	w.Attr(name, string(templ.URL(url)))
}

// Element writes <tag attrs>text</tag>
func (w *Writer) Element(tag, class, text string) {
	w.Raw("<" + tag)
	if class != "" {
		w.Attr("class", class)
	}
	w.Raw(">")
	w.Text(text)
	w.Raw("</" + tag + ">")
}

// Render writes a child component
func (w *Writer) Render(ctx context.Context, c templ.Component) {
	if w.err == nil && c != nil {
		w.err = c.Render(ctx, w.w)
	}
}

// Err returns the first error encountered
func (w *Writer) Err() error {
	return w.err
}

// Component adapts a writer function to templ.Component
func Component(fn func(ctx context.Context, w *Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		mw := New(out)
		fn(ctx, mw)
		return mw.Err()
	})
}
