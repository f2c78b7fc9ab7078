package navigation

import (
	"bytes"
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
)

// Element is a located section
type Element struct {
	ID      string
	Section string
	Tag     string
}

// Document is a mounted view that can be searched with CSS selectors
type Document interface {
	// Find returns the first element matching selector
	Find(selector string) (Element, bool)
}

// HTMLDocument is a Document over rendered HTML
type HTMLDocument struct {
	doc *goquery.Document
}

// ParseHTML builds an HTMLDocument from rendered markup
func ParseHTML(r io.Reader) (*HTMLDocument, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &HTMLDocument{doc: doc}, nil
}

// ParseHTMLBytes is ParseHTML over a byte slice
func ParseHTMLBytes(b []byte) (*HTMLDocument, error) {
	return ParseHTML(bytes.NewReader(b))
}

func (d *HTMLDocument) Find(selector string) (Element, bool) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return Element{}, false
	}
	id, _ := sel.Attr("id")
	section, _ := sel.Attr("data-section")
	return Element{ID: id, Section: section, Tag: goquery.NodeName(sel)}, true
}

// Selection exposes the underlying document for callers that rewrite it
func (d *HTMLDocument) Selection() *goquery.Selection {
	return d.doc.Selection
}
