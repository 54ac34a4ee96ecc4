// Package mxfile models a draw.io document: an XML container holding
// one or more diagram pages, each page either inline XML or a
// compressed-and-base64-encoded XML fragment.
package mxfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
)

// Encoding describes how a page's content is transported inside the
// document container.
type Encoding int

const (
	// EncodingInline: the diagram element holds structural children directly.
	EncodingInline Encoding = iota
	// EncodingFramed: the diagram element holds base64(deflate(xml)) text.
	EncodingFramed
	// EncodingPlain: the diagram element holds uncompressed XML text.
	EncodingPlain
)

func (e Encoding) String() string {
	switch e {
	case EncodingInline:
		return "inline"
	case EncodingFramed:
		return "framed"
	case EncodingPlain:
		return "plain"
	}
	return "unknown"
}

// ErrEmptyPage is returned by Page.Root for a diagram with no content.
var ErrEmptyPage = errors.New("page has no content")

// Document is a parsed draw.io file. It owns the underlying tree for
// the duration of one processing run.
type Document struct {
	doc   *etree.Document
	pages []*Page
}

// Page is one diagram inside a Document, identified by position.
type Page struct {
	el  *etree.Element
	enc Encoding

	// fragment holds the decoded page tree for framed/plain pages.
	// Populated by Root, written back by Commit.
	fragment *etree.Document
}

// Parse reads a draw.io document from raw bytes. A document whose
// top-level structure cannot be parsed is a hard error; everything
// below that degrades per page.
func Parse(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("document has no root element")
	}

	d := &Document{doc: doc}
	Walk(root, func(el *etree.Element) {
		if el.Tag != "diagram" {
			return
		}
		page := &Page{el: el}
		if len(el.ChildElements()) > 0 {
			page.enc = EncodingInline
		} else if IsFramed(el.Text()) {
			page.enc = EncodingFramed
		} else {
			page.enc = EncodingPlain
		}
		d.pages = append(d.pages, page)
	})
	return d, nil
}

// Pages returns the document's pages in document order.
func (d *Document) Pages() []*Page { return d.pages }

// Bytes serializes the whole document. Call only after every page has
// been committed.
func (d *Document) Bytes() ([]byte, error) {
	return d.doc.WriteToBytes()
}

// WriteFile serializes the document and writes it atomically: the
// bytes go to a temp file in the target directory which is then
// renamed over the destination, so a failure partway through never
// leaves a partially-translated document on disk.
func (d *Document) WriteFile(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return fmt.Errorf("serializing document: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// Name returns the page's display name, if any.
func (p *Page) Name() string {
	return p.el.SelectAttrValue("name", "")
}

// Encoding returns the page's original transport encoding.
func (p *Page) Encoding() Encoding { return p.enc }

// Root returns the element to traverse for this page's content.
//
// For inline pages this is the diagram element itself. For framed and
// plain pages the text content is decoded and parsed on first call;
// a payload that does not decode to valid XML is an error and the
// page must be left unmodified.
func (p *Page) Root() (*etree.Element, error) {
	if p.enc == EncodingInline {
		return p.el, nil
	}
	if p.fragment != nil {
		return p.fragment.Root(), nil
	}

	text := strings.TrimSpace(p.el.Text())
	if text == "" {
		return nil, ErrEmptyPage
	}
	xml := text
	if p.enc == EncodingFramed {
		xml = DecodePage(text)
	}

	frag := etree.NewDocument()
	if err := frag.ReadFromString(xml); err != nil {
		return nil, fmt.Errorf("parsing page content: %w", err)
	}
	if frag.Root() == nil {
		return nil, errors.New("page content has no root element")
	}
	p.fragment = frag
	return p.fragment.Root(), nil
}

// Commit writes a decoded fragment back into the diagram element,
// restoring the page's original encoding. When uncompressed is true a
// framed page is forced back to plain text instead, which eases
// inspection of the output.
func (p *Page) Commit(uncompressed bool) error {
	if p.enc == EncodingInline || p.fragment == nil {
		return nil
	}
	xml, err := p.fragment.WriteToString()
	if err != nil {
		return fmt.Errorf("serializing page: %w", err)
	}
	xml = strings.TrimSpace(xml)
	if p.enc == EncodingFramed && !uncompressed {
		p.el.SetText(EncodePage(xml))
	} else {
		p.el.SetText(xml)
	}
	return nil
}

// Walk visits el and every element below it in document order.
func Walk(el *etree.Element, fn func(*etree.Element)) {
	fn(el)
	for _, child := range el.ChildElements() {
		Walk(child, fn)
	}
}

// Snapshot returns el and all its descendants as a flat list. Tree
// rewrites during processing must iterate over a snapshot, never over
// the live structure.
func Snapshot(el *etree.Element) []*etree.Element {
	var out []*etree.Element
	Walk(el, func(e *etree.Element) { out = append(out, e) })
	return out
}
