// Package page loads an HTML document and exposes it as reading-order text
// blocks, keeping each run of text tied to the DOM node it came from so a
// selection can be traced back into the document for context.
package page

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/vstratful/searchthatterm/internal/conversation"
	"golang.org/x/net/html"
)

// ErrEmptyDocument is returned when a document has no readable text.
var ErrEmptyDocument = errors.New("document has no readable text")

const (
	// UserAgent identifies page fetches.
	UserAgent = "SearchThatTerm/1.0 (+https://github.com/vstratful/searchthatterm)"
	// FetchTimeout bounds a page fetch.
	FetchTimeout = 20 * time.Second
	// maxDocumentBytes caps how much of a response is parsed.
	maxDocumentBytes = 8 << 20
)

// Document is a parsed page.
type Document struct {
	doc    *goquery.Document
	url    *url.URL
	blocks []Block
}

// Load reads a page from an http(s) URL or a local file path.
func Load(ctx context.Context, source string) (*Document, error) {
	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return fetch(ctx, u)
	}

	path := source
	if u, err := url.Parse(source); err == nil && u.Scheme == "file" {
		path = u.Path
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return Parse(f, &url.URL{Scheme: "file", Path: abs})
}

func fetch(ctx context.Context, u *url.URL) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch page: status %d", resp.StatusCode)
	}
	return Parse(io.LimitReader(resp.Body, maxDocumentBytes), resp.Request.URL)
}

// Parse builds a Document from HTML. u is the address the page came from and
// may be nil.
func Parse(r io.Reader, u *url.URL) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	d := &Document{doc: doc, url: u}
	d.blocks = extractBlocks(doc)
	if len(d.blocks) == 0 {
		return nil, ErrEmptyDocument
	}
	return d, nil
}

// Blocks returns the document text in reading order.
func (d *Document) Blocks() []Block {
	return d.blocks
}

// Title is the document title, falling back to the first h1.
func (d *Document) Title() string {
	if t := collapse(d.doc.Find("title").First().Text()); t != "" {
		return t
	}
	return collapse(d.doc.Find("h1").First().Text())
}

// Domain is the host the page was loaded from. Local files have none.
func (d *Document) Domain() string {
	if d.url == nil {
		return ""
	}
	return d.url.Hostname()
}

// URL is the address the page was loaded from.
func (d *Document) URL() string {
	if d.url == nil {
		return ""
	}
	return d.url.String()
}

// FirstHeading is the text of the first h1, used when no heading precedes a
// selection.
func (d *Document) FirstHeading() string {
	return collapse(d.doc.Find("h1").First().Text())
}

// NearestHeading finds the heading a selection falls under.
func (d *Document) NearestHeading(anchor *html.Node) string {
	if h := NearestHeading(anchor); h != "" {
		return h
	}
	return d.FirstHeading()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ContextFor snapshots the context of a selection whose start lies in the
// text node anchor.
func (d *Document) ContextFor(selected string, anchor *html.Node) conversation.Context {
	return conversation.Context{
		SelectedText: strings.TrimSpace(selected),
		Paragraph:    ContextParagraph(anchor),
		Heading:      d.NearestHeading(anchor),
		PageTitle:    d.Title(),
		PageDomain:   d.Domain(),
		PageURL:      d.URL(),
	}
}
