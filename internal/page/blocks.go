package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// BlockKind is the role of a block in the page.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockListItem
	BlockQuote
	BlockPre
)

// Segment ties a byte range of a block's text to the text node it came from.
type Segment struct {
	Start, End int
	Node       *html.Node
}

// Block is one reading-order unit of page text.
type Block struct {
	Kind BlockKind
	// Level is 1-6 for headings.
	Level    int
	Text     string
	Segments []Segment
}

// NodeAt returns the text node holding byte offset off of the block text, or
// the nearest node before it. It returns nil for a block with no segments.
func (b Block) NodeAt(off int) *html.Node {
	var last *html.Node
	for _, s := range b.Segments {
		if off < s.Start {
			break
		}
		last = s.Node
		if off < s.End {
			break
		}
	}
	if last == nil && len(b.Segments) > 0 {
		return b.Segments[0].Node
	}
	return last
}

var skipped = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true,
	"template": true, "svg": true, "iframe": true, "object": true,
	"canvas": true, "button": true, "select": true, "textarea": true,
}

var blockTags = map[string]BlockKind{
	"p": BlockParagraph, "div": BlockParagraph, "article": BlockParagraph,
	"section": BlockParagraph, "main": BlockParagraph, "header": BlockParagraph,
	"footer": BlockParagraph, "nav": BlockParagraph, "aside": BlockParagraph,
	"figure": BlockParagraph, "figcaption": BlockParagraph, "table": BlockParagraph,
	"tr": BlockParagraph, "td": BlockParagraph, "th": BlockParagraph,
	"dl": BlockParagraph, "dt": BlockParagraph, "dd": BlockParagraph,
	"ul": BlockParagraph, "ol": BlockParagraph, "form": BlockParagraph,
	"h1": BlockHeading, "h2": BlockHeading, "h3": BlockHeading,
	"h4": BlockHeading, "h5": BlockHeading, "h6": BlockHeading,
	"li":         BlockListItem,
	"blockquote": BlockQuote,
	"pre":        BlockPre,
}

type blockBuilder struct {
	blocks []Block
	kind   BlockKind
	level  int
	pre    bool
	sb     strings.Builder
	segs   []Segment
}

func extractBlocks(doc *goquery.Document) []Block {
	b := &blockBuilder{}
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	root.Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			b.walk(n)
		}
	})
	b.flush()
	return b.blocks
}

func (b *blockBuilder) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.text(n)
		return
	case html.ElementNode:
	default:
		b.children(n)
		return
	}
	if skipped[n.Data] {
		return
	}
	if n.Data == "br" {
		b.lineBreak()
		return
	}

	kind, isBlock := blockTags[n.Data]
	if !isBlock {
		b.children(n)
		return
	}

	b.flush()
	savedKind, savedLevel, savedPre := b.kind, b.level, b.pre
	// Generic containers inherit the role of the block they sit in.
	if kind != BlockParagraph || b.kind == BlockParagraph {
		b.kind = kind
	}
	if kind == BlockHeading {
		b.level = int(n.Data[1] - '0')
	}
	if kind == BlockPre {
		b.pre = true
	}
	b.children(n)
	b.flush()
	b.kind, b.level, b.pre = savedKind, savedLevel, savedPre
}

func (b *blockBuilder) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.walk(c)
	}
}

func (b *blockBuilder) text(n *html.Node) {
	t := n.Data
	if !b.pre {
		t = collapseSpace(t)
		cur := b.sb.String()
		if cur == "" || strings.HasSuffix(cur, " ") || strings.HasSuffix(cur, "\n") {
			t = strings.TrimLeft(t, " ")
		}
	}
	if t == "" {
		return
	}
	start := b.sb.Len()
	b.sb.WriteString(t)
	b.segs = append(b.segs, Segment{Start: start, End: b.sb.Len(), Node: n})
}

func (b *blockBuilder) lineBreak() {
	if b.sb.Len() == 0 {
		return
	}
	if b.pre {
		b.sb.WriteString("\n")
		return
	}
	// Drop a trailing space so the break does not leave one behind.
	cur := b.sb.String()
	if strings.HasSuffix(cur, " ") {
		b.sb.Reset()
		b.sb.WriteString(cur[:len(cur)-1])
		b.clampSegments(b.sb.Len())
	}
	b.sb.WriteString("\n")
}

func (b *blockBuilder) clampSegments(max int) {
	kept := b.segs[:0]
	for _, s := range b.segs {
		if s.Start >= max {
			continue
		}
		if s.End > max {
			s.End = max
		}
		kept = append(kept, s)
	}
	b.segs = kept
}

func (b *blockBuilder) flush() {
	text := b.sb.String()
	if b.pre {
		text = strings.TrimRight(text, "\n")
	} else {
		text = strings.TrimRight(text, " \n")
	}
	b.sb.Reset()
	segs := b.segs
	b.segs = nil

	if strings.TrimSpace(text) == "" {
		return
	}
	b.segs = segs
	b.clampSegments(len(text))
	b.blocks = append(b.blocks, Block{
		Kind:     b.kind,
		Level:    b.level,
		Text:     text,
		Segments: b.segs,
	})
	b.segs = nil
}

func collapseSpace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				sb.WriteByte(' ')
			}
			space = true
		default:
			sb.WriteRune(r)
			space = false
		}
	}
	return sb.String()
}
