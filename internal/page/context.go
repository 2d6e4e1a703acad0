package page

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const (
	// contextAncestors is how many ancestor levels are searched for the
	// enclosing paragraph.
	contextAncestors = 3
	// maxContextLen bounds the enclosing paragraph, in characters.
	maxContextLen = 2000
)

var contextContainers = map[string]bool{
	"p":       true,
	"div":     true,
	"article": true,
}

// ContextParagraph returns the text of the block container enclosing anchor.
// Starting at anchor's parent element it walks up at most three levels and
// accepts the first p, div or article whose trimmed text is non-empty and
// shorter than 2000 characters.
func ContextParagraph(anchor *html.Node) string {
	if anchor == nil {
		return ""
	}
	el := parentElement(anchor)
	for i := 0; i < contextAncestors && el != nil; i++ {
		if contextContainers[el.Data] {
			text := strings.TrimSpace(textContent(el))
			if n := utf8.RuneCountInString(text); n > 0 && n < maxContextLen {
				return text
			}
		}
		el = parentElement(el)
	}
	return ""
}

// NearestHeading returns the heading that precedes anchor in the document.
// At each level it scans the preceding siblings, nearest first, for an h1-h6
// before moving up to the parent. It returns "" when none is found.
func NearestHeading(anchor *html.Node) string {
	for n := anchor; n != nil; n = n.Parent {
		if isHeading(n) && n != anchor {
			return collapse(textContent(n))
		}
		for s := n.PrevSibling; s != nil; s = s.PrevSibling {
			if isHeading(s) {
				return collapse(textContent(s))
			}
		}
	}
	return ""
}

func isHeading(n *html.Node) bool {
	if n.Type != html.ElementNode || len(n.Data) != 2 || n.Data[0] != 'h' {
		return false
	}
	return n.Data[1] >= '1' && n.Data[1] <= '6'
}

func parentElement(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
