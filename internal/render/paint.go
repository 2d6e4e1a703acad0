package render

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const minPaintWidth = 10

var (
	headingStyles = map[string]lipgloss.Style{
		"h1": lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("#A78BFA")),
		"h2": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA")),
		"h3": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4")),
	}
	ruleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	quoteStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	inlineCode     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6EE7B7"))
	codeLineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	codeLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	copyHintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// CodeBlock is a fenced block recovered from markup, ready to copy.
type CodeBlock struct {
	Lang string
	Code string
}

// Painted is markup laid out for a terminal of a given width.
type Painted struct {
	Lines []string
	Code  []CodeBlock
}

// String joins the painted lines.
func (p Painted) String() string {
	return strings.Join(p.Lines, "\n")
}

// Paint lays out markup produced by Markup as styled terminal lines no wider
// than width.
func Paint(markup string, width int) Painted {
	if width < minPaintWidth {
		width = minPaintWidth
	}
	p := &painter{width: width}
	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		// Markup is always well formed; fall back to the raw text.
		p.text(markup)
		p.endLine()
		return Painted{Lines: p.lines}
	}
	for _, n := range nodes {
		p.walk(n)
	}
	p.endLine()
	return Painted{Lines: p.lines, Code: p.code}
}

type painter struct {
	width  int
	lines  []string
	cur    strings.Builder
	prefix string
	hang   string
	bold   int
	italic int
	mono   int
	code   []CodeBlock
}

func (p *painter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		p.text(n.Data)
		return
	case html.ElementNode:
	default:
		p.children(n)
		return
	}

	switch n.Data {
	case "br":
		p.breakLine()
	case "strong", "b":
		p.bold++
		p.children(n)
		p.bold--
	case "em", "i":
		p.italic++
		p.children(n)
		p.italic--
	case "code":
		p.mono++
		p.children(n)
		p.mono--
	case "h1", "h2", "h3":
		p.endLine()
		p.cur.WriteString(headingStyles[n.Data].Render(sanitize(textContent(n))))
		p.endLine()
	case "hr":
		p.endLine()
		p.lines = append(p.lines, ruleStyle.Render(strings.Repeat("─", p.width)))
	case "blockquote":
		p.endLine()
		saved := p.prefix
		p.prefix += quoteStyle.Render("│ ")
		p.children(n)
		p.endLine()
		p.prefix = saved
	case "ul", "ol":
		p.endLine()
		p.list(n, n.Data == "ol")
	case "div":
		if hasClass(n, "code-block") {
			p.endLine()
			p.codeBlock(n)
			return
		}
		p.children(n)
	default:
		p.children(n)
	}
}

func (p *painter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
}

func (p *painter) list(n *html.Node, ordered bool) {
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		i++
		if ordered {
			p.hang = fmt.Sprintf("%d. ", i)
		} else {
			p.hang = "• "
		}
		p.children(c)
		p.endLine()
		p.hang = ""
	}
}

func (p *painter) codeBlock(n *html.Node) {
	lang := attr(n, "data-lang")
	var raw string
	if btn := findByClass(n, "code-copy"); btn != nil {
		raw, _ = DecodeCopyPayload(attr(btn, "data-code"))
	}
	p.code = append(p.code, CodeBlock{Lang: lang, Code: raw})

	header := codeLabelStyle.Render(lang) + " " + copyHintStyle.Render(fmt.Sprintf("[copy %d]", len(p.code)))
	p.lines = append(p.lines, p.prefix+header)
	for _, line := range strings.Split(raw, "\n") {
		line = sanitize(strings.ReplaceAll(line, "\t", "    "))
		line = ansi.Truncate(line, p.width-2, "…")
		p.lines = append(p.lines, p.prefix+codeLineStyle.Render("  "+line))
	}
}

func (p *painter) text(s string) {
	s = sanitize(s)
	if s == "" {
		return
	}
	style := lipgloss.NewStyle()
	styled := false
	if p.bold > 0 {
		style = style.Bold(true)
		styled = true
	}
	if p.italic > 0 {
		style = style.Italic(true)
		styled = true
	}
	if p.mono > 0 {
		style = style.Inherit(inlineCode)
		styled = true
	}
	if styled {
		s = style.Render(s)
	}
	p.cur.WriteString(s)
}

// breakLine ends the current line even when it is empty.
func (p *painter) breakLine() {
	p.flush(true)
}

// endLine ends the current line only when it has content.
func (p *painter) endLine() {
	p.flush(false)
}

func (p *painter) flush(force bool) {
	content := p.cur.String()
	p.cur.Reset()
	if content == "" && !force {
		return
	}

	first := p.prefix + p.hang
	rest := p.prefix + strings.Repeat(" ", lipgloss.Width(p.hang))
	avail := p.width - lipgloss.Width(first)
	if avail < minPaintWidth {
		avail = minPaintWidth
	}

	wrapped := wrap.String(wordwrap.String(content, avail), avail)
	for i, line := range strings.Split(wrapped, "\n") {
		if i == 0 {
			p.lines = append(p.lines, first+line)
		} else {
			p.lines = append(p.lines, rest+line)
		}
	}
	p.hang = ""
}

// sanitize drops control characters so model output cannot drive the
// terminal.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == ' ' {
			return r
		}
		if r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func textContent(n *html.Node) string {
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
	return strings.TrimSpace(sb.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func findByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}
