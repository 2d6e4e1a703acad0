package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/net/html"
)

func TestMarkup_EscapesScript(t *testing.T) {
	got := Markup("<script>alert(1)</script>")
	if strings.Contains(got, "<script") {
		t.Fatalf("Markup() kept executable markup: %q", got)
	}
	want := "&lt;script&gt;alert(1)&lt;/script&gt;"
	if got != want {
		t.Errorf("Markup() = %q, want %q", got, want)
	}
}

func TestMarkup_PlainTextOnlyGainsBreaks(t *testing.T) {
	inputs := []string{
		"The mitochondria is the powerhouse of the cell.",
		"Line one\nLine two & three\n\n'quoted' \"text\"",
		"a < b > c",
		"3 * 4 = 12 and 5 * 6 = 30",
		"#hashtag and -dash",
	}
	for _, in := range inputs {
		want := strings.ReplaceAll(Escape(in), "\n", "<br>")
		if got := Markup(in); got != want {
			t.Errorf("Markup(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMarkup_CodeBlockRoundTrip(t *testing.T) {
	code := "const s = `<b>${x}</b>`;\n// naïve café ✓ <script>\nif (a && b) {}"
	in := "Here:\n```js\n" + code + "\n```\nDone."

	out := Markup(in)
	if strings.Contains(out, "<script>") || strings.Contains(out, "<b>") {
		t.Fatalf("code content leaked as markup: %q", out)
	}

	blocks := copyPayloads(t, out)
	if len(blocks) != 1 {
		t.Fatalf("found %d code blocks, want 1", len(blocks))
	}
	if blocks[0] != code {
		t.Errorf("copied code = %q, want %q", blocks[0], code)
	}
	if !strings.Contains(out, `data-lang="js"`) {
		t.Errorf("missing language label: %q", out)
	}
}

func TestMarkup_OpenFenceWhileStreaming(t *testing.T) {
	out := Markup("Try this:\n```go\nfmt.Println(\"hi\")")
	blocks := copyPayloads(t, out)
	if len(blocks) != 1 || blocks[0] != `fmt.Println("hi")` {
		t.Fatalf("copy payloads = %q", blocks)
	}
}

func TestMarkup_FenceMustStartLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"inline backticks",
			"Use ``` to open a fence. After this **bold** text.",
			"Use ``` to open a fence. After this <strong>bold</strong> text.",
		},
		{
			"inline backticks mid stream",
			"Type ``` then",
			"Type ``` then",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Markup(tt.in); got != tt.want {
				t.Errorf("Markup(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	blocks := copyPayloads(t, Markup("```\nx ``` y"))
	if len(blocks) != 1 || blocks[0] != "x ``` y" {
		t.Errorf("copy payloads = %q, want an open block holding the inline marker", blocks)
	}
}

func TestMarkup_CRLFFence(t *testing.T) {
	out := Markup("```python\r\nprint('x')\r\n```\r\nafter")

	blocks := copyPayloads(t, out)
	if len(blocks) != 1 || blocks[0] != "print('x')" {
		t.Fatalf("copy payloads = %q, want [\"print('x')\"]", blocks)
	}
	if !strings.HasSuffix(out, "</pre></div>after") {
		t.Errorf("text after the fence was not left outside it: %q", out)
	}
	if strings.Contains(out, "\r") {
		t.Errorf("carriage return left in markup: %q", out)
	}
}

func TestMarkup_Blocks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"heading", "## Overview", "<h2>Overview</h2>"},
		{"rule", "a\n---\nb", "a<hr>b"},
		{"bullets grouped", "- one\n- two\n* three", "<ul><li>one</li><li>two</li><li>three</li></ul>"},
		{"ordered grouped", "1. one\n2. two", "<ol><li>one</li><li>two</li></ol>"},
		{"kinds split", "- one\n1. two", "<ul><li>one</li></ul><ol><li>two</li></ol>"},
		{"quote", "> wise\n> words", "<blockquote>wise<br>words</blockquote>"},
		{"inline", "***both*** **bold** *it* `x<y`", "<strong><em>both</em></strong> <strong>bold</strong> <em>it</em> <code>x&lt;y</code>"},
		{"italic inside bold", "**bold *inner* bold**", "<strong>bold <em>inner</em> bold</strong>"},
		{"no doubled breaks", "# Title\nBody", "<h1>Title</h1>Body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Markup(tt.in); got != tt.want {
				t.Errorf("Markup(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMarkup_Deterministic(t *testing.T) {
	in := "# T\n- a\n```py\nprint(1)\n```\n**b**"
	if a, b := Markup(in), Markup(in); a != b {
		t.Errorf("Markup() not deterministic:\n%q\n%q", a, b)
	}
}

func TestPaint_CollectsCodeAndFitsWidth(t *testing.T) {
	in := "Some **bold** words that go on for quite a while to force wrapping.\n```sh\necho \"a very long command line that should be truncated\"\n```"
	p := Paint(Markup(in), 24)

	if len(p.Code) != 1 || p.Code[0].Lang != "sh" {
		t.Fatalf("Code = %+v", p.Code)
	}
	if p.Code[0].Code != `echo "a very long command line that should be truncated"` {
		t.Errorf("Code[0].Code = %q", p.Code[0].Code)
	}
	for i, line := range p.Lines {
		if w := ansi.StringWidth(line); w > 24 {
			t.Errorf("line %d width %d > 24: %q", i, w, line)
		}
	}
	if !strings.Contains(ansi.Strip(p.String()), "[copy 1]") {
		t.Errorf("missing copy hint in %q", ansi.Strip(p.String()))
	}
}

func TestPaint_StripsControlCharacters(t *testing.T) {
	p := Paint(Markup("safe\x1b]52;c;ZXZpbA==\x07text"), 40)
	if strings.Contains(p.String(), "\x1b]52") || strings.ContainsRune(p.String(), '\x07') {
		t.Errorf("control sequence survived: %q", p.String())
	}
}

func TestShouldPin(t *testing.T) {
	tests := []struct {
		name                        string
		content, offset, view, thre int
		want                        bool
	}{
		{"fits", 5, 0, 10, 3, true},
		{"at bottom", 30, 20, 10, 3, true},
		{"near bottom", 30, 18, 10, 3, true},
		{"scrolled back", 30, 5, 10, 3, false},
		{"just outside", 30, 17, 10, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldPin(tt.content, tt.offset, tt.view, tt.thre); got != tt.want {
				t.Errorf("ShouldPin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func copyPayloads(t *testing.T, markup string) []string {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("html.Parse() error = %v", err)
	}
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "code-copy") {
			code, err := DecodeCopyPayload(attr(n, "data-code"))
			if err != nil {
				t.Fatalf("DecodeCopyPayload() error = %v", err)
			}
			out = append(out, code)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}
