package reader

import (
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/vstratful/searchthatterm/internal/page"
)

func TestWrapRanges(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  [][2]int
	}{
		{"fits", "short", 10, [][2]int{{0, 5}}},
		{"word break", "hello world foo", 11, [][2]int{{0, 6}, {6, 15}}},
		{"hard break", "abcdefghij", 4, [][2]int{{0, 4}, {4, 8}, {8, 10}}},
		{"empty", "", 10, [][2]int{{0, 0}}},
		{"wide runes", "日本語テキスト", 6, [][2]int{{0, 9}, {9, 18}, {18, 21}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapRanges(tt.text, 0, len(tt.text), tt.width)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("wrapRanges() = %v, want %v", got, tt.want)
			}
		})
	}
}

func parseBlocks(t *testing.T, html string) []page.Block {
	t.Helper()
	doc, err := page.Parse(strings.NewReader(html), nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc.Blocks()
}

func TestLayoutPage_Rows(t *testing.T) {
	blocks := parseBlocks(t, `<h1>Title</h1><ul><li>one</li><li>two</li></ul><p>Body text</p>`)
	l := layoutPage(blocks, 40)

	var plain []string
	for _, row := range l.render(0, l.height(), nil) {
		plain = append(plain, strings.TrimRight(ansi.Strip(row), " "))
	}
	want := []string{" Title", "", " • one", " • two", "", " Body text"}
	if !reflect.DeepEqual(plain, want) {
		t.Errorf("rows = %q, want %q", plain, want)
	}
}

func TestLayoutPage_PosAtAndCellOf(t *testing.T) {
	blocks := parseBlocks(t, `<p>The mitochondria is the powerhouse of the cell.</p>`)
	l := layoutPage(blocks, 80)

	pos, ok := l.posAt(5, 0)
	if !ok || pos != (textPos{block: 0, off: 4}) {
		t.Fatalf("posAt(5, 0) = %+v, %v, want offset 4", pos, ok)
	}
	if x, y := l.cellOf(pos); x != 5 || y != 0 {
		t.Errorf("cellOf(%+v) = (%d, %d), want (5, 0)", pos, x, y)
	}

	end, _ := l.posAt(17, 0)
	if got := l.textBetween(end, pos); got != "mitochondria" {
		t.Errorf("textBetween() = %q, want %q", got, "mitochondria")
	}

	if _, ok := l.posAt(3, 7); ok {
		t.Error("posAt() past the last row should fail")
	}
	if pos, _ := l.posAt(200, 0); pos.off != len(blocks[0].Text) {
		t.Errorf("posAt() past line end = %d, want %d", pos.off, len(blocks[0].Text))
	}
}

func TestLayoutPage_TextBetweenBlocks(t *testing.T) {
	blocks := parseBlocks(t, `<p>alpha beta</p><p>gamma</p><p>delta epsilon</p>`)
	l := layoutPage(blocks, 80)

	got := l.textBetween(textPos{block: 0, off: 6}, textPos{block: 2, off: 5})
	if want := "beta\ngamma\ndelta"; got != want {
		t.Errorf("textBetween() = %q, want %q", got, want)
	}
}

func TestClip(t *testing.T) {
	ln := pageLine{block: 1, start: 10, end: 20}
	tests := []struct {
		name     string
		a, z     textPos
		from, to int
	}{
		{"inside", textPos{1, 12}, textPos{1, 15}, 12, 15},
		{"spans line", textPos{0, 3}, textPos{2, 0}, 10, 20},
		{"starts earlier block", textPos{0, 0}, textPos{1, 14}, 10, 14},
		{"ends later block", textPos{1, 18}, textPos{3, 1}, 18, 20},
		{"before line", textPos{1, 2}, textPos{1, 8}, 10, 10},
		{"other block", textPos{2, 0}, textPos{2, 5}, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := clip(ln, tt.a, tt.z)
			if from != tt.from || to != tt.to {
				t.Errorf("clip() = (%d, %d), want (%d, %d)", from, to, tt.from, tt.to)
			}
		})
	}
}

func TestPrintable(t *testing.T) {
	if got := printable("a\x1b[31mb\tc"); got != "a[31mbc" {
		t.Errorf("printable() = %q, want %q", got, "a[31mbc")
	}
}
