// Package render turns streamed model output into display content.
//
// Markup converts raw (possibly partial) text into safe HTML-like markup in
// one deterministic pass. Paint lays that markup out as styled terminal lines.
package render

import (
	"encoding/base64"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

const (
	fenceMark = "\x00"
	spanMark  = "\x01"
)

var (
	fenceRe     = regexp.MustCompile("(?ms)^ {0,3}```([A-Za-z0-9_+#.-]*)[ \\t]*\\r?\\n(.*?)(?:\\r?\\n)?^ {0,3}```[ \\t]*\\r?$")
	openFenceRe = regexp.MustCompile("(?ms)^ {0,3}```([A-Za-z0-9_+#.-]*)[ \\t]*(?:\\r?\\n|\\z)(.*)\\z")
	fenceRefRe  = regexp.MustCompile(fenceMark + `(\d+)` + fenceMark)
	spanRefRe   = regexp.MustCompile(spanMark + `(\d+)` + spanMark)

	headingRe = regexp.MustCompile(`^(#{1,3})[ \t]+(.+?)[ \t]*$`)
	ruleRe    = regexp.MustCompile(`^[ \t]*(?:-{3,}|\*{3,}|_{3,})[ \t]*$`)
	quoteRe   = regexp.MustCompile(`^&gt;[ \t]?(.*)$`)
	bulletRe  = regexp.MustCompile(`^[ \t]*[-*+][ \t]+(.+)$`)
	orderedRe = regexp.MustCompile(`^[ \t]*\d+\.[ \t]+(.+)$`)

	codeSpanRe   = regexp.MustCompile("`([^`\\n<]+)`")
	boldItalicRe = regexp.MustCompile(`\*\*\*([^*\n<]+?)\*\*\*`)
	boldRe       = regexp.MustCompile(`\*\*([^\n<]+?)\*\*`)
	italicRe     = regexp.MustCompile(`\*([^*\s<](?:[^*\n<]*[^*\s<])?)\*`)

	breakAfterBlockRe  = regexp.MustCompile(`(</h[1-3]>|<hr>|</blockquote>|</ul>|</ol>|</pre></div>)<br>`)
	breakBeforeBlockRe = regexp.MustCompile(`<br>(<h[1-3]>|<hr>|<blockquote>|<ul>|<ol>|<div class="code-block")`)

	markerStripper = strings.NewReplacer(fenceMark, "", spanMark, "")
)

// Escape neutralizes HTML metacharacters.
func Escape(s string) string {
	return html.EscapeString(s)
}

type fence struct {
	lang string
	code string
}

// Markup renders text as safe markup.
//
// All text outside fenced code blocks is escaped before any transform runs,
// so markup in the input can never survive as markup in the output. Fenced
// code is lifted out first, escaped on its own, and carried with a base64
// copy of its raw bytes for the copy button.
func Markup(text string) string {
	if text == "" {
		return ""
	}
	text = markerStripper.Replace(text)

	text, fences := extractFences(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	out := Escape(text)
	out = transformBlocks(out)
	out = transformInline(out)
	out = strings.ReplaceAll(out, "\n", "<br>")
	out = restoreFences(out, fences)
	out = breakAfterBlockRe.ReplaceAllString(out, "$1")
	out = breakBeforeBlockRe.ReplaceAllString(out, "$1")
	return out
}

func extractFences(text string) (string, []fence) {
	var fences []fence
	placeholder := func(lang, code string) string {
		fences = append(fences, fence{lang: lang, code: code})
		return fenceMark + strconv.Itoa(len(fences)-1) + fenceMark
	}

	text = fenceRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := fenceRe.FindStringSubmatch(m)
		return placeholder(sub[1], sub[2])
	})

	// A fence opening a line with no close is a code block being streamed.
	if loc := openFenceRe.FindStringSubmatchIndex(text); loc != nil {
		lang := text[loc[2]:loc[3]]
		code := text[loc[4]:loc[5]]
		text = text[:loc[0]] + placeholder(lang, code)
	}
	return text, fences
}

func restoreFences(out string, fences []fence) string {
	return fenceRefRe.ReplaceAllStringFunc(out, func(m string) string {
		i, err := strconv.Atoi(fenceRefRe.FindStringSubmatch(m)[1])
		if err != nil || i >= len(fences) {
			return ""
		}
		return codeBlock(fences[i])
	})
}

func codeBlock(f fence) string {
	label := f.lang
	if label == "" {
		label = "code"
	}
	label = Escape(label)
	payload := base64.StdEncoding.EncodeToString([]byte(f.code))
	return fmt.Sprintf(
		`<div class="code-block" data-lang="%s"><div class="code-header"><span class="code-lang">%s</span><button class="code-copy" data-code="%s">Copy</button></div><pre><code>%s</code></pre></div>`,
		label, label, payload, Escape(f.code),
	)
}

// DecodeCopyPayload returns the raw code carried by a code block's copy
// button.
func DecodeCopyPayload(payload string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decoding copy payload: %w", err)
	}
	return string(b), nil
}

type group int

const (
	groupNone group = iota
	groupBullet
	groupOrdered
	groupQuote
)

func transformBlocks(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))

	open := groupNone
	var items []string
	closeGroup := func() {
		switch open {
		case groupBullet:
			out = append(out, "<ul><li>"+strings.Join(items, "</li><li>")+"</li></ul>")
		case groupOrdered:
			out = append(out, "<ol><li>"+strings.Join(items, "</li><li>")+"</li></ol>")
		case groupQuote:
			out = append(out, "<blockquote>"+strings.Join(items, "\n")+"</blockquote>")
		}
		open = groupNone
		items = items[:0]
	}
	add := func(g group, item string) {
		if open != g {
			closeGroup()
			open = g
		}
		items = append(items, item)
	}

	for _, line := range lines {
		switch {
		case ruleRe.MatchString(line):
			closeGroup()
			out = append(out, "<hr>")
		case headingRe.MatchString(line):
			closeGroup()
			m := headingRe.FindStringSubmatch(line)
			n := len(m[1])
			out = append(out, fmt.Sprintf("<h%d>%s</h%d>", n, m[2], n))
		case quoteRe.MatchString(line):
			add(groupQuote, quoteRe.FindStringSubmatch(line)[1])
		case bulletRe.MatchString(line):
			add(groupBullet, bulletRe.FindStringSubmatch(line)[1])
		case orderedRe.MatchString(line):
			add(groupOrdered, orderedRe.FindStringSubmatch(line)[1])
		default:
			closeGroup()
			out = append(out, line)
		}
	}
	closeGroup()
	return strings.Join(out, "\n")
}

func transformInline(s string) string {
	var spans []string
	s = codeSpanRe.ReplaceAllStringFunc(s, func(m string) string {
		spans = append(spans, codeSpanRe.FindStringSubmatch(m)[1])
		return spanMark + strconv.Itoa(len(spans)-1) + spanMark
	})

	s = boldItalicRe.ReplaceAllString(s, "<strong><em>$1</em></strong>")
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")

	return spanRefRe.ReplaceAllStringFunc(s, func(m string) string {
		i, err := strconv.Atoi(spanRefRe.FindStringSubmatch(m)[1])
		if err != nil || i >= len(spans) {
			return ""
		}
		return "<code>" + spans[i] + "</code>"
	})
}
