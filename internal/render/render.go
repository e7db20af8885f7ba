// Package render splits question text into plain and math segments and
// turns them into HTML that the exam client typesets with KaTeX.
package render

import (
	"errors"
	"html"
	"regexp"
	"strings"
	"unicode"
)

// Kind is the type of a segment.
type Kind string

const (
	KindText   Kind = "text"
	KindInline Kind = "inline"
	KindBlock  Kind = "block"
)

var (
	errEmptyFormula   = errors.New("empty formula")
	errUnbalanced     = errors.New("unbalanced braces")
	errControlCharset = errors.New("control character in formula")
)

// Display math is matched before inline math, so "$$x$$" is never read as
// two empty inline formulas.
var (
	blockPattern  = regexp.MustCompile(`\$\$(.*?)\$\$`)
	inlinePattern = regexp.MustCompile(`\$(.*?)\$`)
)

// Segment is one piece of rendered text. Source keeps the original markup
// including delimiters; Fallback is set when a math segment could not be
// rendered and HTML holds the escaped source instead.
type Segment struct {
	Kind     Kind   `json:"kind"`
	Source   string `json:"source"`
	HTML     string `json:"html"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Segments splits text into ordered segments.
func Segments(text string) []Segment {
	var out []Segment
	last := 0
	for _, m := range blockPattern.FindAllStringSubmatchIndex(text, -1) {
		out = appendInline(out, text[last:m[0]])
		out = append(out, mathSegment(KindBlock, text[m[0]:m[1]], text[m[2]:m[3]]))
		last = m[1]
	}
	return appendInline(out, text[last:])
}

// HTML renders text to a single HTML string.
func HTML(text string) string {
	var b strings.Builder
	for _, seg := range Segments(text) {
		b.WriteString(seg.HTML)
	}
	return b.String()
}

func appendInline(out []Segment, text string) []Segment {
	if text == "" {
		return out
	}
	last := 0
	for _, m := range inlinePattern.FindAllStringSubmatchIndex(text, -1) {
		out = appendText(out, text[last:m[0]])
		out = append(out, mathSegment(KindInline, text[m[0]:m[1]], text[m[2]:m[3]]))
		last = m[1]
	}
	return appendText(out, text[last:])
}

func appendText(out []Segment, text string) []Segment {
	if text == "" {
		return out
	}
	return append(out, Segment{Kind: KindText, Source: text, HTML: html.EscapeString(text)})
}

func mathSegment(kind Kind, source, formula string) Segment {
	seg := Segment{Kind: kind, Source: source}
	if err := checkFormula(formula); err != nil {
		seg.HTML = html.EscapeString(source)
		seg.Fallback = true
		return seg
	}

	escaped := html.EscapeString(strings.TrimSpace(formula))
	if kind == KindBlock {
		seg.HTML = `<div class="math math-display">\[` + escaped + `\]</div>`
	} else {
		seg.HTML = `<span class="math math-inline">\(` + escaped + `\)</span>`
	}
	return seg
}

// checkFormula rejects input the typesetter would choke on.
func checkFormula(formula string) error {
	if strings.TrimSpace(formula) == "" {
		return errEmptyFormula
	}
	depth := 0
	escaped := false
	for _, r := range formula {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '{':
			depth++
		case r == '}':
			depth--
			if depth < 0 {
				return errUnbalanced
			}
		case unicode.IsControl(r) && r != '\t':
			return errControlCharset
		}
	}
	if depth != 0 {
		return errUnbalanced
	}
	return nil
}
