package render

import (
	"strings"
	"testing"
)

func TestSegments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kinds []Kind
	}{
		{"plain", "no math here", []Kind{KindText}},
		{"inline", "mass $m$ moves", []Kind{KindText, KindInline, KindText}},
		{"block before inline", "Solve $$\\int_0^1 x dx$$ for $x$", []Kind{KindText, KindBlock, KindText, KindInline}},
		{"only block", "$$a+b$$", []Kind{KindBlock}},
		{"unterminated dollar", "costs $5", []Kind{KindText}},
		{"empty", "", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			segs := Segments(tc.input)
			if len(segs) != len(tc.kinds) {
				t.Fatalf("got %d segments %+v, want %d", len(segs), segs, len(tc.kinds))
			}
			var rebuilt strings.Builder
			for i, s := range segs {
				if s.Kind != tc.kinds[i] {
					t.Errorf("segment %d kind = %s, want %s", i, s.Kind, tc.kinds[i])
				}
				rebuilt.WriteString(s.Source)
			}
			if rebuilt.String() != tc.input {
				t.Errorf("sources do not rebuild input: %q", rebuilt.String())
			}
		})
	}
}

func TestMathHTML(t *testing.T) {
	got := HTML("force $m \\omega^2 r$")
	want := `force <span class="math math-inline">\(m \omega^2 r\)</span>`
	if got != want {
		t.Errorf("HTML = %q, want %q", got, want)
	}

	got = HTML("$$\\frac{a}{b}$$")
	if !strings.HasPrefix(got, `<div class="math math-display">\[\frac{a}{b}\]`) {
		t.Errorf("block HTML = %q", got)
	}
}

func TestFallbackToRaw(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unbalanced braces", "$\\frac{a}{b$"},
		{"stray closing brace", "$a}b{$"},
		{"blank formula", "$ $"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			segs := Segments(tc.input)
			if len(segs) != 1 || !segs[0].Fallback {
				t.Fatalf("expected one fallback segment, got %+v", segs)
			}
			if segs[0].HTML != tc.input {
				t.Errorf("fallback HTML = %q, want raw %q", segs[0].HTML, tc.input)
			}
		})
	}
}

func TestEscapesText(t *testing.T) {
	got := HTML("a < b & $x<y$")
	if strings.Contains(got, "a < b") || !strings.Contains(got, `\(x&lt;y\)`) {
		t.Errorf("unescaped output %q", got)
	}
}
