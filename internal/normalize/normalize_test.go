package normalize

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestText_ScriptAndStyleNeverLeak(t *testing.T) {
	raw := `<!doctype html>
	<html>
	  <head>
	    <title>Profile</title>
	    <style>.hidden { display: none; } /* SECRET-STYLE */</style>
	    <script>var tracking = "SECRET-SCRIPT";</script>
	  </head>
	  <body>
	    <noscript>SECRET-NOSCRIPT</noscript>
	    <h1>Jane Doe</h1>
	    <p>Engineer at Acme</p>
	  </body>
	</html>`

	out := Text(raw)
	for _, secret := range []string{"SECRET-STYLE", "SECRET-SCRIPT", "SECRET-NOSCRIPT", "tracking"} {
		if strings.Contains(out, secret) {
			t.Errorf("non-visible content %q leaked into output", secret)
		}
	}
	if !strings.Contains(out, "Jane Doe") || !strings.Contains(out, "Engineer at Acme") {
		t.Fatalf("visible content missing from output: %q", out)
	}
}

func TestText_NodesJoinedWithNewlines(t *testing.T) {
	out := Text(`<div><span>  one  </span><span>two</span><p>three</p></div>`)
	if out != "one\ntwo\nthree" {
		t.Fatalf("expected trimmed newline-joined nodes, got %q", out)
	}
}

func TestText_CollapsesBlankLineRuns(t *testing.T) {
	// A text node with embedded blank lines survives parsing; the run must
	// collapse to a single blank line.
	out := Text("<pre>first\n\n\n\n\nsecond</pre>")
	if out != "first\n\nsecond" {
		t.Fatalf("expected a single blank line, got %q", out)
	}
}

func TestText_TruncatesAtCap(t *testing.T) {
	line := strings.Repeat("a", 99) + "\n"
	var sb strings.Builder
	sb.WriteString("<body><pre>")
	for sb.Len() < MaxChars+50_000 {
		sb.WriteString(line)
	}
	sb.WriteString("</pre></body>")

	out := Text(sb.String())
	if len(out) != MaxChars {
		t.Fatalf("expected exactly %d characters, got %d", MaxChars, len(out))
	}
}

func TestText_TruncatesMultibyteByCharacterCount(t *testing.T) {
	// Two bytes per character: a byte-based cut would halve the budget and
	// could split a rune at the boundary.
	line := strings.Repeat("é", 99) + "\n"
	var sb strings.Builder
	sb.WriteString("<body><pre>")
	for sb.Len() < 2*MaxChars+50_000 {
		sb.WriteString(line)
	}
	sb.WriteString("</pre></body>")

	out := Text(sb.String())
	if got := utf8.RuneCountInString(out); got != MaxChars {
		t.Fatalf("expected exactly %d characters, got %d", MaxChars, got)
	}
	if !utf8.ValidString(out) {
		t.Fatal("truncation split a rune")
	}
}

func TestText_EmptyAndMalformedInput(t *testing.T) {
	if out := Text(""); out != "" {
		t.Fatalf("expected empty output for empty input, got %q", out)
	}
	// The tolerant parser should still recover visible text.
	if out := Text("<div><p>dangling"); !strings.Contains(out, "dangling") {
		t.Fatalf("expected recovered text, got %q", out)
	}
}
