// Package normalize turns fetched page markup into the bounded plain-text
// document fed to the extractor.
package normalize

import (
	"strings"

	"golang.org/x/net/html"
)

// MaxChars caps the normalized output. Rendered profile pages can be huge;
// everything past the cap is dropped silently because the interesting fields
// sit near the top of the document and the model context is finite.
const MaxChars = 400_000

// Text strips non-visible markup from raw HTML and returns the visible text
// nodes joined by newlines, with runs of blank lines collapsed to a single
// blank line. It is a total function: malformed input yields whatever text
// the tolerant parser recovers, possibly the empty string.
func Text(raw string) string {
	node, err := html.Parse(strings.NewReader(raw))
	if err != nil || node == nil {
		return ""
	}
	var b strings.Builder
	collect(&b, node)
	out := collapseBlankLines(b.String())
	// The cap counts characters, not bytes, so multibyte text keeps its
	// full budget and no rune is split at the boundary.
	if len(out) > MaxChars {
		if r := []rune(out); len(r) > MaxChars {
			out = string(r[:MaxChars])
		}
	}
	return out
}

// collect walks the DOM, skipping subtrees whose content must never leak
// into model input, and emits each trimmed text node on its own line.
func collect(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "iframe", "template":
			return
		}
	}
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			b.WriteString(t)
			b.WriteByte('\n')
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(b, c)
	}
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(out) == 0 || out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, trimmed)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
