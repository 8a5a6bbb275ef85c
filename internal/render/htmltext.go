// Package render flattens the HTML fragments returned by the tafsir service
// into plain text suitable for a terminal pane.
package render

import (
	"regexp"
	"strings"
	"unicode/utf8"

	nethtml "golang.org/x/net/html"
)

var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"blockquote": true, "ul": true, "ol": true, "li": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "tr": true,
}

var (
	reSpaces        = regexp.MustCompile(`[ \t]+`)
	reSpacedNewline = regexp.MustCompile(` *\n *`)
	reBlankRuns     = regexp.MustCompile(`\n{3,}`)
)

// Flatten extracts the text of an HTML fragment, separating block elements
// with blank lines. A fragment that fails to parse is returned trimmed.
func Flatten(raw string) string {
	doc, err := nethtml.Parse(strings.NewReader("<html><body>" + raw + "</body></html>"))
	if err != nil {
		return strings.TrimSpace(raw)
	}

	var b strings.Builder
	var walk func(node *nethtml.Node)
	walk = func(node *nethtml.Node) {
		if node.Type == nethtml.TextNode {
			b.WriteString(node.Data)
			return
		}
		if node.Type == nethtml.ElementNode {
			switch node.Data {
			case "script", "style":
				return
			case "br":
				b.WriteString("\n")
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if node.Type == nethtml.ElementNode && blockTags[node.Data] {
			b.WriteString("\n\n")
		}
	}
	walk(doc)

	text := reSpaces.ReplaceAllString(b.String(), " ")
	text = reSpacedNewline.ReplaceAllString(text, "\n")
	text = reBlankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Wrap word-wraps text to the given width, preserving blank lines.
func Wrap(text string, width int) []string {
	if width < 10 {
		width = 10
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			out = append(out, "")
			continue
		}
		current := ""
		for _, word := range strings.Fields(line) {
			if current == "" {
				current = word
				continue
			}
			if utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) > width {
				out = append(out, current)
				current = word
				continue
			}
			current += " " + word
		}
		if current != "" {
			out = append(out, current)
		}
	}
	return out
}
