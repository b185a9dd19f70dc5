package render

import (
	"strings"

	"golang.org/x/net/html"
)

// HTMLToText reduces an HTML email body to plain text suitable for AI prompt
// input and list snippets. Script and style subtrees are dropped; block
// elements become line breaks; anchor targets are kept next to their text.
func HTMLToText(input string) (string, error) {
	doc, err := html.Parse(strings.NewReader(input))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	walkText(doc, &b)
	return collapseBlankLines(b.String()), nil
}

func walkText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "head":
			return
		case "br":
			b.WriteByte('\n')
		case "p", "div", "tr", "li", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote":
			b.WriteByte('\n')
		case "a":
			var text strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walkText(c, &text)
			}
			href := attr(n, "href")
			label := strings.TrimSpace(text.String())
			switch {
			case label == "" && href != "":
				b.WriteString(href)
			case href != "" && href != label:
				b.WriteString(label + " (" + href + ")")
			default:
				b.WriteString(label)
			}
			return
		}
	case html.TextNode:
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, b)
	}
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			blank++
			if blank > 1 {
				continue
			}
			out = append(out, "")
			continue
		}
		blank = 0
		out = append(out, trimmed)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
