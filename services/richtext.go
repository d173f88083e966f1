package services

import (
	"strings"

	"golang.org/x/net/html"
)

// NormalizeText collapses the line-break variants operators paste into
// free-text fields (\r\n and bare \r become \n). Leading and trailing
// whitespace stays as authored.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// FlattenRichText prepares a free-text field for the sheet gateway.
// Pasted HTML fragments are reduced to plain text with block elements
// becoming line breaks; plain text just gets its line breaks
// normalized.
func FlattenRichText(content string) string {
	content = NormalizeText(content)
	if !strings.Contains(content, "<") || !strings.Contains(content, ">") {
		return content
	}

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return content
	}

	var text strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "p", "div", "br", "tr":
				text.WriteString("\n")
			case "li":
				text.WriteString("- ")
			case "td", "th":
				text.WriteString(" ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extractText(child)
		}
	}
	extractText(doc)

	result := text.String()
	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(result)
}
