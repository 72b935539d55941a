package loader

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// HTMLLoader extracts readable text from HTML documents, skipping script,
// style, and head content.
type HTMLLoader struct{}

// NewHTMLLoader creates an HTML loader.
func NewHTMLLoader() *HTMLLoader {
	return &HTMLLoader{}
}

func (l *HTMLLoader) Load(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	text, err := htmlText(data)
	if err != nil {
		return printableText(data), nil
	}
	return text, nil
}

var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "ul": true, "ol": true, "section": true, "article": true,
	"header": true, "footer": true, "blockquote": true, "pre": true,
}

func htmlText(data []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "head", "title":
				return
			}
			if blockTags[n.Data] {
				ensureNewline(&buf)
			}
		case html.TextNode:
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if buf.Len() > 0 && !strings.HasSuffix(buf.String(), "\n") {
					buf.WriteByte(' ')
				}
				buf.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			ensureNewline(&buf)
		}
	}
	walk(root)
	return strings.TrimSpace(buf.String()), nil
}

func ensureNewline(buf *strings.Builder) {
	if buf.Len() > 0 && !strings.HasSuffix(buf.String(), "\n") {
		buf.WriteByte('\n')
	}
}
