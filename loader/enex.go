package loader

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// EnexLoader extracts text from EverNote export files. An .enex file is XML
// holding a sequence of notes; each note's content is escaped ENML, an HTML
// dialect, which goes through the HTML extractor.
type EnexLoader struct{}

// NewEnexLoader creates an EverNote export loader.
func NewEnexLoader() *EnexLoader {
	return &EnexLoader{}
}

func (l *EnexLoader) Load(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var notes []string
	var title, content string
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "note":
				title, content = "", ""
			case "title":
				_ = dec.DecodeElement(&title, &t)
			case "content":
				_ = dec.DecodeElement(&content, &t)
			}
		case xml.EndElement:
			if t.Name.Local != "note" {
				continue
			}
			var parts []string
			if title = strings.TrimSpace(title); title != "" {
				parts = append(parts, title)
			}
			if body := enmlText(content); body != "" {
				parts = append(parts, body)
			}
			if len(parts) > 0 {
				notes = append(notes, strings.Join(parts, "\n"))
			}
		}
	}
	text := strings.Join(notes, "\n\n")
	if text == "" {
		text = printableText(data)
	}
	return text, nil
}

func enmlText(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	text, err := htmlText([]byte(content))
	if err != nil {
		return printableText([]byte(content))
	}
	return text
}
