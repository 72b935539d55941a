package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// DocxLoader extracts text from Word documents (WordprocessingML inside a
// zip container). Legacy .doc files that are not zip archives fall back to
// printable text salvage.
type DocxLoader struct{}

// NewDocxLoader creates a Word document loader.
func NewDocxLoader() *DocxLoader {
	return &DocxLoader{}
}

func (l *DocxLoader) Load(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	text := extractZipXML(data, func(fname string) bool {
		return strings.EqualFold(fname, "word/document.xml")
	}, wordXMLText)
	if text == "" {
		text = printableText(data)
	}
	return text, nil
}

// extractZipXML opens a zip container and extracts text from each member
// accepted by match, concatenated in archive order.
func extractZipXML(data []byte, match func(name string) bool, extract func(r io.Reader) string) string {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	var buf strings.Builder
	for _, f := range r.File {
		if !match(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		part := extract(rc)
		_ = rc.Close()
		if part == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(part)
	}
	return buf.String()
}

// wordXMLText walks WordprocessingML, emitting runs of text with paragraph,
// tab, and line-break structure preserved.
func wordXMLText(r io.Reader) string {
	dec := xml.NewDecoder(r)
	var buf strings.Builder
	lastWasNewline := true
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t", "instrText":
				var text string
				if err := dec.DecodeElement(&text, &t); err == nil {
					buf.WriteString(text)
					if text != "" {
						lastWasNewline = false
					}
				}
			case "tab":
				buf.WriteByte('\t')
				lastWasNewline = false
			case "br", "cr":
				buf.WriteByte('\n')
				lastWasNewline = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "tr":
				if !lastWasNewline {
					buf.WriteByte('\n')
					lastWasNewline = true
				}
			}
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}
