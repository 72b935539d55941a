package loader

import (
	"encoding/xml"
	"io"
	"strings"
)

// OdtLoader extracts text from OpenDocument text files (content.xml inside a
// zip container).
type OdtLoader struct{}

// NewOdtLoader creates an OpenDocument text loader.
func NewOdtLoader() *OdtLoader {
	return &OdtLoader{}
}

func (l *OdtLoader) Load(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	text := extractZipXML(data, func(fname string) bool {
		return strings.EqualFold(fname, "content.xml")
	}, odfXMLText)
	if text == "" {
		text = printableText(data)
	}
	return text, nil
}

// odfXMLText walks ODF content, keeping paragraph and heading boundaries.
func odfXMLText(r io.Reader) string {
	dec := xml.NewDecoder(r)
	var buf strings.Builder
	inText := 0
	lastWasNewline := true
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p", "h":
				inText++
			case "tab":
				if inText > 0 {
					buf.WriteByte('\t')
					lastWasNewline = false
				}
			case "line-break":
				if inText > 0 {
					buf.WriteByte('\n')
					lastWasNewline = true
				}
			case "s":
				if inText > 0 {
					buf.WriteByte(' ')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "h":
				if inText > 0 {
					inText--
				}
				if !lastWasNewline {
					buf.WriteByte('\n')
					lastWasNewline = true
				}
			}
		case xml.CharData:
			if inText > 0 && len(t) > 0 {
				buf.Write(t)
				lastWasNewline = false
			}
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}
