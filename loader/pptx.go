package loader

import (
	"encoding/xml"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// PptxLoader extracts text from PowerPoint presentations, one slide per
// paragraph block in slide order. Legacy .ppt files fall back to printable
// text salvage.
type PptxLoader struct{}

// NewPptxLoader creates a PowerPoint loader.
func NewPptxLoader() *PptxLoader {
	return &PptxLoader{}
}

func (l *PptxLoader) Load(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	text := extractSlides(data)
	if text == "" {
		text = printableText(data)
	}
	return text, nil
}

func extractSlides(data []byte) string {
	type slide struct {
		num  int
		name string
	}
	var slides []slide
	collect := func(fname string) bool {
		m := slideNameRe.FindStringSubmatch(fname)
		if m == nil {
			return false
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{num: n, name: fname})
		return false
	}
	// First pass only records slide names so they can be ordered numerically.
	extractZipXML(data, collect, func(io.Reader) string { return "" })
	if len(slides) == 0 {
		return ""
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var buf strings.Builder
	for _, s := range slides {
		part := extractZipXML(data, func(fname string) bool { return fname == s.name }, drawingXMLText)
		if part == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(part)
	}
	return buf.String()
}

// drawingXMLText collects DrawingML text runs, one line per paragraph.
func drawingXMLText(r io.Reader) string {
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
			if t.Name.Local == "t" {
				var text string
				if err := dec.DecodeElement(&text, &t); err == nil && text != "" {
					buf.WriteString(text)
					lastWasNewline = false
				}
			}
		case xml.EndElement:
			if t.Name.Local == "p" && !lastWasNewline {
				buf.WriteByte('\n')
				lastWasNewline = true
			}
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}
