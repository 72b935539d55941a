package loader

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
)

// EpubLoader extracts text from EPUB books by running each XHTML chapter
// through the HTML extractor, in archive order.
type EpubLoader struct{}

// NewEpubLoader creates an EPUB loader.
func NewEpubLoader() *EpubLoader {
	return &EpubLoader{}
}

func (l *EpubLoader) Load(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return printableText(data), nil
	}
	var buf strings.Builder
	for _, f := range r.File {
		lower := strings.ToLower(f.Name)
		if !strings.HasSuffix(lower, ".xhtml") && !strings.HasSuffix(lower, ".html") &&
			!strings.HasSuffix(lower, ".htm") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		chapter, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			continue
		}
		text, err := htmlText(chapter)
		if err != nil || text == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}
