package loader

import (
	"bytes"
	"io"

	"github.com/ledongthuc/pdf"
)

// PDFLoader extracts text from PDF files.
type PDFLoader struct{}

// NewPDFLoader creates a PDF loader.
func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

func (l *PDFLoader) Load(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data))); err == nil {
		if reader, err := r.GetPlainText(); err == nil {
			if out, err := io.ReadAll(reader); err == nil && len(out) > 0 {
				return string(out), nil
			}
		}
	}
	// Encrypted or malformed PDFs still often carry readable text streams.
	return printableText(data), nil
}
