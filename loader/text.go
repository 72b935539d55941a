package loader

import (
	"bytes"
	"unicode/utf8"
)

// TextLoader passes plain text through, filtering non-printable bytes so a
// mislabelled binary file cannot poison the index.
type TextLoader struct{}

// NewTextLoader creates a plain text loader.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

func (l *TextLoader) Load(name string, data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	return printableText(data), nil
}

// printableText salvages printable characters from arbitrary bytes. It is the
// last-resort extraction shared by several loaders.
func printableText(in []byte) string {
	var out bytes.Buffer
	for len(in) > 0 {
		r, size := utf8.DecodeRune(in)
		if r == utf8.RuneError && size == 1 {
			b := in[0]
			if isPrintableASCII(b) {
				out.WriteByte(b)
			}
			in = in[1:]
			continue
		}
		in = in[size:]
		if isPrintableRune(r) {
			out.WriteRune(r)
		}
	}
	return out.String()
}

func isPrintableASCII(b byte) bool {
	return b == '\n' || b == '\r' || b == '\t' || (b >= 32 && b < 127)
}

func isPrintableRune(r rune) bool {
	if r == '\n' || r == '\r' || r == '\t' {
		return true
	}
	return r >= 32 && r <= 0x10FFFF && r != 127
}
