package loader

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

// EmlLoader extracts text from RFC 5322 email files. Subject and sender are
// prepended so retrieval can match on them; the body prefers text/plain
// parts and falls back to extracted text/html.
type EmlLoader struct{}

// NewEmlLoader creates an email loader.
func NewEmlLoader() *EmlLoader {
	return &EmlLoader{}
}

func (l *EmlLoader) Load(name string, data []byte) (string, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse email %s: %w", name, err)
	}
	var buf strings.Builder
	for _, h := range []string{"Subject", "From", "To", "Date"} {
		if v := msg.Header.Get(h); v != "" {
			if decoded, err := new(mime.WordDecoder).DecodeHeader(v); err == nil {
				v = decoded
			}
			buf.WriteString(h)
			buf.WriteString(": ")
			buf.WriteString(v)
			buf.WriteByte('\n')
		}
	}
	body := emailBody(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if body != "" {
		buf.WriteByte('\n')
		buf.WriteString(body)
	}
	return buf.String(), nil
}

func emailBody(contentType, encoding string, r io.Reader) string {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}
	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return ""
		}
		return multipartBody(boundary, r)
	}
	data, err := io.ReadAll(decodeTransfer(encoding, r))
	if err != nil {
		return ""
	}
	switch {
	case strings.HasPrefix(mediaType, "text/html"):
		text, err := htmlText(data)
		if err != nil {
			return ""
		}
		return text
	case strings.HasPrefix(mediaType, "text/"):
		return string(data)
	}
	return ""
}

func multipartBody(boundary string, r io.Reader) string {
	mr := multipart.NewReader(r, boundary)
	var plain, other strings.Builder
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		text := emailBody(part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"), part)
		mediaType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		target := &other
		if strings.HasPrefix(mediaType, "text/plain") {
			target = &plain
		}
		if text != "" {
			if target.Len() > 0 {
				target.WriteByte('\n')
			}
			target.WriteString(text)
		}
	}
	if plain.Len() > 0 {
		return plain.String()
	}
	return other.String()
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	default:
		return r
	}
}
