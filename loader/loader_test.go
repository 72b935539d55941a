package loader

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func buildZip(t *testing.T, members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range members {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create zip member %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write zip member %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestRegistry_Supported(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		path      string
		supported bool
	}{
		{"notes.txt", true},
		{"notes.MD", true},
		{"server.log", true},
		{"settings.json", true},
		{"export.enex", true},
		{"report.pdf", true},
		{"deck.pptx", true},
		{"book.epub", true},
		{"mail.eml", true},
		{"sheet.xlsx", true},
		{"archive.tar.gz", false},
		{"image.png", false},
		{"noextension", false},
	}
	for _, tc := range tests {
		if got := r.Supported(tc.path); got != tc.supported {
			t.Errorf("Supported(%q) = %v, want %v", tc.path, got, tc.supported)
		}
	}
	if len(r.Extensions()) != 18 {
		t.Errorf("expected 18 registered extensions, got %d: %v", len(r.Extensions()), r.Extensions())
	}
}

func TestRegistry_LoadUnsupported(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Load("image.png", []byte("data")); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}

func TestTextLoader(t *testing.T) {
	l := NewTextLoader()
	text, err := l.Load("notes.txt", []byte("hello\nworld"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if text != "hello\nworld" {
		t.Errorf("unexpected text: %q", text)
	}

	// Invalid UTF-8 bytes are salvaged, not propagated.
	text, err = l.Load("notes.txt", []byte{'o', 'k', 0xff, 0x00, '!'})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if text != "ok!" {
		t.Errorf("expected salvaged text %q, got %q", "ok!", text)
	}
}

func TestCSVLoader(t *testing.T) {
	data := []byte("name,age\nalice,30\nbob,41\n")
	text, err := NewCSVLoader().Load("people.csv", data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for _, want := range []string{"name: alice", "age: 30", "name: bob", "age: 41"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in %q", want, text)
		}
	}
}

func TestHTMLLoader(t *testing.T) {
	data := []byte(`<html><head><title>skip me</title><style>p{color:red}</style></head>
<body><h1>Heading</h1><p>First paragraph.</p><script>var x = 1;</script><p>Second paragraph.</p></body></html>`)
	text, err := NewHTMLLoader().Load("page.html", data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for _, want := range []string{"Heading", "First paragraph.", "Second paragraph."} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in %q", want, text)
		}
	}
	for _, unwanted := range []string{"skip me", "color:red", "var x"} {
		if strings.Contains(text, unwanted) {
			t.Errorf("unexpected %q in %q", unwanted, text)
		}
	}
}

func TestDocxLoader(t *testing.T) {
	document := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
 <w:body>
  <w:p><w:r><w:t>First line</w:t></w:r></w:p>
  <w:p><w:r><w:t>Second</w:t></w:r><w:r><w:t> line</w:t></w:r></w:p>
 </w:body>
</w:document>`
	data := buildZip(t, map[string]string{"word/document.xml": document})
	text, err := NewDocxLoader().Load("report.docx", data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if want := "First line\nSecond line"; text != want {
		t.Errorf("got %q, want %q", text, want)
	}
}

func TestOdtLoader(t *testing.T) {
	content := `<?xml version="1.0"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
 xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">
 <office:body><office:text>
  <text:h>Title</text:h>
  <text:p>Body<text:line-break/>continues</text:p>
 </office:text></office:body>
</office:document-content>`
	data := buildZip(t, map[string]string{"content.xml": content})
	text, err := NewOdtLoader().Load("doc.odt", data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if want := "Title\nBody\ncontinues"; text != want {
		t.Errorf("got %q, want %q", text, want)
	}
}

func TestPptxLoader_SlideOrder(t *testing.T) {
	slide := func(body string) string {
		return `<?xml version="1.0"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
 xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
 <a:p><a:r><a:t>` + body + `</a:t></a:r></a:p>
</p:sld>`
	}
	// Slide 10 before slide 2 in archive order; extraction must sort numerically.
	data := buildZip(t, map[string]string{
		"ppt/slides/slide10.xml": slide("tenth slide"),
		"ppt/slides/slide2.xml":  slide("second slide"),
	})
	text, err := NewPptxLoader().Load("deck.pptx", data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	second := strings.Index(text, "second slide")
	tenth := strings.Index(text, "tenth slide")
	if second == -1 || tenth == -1 {
		t.Fatalf("missing slide text in %q", text)
	}
	if second > tenth {
		t.Errorf("slides out of order: %q", text)
	}
}

func TestEpubLoader(t *testing.T) {
	data := buildZip(t, map[string]string{
		"mimetype":         "application/epub+zip",
		"OEBPS/ch1.xhtml":  "<html><body><p>Chapter one text.</p></body></html>",
		"OEBPS/ch2.xhtml":  "<html><body><p>Chapter two text.</p></body></html>",
		"OEBPS/styles.css": "p { margin: 0 }",
		"META-INF/toc.ncx": "<ncx/>",
	})
	text, err := NewEpubLoader().Load("book.epub", data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !strings.Contains(text, "Chapter one text.") || !strings.Contains(text, "Chapter two text.") {
		t.Errorf("missing chapter text in %q", text)
	}
	if strings.Contains(text, "margin") {
		t.Errorf("stylesheet leaked into %q", text)
	}
}

func TestEnexLoader(t *testing.T) {
	raw := `<?xml version="1.0" encoding="UTF-8"?>
<en-export export-date="20240101T000000Z" application="Evernote">
 <note>
  <title>Meeting notes</title>
  <content><![CDATA[<?xml version="1.0" encoding="UTF-8"?>
<en-note><div>Discussed the roadmap.</div><div>Action items follow.</div></en-note>]]></content>
 </note>
 <note>
  <title>Reading list</title>
  <content><![CDATA[<en-note><div>Two books queued.</div></en-note>]]></content>
 </note>
</en-export>`
	text, err := NewEnexLoader().Load("export.enex", []byte(raw))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for _, want := range []string{"Meeting notes", "Discussed the roadmap.", "Action items follow.", "Reading list", "Two books queued."} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in %q", want, text)
		}
	}
	if strings.Contains(text, "en-note") || strings.Contains(text, "CDATA") {
		t.Errorf("markup leaked into %q", text)
	}
}

func TestEmlLoader(t *testing.T) {
	raw := "Subject: Quarterly report\r\n" +
		"From: alice@example.com\r\n" +
		"To: bob@example.com\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Numbers are up.\r\n"
	text, err := NewEmlLoader().Load("mail.eml", []byte(raw))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for _, want := range []string{"Subject: Quarterly report", "From: alice@example.com", "Numbers are up."} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in %q", want, text)
		}
	}
}

func TestEmlLoader_MultipartPrefersPlain(t *testing.T) {
	raw := "Subject: Hello\r\n" +
		"Content-Type: multipart/alternative; boundary=BOUND\r\n" +
		"\r\n" +
		"--BOUND\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"plain body\r\n" +
		"--BOUND\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>html body</p>\r\n" +
		"--BOUND--\r\n"
	text, err := NewEmlLoader().Load("mail.eml", []byte(raw))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !strings.Contains(text, "plain body") {
		t.Errorf("missing plain part in %q", text)
	}
	if strings.Contains(text, "html body") {
		t.Errorf("html alternative should be dropped when plain exists: %q", text)
	}
}
