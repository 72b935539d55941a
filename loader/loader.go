// Package loader extracts plain text from heterogeneous document formats.
// Each supported file extension maps to a format loader; the ingest service
// dispatches files through the registry and skips anything unsupported.
package loader

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Loader extracts plain text from one document format.
type Loader interface {
	// Load returns the extracted text for the named file content.
	Load(name string, data []byte) (string, error)
}

// Registry maps file extensions to loaders.
type Registry struct {
	byExt map[string]Loader
}

// NewRegistry creates a registry with all built-in format loaders.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Loader)}
	text := NewTextLoader()
	htmlLoader := NewHTMLLoader()
	docx := NewDocxLoader()
	pptx := NewPptxLoader()

	r.Register(".txt", text)
	r.Register(".md", text)
	r.Register(".log", text)
	r.Register(".json", text)
	r.Register(".csv", NewCSVLoader())
	r.Register(".pdf", NewPDFLoader())
	r.Register(".doc", docx)
	r.Register(".docx", docx)
	r.Register(".odt", NewOdtLoader())
	r.Register(".ppt", pptx)
	r.Register(".pptx", pptx)
	r.Register(".html", htmlLoader)
	r.Register(".htm", htmlLoader)
	r.Register(".epub", NewEpubLoader())
	r.Register(".eml", NewEmlLoader())
	r.Register(".enex", NewEnexLoader())
	r.Register(".xls", NewXLSLoader())
	r.Register(".xlsx", NewXLSXLoader())
	return r
}

// Register binds a loader to a file extension (".pdf").
func (r *Registry) Register(ext string, l Loader) {
	r.byExt[strings.ToLower(ext)] = l
}

// Lookup returns the loader for the given path, if any.
func (r *Registry) Lookup(path string) (Loader, bool) {
	l, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return l, ok
}

// Load dispatches the file to its format loader.
func (r *Registry) Load(path string, data []byte) (string, error) {
	l, ok := r.Lookup(path)
	if !ok {
		return "", fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
	return l.Load(path, data)
}

// Supported reports whether the path's extension has a loader.
func (r *Registry) Supported(path string) bool {
	_, ok := r.Lookup(path)
	return ok
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
