// Package splitter cuts extracted document text into overlapping chunks
// sized for embedding.
package splitter

import (
	"path/filepath"
	"strings"
)

// Splitter splits extracted text into chunk strings.
type Splitter interface {
	Split(text string) ([]string, error)
}

// Factory selects a splitter per file extension.
type Factory struct {
	defaultSplitter Splitter
	extSplitter     map[string]Splitter
}

// NewFactory creates a factory with the recursive character splitter as the
// default and a markdown-aware splitter for .md files.
func NewFactory(chunkSize, chunkOverlap int) *Factory {
	f := &Factory{
		defaultSplitter: NewRecursive(chunkSize, chunkOverlap),
		extSplitter:     make(map[string]Splitter),
	}
	f.Register(".md", NewMarkdown(chunkSize, chunkOverlap))
	return f
}

// Register binds a splitter to a file extension.
func (f *Factory) Register(ext string, s Splitter) {
	f.extSplitter[strings.ToLower(ext)] = s
}

// GetSplitter returns the splitter for the given file path.
func (f *Factory) GetSplitter(path string) Splitter {
	if s, ok := f.extSplitter[strings.ToLower(filepath.Ext(path))]; ok {
		return s
	}
	return f.defaultSplitter
}

// Kind names the chunking strategy used for a path, recorded in fragment
// metadata.
func (f *Factory) Kind(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".md") {
		return "markdown"
	}
	return "text"
}
