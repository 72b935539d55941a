package splitter

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize matches the ingest default of 1000 characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap matches the ingest default of 100 characters.
	DefaultChunkOverlap = 100
)

// Recursive splits text recursively on paragraph, line, and word boundaries
// into chunks of at most chunkSize characters with chunkOverlap overlap.
type Recursive struct {
	inner textsplitter.RecursiveCharacter
}

// NewRecursive creates a recursive character splitter.
func NewRecursive(chunkSize, chunkOverlap int) *Recursive {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}
	return &Recursive{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

func (s *Recursive) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	chunks, err := s.inner.SplitText(text)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		out = append(out, chunk)
	}
	return out, nil
}
