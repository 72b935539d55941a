package splitter

import (
	"strings"
)

// Markdown splits on heading boundaries first so chunks follow the document
// structure, delegating oversized sections to the recursive splitter.
type Markdown struct {
	chunkSize int
	fallback  *Recursive
}

// NewMarkdown creates a markdown-aware splitter.
func NewMarkdown(chunkSize, chunkOverlap int) *Markdown {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Markdown{
		chunkSize: chunkSize,
		fallback:  NewRecursive(chunkSize, chunkOverlap),
	}
}

func (s *Markdown) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if len(text) <= s.chunkSize {
		return []string{text}, nil
	}
	var out []string
	for _, section := range headingSections(text) {
		if strings.TrimSpace(section) == "" {
			continue
		}
		if len(section) <= s.chunkSize {
			out = append(out, section)
			continue
		}
		chunks, err := s.fallback.Split(section)
		if err != nil {
			return nil, err
		}
		out = append(out, chunks...)
	}
	return out, nil
}

// headingSections cuts text at ATX heading lines. Text before the first
// heading forms its own section.
func headingSections(text string) []string {
	lines := strings.Split(text, "\n")
	var sections []string
	var current strings.Builder
	inFence := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
		}
		if !inFence && isHeading(trimmed) && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

func isHeading(line string) bool {
	if !strings.HasPrefix(line, "#") {
		return false
	}
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	return level <= 6 && level < len(line) && line[level] == ' '
}
