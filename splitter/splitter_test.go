package splitter

import (
	"strings"
	"testing"
)

func TestRecursive_Split(t *testing.T) {
	paragraph := strings.Repeat("lorem ipsum dolor sit amet ", 20)
	text := paragraph + "\n\n" + paragraph + "\n\n" + paragraph

	s := NewRecursive(200, 20)
	chunks, err := s.Split(text)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 200 {
			t.Errorf("chunk %d exceeds size: %d", i, len(chunk))
		}
		if strings.TrimSpace(chunk) == "" {
			t.Errorf("chunk %d is blank", i)
		}
	}
}

func TestRecursive_SplitEmpty(t *testing.T) {
	s := NewRecursive(0, -1)
	chunks, err := s.Split("  \n\t ")
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestMarkdown_SplitSections(t *testing.T) {
	text := "# Intro\nshort intro text\n\n## Details\n" +
		strings.Repeat("details line\n", 5) +
		"\n## Usage\nusage text"

	s := NewMarkdown(80, 10)
	chunks, err := s.Split(text)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 sections, got %d: %v", len(chunks), chunks)
	}
	if !strings.HasPrefix(chunks[0], "# Intro") {
		t.Errorf("first chunk should start with the intro heading, got %q", chunks[0])
	}
	var usage bool
	for _, chunk := range chunks {
		if strings.Contains(chunk, "## Usage") && strings.Contains(chunk, "usage text") {
			usage = true
		}
	}
	if !usage {
		t.Errorf("usage heading separated from its body: %v", chunks)
	}
}

func TestMarkdown_FenceNotHeading(t *testing.T) {
	body := "intro\n```\n# not a heading\n```\nafter fence\n"
	text := body + strings.Repeat("filler\n", 30)

	sections := headingSections(text)
	for _, section := range sections {
		if strings.TrimSpace(section) == "# not a heading" {
			t.Fatalf("fenced line treated as heading")
		}
	}
	if len(sections) != 1 {
		t.Errorf("expected a single section, got %d", len(sections))
	}
}

func TestFactory_GetSplitter(t *testing.T) {
	f := NewFactory(1000, 100)
	if _, ok := f.GetSplitter("notes.md").(*Markdown); !ok {
		t.Errorf("expected markdown splitter for .md")
	}
	if _, ok := f.GetSplitter("notes.txt").(*Recursive); !ok {
		t.Errorf("expected recursive splitter for .txt")
	}
	if kind := f.Kind("README.MD"); kind != "markdown" {
		t.Errorf("expected markdown kind, got %q", kind)
	}
	if kind := f.Kind("data.csv"); kind != "text" {
		t.Errorf("expected text kind, got %q", kind)
	}
}
