package document

import (
	"testing"

	"docquery/schema"
)

func TestFragment_NewDocument(t *testing.T) {
	f := &Fragment{Index: 2, Size: 11, Kind: "markdown", Meta: map[string]string{"lang": "en"}}
	doc := f.NewDocument("/docs/a.md", "chunk text")

	if doc.PageContent != "chunk text" {
		t.Errorf("unexpected content %q", doc.PageContent)
	}
	if doc.Metadata[schema.SourceKey] != "/docs/a.md" {
		t.Errorf("source metadata missing: %v", doc.Metadata)
	}
	if doc.Metadata[schema.FragmentID] != "/docs/a.md#2" {
		t.Errorf("fragment id metadata: %v", doc.Metadata[schema.FragmentID])
	}
	if doc.Metadata[schema.ChunkKey] != 2 {
		t.Errorf("chunk metadata: %v", doc.Metadata[schema.ChunkKey])
	}
	if doc.Metadata["kind"] != "markdown" || doc.Metadata["lang"] != "en" {
		t.Errorf("extra metadata lost: %v", doc.Metadata)
	}
}

func TestFragments_VectorDBIDs(t *testing.T) {
	fragments := Fragments{
		{Index: 0, VectorDBID: "id-0"},
		{Index: 1},
		{Index: 2, VectorDBID: "id-2"},
	}
	ids := fragments.VectorDBIDs()
	if len(ids) != 2 || ids[0] != "id-0" || ids[1] != "id-2" {
		t.Errorf("unexpected ids %v", ids)
	}
}
