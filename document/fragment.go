package document

import (
	"fmt"

	"docquery/schema"
)

// Fragments is a collection of document fragments.
type Fragments []*Fragment

// VectorDBIDs returns the vector store ids assigned to the fragments.
func (f Fragments) VectorDBIDs() []string {
	ids := make([]string, 0, len(f))
	for _, fragment := range f {
		if fragment.VectorDBID != "" {
			ids = append(ids, fragment.VectorDBID)
		}
	}
	return ids
}

// Fragment describes one chunk cut from a document. The chunk text itself is
// not retained here; it lives in the vector store.
type Fragment struct {
	Index      int               `json:"index"`
	Size       int               `json:"size"`
	Checksum   int               `json:"checksum"`
	VectorDBID string            `json:"entryId,omitempty"`
	Kind       string            `json:"kind,omitempty"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// ID returns the fragment identifier within the given document.
func (f *Fragment) ID(docID string) string {
	return fmt.Sprintf("%s#%d", docID, f.Index)
}

// NewDocument builds the chunk document handed to the vector store.
func (f *Fragment) NewDocument(docID, text string) schema.Document {
	metadata := map[string]interface{}{
		schema.SourceKey:  docID,
		schema.DocumentID: docID,
		schema.FragmentID: f.ID(docID),
		schema.ChunkKey:   f.Index,
	}
	for k, v := range f.Meta {
		metadata[k] = v
	}
	if f.Kind != "" {
		metadata["kind"] = f.Kind
	}
	return schema.Document{
		PageContent: text,
		Metadata:    metadata,
	}
}
