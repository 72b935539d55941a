package schema

// Document is the unit of text flowing through the pipeline: loaders emit
// one per file, the splitter turns it into chunk documents, the vector store
// persists and retrieves them.
type Document struct {
	PageContent string                 `json:"page_content"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	// Score is populated by similarity search only.
	Score float32 `json:"score,omitempty"`
}

// Source returns the originating file path recorded by the loader.
func (d *Document) Source() string {
	if d.Metadata == nil {
		return ""
	}
	if s, ok := d.Metadata["source"].(string); ok {
		return s
	}
	return ""
}
