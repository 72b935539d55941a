package schema

// Metadata keys shared across loaders, the ingest service, and vector stores.
const (
	// SourceKey holds the originating file path.
	SourceKey = "source"
	// DocumentID identifies the source document a chunk belongs to.
	DocumentID = "documentId"
	// FragmentID identifies one chunk within a document.
	FragmentID = "fragmentId"
	// ChunkKey holds the zero-based chunk index within its document.
	ChunkKey = "chunk"
)
