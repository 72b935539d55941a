package document

import (
	"time"
)

// Entry records one ingested source file. Entries are cached between runs so
// re-ingestion can skip unchanged files and drop vectors of removed ones.
type Entry struct {
	// ID is the document identifier, the path relative to the source root.
	ID string `json:"id"`
	// ModTime is the file modification time at ingest.
	ModTime time.Time `json:"modTime"`
	// Hash of the raw file content, for change detection.
	Hash uint64 `json:"hash"`
	// Fragments describe the chunks produced from the file.
	Fragments Fragments `json:"fragments,omitempty"`
}
