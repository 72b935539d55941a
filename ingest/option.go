package ingest

import (
	"docquery/matching"
)

// Option configures the ingest service.
type Option func(*Service)

// WithMatcher overrides the file selection rules.
func WithMatcher(matcher *matching.Manager) Option {
	return func(s *Service) { s.matcher = matcher }
}

// WithCollection sets the vector store collection written to.
func WithCollection(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.collection = name
		}
	}
}

// WithWorkers sets the number of concurrent file workers.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithBatchSize sets how many chunk documents are stored per call.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithProgress sets a callback invoked after each processed file.
func WithProgress(fn func(processed, total int, location string)) Option {
	return func(s *Service) { s.progress = fn }
}

// WithLogf overrides the log sink.
func WithLogf(fn func(format string, args ...interface{})) Option {
	return func(s *Service) { s.logf = fn }
}
