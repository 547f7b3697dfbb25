package document

import (
	"fmt"
	"sync/atomic"
)

// Document represents one loaded unit of source text: a whole Markdown or
// plain-text file, or a single page of a PDF.
type Document struct {
	Source  string `json:"source"`         // original file identifier
	Page    string `json:"page,omitempty"` // page number for paginated formats
	Content string `json:"content"`
}

// Chunk is a bounded slice of a document's text carrying its provenance.
// Two chunks are considered the same retrieval result when their Text is
// equal; identity is the content, not the generated ID.
type Chunk struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Source  string `json:"source"`
	Page    string `json:"page,omitempty"`
	Ordinal int    `json:"ordinal"`
}

var chunkCounter atomic.Int64

// NextChunkID returns a globally unique chunk identifier derived from the
// source name.
func NextChunkID(source string) string {
	next := chunkCounter.Add(1)
	if source == "" {
		return fmt.Sprintf("chunk_%d", next)
	}
	return fmt.Sprintf("%s_chunk_%d", source, next)
}
