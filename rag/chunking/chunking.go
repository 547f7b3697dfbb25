package chunking

import (
	"context"
	"strings"

	"github.com/sweetpotato0/docqa/rag/document"
)

// Chunker splits documents into chunks that can be embedded and indexed.
type Chunker interface {
	Chunk(ctx context.Context, doc document.Document) ([]document.Chunk, error)
}

// LengthFunc measures a piece of text for chunk sizing. The default counts
// runes; token-based measures can be plugged in via WithLengthFunc.
type LengthFunc func(string) int

// DefaultSeparators is the ordered separator preference: larger logical
// breaks are tried first so chunks follow paragraph and sentence boundaries
// where possible. The trailing empty separator is the last resort and cuts
// between runes.
var DefaultSeparators = []string{"\n\n", "\n", "。", "、", " ", ""}

// Options configures the recursive chunker.
type Options struct {
	ChunkSize  int
	Overlap    int
	Separators []string
	Length     LengthFunc
}

// Option customizes the recursive chunker.
type Option func(*Options)

// WithChunkSize overrides the maximum chunk length (default 1000).
func WithChunkSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.ChunkSize = size
		}
	}
}

// WithOverlap configures overlap between consecutive chunks (default 200).
func WithOverlap(overlap int) Option {
	return func(o *Options) {
		if overlap >= 0 {
			o.Overlap = overlap
		}
	}
}

// WithSeparators sets the ordered separator preference list.
func WithSeparators(seps []string) Option {
	return func(o *Options) {
		if len(seps) > 0 {
			o.Separators = seps
		}
	}
}

// WithLengthFunc sets the measure used for chunk sizing.
func WithLengthFunc(fn LengthFunc) Option {
	return func(o *Options) {
		if fn != nil {
			o.Length = fn
		}
	}
}

// RecursiveChunker splits text by an ordered list of separators, preferring
// the largest separator that still produces pieces under the chunk size and
// recursing with smaller separators for oversized pieces. Consecutive chunks
// share an overlap window so information at chunk boundaries is not lost.
type RecursiveChunker struct {
	size    int
	overlap int
	seps    []string
	length  LengthFunc
}

// NewRecursiveChunker constructs a chunker with defaults suited to prose
// documents of mixed languages.
func NewRecursiveChunker(opts ...Option) *RecursiveChunker {
	cfg := &Options{
		ChunkSize:  1000,
		Overlap:    200,
		Separators: DefaultSeparators,
		Length:     func(s string) int { return len([]rune(s)) },
	}
	for _, opt := range opts {
		opt(cfg)
	}
	overlap := cfg.Overlap
	if overlap >= cfg.ChunkSize {
		overlap = cfg.ChunkSize / 2
	}
	return &RecursiveChunker{
		size:    cfg.ChunkSize,
		overlap: overlap,
		seps:    cfg.Separators,
		length:  cfg.Length,
	}
}

// Chunk splits the document into bounded pieces. A document shorter than the
// chunk size yields exactly one chunk; source and page metadata are copied
// onto every chunk.
func (c *RecursiveChunker) Chunk(ctx context.Context, doc document.Document) ([]document.Chunk, error) {
	pieces := c.splitText(doc.Content, c.seps)

	chunks := make([]document.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		text := strings.TrimSpace(piece)
		if text == "" {
			continue
		}
		chunks = append(chunks, document.Chunk{
			ID:      document.NextChunkID(doc.Source),
			Text:    text,
			Source:  doc.Source,
			Page:    doc.Page,
			Ordinal: len(chunks),
		})
	}

	if len(chunks) == 0 && strings.TrimSpace(doc.Content) != "" {
		chunks = append(chunks, document.Chunk{
			ID:     document.NextChunkID(doc.Source),
			Text:   strings.TrimSpace(doc.Content),
			Source: doc.Source,
			Page:   doc.Page,
		})
	}

	return chunks, nil
}

func (c *RecursiveChunker) splitText(text string, seps []string) []string {
	if text == "" {
		return nil
	}
	if c.length(text) <= c.size {
		return []string{text}
	}

	sep := ""
	var remaining []string
	for i, candidate := range seps {
		if candidate == "" {
			sep = ""
			remaining = nil
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			remaining = seps[i+1:]
			break
		}
	}

	// Splitting on "" cuts between runes, the last resort for text with no
	// usable separators.
	splits := strings.Split(text, sep)

	var final []string
	var fitting []string
	for _, piece := range splits {
		if c.length(piece) < c.size {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			final = append(final, c.merge(fitting, sep)...)
			fitting = nil
		}
		if len(remaining) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, c.splitText(piece, remaining)...)
		}
	}
	if len(fitting) > 0 {
		final = append(final, c.merge(fitting, sep)...)
	}
	return final
}

// merge joins small pieces back together up to the chunk size, carrying an
// overlap window of trailing pieces into the next chunk.
func (c *RecursiveChunker) merge(pieces []string, sep string) []string {
	sepLen := c.length(sep)

	var out []string
	var current []string
	total := 0

	joinLen := func(extra int) int {
		if len(current) == 0 {
			return total + extra
		}
		return total + extra + sepLen
	}

	for _, piece := range pieces {
		pieceLen := c.length(piece)
		if joinLen(pieceLen) > c.size && len(current) > 0 {
			doc := strings.Join(current, sep)
			if strings.TrimSpace(doc) != "" {
				out = append(out, doc)
			}
			// Drop leading pieces until the carried-over tail fits inside
			// the overlap budget and leaves room for the next piece.
			for len(current) > 0 && (total > c.overlap || joinLen(pieceLen) > c.size) {
				total -= c.length(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		if len(current) > 0 {
			total += sepLen
		}
		current = append(current, piece)
		total += pieceLen
	}

	doc := strings.Join(current, sep)
	if strings.TrimSpace(doc) != "" {
		out = append(out, doc)
	}
	return out
}
