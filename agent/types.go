package agent

import (
	"context"

	"github.com/sweetpotato0/docqa/rag/document"
)

// SearchPlan is the structured output of the query analysis step: a small
// set of diversified search queries plus the stated intent behind the
// question. The schema admits between one and five queries; fewer hurts
// recall, more dilutes relevance.
type SearchPlan struct {
	Queries []string `json:"queries"`
	Intent  string   `json:"intent"`
}

// Evaluation is the structured verdict on a generated answer. IsSufficient
// is the authoritative loop signal; Score and Reason exist for tracing, and
// MissingInfo drives query reformulation on the next iteration.
type Evaluation struct {
	IsSufficient bool    `json:"is_sufficient"`
	Score        float64 `json:"score"`
	Reason       string  `json:"reason"`
	MissingInfo  string  `json:"missing_info"`
}

// Searcher is the retrieval capability the loop depends on: a ranked
// similarity search over the indexed corpus.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]document.Chunk, error)
}
