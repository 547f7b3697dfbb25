package agent

import "github.com/sweetpotato0/docqa/rag/document"

// MaxIterations bounds the analyze→retrieve→generate→evaluate passes per
// run. The loop halts after this many evaluations even if the evaluator
// never reports sufficiency.
const MaxIterations = 3

// Phase enumerates the loop controller's states.
type Phase string

const (
	PhaseAnalyzing  Phase = "analyzing"
	PhaseRetrieving Phase = "retrieving"
	PhaseGenerating Phase = "generating"
	PhaseEvaluating Phase = "evaluating"
	PhaseDone       Phase = "done"
)

// Decision is the outcome of the post-evaluation transition.
type Decision string

const (
	DecisionRetry     Decision = "retry"
	DecisionTerminate Decision = "terminate"
)

// Next is the loop's transition function, applied after the evaluation step
// has incremented the iteration counter. Sufficiency terminates regardless
// of the iteration count; the iteration cap terminates regardless of
// sufficiency.
func Next(isSufficient bool, iteration int) Decision {
	if isSufficient {
		return DecisionTerminate
	}
	if iteration >= MaxIterations {
		return DecisionTerminate
	}
	return DecisionRetry
}

// State is the record threaded through one run of the loop. A fresh State is
// created per question and discarded after the response is extracted; runs
// never share state.
type State struct {
	// Query is the original question, set once at entry and never mutated.
	Query string

	// SearchQueries holds the current iteration's reformulated queries,
	// overwritten by each analysis pass.
	SearchQueries []string

	// Chunks accumulates retrieval results across iterations. Append-only:
	// later passes see the union of every search performed so far.
	Chunks []document.Chunk

	// Answer is the latest generated answer, overwritten per iteration.
	Answer string

	// IsSufficient is the latest evaluation verdict.
	IsSufficient bool

	// EvaluationReason is the latest evaluation rationale.
	EvaluationReason string

	// Iteration counts completed evaluation passes, starting at zero.
	Iteration int

	seen map[string]struct{}
}

// NewState creates the initial state for a question.
func NewState(query string) *State {
	return &State{
		Query: query,
		seen:  make(map[string]struct{}),
	}
}

// AppendChunks merges newly retrieved chunks into the accumulated sequence,
// dropping any chunk whose text was already retrieved, whether by an earlier
// iteration or earlier in the same batch. The first occurrence keeps its
// position; the accumulated sequence never shrinks.
func (s *State) AppendChunks(chunks []document.Chunk) {
	if s.seen == nil {
		s.seen = make(map[string]struct{}, len(s.Chunks))
		for _, c := range s.Chunks {
			s.seen[c.Text] = struct{}{}
		}
	}
	for _, chunk := range chunks {
		if _, dup := s.seen[chunk.Text]; dup {
			continue
		}
		s.seen[chunk.Text] = struct{}{}
		s.Chunks = append(s.Chunks, chunk)
	}
}
