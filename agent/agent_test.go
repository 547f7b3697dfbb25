package agent

import (
	"context"
	"errors"
	"testing"

	docqaerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/message"
	"github.com/sweetpotato0/docqa/rag/document"
)

// scriptedLLM replays canned responses: GenerateJSON serves jsonReplies in
// order (repeating the last one), GenerateText serves textReply.
type scriptedLLM struct {
	jsonReplies []string
	textReply   string
	jsonCalls   int
	textCalls   int
	jsonErr     error
}

func (s *scriptedLLM) GenerateJSON(ctx context.Context, msgs []*message.Message) (string, error) {
	if s.jsonErr != nil {
		return "", s.jsonErr
	}
	idx := s.jsonCalls
	s.jsonCalls++
	if idx >= len(s.jsonReplies) {
		idx = len(s.jsonReplies) - 1
	}
	return s.jsonReplies[idx], nil
}

func (s *scriptedLLM) GenerateText(ctx context.Context, msgs []*message.Message) (string, error) {
	s.textCalls++
	return s.textReply, nil
}

type stubSearcher struct {
	hits  map[string][]document.Chunk
	calls int
}

func (s *stubSearcher) Search(ctx context.Context, query string, k int) ([]document.Chunk, error) {
	s.calls++
	return s.hits[query], nil
}

const (
	planJSON       = `{"queries":["async handlers","request lifecycle"],"intent":"understand async behaviour"}`
	sufficientJSON = `{"is_sufficient":true,"score":0.9,"reason":"covers the question","missing_info":""}`
	retryJSON      = `{"is_sufficient":false,"score":0.4,"reason":"too shallow","missing_info":"needs deployment details"}`
)

func TestRunSufficientAfterOneIteration(t *testing.T) {
	llm := &scriptedLLM{
		jsonReplies: []string{planJSON, sufficientJSON},
		textReply:   "Handlers run on the event loop [Document 1].",
	}
	search := &stubSearcher{hits: map[string][]document.Chunk{
		"async handlers":    {{Text: "event loop details", Source: "async.md"}},
		"request lifecycle": {{Text: "lifecycle details", Source: "http.md"}},
	}}

	ag, err := New(llm, search)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	st, err := ag.Run(context.Background(), "How do async handlers work?")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if st.Iteration != 1 {
		t.Fatalf("expected 1 iteration, got %d", st.Iteration)
	}
	if !st.IsSufficient {
		t.Fatal("expected sufficient verdict")
	}
	if len(st.Chunks) != 2 {
		t.Fatalf("expected 2 accumulated chunks, got %d", len(st.Chunks))
	}
	if st.Answer == "" {
		t.Fatal("expected a non-empty answer")
	}
	if st.Query != "How do async handlers work?" {
		t.Fatalf("original question mutated: %q", st.Query)
	}
}

func TestRunExhaustsIterationCap(t *testing.T) {
	llm := &scriptedLLM{
		jsonReplies: []string{planJSON, retryJSON, planJSON, retryJSON, planJSON, retryJSON},
		textReply:   "The provided documents cannot answer the question.",
	}
	search := &stubSearcher{hits: map[string][]document.Chunk{}}

	ag, err := New(llm, search)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	st, err := ag.Run(context.Background(), "Unknown topic?")
	if err != nil {
		t.Fatalf("exhausting iterations must not be an error, got %v", err)
	}
	if st.Iteration != MaxIterations {
		t.Fatalf("expected %d iterations, got %d", MaxIterations, st.Iteration)
	}
	if st.IsSufficient {
		t.Fatal("expected insufficient final verdict")
	}
	if st.Answer == "" {
		t.Fatal("expected the best available answer to be returned")
	}
	// Zero retrieval hits per pass: the generator still ran each time.
	if llm.textCalls != MaxIterations {
		t.Fatalf("expected %d generation calls, got %d", MaxIterations, llm.textCalls)
	}
}

func TestRunAccumulatesChunksAcrossIterations(t *testing.T) {
	secondPlan := `{"queries":["deployment details"],"intent":"fill the gap"}`
	llm := &scriptedLLM{
		jsonReplies: []string{planJSON, retryJSON, secondPlan, sufficientJSON},
		textReply:   "Answer citing [Document 1] and [Document 2].",
	}
	search := &stubSearcher{hits: map[string][]document.Chunk{
		"async handlers":     {{Text: "event loop details", Source: "async.md"}},
		"request lifecycle":  {{Text: "event loop details", Source: "async.md"}}, // duplicate text
		"deployment details": {{Text: "deployment notes", Source: "deploy.md"}},
	}}

	ag, err := New(llm, search)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	st, err := ag.Run(context.Background(), "How do I deploy async handlers?")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if st.Iteration != 2 {
		t.Fatalf("expected 2 iterations, got %d", st.Iteration)
	}
	if len(st.Chunks) != 2 {
		t.Fatalf("expected deduplicated accumulation of 2 chunks, got %d", len(st.Chunks))
	}
	if st.Chunks[0].Text != "event loop details" || st.Chunks[1].Text != "deployment notes" {
		t.Fatalf("expected prior-iteration chunks first, got %v", st.Chunks)
	}
}

func TestRunPropagatesSchemaViolation(t *testing.T) {
	llm := &scriptedLLM{
		jsonReplies: []string{`{"queries":[],"intent":"nothing"}`},
		textReply:   "unused",
	}
	ag, err := New(llm, &stubSearcher{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	_, err = ag.Run(context.Background(), "Anything?")
	if err == nil {
		t.Fatal("expected schema violation to abort the run")
	}
	if !errors.Is(err, docqaerrors.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestRunPropagatesBackendFailure(t *testing.T) {
	llm := &scriptedLLM{jsonErr: docqaerrors.ErrBackendUnavailable}
	ag, err := New(llm, &stubSearcher{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	_, err = ag.Run(context.Background(), "Anything?")
	if !errors.Is(err, docqaerrors.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestRunRejectsEmptyQuestion(t *testing.T) {
	ag, err := New(&scriptedLLM{jsonReplies: []string{planJSON}}, &stubSearcher{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, err := ag.Run(context.Background(), "   "); err == nil {
		t.Fatal("expected empty question to be rejected")
	}
}

func TestFormatChunksNumbersAndSources(t *testing.T) {
	got := formatChunks([]document.Chunk{
		{Text: "first text", Source: "a.md"},
		{Text: "second text", Source: "b.pdf", Page: "3"},
	})

	want1 := "[Document 1] Source: a.md\nfirst text"
	want2 := "[Document 2] Source: b.pdf (p.3)\nsecond text"
	if got != want1+contextSeparator+want2 {
		t.Fatalf("unexpected context block:\n%s", got)
	}
}

func TestFormatChunksEmpty(t *testing.T) {
	if got := formatChunks(nil); got == "" {
		t.Fatal("expected a placeholder for empty context")
	}
}
