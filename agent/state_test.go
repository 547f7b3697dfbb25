package agent

import (
	"testing"

	"github.com/sweetpotato0/docqa/rag/document"
)

func TestNextDecision(t *testing.T) {
	tests := []struct {
		name         string
		isSufficient bool
		iteration    int
		want         Decision
	}{
		{"sufficient answer terminates", true, 1, DecisionTerminate},
		{"insufficient answer retries", false, 1, DecisionRetry},
		{"iteration cap terminates despite insufficiency", false, MaxIterations, DecisionTerminate},
		{"first insufficient pass retries", false, 0, DecisionRetry},
		{"sufficient at cap still terminates", true, MaxIterations, DecisionTerminate},
		{"beyond cap terminates", false, MaxIterations + 1, DecisionTerminate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Next(tt.isSufficient, tt.iteration); got != tt.want {
				t.Fatalf("Next(%v, %d) = %q, want %q", tt.isSufficient, tt.iteration, got, tt.want)
			}
		})
	}
}

func TestAppendChunksDeduplicatesByText(t *testing.T) {
	st := NewState("q")

	st.AppendChunks([]document.Chunk{
		{ID: "a", Text: "alpha", Source: "one.md"},
		{ID: "b", Text: "beta", Source: "one.md"},
		{ID: "c", Text: "alpha", Source: "two.md"}, // same text, later rank
	})

	if len(st.Chunks) != 2 {
		t.Fatalf("expected 2 unique chunks, got %d", len(st.Chunks))
	}
	if st.Chunks[0].Source != "one.md" {
		t.Fatalf("expected first occurrence to win, got source %q", st.Chunks[0].Source)
	}
}

func TestAppendChunksAccumulatesAcrossCalls(t *testing.T) {
	st := NewState("q")

	st.AppendChunks([]document.Chunk{{Text: "alpha"}})
	first := len(st.Chunks)

	st.AppendChunks([]document.Chunk{{Text: "alpha"}, {Text: "beta"}})
	second := len(st.Chunks)

	if second < first {
		t.Fatalf("accumulated chunks shrank: %d -> %d", first, second)
	}
	if second != 2 {
		t.Fatalf("expected 2 chunks after second append, got %d", second)
	}
	if st.Chunks[0].Text != "alpha" || st.Chunks[1].Text != "beta" {
		t.Fatalf("append order broken: %v", st.Chunks)
	}
}

func TestAppendChunksIdempotent(t *testing.T) {
	st := NewState("q")
	batch := []document.Chunk{{Text: "same"}, {Text: "same"}}

	st.AppendChunks(batch)
	st.AppendChunks(batch)

	if len(st.Chunks) != 1 {
		t.Fatalf("expected a single chunk after duplicate appends, got %d", len(st.Chunks))
	}
}
