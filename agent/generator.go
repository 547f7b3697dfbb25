package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/sweetpotato0/docqa/llm"
	"github.com/sweetpotato0/docqa/message"
	"github.com/sweetpotato0/docqa/rag/document"
)

const contextSeparator = "\n\n---\n\n"

type answerGenerator struct {
	llm    llm.Client
	prompt string
}

func newAnswerGenerator(client llm.Client, cfg *Config) *answerGenerator {
	return &answerGenerator{
		llm:    client,
		prompt: cfg.GeneratorPrompt,
	}
}

// Compose generates a grounded answer from the accumulated chunks. The
// context block numbers every chunk in sequence order so citations remain
// stable across iterations. An empty chunk list is still answered; the
// prompt instructs the model to state insufficiency rather than fail.
func (g *answerGenerator) Compose(ctx context.Context, question string, chunks []document.Chunk) (string, error) {
	if g.llm == nil {
		return "", fmt.Errorf("generator LLM is not configured")
	}

	msgs := []*message.Message{
		message.NewMessage(message.RoleSystem, g.prompt),
		message.NewMessage(message.RoleUser, fmt.Sprintf(
			"Context:\n%s\n\nQuestion: %s\n\nAnswer based on the context above.",
			formatChunks(chunks), question,
		)),
	}

	answer, err := g.llm.GenerateText(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// formatChunks renders the retrieved chunks as a numbered, citable context
// block: "[Document i] Source: <source> (p.<page>)" followed by the text.
func formatChunks(chunks []document.Chunk) string {
	if len(chunks) == 0 {
		return "(no documents were retrieved)"
	}
	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		sourceInfo := fmt.Sprintf("Source: %s", chunk.Source)
		if chunk.Page != "" {
			sourceInfo += fmt.Sprintf(" (p.%s)", chunk.Page)
		}
		parts = append(parts, fmt.Sprintf("[Document %d] %s\n%s", i+1, sourceInfo, chunk.Text))
	}
	return strings.Join(parts, contextSeparator)
}
