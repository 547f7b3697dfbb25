package agent

import (
	"context"
	"fmt"
	"strings"

	docqaerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/llm"
	"github.com/sweetpotato0/docqa/message"
)

const (
	minQueries = 1
	maxQueries = 5
)

type queryAnalyzer struct {
	llm    llm.Client
	prompt string
}

func newQueryAnalyzer(client llm.Client, cfg *Config) *queryAnalyzer {
	return &queryAnalyzer{
		llm:    client,
		prompt: cfg.AnalyzerPrompt,
	}
}

// Analyze turns the question into a set of diversified search queries. On a
// retry, feedback from the previous evaluation is folded into the prompt so
// the new queries compensate for the stated deficiency; the question itself
// is passed through untouched.
func (a *queryAnalyzer) Analyze(ctx context.Context, question, feedback string) (*SearchPlan, error) {
	if a.llm == nil {
		return nil, fmt.Errorf("analyzer LLM is not configured")
	}

	prompted := question
	if feedback != "" {
		prompted = fmt.Sprintf(
			"%s\n\nThe previous search round was missing the following: %s\nGenerate search queries that fill this gap.",
			question, feedback,
		)
	}

	msgs := []*message.Message{
		message.NewMessage(message.RoleSystem, a.prompt),
		message.NewMessage(message.RoleUser, fmt.Sprintf(
			"Generate search queries for finding relevant documents via vector search.\n\nQuestion: %s\n\nReturn JSON only.",
			prompted,
		)),
	}

	raw, err := a.llm.GenerateJSON(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("query analysis failed: %w", err)
	}

	plan, err := decodeJSON[SearchPlan](raw)
	if err != nil {
		return nil, fmt.Errorf("query analysis output invalid: %w", err)
	}
	if err := validatePlan(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// validatePlan enforces the schema's cardinality contract locally: a
// conforming plan carries between one and five non-empty queries. Violations
// are fatal to the run, never silently defaulted.
func validatePlan(plan *SearchPlan) error {
	if len(plan.Queries) < minQueries || len(plan.Queries) > maxQueries {
		return fmt.Errorf("expected %d..%d search queries, got %d: %w",
			minQueries, maxQueries, len(plan.Queries), docqaerrors.ErrSchemaViolation)
	}
	for i, q := range plan.Queries {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("search query %d is empty: %w", i+1, docqaerrors.ErrSchemaViolation)
		}
	}
	return nil
}
