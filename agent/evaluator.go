package agent

import (
	"context"
	"fmt"
	"log/slog"

	docqaerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/llm"
	"github.com/sweetpotato0/docqa/message"
)

type evaluator struct {
	llm    llm.Client
	prompt string
	logger *slog.Logger
}

func newEvaluator(client llm.Client, cfg *Config, logger *slog.Logger) *evaluator {
	return &evaluator{
		llm:    client,
		prompt: cfg.EvaluatorPrompt,
		logger: logger,
	}
}

// Evaluate scores the answer against the question. The 0.7 sufficiency
// threshold lives in the prompt; the returned boolean is trusted as the loop
// verdict. A disagreement between boolean and score is logged but not
// overridden.
func (e *evaluator) Evaluate(ctx context.Context, question, answer string) (*Evaluation, error) {
	if e.llm == nil {
		return nil, fmt.Errorf("evaluator LLM is not configured")
	}

	msgs := []*message.Message{
		message.NewMessage(message.RoleSystem, e.prompt),
		message.NewMessage(message.RoleUser, fmt.Sprintf(
			"Evaluate the following question and answer.\n\nQuestion: %s\n\nAnswer: %s",
			question, answer,
		)),
	}

	raw, err := e.llm.GenerateJSON(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	eval, err := decodeJSON[Evaluation](raw)
	if err != nil {
		return nil, fmt.Errorf("evaluation output invalid: %w", err)
	}
	if eval.Score < 0 || eval.Score > 1 {
		return nil, fmt.Errorf("evaluation score %.2f outside [0,1]: %w", eval.Score, docqaerrors.ErrSchemaViolation)
	}

	if eval.IsSufficient != (eval.Score >= 0.7) {
		e.logger.Warn("evaluator verdict disagrees with score",
			"is_sufficient", eval.IsSufficient,
			"score", eval.Score,
		)
	}
	return eval, nil
}
