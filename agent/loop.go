// Package agent implements the self-evaluating retrieval loop: analyze the
// question into search queries, retrieve and accumulate chunks, generate a
// grounded answer, evaluate its sufficiency, and retry with reformulated
// queries until the answer is judged sufficient or the iteration cap is hit.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sweetpotato0/docqa/llm"
	"github.com/sweetpotato0/docqa/pkg/logging"
	"github.com/sweetpotato0/docqa/pkg/telemetry"
)

// Agent is the loop controller. It owns no cross-run state: every Run
// constructs a fresh State and walks the phase machine over it.
type Agent struct {
	cfg       *Config
	analyzer  *queryAnalyzer
	generator *answerGenerator
	evaluator *evaluator
	searcher  Searcher
	logger    *slog.Logger
	tracer    trace.Tracer
}

// New wires the loop components around one LLM client and one searcher.
func New(client llm.Client, searcher Searcher, opts ...Option) (*Agent, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	cfg := applyOptions(nil, opts)
	logger := logging.WithComponent("agent").With("agent", cfg.Name)
	return &Agent{
		cfg:       cfg,
		analyzer:  newQueryAnalyzer(client, cfg),
		generator: newAnswerGenerator(client, cfg),
		evaluator: newEvaluator(client, cfg, logger),
		searcher:  searcher,
		logger:    logger,
		tracer:    telemetry.Tracer("docqa/agent"),
	}, nil
}

// Run executes the loop for one question and returns the final state. Any
// component failure aborts the run with no partial answer. A run that
// exhausts the iteration cap without sufficiency is not an error: the state
// carries the best available answer with IsSufficient=false.
func (a *Agent) Run(ctx context.Context, question string) (st *State, err error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}

	ctx, span := a.tracer.Start(ctx, "agent.run",
		trace.WithAttributes(attribute.String("agent.name", a.cfg.Name)))
	defer func() { telemetry.End(span, err) }()

	a.logger.Info("run started", "question", trimForLog(question, 120))

	st = NewState(question)
	phase := PhaseAnalyzing

	for phase != PhaseDone {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch phase {
		case PhaseAnalyzing:
			if err := a.analyze(ctx, st); err != nil {
				return nil, err
			}
			phase = PhaseRetrieving

		case PhaseRetrieving:
			if err := a.retrieve(ctx, st); err != nil {
				return nil, err
			}
			phase = PhaseGenerating

		case PhaseGenerating:
			if err := a.generate(ctx, st); err != nil {
				return nil, err
			}
			phase = PhaseEvaluating

		case PhaseEvaluating:
			if err := a.evaluate(ctx, st); err != nil {
				return nil, err
			}
			// The decision uses the post-increment iteration count, so the
			// cap holds even if the evaluator never approves.
			if Next(st.IsSufficient, st.Iteration) == DecisionTerminate {
				phase = PhaseDone
			} else {
				phase = PhaseAnalyzing
			}

		default:
			return nil, fmt.Errorf("unknown phase %q", phase)
		}
	}

	span.SetAttributes(
		attribute.Int("agent.iterations", st.Iteration),
		attribute.Bool("agent.sufficient", st.IsSufficient),
		attribute.Int("agent.chunks", len(st.Chunks)),
	)
	a.logger.Info("run completed",
		"iterations", st.Iteration,
		"sufficient", st.IsSufficient,
		"chunks", len(st.Chunks),
	)
	return st, nil
}

func (a *Agent) analyze(ctx context.Context, st *State) (err error) {
	ctx, span := a.tracer.Start(ctx, "agent.analyze")
	defer func() { telemetry.End(span, err) }()

	feedback := ""
	if st.Iteration > 0 {
		feedback = st.EvaluationReason
	}
	plan, err := a.analyzer.Analyze(ctx, st.Query, feedback)
	if err != nil {
		return err
	}
	st.SearchQueries = plan.Queries
	a.logger.Debug("queries generated",
		"iteration", st.Iteration,
		"count", len(plan.Queries),
		"intent", trimForLog(plan.Intent, 80),
	)
	return nil
}

// retrieve runs every query of the current plan in order, concatenates the
// hits preserving each query's ranking, and appends them to the accumulated
// state with content-level deduplication. Zero hits is valid state.
func (a *Agent) retrieve(ctx context.Context, st *State) (err error) {
	ctx, span := a.tracer.Start(ctx, "agent.retrieve")
	defer func() { telemetry.End(span, err) }()

	before := len(st.Chunks)
	for _, query := range st.SearchQueries {
		hits, err := a.searcher.Search(ctx, query, a.cfg.TopKPerQuery)
		if err != nil {
			return fmt.Errorf("search %q: %w", trimForLog(query, 60), err)
		}
		st.AppendChunks(hits)
	}
	a.logger.Debug("retrieval merged",
		"iteration", st.Iteration,
		"new_chunks", len(st.Chunks)-before,
		"total_chunks", len(st.Chunks),
	)
	return nil
}

func (a *Agent) generate(ctx context.Context, st *State) (err error) {
	ctx, span := a.tracer.Start(ctx, "agent.generate")
	defer func() { telemetry.End(span, err) }()

	answer, err := a.generator.Compose(ctx, st.Query, st.Chunks)
	if err != nil {
		return err
	}
	st.Answer = answer
	return nil
}

func (a *Agent) evaluate(ctx context.Context, st *State) (err error) {
	ctx, span := a.tracer.Start(ctx, "agent.evaluate")
	defer func() { telemetry.End(span, err) }()

	eval, err := a.evaluator.Evaluate(ctx, st.Query, st.Answer)
	if err != nil {
		return err
	}
	st.IsSufficient = eval.IsSufficient
	st.EvaluationReason = eval.Reason
	if !eval.IsSufficient && eval.MissingInfo != "" {
		// missing_info is the actionable half of the verdict; it becomes the
		// feedback for the next analysis pass.
		st.EvaluationReason = eval.MissingInfo
	}
	st.Iteration++
	a.logger.Info("answer evaluated",
		"iteration", st.Iteration,
		"sufficient", eval.IsSufficient,
		"score", eval.Score,
	)
	return nil
}

func trimForLog(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
