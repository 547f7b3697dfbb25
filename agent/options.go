package agent

// Config controls behaviour of the question-answering loop. Prompts are
// grouped with retrieval knobs so callers can construct reproducible agents
// from a single struct.
type Config struct {
	Name         string // Logical name for tracing/logging
	TopKPerQuery int    // Neighbours fetched from the vector store per search query

	AnalyzerPrompt  string // System prompt for the query analysis step
	GeneratorPrompt string // System prompt for grounded answer generation
	EvaluatorPrompt string // System prompt for the sufficiency evaluation
}

// Option customises the agent configuration.
type Option func(*Config)

// WithName sets the logical agent name used in logs and spans.
func WithName(name string) Option {
	return func(cfg *Config) {
		if name != "" {
			cfg.Name = name
		}
	}
}

// WithTopKPerQuery overrides how many chunks each search query retrieves.
func WithTopKPerQuery(k int) Option {
	return func(cfg *Config) {
		if k > 0 {
			cfg.TopKPerQuery = k
		}
	}
}

// WithAnalyzerPrompt sets the query-analysis system prompt.
func WithAnalyzerPrompt(prompt string) Option {
	return func(cfg *Config) {
		if prompt != "" {
			cfg.AnalyzerPrompt = prompt
		}
	}
}

// WithGeneratorPrompt sets the answer-generation system prompt.
func WithGeneratorPrompt(prompt string) Option {
	return func(cfg *Config) {
		if prompt != "" {
			cfg.GeneratorPrompt = prompt
		}
	}
}

// WithEvaluatorPrompt sets the evaluation system prompt.
func WithEvaluatorPrompt(prompt string) Option {
	return func(cfg *Config) {
		if prompt != "" {
			cfg.EvaluatorPrompt = prompt
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		Name:         "docqa-agent",
		TopKPerQuery: 3,
		AnalyzerPrompt: `You are an expert at optimising search queries. Given a user question, produce up to three search queries that approach it from different angles, so that vector retrieval covers the question broadly.
Return strict JSON only, matching {"queries":["..."],"intent":"..."}.
Rules:
- Emit between one and five queries; three is usually right. Vary wording and viewpoint, never repeat the same phrasing.
- "intent" is one short sentence stating what the user is trying to learn.
- Write queries in the same language as the question.`,
		GeneratorPrompt: `You are a question-answering assistant for technical documents. Follow these rules:
1. Use only the information in the provided context (the retrieval results); never draw on outside knowledge.
2. Cite the document number(s) your answer relies on inline, in the form [Document N].
3. If the context does not contain the information needed, say explicitly that the provided documents cannot answer the question. Never fabricate.
4. Answer concisely and precisely, in the language of the question.`,
		EvaluatorPrompt: `You are an expert at judging answer quality. Evaluate the answer against these criteria:
1. Accuracy: does the answer actually address the question?
2. Coverage: does it address every aspect of the question?
3. Grounding: does it cite its supporting documents?
4. Clarity: is it easy to follow?
Score between 0.0 and 1.0. Set is_sufficient=true when the score is 0.7 or higher.
Return strict JSON only, matching {"is_sufficient":true|false,"score":0.0,"reason":"...","missing_info":"..."}. When the answer is insufficient, describe in "missing_info" what additional information a further search should find.`,
	}
}

func applyOptions(cfg *Config, opts []Option) *Config {
	if cfg == nil {
		cfg = defaultConfig()
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
