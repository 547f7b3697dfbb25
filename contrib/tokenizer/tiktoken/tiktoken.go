package tiktoken

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/sweetpotato0/docqa/rag/chunking"
)

// Tokenizer wraps a tiktoken codec for token counting.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New resolves a codec by model name, falling back to encoding name.
func New(name string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		enc, err = tiktoken.GetEncoding(name)
		if err != nil {
			return nil, err
		}
	}
	return &Tokenizer{enc: enc}, nil
}

// CountTokens returns the number of tokens in the text.
func (t *Tokenizer) CountTokens(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// LengthFunc adapts the tokenizer into a chunk-sizing measure, so chunk
// size and overlap are interpreted as token budgets instead of rune counts.
func (t *Tokenizer) LengthFunc() chunking.LengthFunc {
	return t.CountTokens
}
