// Package llm defines the generation capabilities the pipeline depends on.
// Providers under contrib/provider implement Client against concrete
// backends; the pipeline itself never talks to a model SDK directly.
package llm

import (
	"context"

	"github.com/sweetpotato0/docqa/message"
)

// Client is the text-generation capability.
//
// GenerateJSON instructs the backend to emit a single JSON object (native
// JSON mode where the backend supports it). Callers are responsible for
// validating the payload against their expected schema; providers only
// guarantee best-effort JSON shaping.
type Client interface {
	GenerateText(ctx context.Context, msgs []*message.Message) (string, error)
	GenerateJSON(ctx context.Context, msgs []*message.Message) (string, error)
}

// Pinger is implemented by providers that can cheaply report backend
// reachability, used by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}
