// Package ollama talks to a local Ollama server over its REST API. It is the
// default provider for fully local deployments: no API key, no egress.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	docqaerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/message"
)

const defaultBaseURL = "http://localhost:11434"

// Config holds Ollama provider configuration.
type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// DefaultConfig returns default Ollama configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     defaultBaseURL,
		Model:       "llama3.1",
		Temperature: 0.7,
		Timeout:     2 * time.Minute,
	}
}

// Provider implements llm.Client against /api/chat.
type Provider struct {
	config *Config
	client *http.Client
}

// New creates a new Ollama provider.
func New(config *Config) *Provider {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Model == "" {
		config.Model = "llama3.1"
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Provider{
		config: config,
		client: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

// GenerateText returns the assistant reply as plain text.
func (p *Provider) GenerateText(ctx context.Context, msgs []*message.Message) (string, error) {
	return p.chat(ctx, msgs, "")
}

// GenerateJSON uses Ollama's JSON format constraint. The returned string is
// the raw model output; callers validate it against their own schema.
func (p *Provider) GenerateJSON(ctx context.Context, msgs []*message.Message) (string, error) {
	return p.chat(ctx, msgs, "json")
}

func (p *Provider) chat(ctx context.Context, msgs []*message.Message, format string) (string, error) {
	chatMessages := make([]chatMessage, 0, len(msgs))
	for _, msg := range msgs {
		chatMessages = append(chatMessages, chatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	payload := chatRequest{
		Model:    p.config.Model,
		Messages: chatMessages,
		Stream:   false,
		Format:   format,
	}
	if p.config.Temperature > 0 {
		payload.Options = map[string]any{"temperature": p.config.Temperature}
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := p.config.BaseURL + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w: %w", docqaerrors.ErrBackendUnavailable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama chat status %d: %s: %w",
			httpResp.StatusCode, string(respBody), docqaerrors.ErrBackendUnavailable)
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("unmarshal chat response: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama error: %s: %w", resp.Error, docqaerrors.ErrBackendUnavailable)
	}
	return resp.Message.Content, nil
}

// Ping checks that the server is reachable. Used by health checks.
func (p *Provider) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ollama unreachable: %w: %w", docqaerrors.ErrBackendUnavailable, err)
	}
	defer httpResp.Body.Close()
	io.Copy(io.Discard, httpResp.Body)

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama ping status %d: %w", httpResp.StatusCode, docqaerrors.ErrBackendUnavailable)
	}
	return nil
}
