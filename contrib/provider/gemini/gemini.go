package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	docqaerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/message"
)

// Config holds Gemini provider configuration.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int32
	Temperature float32
}

// DefaultConfig returns default Gemini configuration.
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "gemini-1.5-flash",
		MaxTokens:   2048,
		Temperature: 0.7,
	}
}

// Provider implements llm.Client for Google Gemini using the official SDK.
type Provider struct {
	config *Config
	client *genai.Client
}

// New creates a new Gemini provider. The client holds a connection to the
// Generative Language API; call Close when done.
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key not configured")
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Provider{config: config, client: client}, nil
}

// Close releases the underlying API connection.
func (p *Provider) Close() error {
	return p.client.Close()
}

// GenerateText returns the model reply as plain text.
func (p *Provider) GenerateText(ctx context.Context, msgs []*message.Message) (string, error) {
	return p.generate(ctx, msgs, "")
}

// GenerateJSON constrains the response MIME type to application/json. The
// returned string is the raw model output.
func (p *Provider) GenerateJSON(ctx context.Context, msgs []*message.Message) (string, error) {
	return p.generate(ctx, msgs, "application/json")
}

func (p *Provider) generate(ctx context.Context, msgs []*message.Message, mimeType string) (string, error) {
	model := p.client.GenerativeModel(p.config.Model)
	if p.config.Temperature > 0 {
		model.SetTemperature(p.config.Temperature)
	}
	if p.config.MaxTokens > 0 {
		model.SetMaxOutputTokens(p.config.MaxTokens)
	}
	if mimeType != "" {
		model.ResponseMIMEType = mimeType
	}

	var systemPrompts []string
	var userParts []string
	for _, msg := range msgs {
		switch msg.Role {
		case message.RoleSystem:
			systemPrompts = append(systemPrompts, msg.Content)
		default:
			userParts = append(userParts, msg.Content)
		}
	}
	if len(systemPrompts) > 0 {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(strings.Join(systemPrompts, "\n"))},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(strings.Join(userParts, "\n\n")))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w: %w", docqaerrors.ErrBackendUnavailable, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates: %w", docqaerrors.ErrBackendUnavailable)
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	if text == "" {
		return "", fmt.Errorf("gemini returned no text parts: %w", docqaerrors.ErrBackendUnavailable)
	}
	return text, nil
}
