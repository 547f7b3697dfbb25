package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	docqaerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/message"
)

// Config holds Claude provider configuration.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// DefaultConfig returns default Claude configuration.
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "claude-3-5-sonnet-20241022",
		MaxTokens:   4096,
		Temperature: 0.7,
	}
}

// Provider implements llm.Client for Claude using the official SDK.
type Provider struct {
	config *Config
	client anthropic.Client
}

// New creates a new Claude provider.
func New(config *Config) *Provider {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "claude-3-5-sonnet-20241022"
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		config: config,
		client: anthropic.NewClient(options...),
	}
}

// GenerateText returns the assistant reply as plain text.
func (p *Provider) GenerateText(ctx context.Context, msgs []*message.Message) (string, error) {
	return p.generate(ctx, msgs, "")
}

// GenerateJSON asks the model to reply with a single JSON object. The API has
// no native JSON mode, so the constraint rides on the system prompt; callers
// validate the result against their own schema.
func (p *Provider) GenerateJSON(ctx context.Context, msgs []*message.Message) (string, error) {
	return p.generate(ctx, msgs,
		"Respond with a single valid JSON object only. No markdown fences, no prose outside the JSON.")
}

func (p *Provider) generate(ctx context.Context, msgs []*message.Message, extraSystem string) (string, error) {
	var systemPrompts []string
	conversation := make([]anthropic.MessageParam, 0, len(msgs))

	for _, msg := range msgs {
		switch msg.Role {
		case message.RoleSystem:
			systemPrompts = append(systemPrompts, msg.Content)
		case message.RoleUser:
			conversation = append(conversation,
				anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case message.RoleAssistant:
			conversation = append(conversation,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	if extraSystem != "" {
		systemPrompts = append(systemPrompts, extraSystem)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		Messages:  conversation,
		MaxTokens: p.config.MaxTokens,
	}
	if len(systemPrompts) > 0 {
		params.System = []anthropic.TextBlockParam{
			{Text: strings.Join(systemPrompts, "\n")},
		}
	}
	if p.config.Temperature > 0 {
		params.Temperature = param.NewOpt(p.config.Temperature)
	}

	apiMessage, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude message: %w: %w", docqaerrors.ErrBackendUnavailable, err)
	}

	var text string
	for _, content := range apiMessage.Content {
		if content.Type == "text" {
			text += content.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("claude returned no text content: %w", docqaerrors.ErrBackendUnavailable)
	}
	return text, nil
}

// SetTemperature updates the temperature setting.
func (p *Provider) SetTemperature(temp float64) {
	p.config.Temperature = temp
}

// SetModel updates the model.
func (p *Provider) SetModel(model string) {
	p.config.Model = model
}
