package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// claudeAdapter implements VisionAdapter for Anthropic Claude.
type claudeAdapter struct {
	client *anthropic.Client
	model  string
	hasKey bool
}

// NewClaude creates a Claude adapter. If apiKey is empty, ANTHROPIC_API_KEY
// is used. baseURL may be empty.
func NewClaude(apiKey, baseURL, model string) VisionAdapter {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}
	return &claudeAdapter{
		client: anthropic.NewClient(apiKey, opts...),
		model:  defaultString(model, "claude-sonnet-4-6"),
		hasKey: apiKey != "",
	}
}

func (c *claudeAdapter) Info() ModelInfo {
	return ModelInfo{Name: c.model, Provider: ProviderClaude}
}

func (c *claudeAdapter) Describe(ctx context.Context, req VisionRequest) (string, error) {
	if !c.hasKey {
		return "", fmt.Errorf("claude: %w", ErrMissingAPIKey)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	mimeType := defaultString(req.MIMEType, "image/png")

	messages := []anthropic.Message{
		{
			Role: anthropic.RoleUser,
			Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(
					anthropic.NewMessageContentImageSource("base64", mimeType, req.ImageBase64),
				),
				anthropic.NewTextMessageContent(req.Instruction),
			},
		},
	}

	temp := float32(req.Temperature)
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(defaultString(req.Model, c.model)),
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return "", c.mapError(err)
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText {
			parts = append(parts, block.GetText())
		}
	}
	text := strings.TrimSpace(strings.Join(parts, ""))
	if text == "" {
		return "", fmt.Errorf("claude: %w", ErrEmptyResponse)
	}
	return text, nil
}

func (c *claudeAdapter) mapError(err error) error {
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		if apiErr.IsRateLimitErr() || apiErr.IsOverloadedErr() {
			return fmt.Errorf("claude: %w: %s", ErrRateLimit, apiErr.Message)
		}
		return &APIError{Provider: ProviderClaude, Message: apiErr.Message}
	}

	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) && reqErr.StatusCode != 0 {
		msg := "Unknown API Error"
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return statusError(ProviderClaude, reqErr.StatusCode, []byte(msg))
	}

	return transportError(ProviderClaude, err)
}
