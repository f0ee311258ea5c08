package adapter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures an OpenAI-compatible vision adapter. DashScope's
// compatible mode is served through the same client with a different
// BaseURL.
type OpenAIConfig struct {
	Provider   string
	APIKey     string
	BaseURL    string
	Model      string
	JSONMode   bool
	HTTPClient *http.Client
}

// openaiAdapter implements VisionAdapter for OpenAI-compatible chat APIs.
type openaiAdapter struct {
	client   *openai.Client
	provider string
	model    string
	hasKey   bool
	jsonMode bool
}

// NewOpenAI creates an OpenAI-compatible adapter.
func NewOpenAI(cfg OpenAIConfig) VisionAdapter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	return &openaiAdapter{
		client:   openai.NewClientWithConfig(clientCfg),
		provider: defaultString(cfg.Provider, ProviderOpenAI),
		model:    defaultString(cfg.Model, "gpt-4o"),
		hasKey:   cfg.APIKey != "",
		jsonMode: cfg.JSONMode,
	}
}

func (o *openaiAdapter) Info() ModelInfo {
	return ModelInfo{Name: o.model, Provider: o.provider}
}

func (o *openaiAdapter) Describe(ctx context.Context, req VisionRequest) (string, error) {
	if !o.hasKey {
		return "", fmt.Errorf("%s: %w", o.provider, ErrMissingAPIKey)
	}

	model := defaultString(req.Model, o.model)

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: req.Instruction},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    DataURL(req.MIMEType, req.ImageBase64),
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: openAITemperature(req.Temperature),
	}
	if req.JSONSchema != nil && o.jsonMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", o.mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", o.provider, ErrEmptyResponse)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%s: %w", o.provider, ErrEmptyResponse)
	}
	return text, nil
}

func (o *openaiAdapter) mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%s: %w: %s", o.provider, ErrRateLimit, apiErr.Message)
		case http.StatusRequestEntityTooLarge:
			return fmt.Errorf("%s: %w: %s", o.provider, ErrPayloadTooLarge, apiErr.Message)
		}
		return &APIError{Provider: o.provider, Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%s: %w", o.provider, ErrRateLimit)
		}
		if reqErr.HTTPStatusCode != 0 {
			msg := "Unknown API Error"
			if reqErr.Err != nil {
				msg = reqErr.Err.Error()
			}
			return &APIError{Provider: o.provider, Status: reqErr.HTTPStatusCode, Message: msg}
		}
	}

	return transportError(o.provider, err)
}

// openAITemperature keeps an explicit 0 on the wire: go-openai omits a zero
// temperature, which the endpoint reads as its own default.
func openAITemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}
