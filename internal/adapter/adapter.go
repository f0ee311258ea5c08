// Package adapter provides a unified interface for vision-capable model
// providers.
package adapter

import (
	"context"
	"fmt"
	"strings"
)

// Provider name constants.
const (
	ProviderDashScope = "dashscope"
	ProviderOpenAI    = "openai"
	ProviderClaude    = "claude"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
)

// DashScopeBaseURL is the OpenAI-compatible endpoint for Qwen-VL models.
const DashScopeBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

// VisionRequest holds the parameters for one image + instruction call.
type VisionRequest struct {
	Instruction string
	// ImageBase64 is the standard base64 encoding of the image bytes,
	// without a data-URL prefix.
	ImageBase64 string
	MIMEType    string
	Model       string
	MaxTokens   int
	Temperature float64
	// JSONSchema, when set, asks the provider for a JSON object response.
	// Providers that accept a schema receive it; others fall back to their
	// plain JSON mode.
	JSONSchema map[string]any
}

// ModelInfo describes the configured provider and model.
type ModelInfo struct {
	Name     string
	Provider string
}

// VisionAdapter is the common interface all provider adapters implement.
type VisionAdapter interface {
	// Describe sends the instruction and image and returns the model's text.
	Describe(ctx context.Context, req VisionRequest) (string, error)

	// Info returns metadata about the adapter/model.
	Info() ModelInfo
}

// Options selects and configures a provider.
type Options struct {
	Provider string
	APIKey   string
	// BaseURL overrides the provider endpoint. For ollama it is the server
	// host.
	BaseURL string
	Model   string
	// JSONMode lets the OpenAI-compatible adapter send response_format.
	// Leave off for endpoints that reject it.
	JSONMode bool
}

// New constructs the VisionAdapter for opts.Provider.
func New(opts Options) (VisionAdapter, error) {
	switch opts.Provider {
	case ProviderDashScope, "":
		base := opts.BaseURL
		if base == "" {
			base = DashScopeBaseURL
		}
		return NewOpenAI(OpenAIConfig{
			Provider: ProviderDashScope,
			APIKey:   envOr(opts.APIKey, "DASHSCOPE_API_KEY"),
			BaseURL:  base,
			Model:    defaultString(opts.Model, "qwen-vl-max"),
			JSONMode: opts.JSONMode,
		}), nil
	case ProviderOpenAI:
		return NewOpenAI(OpenAIConfig{
			Provider: ProviderOpenAI,
			APIKey:   envOr(opts.APIKey, "OPENAI_API_KEY"),
			BaseURL:  opts.BaseURL,
			Model:    defaultString(opts.Model, "gpt-4o"),
			JSONMode: opts.JSONMode,
		}), nil
	case ProviderClaude:
		return NewClaude(opts.APIKey, opts.BaseURL, opts.Model), nil
	case ProviderGemini:
		return NewGemini(opts.APIKey, opts.BaseURL, opts.Model), nil
	case ProviderOllama:
		host := opts.BaseURL
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllama(host, defaultString(opts.Model, "llava")), nil
	default:
		return nil, fmt.Errorf("adapter: unknown provider %q; valid providers: dashscope, openai, claude, gemini, ollama", opts.Provider)
	}
}

// NeedsAPIKey reports whether provider requires a key to be configured.
func NeedsAPIKey(provider string) bool {
	return provider != ProviderOllama
}

// DataURL renders base64 image data as a data: URL.
func DataURL(mimeType, b64 string) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + b64
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
