package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNew_ValidProviders(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{ProviderDashScope, ProviderDashScope},
		{"", ProviderDashScope},
		{ProviderOpenAI, ProviderOpenAI},
		{ProviderClaude, ProviderClaude},
		{ProviderGemini, ProviderGemini},
		{ProviderOllama, ProviderOllama},
	}

	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.provider, func(t *testing.T) {
			a, err := New(Options{Provider: tt.provider, APIKey: "test-key"})
			if err != nil {
				t.Fatalf("New(%q) error: %v", tt.provider, err)
			}
			if got := a.Info().Provider; got != tt.want {
				t.Errorf("Info().Provider = %q, want %q", got, tt.want)
			}
			if a.Info().Name == "" {
				t.Error("expected a default model name")
			}
		})
	}
}

func TestNew_InvalidProvider(t *testing.T) {
	if _, err := New(Options{Provider: "invalid"}); err == nil {
		t.Error("expected error for invalid provider")
	}
}

func TestDataURL(t *testing.T) {
	if got := DataURL("", "QUJD"); got != "data:image/png;base64,QUJD" {
		t.Errorf("got %q", got)
	}
	if got := DataURL("image/jpeg", "QUJD"); got != "data:image/jpeg;base64,QUJD" {
		t.Errorf("got %q", got)
	}
}

func testRequest() VisionRequest {
	return VisionRequest{
		Instruction: "看看屏幕",
		ImageBase64: "aW1n",
		MIMEType:    "image/png",
		MaxTokens:   300,
		Temperature: 0.8,
	}
}

func TestOpenAIDescribe(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization: got %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  喵~ 在写代码呀  "},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	a := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL + "/v1", Model: "qwen-vl-max", JSONMode: true})
	req := testRequest()
	req.JSONSchema = map[string]any{"type": "object"}
	text, err := a.Describe(context.Background(), req)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if text != "喵~ 在写代码呀" {
		t.Errorf("text: got %q", text)
	}

	if got["model"] != "qwen-vl-max" {
		t.Errorf("model: got %v", got["model"])
	}
	if rf, _ := got["response_format"].(map[string]any); rf["type"] != "json_object" {
		t.Errorf("response_format: got %v", got["response_format"])
	}
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("messages: got %v", got["messages"])
	}
	content, _ := msgs[0].(map[string]any)["content"].([]any)
	if len(content) != 2 {
		t.Fatalf("content parts: got %v", content)
	}
	img, _ := content[1].(map[string]any)["image_url"].(map[string]any)
	if img["url"] != "data:image/png;base64,aW1n" {
		t.Errorf("image url: got %v", img["url"])
	}
}

func TestOpenAIDescribe_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"rate limit", 429, `{"error":{"message":"slow down","type":"rate_limit"}}`, func(err error) bool { return errors.Is(err, ErrRateLimit) }},
		{"api error", 400, `{"error":{"message":"bad image","type":"invalid_request_error"}}`, func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.Status == 400 && apiErr.Message == "bad image"
		}},
		{"data uri limit", 400, `{"error":{"message":"Exceeded limit on max bytes per data-uri item : 10485760","type":"invalid_request_error"}}`, IsPayloadTooLarge},
		{"empty", 200, `{"choices":[{"index":0,"message":{"role":"assistant","content":"   "}}]}`, func(err error) bool { return errors.Is(err, ErrEmptyResponse) }},
		{"no choices", 200, `{"choices":[]}`, func(err error) bool { return errors.Is(err, ErrEmptyResponse) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			a := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: server.URL})
			_, err := a.Describe(context.Background(), testRequest())
			if err == nil || !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestOpenAIDescribe_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	a := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: server.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := a.Describe(ctx, testRequest())
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestOpenAIDescribe_MissingKey(t *testing.T) {
	a := NewOpenAI(OpenAIConfig{})
	if _, err := a.Describe(context.Background(), testRequest()); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestClaudeDescribe(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("x-api-key: got %q", r.Header.Get("X-Api-Key"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude","content":[{"type":"text","text":"喵~"}],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`)
	}))
	defer server.Close()

	a := NewClaude("test-key", server.URL, "")
	text, err := a.Describe(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if text != "喵~" {
		t.Errorf("text: got %q", text)
	}

	msgs, _ := got["messages"].([]any)
	content, _ := msgs[0].(map[string]any)["content"].([]any)
	if len(content) != 2 {
		t.Fatalf("content blocks: got %v", content)
	}
	block, _ := content[0].(map[string]any)
	source, _ := block["source"].(map[string]any)
	if block["type"] != "image" || source["type"] != "base64" || source["data"] != "aW1n" {
		t.Errorf("image block: got %v", block)
	}
}

func TestClaudeDescribe_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
	}))
	defer server.Close()

	a := NewClaude("test-key", server.URL, "")
	if _, err := a.Describe(context.Background(), testRequest()); !errors.Is(err, ErrRateLimit) {
		t.Errorf("expected ErrRateLimit, got %v", err)
	}
}

func TestGeminiDescribe(t *testing.T) {
	var got geminiGenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-2.0-flash:generateContent") {
			t.Errorf("path: got %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key: got %q", r.URL.Query().Get("key"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"candidates": [{
				"content": {
					"parts": [{"text": "{\"游戏\": 100}"}],
					"role": "model"
				}
			}]
		}`)
	}))
	defer server.Close()

	a := NewGemini("test-key", server.URL, "")
	req := testRequest()
	req.JSONSchema = map[string]any{"type": "object"}
	text, err := a.Describe(context.Background(), req)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if text != `{"游戏": 100}` {
		t.Errorf("text: got %q", text)
	}
	parts := got.Contents[0].Parts
	if len(parts) != 2 || parts[1].InlineData == nil || parts[1].InlineData.Data != "aW1n" {
		t.Errorf("parts: got %+v", parts)
	}
	if got.GenerationConfig.ResponseMimeType != "application/json" {
		t.Errorf("response mime: got %q", got.GenerationConfig.ResponseMimeType)
	}
}

func TestZeroTemperatureIsSent(t *testing.T) {
	var openaiBody, geminiBody map[string]any
	oai := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&openaiBody)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"喵"},"finish_reason":"stop"}]}`)
	}))
	defer oai.Close()
	gem := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&geminiBody)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"喵"}],"role":"model"}}]}`)
	}))
	defer gem.Close()

	req := testRequest()
	req.Temperature = 0

	if _, err := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: oai.URL + "/v1"}).Describe(context.Background(), req); err != nil {
		t.Fatalf("openai: %v", err)
	}
	if temp, ok := openaiBody["temperature"].(float64); !ok || temp > 1e-6 {
		t.Errorf("openai temperature: got %v, want a near-zero value on the wire", openaiBody["temperature"])
	}

	if _, err := NewGemini("k", gem.URL, "").Describe(context.Background(), req); err != nil {
		t.Fatalf("gemini: %v", err)
	}
	cfg, _ := geminiBody["generationConfig"].(map[string]any)
	if temp, ok := cfg["temperature"].(float64); !ok || temp != 0 {
		t.Errorf("gemini temperature: got %v, want 0", cfg["temperature"])
	}
}

func TestGeminiDescribe_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"API key invalid"}}`)
	}))
	defer server.Close()

	a := NewGemini("bad-key", server.URL, "")
	_, err := a.Describe(context.Background(), testRequest())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != 403 || apiErr.Message != "API key invalid" {
		t.Errorf("api error: got %+v", apiErr)
	}
}

func TestOllamaDescribe(t *testing.T) {
	var got ollamaChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"喵喵~"},"done":true}`)
	}))
	defer server.Close()

	a := NewOllama(server.URL+"/", "llava")
	text, err := a.Describe(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if text != "喵喵~" {
		t.Errorf("text: got %q", text)
	}
	if got.Stream {
		t.Error("expected non-streaming request")
	}
	if len(got.Messages) != 1 || len(got.Messages[0].Images) != 1 || got.Messages[0].Images[0] != "aW1n" {
		t.Errorf("messages: got %+v", got.Messages)
	}
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
	}{
		{429, `{"message":"busy"}`, ErrRateLimit},
		{413, ``, ErrPayloadTooLarge},
		{504, `gateway`, ErrTimeout},
	}
	for _, tt := range tests {
		if err := statusError("x", tt.status, []byte(tt.body)); !errors.Is(err, tt.want) {
			t.Errorf("status %d: got %v, want %v", tt.status, err, tt.want)
		}
	}

	err := statusError("x", 500, []byte(`{"msg":"boom"}`))
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "boom" {
		t.Errorf("500: got %v", err)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := map[string]string{
		`{"error":{"message":"nested"}}`: "nested",
		`{"error":"flat"}`:               "flat",
		`{"message":"top"}`:              "top",
		`{"msg":"short"}`:                "short",
		`plain text`:                     "plain text",
		``:                               "Unknown API Error",
	}
	for body, want := range tests {
		if got := errorMessage([]byte(body)); got != want {
			t.Errorf("errorMessage(%q): got %q, want %q", body, got, want)
		}
	}
}
