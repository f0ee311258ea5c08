package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
)

// Sentinel errors shared by every provider. Callers match them with
// errors.Is; provider details are wrapped around them.
var (
	ErrTimeout         = errors.New("adapter: request timed out")
	ErrRateLimit       = errors.New("adapter: rate limited")
	ErrEmptyResponse   = errors.New("adapter: empty response")
	ErrPayloadTooLarge = errors.New("adapter: payload too large")
	ErrMissingAPIKey   = errors.New("adapter: API key missing")
)

// APIError is a non-success response from a provider.
type APIError struct {
	Provider string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s api error: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s api error %d: %s", e.Provider, e.Status, e.Message)
}

// dataURILimitMarker appears in provider errors rejecting an oversized image.
const dataURILimitMarker = "max bytes per data-uri item"

// IsPayloadTooLarge reports whether err means the image was rejected for
// its size, either before sending or by the provider.
func IsPayloadTooLarge(err error) bool {
	if errors.Is(err, ErrPayloadTooLarge) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && strings.Contains(apiErr.Message, dataURILimitMarker)
}

// statusError maps an HTTP status and body to the error taxonomy.
func statusError(provider string, status int, body []byte) error {
	msg := errorMessage(body)
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w: %s", provider, ErrRateLimit, msg)
	case http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%s: %w: %s", provider, ErrPayloadTooLarge, msg)
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return fmt.Errorf("%s: %w: %s", provider, ErrTimeout, msg)
	}
	return &APIError{Provider: provider, Status: status, Message: msg}
}

// errorMessage pulls a human-readable message out of a provider error body,
// looking at the common {"error":{"message"}} and {"message"|"msg"} shapes.
func errorMessage(body []byte) string {
	var doc struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
		Msg     string          `json:"msg"`
	}
	if err := json.Unmarshal(body, &doc); err == nil {
		if len(doc.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(doc.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
			var plain string
			if json.Unmarshal(doc.Error, &plain) == nil && plain != "" {
				return plain
			}
		}
		if doc.Message != "" {
			return doc.Message
		}
		if doc.Msg != "" {
			return doc.Msg
		}
	}
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "Unknown API Error"
	}
	return s
}

// transportError classifies a failure that happened before any response
// was read.
func transportError(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", provider, ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s: %w: %v", provider, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", provider, err)
}

func envOr(v, key string) string {
	if v != "" {
		return v
	}
	return os.Getenv(key)
}
