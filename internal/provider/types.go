// Package provider defines the core types and interfaces for multi-provider
// LLM support. It abstracts away the differences between AI services
// (OpenAI, Gemini, a scriptable mock, etc.) behind a single interface, so
// the gateway and reliability layer never need to know which provider they
// are talking to.
//
// Design principles:
//   - Idiomatic Go: context propagation, error values, functional options
//   - go-resty/v2 as the HTTP transport layer for real providers
//   - Normalized error codes across providers
//   - Registry/factory pattern for provider discovery
package provider

import (
	"context"
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Message types
// ---------------------------------------------------------------------------

// Role represents the role of a message participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role   `json:"role" validate:"required"`
	Content string `json:"content"`

	// Name optionally identifies the participant within Role, e.g. the
	// tool name for a RoleTool message.
	Name string `json:"name,omitempty"`
}

// ---------------------------------------------------------------------------
// Request types
// ---------------------------------------------------------------------------

// CompletionRequest is the provider-agnostic request structure that gets
// translated into each provider's native format by the provider implementation.
type CompletionRequest struct {
	// Model is the provider-specific model identifier (e.g. "gpt-4",
	// "gemini-pro").
	Model string `json:"model"`

	// Messages is the ordered conversation history.
	Messages []Message `json:"messages"`

	// MaxTokens limits the response length. Providers have different
	// defaults and caps; the implementation should clamp or error
	// appropriately.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 = deterministic, 1.0+ =
	// creative). A nil value means "use provider default".
	Temperature *float64 `json:"temperature,omitempty"`

	// Stream is accepted for wire compatibility but this module's
	// providers always respond in full; streamed token delivery is out
	// of scope.
	Stream bool `json:"stream,omitempty"`

	// Stop holds either a single stop string or a slice of strings,
	// mirroring the upstream APIs this module talks to.
	Stop interface{} `json:"stop,omitempty"`

	// ExtraParams carries provider-specific fields that have no
	// normalized equivalent. The OpenAI adapter merges them verbatim into
	// its outgoing payload; the Gemini adapter does not send them.
	ExtraParams map[string]interface{} `json:"-"`
}

// StopSequences normalizes Stop into a string slice, regardless of
// whether the caller supplied a single string or a slice.
func (r CompletionRequest) StopSequences() []string {
	switch v := r.Stop.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	default:
		return nil
	}
}

// ---------------------------------------------------------------------------
// Response types
// ---------------------------------------------------------------------------

// CompletionResponse is the provider-agnostic response returned from a
// completion call.
type CompletionResponse struct {
	// ID is the provider-assigned response identifier.
	ID string `json:"id"`

	// Model is the model that actually served the request.
	Model string `json:"model"`

	// Content is the assistant's reply text.
	Content string `json:"content"`

	// Role is always RoleAssistant for a completion response.
	Role Role `json:"role"`

	// Usage contains token accounting for the request.
	Usage Usage `json:"usage"`

	// FinishReason indicates why generation stopped (e.g. "stop",
	// "max_tokens").
	FinishReason string `json:"finish_reason"`

	// ProviderMeta carries any provider-specific metadata that does not
	// fit into the normalized fields (e.g. OpenAI's system_fingerprint,
	// Gemini's safety ratings).
	ProviderMeta map[string]interface{} `json:"provider_meta,omitempty"`
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ---------------------------------------------------------------------------
// Error types
// ---------------------------------------------------------------------------

// ErrorCode classifies errors returned by providers into actionable
// categories so the caller can decide how to react without inspecting
// provider-specific error payloads.
type ErrorCode string

const (
	ErrCodeAuthentication      ErrorCode = "authentication"
	ErrCodeRateLimit           ErrorCode = "rate_limit"
	ErrCodeInvalidRequest      ErrorCode = "invalid_request"
	ErrCodeContextLength       ErrorCode = "context_length"
	ErrCodeContentFilter       ErrorCode = "content_filter"
	ErrCodeProviderUnavailable ErrorCode = "provider_unavailable"
	ErrCodeTimeout             ErrorCode = "timeout"
	ErrCodeUnknown             ErrorCode = "unknown"
)

// ProviderError is a structured error that carries both a normalized code
// and the original provider-specific details. It implements the standard
// error interface and supports errors.Is / errors.As unwrapping.
type ProviderError struct {
	Code       ErrorCode
	Message    string
	Provider   string
	StatusCode int
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (status %d): %v",
			e.Provider, e.Code, e.Message, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s (status %d)",
		e.Provider, e.Code, e.Message, e.StatusCode)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Sentinel errors for use with errors.Is().
var (
	ErrAuthentication      = &ProviderError{Code: ErrCodeAuthentication}
	ErrRateLimit           = &ProviderError{Code: ErrCodeRateLimit}
	ErrInvalidRequest      = &ProviderError{Code: ErrCodeInvalidRequest}
	ErrContextLength       = &ProviderError{Code: ErrCodeContextLength}
	ErrContentFilter       = &ProviderError{Code: ErrCodeContentFilter}
	ErrProviderUnavailable = &ProviderError{Code: ErrCodeProviderUnavailable}
	ErrTimeout             = &ProviderError{Code: ErrCodeTimeout}
)

// Is allows errors.Is to match ProviderErrors by code.
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// ---------------------------------------------------------------------------
// Retry configuration
// ---------------------------------------------------------------------------

// RetryConfig controls exponential-backoff retry behaviour for a single
// provider call (used internally by provider adapters for transient HTTP
// failures; distinct from the reliability layer's cross-provider retry).
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultRetryConfig returns a sensible default retry configuration:
// 3 retries, starting at 1s, capped at 30s, with a 2x multiplier.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
	}
}

// ---------------------------------------------------------------------------
// Provider metadata
// ---------------------------------------------------------------------------

// ProviderInfo describes a registered provider for introspection and
// user-facing help text.
type ProviderInfo struct {
	Name         string
	DisplayName  string
	Description  string
	DefaultModel string
}

// ---------------------------------------------------------------------------
// Core interface
// ---------------------------------------------------------------------------

// Provider is the central abstraction of the control plane (spec component
// A). Every LLM service implements this interface so that the gateway and
// reliability layer can work with any of them interchangeably.
type Provider interface {
	// Name returns the provider's canonical short name. It is also the
	// key used by the circuit breaker and the reliability layer.
	Name() string

	// Info returns static metadata about this provider.
	Info() ProviderInfo

	// Complete sends a chat completion request and blocks until the full
	// response is available. The context controls cancellation and
	// timeouts.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Validate checks that the provider is correctly configured (API key
	// present, endpoint reachable, etc.) and returns a descriptive error
	// if not.
	Validate(ctx context.Context) error
}
