// Package gemini implements the provider.Provider interface for Google's
// Gemini generateContent API, grounded on
// original_source/src/aicp/gateway/providers/gemini.py's GeminiProvider
// and adapted to this module's go-resty/v2 transport convention (see
// internal/provider/openai).
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aicp/controlplane/internal/provider"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

func init() {
	provider.Register("gemini", NewProvider)
}

// ---------------------------------------------------------------------------
// Gemini-specific API types (request)
// ---------------------------------------------------------------------------

type apiPart struct {
	Text string `json:"text"`
}

type apiContent struct {
	Role  string    `json:"role"`
	Parts []apiPart `json:"parts"`
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type apiRequest struct {
	Contents         []apiContent     `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

// ---------------------------------------------------------------------------
// Gemini-specific API types (response)
// ---------------------------------------------------------------------------

type apiCandidate struct {
	Content struct {
		Parts []apiPart `json:"parts"`
	} `json:"content"`
	FinishReason  string        `json:"finishReason"`
	SafetyRatings []interface{} `json:"safetyRatings"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type apiResponse struct {
	Candidates    []apiCandidate `json:"candidates"`
	UsageMetadata usageMetadata  `json:"usageMetadata"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// ---------------------------------------------------------------------------
// Provider implementation
// ---------------------------------------------------------------------------

// Provider implements provider.Provider for Google's Gemini API.
type Provider struct {
	client   *resty.Client
	apiKey   string
	baseURL  string
	model    string
	maxTok   int
	retryCfg provider.RetryConfig
}

// NewProvider is the factory function registered with the provider
// registry. It reads configuration from the supplied viper instance,
// falling back to the GEMINI_API_KEY environment variable when api_key is
// unset.
func NewProvider(v *viper.Viper) (provider.Provider, error) {
	apiKey := v.GetString("api_key")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	baseURL := v.GetString("base_url")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	}
	model := v.GetString("model")
	if model == "" {
		model = "gemini-pro"
	}
	maxTok := v.GetInt("max_tokens")
	if maxTok == 0 {
		maxTok = 1024
	}
	timeout := v.GetDuration("timeout")
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &Provider{
		client:   client,
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		model:    model,
		maxTok:   maxTok,
		retryCfg: provider.DefaultRetryConfig(),
	}, nil
}

// Name returns the provider's canonical short name.
func (p *Provider) Name() string { return "gemini" }

// Info returns provider metadata.
func (p *Provider) Info() provider.ProviderInfo {
	return provider.ProviderInfo{
		Name:         "gemini",
		DisplayName:  "Google Gemini",
		Description:  "Google's Gemini generateContent API.",
		DefaultModel: "gemini-pro",
	}
}

// Validate checks that the API key is set.
func (p *Provider) Validate(ctx context.Context) error {
	if p.apiKey == "" {
		return &provider.ProviderError{
			Code:     provider.ErrCodeAuthentication,
			Message:  "GEMINI_API_KEY is not set",
			Provider: "gemini",
		}
	}
	return nil
}

// Complete performs a synchronous generateContent call, retrying transient
// failures per RetryConfig.
func (p *Provider) Complete(ctx context.Context, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
	return provider.WithRetry(ctx, p.retryCfg, func() (*provider.CompletionResponse, error) {
		return p.doComplete(ctx, req)
	})
}

func (p *Provider) doComplete(ctx context.Context, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	maxTok := req.MaxTokens
	if maxTok == 0 {
		maxTok = p.maxTok
	}

	body := apiRequest{
		Contents: toAPIContents(req.Messages),
		GenerationConfig: generationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: maxTok,
			StopSequences:   req.StopSequences(),
		},
	}

	url := fmt.Sprintf("%s/%s:generateContent", p.baseURL, model)

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("key", p.apiKey).
		SetBody(body).
		Post(url)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:     provider.ErrCodeProviderUnavailable,
			Message:  "HTTP request failed",
			Provider: "gemini",
			Cause:    err,
		}
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, classifyHTTPError(resp.StatusCode(), resp.Body())
	}

	var apiResp apiResponse
	if err := json.Unmarshal(resp.Body(), &apiResp); err != nil {
		return nil, &provider.ProviderError{
			Code:     provider.ErrCodeUnknown,
			Message:  "failed to decode response",
			Provider: "gemini",
			Cause:    err,
		}
	}

	return toCompletionResponse(model, &apiResp), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// toAPIContents folds the normalized role set onto Gemini's two-role
// vocabulary: SYSTEM and USER both become "user", everything else becomes
// "model", matching the original's role-folding.
func toAPIContents(msgs []provider.Message) []apiContent {
	out := make([]apiContent, len(msgs))
	for i, m := range msgs {
		role := "model"
		if m.Role == provider.RoleUser || m.Role == provider.RoleSystem {
			role = "user"
		}
		out[i] = apiContent{Role: role, Parts: []apiPart{{Text: m.Content}}}
	}
	return out
}

func toCompletionResponse(model string, r *apiResponse) *provider.CompletionResponse {
	resp := &provider.CompletionResponse{
		ID:    "gemini-" + uuid.NewString(),
		Model: model,
		Role:  provider.RoleAssistant,
		Usage: provider.Usage{
			PromptTokens:     r.UsageMetadata.PromptTokenCount,
			CompletionTokens: r.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      r.UsageMetadata.TotalTokenCount,
		},
	}
	if len(r.Candidates) > 0 {
		c := r.Candidates[0]
		if len(c.Content.Parts) > 0 {
			resp.Content = c.Content.Parts[0].Text
		}
		resp.FinishReason = c.FinishReason
		resp.ProviderMeta = map[string]interface{}{"safety_ratings": c.SafetyRatings}
	}
	return resp
}

// classifyHTTPError maps HTTP status codes to normalized provider errors.
func classifyHTTPError(statusCode int, body []byte) *provider.ProviderError {
	var apiErr apiError
	_ = json.Unmarshal(body, &apiErr)
	msg := apiErr.Error.Message
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", statusCode)
	}

	pe := &provider.ProviderError{
		Provider:   "gemini",
		Message:    msg,
		StatusCode: statusCode,
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		pe.Code = provider.ErrCodeAuthentication
	case statusCode == http.StatusTooManyRequests:
		pe.Code = provider.ErrCodeRateLimit
	case statusCode == http.StatusBadRequest:
		pe.Code = provider.ErrCodeInvalidRequest
	case statusCode >= 500:
		pe.Code = provider.ErrCodeProviderUnavailable
	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusGatewayTimeout:
		pe.Code = provider.ErrCodeTimeout
	default:
		pe.Code = provider.ErrCodeUnknown
	}

	return pe
}
