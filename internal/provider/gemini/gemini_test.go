package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aicp/controlplane/internal/provider"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockGeminiServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := apiResponse{
			Candidates: []apiCandidate{
				{
					FinishReason:  "STOP",
					SafetyRatings: []interface{}{map[string]interface{}{"category": "HARM_NONE"}},
				},
			},
			UsageMetadata: usageMetadata{PromptTokenCount: 8, CandidatesTokenCount: 4, TotalTokenCount: 12},
		}
		resp.Candidates[0].Content.Parts = []apiPart{{Text: "Test response"}}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestGeminiComplete(t *testing.T) {
	server := mockGeminiServer(t)
	defer server.Close()

	v := viper.New()
	v.Set("api_key", "test-key")
	v.Set("base_url", server.URL)
	v.Set("model", "gemini-pro")

	p, err := NewProvider(v)
	require.NoError(t, err)

	resp, err := p.Complete(context.Background(), provider.CompletionRequest{
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "Hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Test response", resp.Content)
	assert.Equal(t, 12, resp.Usage.TotalTokens)
	assert.NotNil(t, resp.ProviderMeta["safety_ratings"])
}

func TestGeminiComplete_FoldsSystemAndUserIntoUserRole(t *testing.T) {
	var got apiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		resp := apiResponse{Candidates: []apiCandidate{{}}}
		resp.Candidates[0].Content.Parts = []apiPart{{Text: "ok"}}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	v := viper.New()
	v.Set("api_key", "test-key")
	v.Set("base_url", server.URL)

	p, err := NewProvider(v)
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), provider.CompletionRequest{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: "be nice"},
			{Role: provider.RoleUser, Content: "hi"},
			{Role: provider.RoleAssistant, Content: "hello"},
		},
	})
	require.NoError(t, err)

	require.Len(t, got.Contents, 3)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "user", got.Contents[1].Role)
	assert.Equal(t, "model", got.Contents[2].Role)
}

func TestGeminiComplete_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"message": "API key invalid", "status": "UNAUTHENTICATED"},
		})
	}))
	defer server.Close()

	v := viper.New()
	v.Set("api_key", "bad-key")
	v.Set("base_url", server.URL)

	p, err := NewProvider(v)
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), provider.CompletionRequest{
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "hi"}},
	})
	assert.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrAuthentication)
}

func TestGeminiValidate_EmptyAPIKey(t *testing.T) {
	v := viper.New()
	p, err := NewProvider(v)
	require.NoError(t, err)

	err = p.Validate(context.Background())
	assert.ErrorIs(t, err, provider.ErrAuthentication)
}

func TestGeminiInfo(t *testing.T) {
	v := viper.New()
	v.Set("api_key", "test")
	p, err := NewProvider(v)
	require.NoError(t, err)

	info := p.Info()
	assert.Equal(t, "gemini", info.Name)
	assert.Equal(t, "gemini", p.Name())
}
