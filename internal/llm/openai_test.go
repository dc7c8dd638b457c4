package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatCompletionHandler(t *testing.T, content string, seen *map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "llama-3.3-70b-versatile",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}
}

func testOpenAIConfig(baseURL string) *Config {
	cfg := DefaultOpenAIConfig().WithBaseURL(baseURL)
	cfg.MaxRetries = 0
	return cfg
}

func TestOpenAIClient_GenerateJSON(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(chatCompletionHandler(t, "```json\n{\"overall_grade\": \"B\"}\n```", &body))
	defer server.Close()

	client, err := NewOpenAIClient(testOpenAIConfig(server.URL), "test-key")
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	out, err := client.GenerateJSON(context.Background(), "grade this", TierLite)
	require.NoError(t, err)
	assert.Equal(t, `{"overall_grade": "B"}`, out)

	assert.Equal(t, "llama-3.1-8b-instant", body["model"])
	format, ok := body["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
}

func TestOpenAIClient_GenerateContent(t *testing.T) {
	server := httptest.NewServer(chatCompletionHandler(t, "plain answer", nil))
	defer server.Close()

	client, err := NewOpenAIClient(testOpenAIConfig(server.URL), "test-key")
	require.NoError(t, err)

	out, err := client.GenerateContent(context.Background(), "hello", TierAdvanced)
	require.NoError(t, err)
	assert.Equal(t, "plain answer", out)
	assert.Equal(t, "llama-3.3-70b-versatile", client.GetModel(TierAdvanced))
}

func TestOpenAIClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "boom"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewOpenAIClient(testOpenAIConfig(server.URL), "test-key")
	require.NoError(t, err)

	_, err = client.GenerateJSON(context.Background(), "grade this", TierLite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate content")
}

func TestOpenAIClient_EmptyContent(t *testing.T) {
	server := httptest.NewServer(chatCompletionHandler(t, "", nil))
	defer server.Close()

	client, err := NewOpenAIClient(testOpenAIConfig(server.URL), "test-key")
	require.NoError(t, err)

	_, err = client.GenerateContent(context.Background(), "hello", TierLite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content")
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), DefaultOpenAIConfig(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")

	_, err = NewClient(context.Background(), &Config{Provider: "bedrock"}, "key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM provider")
}
