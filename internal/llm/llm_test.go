package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, CleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, CleanJSON("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, CleanJSON("  {\"a\":1} "))
}

func newTestGroq(url string) *groqClient {
	return &groqClient{
		apiKey:     "key",
		model:      "test-model",
		url:        url,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}
}

func TestGroqGenerateContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])

		w.Write([]byte(`{
			"model": "llama-test",
			"choices": [{"message": {"content": "` + "```json\\n{\\\"title\\\":\\\"Soup\\\"}\\n```" + `"}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer ts.Close()

	resp, err := newTestGroq(ts.URL).GenerateContent(context.Background(), "extract")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Soup"}`, resp.Content)
	assert.Equal(t, 10, resp.Usage.PromptTokens)
	assert.Equal(t, 5, resp.Usage.CompletionTokens)
	assert.Equal(t, "llama-test", resp.Usage.Model)
}

func TestGroqErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("empty") != "" {
			w.Write([]byte(`{"choices": []}`))
			return
		}
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	_, err := newTestGroq(ts.URL).GenerateContent(context.Background(), "x")
	assert.ErrorContains(t, err, "status=429")

	_, err = newTestGroq(ts.URL+"?empty=1").GenerateContent(context.Background(), "x")
	assert.ErrorContains(t, err, "no content generated")
}

func TestGroqRespectsContext(t *testing.T) {
	c := newTestGroq("http://127.0.0.1:1")
	c.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	c.limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.GenerateContent(ctx, "x")
	assert.ErrorContains(t, err, "rate limit")
}

func TestConstructorsRequireKeys(t *testing.T) {
	_, err := NewGroqClient("", "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewGeminiClient(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
