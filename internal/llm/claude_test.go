// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

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

func TestCompleteReturnsTextAndTokens(t *testing.T) {
	var gotBody claudeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(claudeResponse{
			Content: []claudeContent{
				{Type: "thinking", Text: "ignored"},
				{Type: "text", Text: "first "},
				{Type: "text", Text: "second"},
			},
			Usage: claudeUsage{InputTokens: 120, OutputTokens: 30},
		})
	}))
	defer server.Close()

	orig := claudeAPIURL
	claudeAPIURL = server.URL
	defer func() { claudeAPIURL = orig }()

	c := &Claude{APIKey: "test-key"}
	resp, err := c.Complete(context.Background(), "summarize this", "some-model")
	require.NoError(t, err)

	assert.Equal(t, "first second", resp.Text)
	assert.Equal(t, 150, resp.TokensUsed)
	assert.Equal(t, "some-model", gotBody.Model)
	assert.Equal(t, defaultMaxTokens, gotBody.MaxTokens)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "user", gotBody.Messages[0].Role)
	assert.Equal(t, "summarize this", gotBody.Messages[0].Content)
}

func TestCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "overloaded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	orig := claudeAPIURL
	claudeAPIURL = server.URL
	defer func() { claudeAPIURL = orig }()

	c := &Claude{APIKey: "test-key"}
	_, err := c.Complete(context.Background(), "prompt", "some-model")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCompleteNoTextContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(claudeResponse{})
	}))
	defer server.Close()

	orig := claudeAPIURL
	claudeAPIURL = server.URL
	defer func() { claudeAPIURL = orig }()

	c := &Claude{APIKey: "test-key"}
	_, err := c.Complete(context.Background(), "prompt", "some-model")
	assert.Error(t, err)
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	c := &Claude{}
	_, err := c.Complete(context.Background(), "prompt", "some-model")
	assert.Error(t, err)
}
