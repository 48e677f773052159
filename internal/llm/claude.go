// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm implements the external LLM caller against the Claude
// Messages API. Agents treat the model as an opaque collaborator: they
// send a prompt and get text back, falling back to deterministic
// heuristics when the response is unusable.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/litreview/pkg/types"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

const defaultMaxTokens = 4096

// Claude calls the Claude Messages API.
type Claude struct {
	APIKey string
	Client *http.Client

	// MaxTokens bounds the completion length (default 4096).
	MaxTokens int
}

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the Claude API conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
	Usage   claudeUsage     `json:"usage"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// claudeUsage carries the token accounting from the API.
type claudeUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Complete sends one prompt and returns the concatenated text blocks of
// the response along with total tokens used.
func (c *Claude) Complete(ctx context.Context, prompt, model string) (types.LLMResponse, error) {
	if c.APIKey == "" {
		return types.LLMResponse{}, fmt.Errorf("no API key configured")
	}

	reqBody := claudeRequest{
		Model:     model,
		MaxTokens: c.MaxTokens,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}
	if reqBody.MaxTokens <= 0 {
		reqBody.MaxTokens = defaultMaxTokens
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return types.LLMResponse{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return types.LLMResponse{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return types.LLMResponse{}, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return types.LLMResponse{}, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return types.LLMResponse{}, fmt.Errorf("decoding Claude response: %w", err)
	}

	var text strings.Builder
	for _, block := range cResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return types.LLMResponse{}, fmt.Errorf("no text content in Claude API response")
	}

	return types.LLMResponse{
		Text:       text.String(),
		TokensUsed: cResp.Usage.InputTokens + cResp.Usage.OutputTokens,
	}, nil
}
