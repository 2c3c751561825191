package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/habitpulse/habitpulse/internal/profile"
)

const (
	defaultAnthropicModel = "claude-3-5-sonnet-20241022"
	anthropicAPIVersion   = "2023-06-01"
)

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// newAnthropicProvider builds the Anthropic-backed strategy. The Messages
// API is called directly over HTTP.
func newAnthropicProvider(prof *profile.Profile) Provider {
	apiKey := prof.AnthropicAPIKey
	baseURL := prof.AnthropicBaseURL
	model := prof.AIModel
	if model == "" {
		model = defaultAnthropicModel
	}
	httpClient := &http.Client{Timeout: defaultProviderTimeout}

	return newProvider("anthropic", func(ctx context.Context, req completionRequest) (string, error) {
		body, err := json.Marshal(anthropicRequest{
			Model:     model,
			MaxTokens: req.MaxTokens,
			System:    req.System,
			Messages: []anthropicMessage{
				{Role: "user", Content: req.Prompt},
			},
		})
		if err != nil {
			return "", err
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/messages", bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-api-key", apiKey)
		httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

		resp, err := httpClient.Do(httpReq)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return "", err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", fmt.Errorf("anthropic API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
		}

		var parsed anthropicResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return "", err
		}
		for _, block := range parsed.Content {
			if block.Type == "text" {
				return block.Text, nil
			}
		}
		return "", fmt.Errorf("empty messages response")
	})
}
