package insight

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/habitpulse/habitpulse/internal/profile"
)

const defaultOpenAIModel = "gpt-4o-mini"

// newOpenAIProvider builds the OpenAI-backed strategy.
func newOpenAIProvider(prof *profile.Profile) Provider {
	clientConfig := openai.DefaultConfig(prof.OpenAIAPIKey)
	if prof.OpenAIBaseURL != "" {
		clientConfig.BaseURL = prof.OpenAIBaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	model := prof.AIModel
	if model == "" {
		model = defaultOpenAIModel
	}

	return newProvider("openai", func(ctx context.Context, req completionRequest) (string, error) {
		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: req.System},
				{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
			},
			Temperature: 0.7,
			MaxTokens:   req.MaxTokens,
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("empty chat response")
		}
		return resp.Choices[0].Message.Content, nil
	})
}
