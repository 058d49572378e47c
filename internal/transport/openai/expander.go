package openai

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/openhaus/propsearch/internal/domain"
)

const expanderSystemPrompt = `You rewrite one real-estate search query into alternative phrasings
that surface different relevant listings. Each rewrite focuses on one aspect of the query
(features, style, location) using different vocabulary. Respond with a single JSON object:
{"queries": ["rewrite one", "rewrite two"]}
Never include the original query among the rewrites.`

// Expander rewrites a query into focused sub-queries with a chat model.
type Expander struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewExpander creates a chat-based query expander.
func NewExpander(cfg *Config) *Expander {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Expander{
		client: newClient(cfg),
		model:  cfg.Model,
		logger: logger,
	}
}

// Expand implements expand.Expander.
func (e *Expander) Expand(ctx context.Context, text string, max int) ([]string, error) {
	user := fmt.Sprintf("Query: %s\nProduce at most %d rewrites.", text, max)
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0.3,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: expanderSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExpansionUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion response", domain.ErrExpansionUnavailable)
	}

	var payload struct {
		Queries []string `json:"queries"`
	}
	if err := json.Unmarshal([]byte(stripFence(resp.Choices[0].Message.Content)), &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", domain.ErrExpansionUnavailable, err)
	}
	if len(payload.Queries) > max {
		payload.Queries = payload.Queries[:max]
	}
	return payload.Queries, nil
}
