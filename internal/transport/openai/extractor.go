package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/openhaus/propsearch/internal/domain"
	"github.com/openhaus/propsearch/internal/usecase/extract"
)

const extractorSystemPrompt = `You turn real-estate search queries into structured constraints.
Respond with a single JSON object and nothing else:
{
  "must_have": ["feature tags the buyer requires"],
  "nice_to_have": ["feature tags the buyer would like"],
  "price_min": null or number,
  "price_max": null or number,
  "beds_min": null or integer,
  "baths_min": null or integer,
  "style": "" or an architecture style like "craftsman",
  "proximity_poi": "" or a place type like "elementary_school",
  "max_drive_time_min": null or integer minutes
}
Tags are lower-case with underscores. Leave fields empty when the query does not mention them.`

// Extractor parses query text into structured constraints with a chat model.
type Extractor struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewExtractor creates a chat-based constraint parser.
func NewExtractor(cfg *Config) *Extractor {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		client: newClient(cfg),
		model:  cfg.Model,
		logger: logger,
	}
}

type parsedPayload struct {
	MustHave        []string `json:"must_have"`
	NiceToHave      []string `json:"nice_to_have"`
	PriceMin        *float64 `json:"price_min"`
	PriceMax        *float64 `json:"price_max"`
	BedsMin         *int     `json:"beds_min"`
	BathsMin        *int     `json:"baths_min"`
	Style           string   `json:"style"`
	ProximityPOI    string   `json:"proximity_poi"`
	MaxDriveTimeMin *int     `json:"max_drive_time_min"`
}

// Parse implements extract.Parser.
func (e *Extractor) Parse(ctx context.Context, text string) (extract.Parsed, error) {
	content, err := e.complete(ctx, extractorSystemPrompt, text)
	if err != nil {
		return extract.Parsed{}, fmt.Errorf("%w: %v", domain.ErrExtractionUnavailable, err)
	}

	var payload parsedPayload
	if err := json.Unmarshal([]byte(stripFence(content)), &payload); err != nil {
		return extract.Parsed{}, fmt.Errorf("%w: malformed response: %v", domain.ErrExtractionUnavailable, err)
	}

	return extract.Parsed{
		MustHave:        payload.MustHave,
		NiceToHave:      payload.NiceToHave,
		PriceMin:        payload.PriceMin,
		PriceMax:        payload.PriceMax,
		BedsMin:         payload.BedsMin,
		BathsMin:        payload.BathsMin,
		Style:           payload.Style,
		ProximityPOI:    payload.ProximityPOI,
		MaxDriveTimeMin: payload.MaxDriveTimeMin,
	}, nil
}

func (e *Extractor) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// stripFence removes a markdown code fence some models wrap JSON output in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
