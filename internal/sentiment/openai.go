package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var ErrMissingAPIKey = errors.New("openai api key is required")

type openAIChatClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// OpenAIAnalyzer asks a chat model for headline polarity and falls back to
// another analyzer when the call or its output is unusable.
type OpenAIAnalyzer struct {
	client   openAIChatClient
	model    string
	fallback Analyzer
}

func NewOpenAIAnalyzer(apiKey, model string, fallback Analyzer) (*OpenAIAnalyzer, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	if fallback == nil {
		fallback = NewLexiconAnalyzer()
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIAnalyzer{
		client:   &openAIClient{client: client},
		model:    model,
		fallback: fallback,
	}, nil
}

func (a *OpenAIAnalyzer) Polarity(ctx context.Context, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	scores, err := a.score(ctx, texts)
	if err != nil {
		log.Printf("openai sentiment failed, using fallback: %v", err)
		return a.fallback.Polarity(ctx, texts)
	}
	return scores, nil
}

func (a *OpenAIAnalyzer) score(ctx context.Context, texts []string) ([]float64, error) {
	var sb strings.Builder
	for i, text := range texts {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i, strings.TrimSpace(text)))
	}

	systemPrompt := "You score financial news headline sentiment. Return ONLY a JSON array of numbers, one per headline in input order, each a compound polarity in [-1, 1]. No markdown."
	completion, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage("Headlines:\n" + sb.String()),
		},
	})
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty sentiment completion")
	}

	raw := trimCodeFence(completion.Choices[0].Message.Content)
	var parsed []float64
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse sentiment json: %w", err)
	}
	if len(parsed) != len(texts) {
		return nil, fmt.Errorf("sentiment count mismatch: got %d want %d", len(parsed), len(texts))
	}
	for i := range parsed {
		if parsed[i] > 1 {
			parsed[i] = 1
		} else if parsed[i] < -1 {
			parsed[i] = -1
		}
	}
	return parsed, nil
}

func trimCodeFence(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "```") {
		v = strings.TrimSpace(strings.TrimPrefix(v, "```"))
		if strings.HasPrefix(strings.ToLower(v), "json") {
			v = strings.TrimSpace(v[4:])
		}
		v = strings.TrimSpace(strings.TrimSuffix(v, "```"))
	}
	return v
}

type openAIClient struct {
	client openai.Client
}

func (c *openAIClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
