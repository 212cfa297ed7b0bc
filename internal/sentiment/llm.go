package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sentcorr/internal/api"
	"sentcorr/internal/interfaces"
)

const (
	openAIURL       = "https://api.openai.com/v1/chat/completions"
	anthropicURL    = "https://api.anthropic.com/v1/messages"
	anthropicAPIVer = "2023-06-01"
	llmMaxTokens    = 60

	systemPrompt = "You are a financial analyst scoring the sentiment of news headlines for their effect on the stock price. Respond ONLY with valid JSON."
)

func buildPrompt(headline string) string {
	return fmt.Sprintf(`Score the sentiment of this financial news headline from -1.0 (very negative for the stock) to 1.0 (very positive). Use 0 for neutral.

Headline: %s

Respond ONLY with JSON matching {"score": <float>}`, headline)
}

// parseScoreJSON extracts the score from a model reply, tolerating a
// surrounding markdown code fence.
func parseScoreJSON(content string) (float64, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var out struct {
		Score *float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return 0, fmt.Errorf("invalid JSON response: %w", err)
	}
	if out.Score == nil {
		return 0, errors.New("response has no score field")
	}
	return *out.Score, nil
}

// OpenAI scores headlines with a chat completion at temperature 0.
type OpenAI struct {
	client *api.Client
	url    string
	model  string
}

var _ interfaces.SentimentCapability = (*OpenAI)(nil)

// NewOpenAI returns an OpenAI-backed capability. url may be empty for the
// public endpoint.
func NewOpenAI(apiKey, model, url string, opts ...api.ClientOption) *OpenAI {
	if url == "" {
		url = openAIURL
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	opts = append(opts, api.WithHeader("Authorization", "Bearer "+apiKey))
	return &OpenAI{client: api.NewClient(opts...), url: url, model: model}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Score(ctx context.Context, text string) (float64, error) {
	body := map[string]any{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": buildPrompt(text)},
		},
		"temperature": 0,
		"max_tokens":  llmMaxTokens,
	}
	resp, err := o.client.POST(ctx, o.url, body)
	if err != nil {
		return 0, err
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := resp.ParseJSON(&r); err != nil {
		return 0, err
	}
	if len(r.Choices) == 0 {
		return 0, errors.New("no choices")
	}
	return parseScoreJSON(r.Choices[0].Message.Content)
}

// Claude scores headlines with the Anthropic messages API at temperature 0.
type Claude struct {
	client *api.Client
	url    string
	model  string
}

var _ interfaces.SentimentCapability = (*Claude)(nil)

// NewClaude returns an Anthropic-backed capability.
func NewClaude(apiKey, model, url string, opts ...api.ClientOption) *Claude {
	if url == "" {
		url = anthropicURL
	}
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	opts = append(opts,
		api.WithHeader("x-api-key", apiKey),
		api.WithHeader("anthropic-version", anthropicAPIVer),
	)
	return &Claude{client: api.NewClient(opts...), url: url, model: model}
}

func (c *Claude) Name() string { return "claude" }

func (c *Claude) Score(ctx context.Context, text string) (float64, error) {
	body := map[string]any{
		"model":       c.model,
		"max_tokens":  llmMaxTokens,
		"temperature": 0,
		"system":      systemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": buildPrompt(text)},
		},
	}
	resp, err := c.client.POST(ctx, c.url, body)
	if err != nil {
		return 0, err
	}

	var r struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := resp.ParseJSON(&r); err != nil {
		return 0, err
	}
	if len(r.Content) == 0 {
		return 0, errors.New("no content")
	}
	return parseScoreJSON(r.Content[0].Text)
}
