package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"resty.dev/v3"

	"github.com/at-ishikawa/logeion/internal/inference"
)

const DefaultBaseURL = "https://api.openai.com/v1"

type Client struct {
	httpClient       *resty.Client
	apiKey           string
	model            string
	maxRetryAttempts uint
}

func NewClient(apiKey, model string, retryAttempts uint) *Client {
	client := resty.New()
	client.SetBaseURL(DefaultBaseURL)
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")

	return &Client{
		httpClient:       client,
		apiKey:           apiKey,
		model:            model,
		maxRetryAttempts: retryAttempts,
	}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type ChoiceMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

const systemPrompt = `You are a Latin morphological analyzer.

Split the user's text into words and return ONLY a JSON array with one object per word, in order:
{"text": "<word as written>", "lemma": "<dictionary headword>", "pos": "<Universal Dependencies POS tag>"}

RULES
- The lemma is the citation form used as the headword in Latin dictionaries. Verbs use the present active infinitive (amo -> amare), nouns the nominative singular (puerum -> puer), adjectives the masculine nominative singular (bonam -> bonus).
- Keep the lemma lowercase unless the word is a proper noun.
- If a word is not Latin or cannot be analyzed, use the word itself as the lemma.
- No text outside the JSON.`

var errMissingAPIKey = errors.New("openai api key is not configured")

// Ready checks that an API key is configured and the model is available.
func (client *Client) Ready(ctx context.Context) error {
	if client.apiKey == "" {
		return errMissingAPIKey
	}
	return inference.Do(ctx, client.maxRetryAttempts, func() error {
		response, err := client.httpClient.R().
			SetContext(ctx).
			Get("/models/" + url.PathEscape(client.model))
		if err != nil {
			return fmt.Errorf("httpClient.Get > %w", err)
		}
		if response.IsError() {
			return &inference.ResponseError{StatusCode: response.StatusCode(), Body: response.String()}
		}
		return nil
	})
}

// Annotate implements the inference.Annotator interface
func (client *Client) Annotate(ctx context.Context, text string) ([]inference.Token, error) {
	var tokens []inference.Token
	if err := inference.Do(ctx, client.maxRetryAttempts, func() error {
		result, err := client.annotate(ctx, text)
		if err != nil {
			return err
		}
		tokens = result
		return nil
	}); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (client *Client) annotate(ctx context.Context, text string) ([]inference.Token, error) {
	if strings.TrimSpace(text) == "" {
		return []inference.Token{}, nil
	}

	requestBody := ChatCompletionRequest{
		Model: client.model,
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: text},
		},
	}
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(requestBody).
		SetResult(&ChatCompletionResponse{}).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return nil, &inference.ResponseError{StatusCode: response.StatusCode(), Body: response.String()}
	}

	responseBody := response.Result().(*ChatCompletionResponse)
	if responseBody == nil || len(responseBody.Choices) == 0 {
		return nil, fmt.Errorf("empty response body or choices: %s", response.String())
	}
	content := responseBody.Choices[0].Message.Content
	if content == "" {
		return nil, fmt.Errorf("empty response content: %s", response.String())
	}
	slog.Default().Debug("openai response content",
		"text", text,
		"content", content,
		"totalTokens", responseBody.Usage.TotalTokens,
	)

	var tokens []inference.Token
	if err := json.Unmarshal([]byte(extractJSONArray(content)), &tokens); err != nil {
		return nil, fmt.Errorf("json.Unmarshal(%s) > %w", content, err)
	}
	return tokens, nil
}

// extractJSONArray trims markdown fences and any text around the outermost array.
func extractJSONArray(content string) string {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end < start {
		return content
	}
	return content[start : end+1]
}
