// Package service is an Annotator backed by an HTTP token-annotation service
// hosting a pretrained pipeline such as la_core_web_lg.
package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/at-ishikawa/logeion/internal/inference"
)

type Client struct {
	httpClient       *resty.Client
	model            string
	maxRetryAttempts uint
}

func NewClient(endpoint, model string, timeout time.Duration, retryAttempts uint) *Client {
	client := resty.New()
	client.SetBaseURL(endpoint)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &Client{
		httpClient:       client,
		model:            model,
		maxRetryAttempts: retryAttempts,
	}
}

func (client *Client) Close() error {
	return nil
}

type AnnotateRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

type AnnotateResponse struct {
	Model  string            `json:"model"`
	Tokens []inference.Token `json:"tokens"`
}

type ModelResponse struct {
	Name   string `json:"name"`
	Loaded bool   `json:"loaded"`
}

// Ready asks the service whether the configured model is loaded.
func (client *Client) Ready(ctx context.Context) error {
	return inference.Do(ctx, client.maxRetryAttempts, func() error {
		response, err := client.httpClient.R().
			SetContext(ctx).
			SetResult(&ModelResponse{}).
			Get("/models/" + url.PathEscape(client.model))
		if err != nil {
			return fmt.Errorf("httpClient.Get > %w", err)
		}
		if response.IsError() {
			return &inference.ResponseError{StatusCode: response.StatusCode(), Body: response.String()}
		}
		model, ok := response.Result().(*ModelResponse)
		if !ok || model == nil || !model.Loaded {
			return fmt.Errorf("model %s is not loaded: %s", client.model, response.String())
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
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(AnnotateRequest{Model: client.model, Text: text}).
		SetResult(&AnnotateResponse{}).
		Post("/annotate")
	if err != nil {
		return nil, fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return nil, &inference.ResponseError{StatusCode: response.StatusCode(), Body: response.String()}
	}

	body, ok := response.Result().(*AnnotateResponse)
	if !ok || body == nil {
		return nil, fmt.Errorf("json.Unmarshal > unexpected response body: %s", response.String())
	}
	return body.Tokens, nil
}
