package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resty.dev/v3"

	"github.com/at-ishikawa/logeion/internal/inference"
)

func init() {
	inference.RetryDelay = time.Millisecond
}

func chatResponse(content string) ChatCompletionResponse {
	return ChatCompletionResponse{
		ID:      "chatcmpl-123",
		Object:  "chat.completion",
		Created: 1677652288,
		Model:   "gpt-4o-mini",
		Choices: []Choice{
			{
				Index:        0,
				Message:      ChoiceMessage{Role: RoleAssistant, Content: content},
				FinishReason: "stop",
			},
		},
		Usage: Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
	}
}

func TestClient_Annotate(t *testing.T) {
	tests := []struct {
		name              string
		text              string
		mockServerHandler func(t *testing.T, calls int32, w http.ResponseWriter, r *http.Request)

		want            []inference.Token
		wantCalls       int32
		wantErrorString string
	}{
		{
			name: "Success with a single word",
			text: "amo",
			mockServerHandler: func(t *testing.T, _ int32, w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var reqBody ChatCompletionRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
				assert.Equal(t, "gpt-4o-mini", reqBody.Model)
				require.Len(t, reqBody.Messages, 2)
				assert.Equal(t, RoleSystem, reqBody.Messages[0].Role)
				assert.Equal(t, Message{Role: RoleUser, Content: "amo"}, reqBody.Messages[1])

				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(chatResponse(`[{"text": "amo", "lemma": "amare", "pos": "VERB"}]`))
			},
			want:      []inference.Token{{Text: "amo", Lemma: "amare", POS: "VERB"}},
			wantCalls: 1,
		},
		{
			name: "Content wrapped in a markdown fence",
			text: "puerum",
			mockServerHandler: func(t *testing.T, _ int32, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(chatResponse("```json\n[{\"text\": \"puerum\", \"lemma\": \"puer\", \"pos\": \"NOUN\"}]\n```"))
			},
			want:      []inference.Token{{Text: "puerum", Lemma: "puer", POS: "NOUN"}},
			wantCalls: 1,
		},
		{
			name: "Retries malformed JSON content",
			text: "amo",
			mockServerHandler: func(t *testing.T, calls int32, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				if calls == 1 {
					_ = json.NewEncoder(w).Encode(chatResponse(`[{"text": "amo", "lemma"`))
					return
				}
				_ = json.NewEncoder(w).Encode(chatResponse(`[{"text": "amo", "lemma": "amare"}]`))
			},
			want:      []inference.Token{{Text: "amo", Lemma: "amare"}},
			wantCalls: 2,
		},
		{
			name: "Unauthorized is not retried",
			text: "amo",
			mockServerHandler: func(t *testing.T, _ int32, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided"}}`))
			},
			wantCalls:       1,
			wantErrorString: "response error 401",
		},
		{
			name: "Empty choices",
			text: "amo",
			mockServerHandler: func(t *testing.T, _ int32, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(ChatCompletionResponse{ID: "chatcmpl-123"})
			},
			wantCalls:       1,
			wantErrorString: "empty response body or choices",
		},
		{
			name: "Blank text skips the API",
			text: "   ",
			mockServerHandler: func(t *testing.T, _ int32, w http.ResponseWriter, r *http.Request) {
				t.Error("unexpected request")
			},
			want:      []inference.Token{},
			wantCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.mockServerHandler(t, calls.Add(1), w, r)
			}))
			defer server.Close()

			client := &Client{
				httpClient:       resty.New().SetBaseURL(server.URL).SetHeader("Content-Type", "application/json"),
				apiKey:           "test-key",
				model:            "gpt-4o-mini",
				maxRetryAttempts: 2,
			}
			defer client.Close()

			got, err := client.Annotate(context.Background(), tt.text)
			if tt.wantErrorString != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrorString)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestClient_Ready(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		client := NewClient("", "gpt-4o-mini", 0)
		defer client.Close()
		assert.ErrorIs(t, client.Ready(context.Background()), errMissingAPIKey)
	})

	t.Run("model exists", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/models/gpt-4o-mini", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id": "gpt-4o-mini", "object": "model"}`))
		}))
		defer server.Close()

		client := &Client{httpClient: resty.New().SetBaseURL(server.URL), apiKey: "test-key", model: "gpt-4o-mini"}
		defer client.Close()
		assert.NoError(t, client.Ready(context.Background()))
	})

	t.Run("model does not exist", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := &Client{httpClient: resty.New().SetBaseURL(server.URL), apiKey: "test-key", model: "gpt-nope"}
		defer client.Close()
		assert.Error(t, client.Ready(context.Background()))
	})
}

func TestNewClient(t *testing.T) {
	client := NewClient("test-key", "gpt-4o-mini", 3)
	defer client.Close()

	assert.Equal(t, "gpt-4o-mini", client.model)
	assert.Equal(t, uint(3), client.maxRetryAttempts)
}

func TestExtractJSONArray(t *testing.T) {
	assert.Equal(t, `[{"a":1}]`, extractJSONArray("Here you go:\n```json\n[{\"a\":1}]\n```"))
	assert.Equal(t, `{"a":1}`, extractJSONArray(`{"a":1}`))
}
