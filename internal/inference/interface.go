package inference

import (
	"context"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_annotator.go -package=mock_inference

// DefaultMaxRetryAttempts is used when a backend is created without an explicit retry budget.
const DefaultMaxRetryAttempts uint = 3

// Annotator runs a language pipeline over text and returns one token per word
type Annotator interface {
	Annotate(ctx context.Context, text string) ([]Token, error)
	// Ready checks that the backend and its model can be reached
	Ready(ctx context.Context) error
	Close() error
}

// Token is a single annotated word
type Token struct {
	Text  string `json:"text"`
	Lemma string `json:"lemma"`
	POS   string `json:"pos,omitempty"`
}
