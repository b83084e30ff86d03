package table

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/logeion/internal/inference"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		want     map[string]Entry
		wantErr  bool
		noCreate bool
	}{
		{
			name: "bare lemmas and mappings",
			content: `amo: amare
puerum:
  lemma: puer
  pos: NOUN
`,
			want: map[string]Entry{
				"amo":    {Lemma: "amare"},
				"puerum": {Lemma: "puer", POS: "NOUN"},
			},
		},
		{
			name:    "invalid yaml",
			content: "amo: [amare",
			wantErr: true,
		},
		{
			name:     "missing file",
			noCreate: true,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "lemmas.yml")
			if !tt.noCreate {
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			}

			got, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.forms)
			assert.Equal(t, len(tt.want), got.Len())
		})
	}
}

func TestAnnotator_Annotate(t *testing.T) {
	annotator := NewAnnotator(map[string]Entry{
		"amo":    {Lemma: "amare", POS: "VERB"},
		"puerum": {Lemma: "puer", POS: "NOUN"},
		"empty":  {},
	})

	tests := []struct {
		name string
		text string
		want []inference.Token
	}{
		{
			name: "known form",
			text: "amo",
			want: []inference.Token{{Text: "amo", Lemma: "amare", POS: "VERB"}},
		},
		{
			name: "capitalized form falls back to lower case",
			text: "Amo",
			want: []inference.Token{{Text: "Amo", Lemma: "amare", POS: "VERB"}},
		},
		{
			name: "unknown form is its own lemma",
			text: "xyzzy",
			want: []inference.Token{{Text: "xyzzy", Lemma: "xyzzy"}},
		},
		{
			name: "entry without lemma",
			text: "empty",
			want: []inference.Token{{Text: "empty", Lemma: "empty"}},
		},
		{
			name: "sentence with punctuation",
			text: "amo puerum.",
			want: []inference.Token{
				{Text: "amo", Lemma: "amare", POS: "VERB"},
				{Text: "puerum", Lemma: "puer", POS: "NOUN"},
			},
		},
		{
			name: "blank text",
			text: "  \t",
			want: []inference.Token{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := annotator.Annotate(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnnotator_Annotate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAnnotator(nil).Annotate(ctx, "amo")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnnotator_Ready(t *testing.T) {
	assert.Error(t, NewAnnotator(nil).Ready(context.Background()))
	assert.NoError(t, NewAnnotator(map[string]Entry{"amo": {Lemma: "amare"}}).Ready(context.Background()))
}
