// Package table is an Annotator backed by a lemma table read from a YAML file.
package table

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/logeion/internal/inference"
)

// Entry is the lemma and part of speech of one inflected form.
// In the YAML file it is either a bare lemma string or a mapping with lemma and pos.
type Entry struct {
	Lemma string `yaml:"lemma"`
	POS   string `yaml:"pos"`
}

func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&e.Lemma)
	}
	type plain Entry
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*e = Entry(p)
	return nil
}

type Annotator struct {
	forms map[string]Entry
}

// NewAnnotator creates an Annotator from an in-memory table
func NewAnnotator(forms map[string]Entry) *Annotator {
	if forms == nil {
		forms = map[string]Entry{}
	}
	return &Annotator{forms: forms}
}

// Load reads a lemma table from path
func Load(path string) (*Annotator, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s) > %w", path, err)
	}

	var forms map[string]Entry
	if err := yaml.Unmarshal(content, &forms); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal(%s) > %w", path, err)
	}
	return NewAnnotator(forms), nil
}

func (a *Annotator) Len() int {
	return len(a.forms)
}

func (a *Annotator) Ready(_ context.Context) error {
	if a.Len() == 0 {
		return fmt.Errorf("lemma table is empty")
	}
	return nil
}

func (a *Annotator) Close() error {
	return nil
}

// Annotate splits text on whitespace and looks every word up in the table.
// Words missing from the table are their own lemma.
func (a *Annotator) Annotate(ctx context.Context, text string) ([]inference.Token, error) {
	words := strings.Fields(text)
	tokens := make([]inference.Token, 0, len(words))
	for _, word := range words {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		word = strings.TrimFunc(word, unicode.IsPunct)
		if word == "" {
			continue
		}
		tokens = append(tokens, a.lookup(word))
	}
	return tokens, nil
}

func (a *Annotator) lookup(word string) inference.Token {
	entry, ok := a.forms[word]
	if !ok {
		entry, ok = a.forms[strings.ToLower(word)]
	}
	if !ok || entry.Lemma == "" {
		return inference.Token{Text: word, Lemma: word}
	}
	return inference.Token{Text: word, Lemma: entry.Lemma, POS: entry.POS}
}
