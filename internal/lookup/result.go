package lookup

import (
	"fmt"

	"github.com/at-ishikawa/logeion/internal/dictionary"
)

// Method tells which path of the lookup policy produced a Result.
type Method string

const (
	MethodExact      Method = "exact"
	MethodLemmatized Method = "lemmatized"
	MethodNone       Method = "none"
	MethodError      Method = "error"
)

// Result is the serialized outcome of a word lookup.
// Lemma is set only for MethodLemmatized and Error only for MethodNone and MethodError.
type Result struct {
	Success bool               `json:"success"`
	Word    string             `json:"word"`
	Lemma   string             `json:"lemma,omitempty"`
	Entries []dictionary.Entry `json:"entries"`
	Method  Method             `json:"method"`
	Error   string             `json:"error,omitempty"`
}

// Outcome is one of ExactMatch, LemmaMatch, NotFound or StorageFailure.
type Outcome interface {
	outcome()
}

type ExactMatch struct {
	Entries []dictionary.Entry
}

type LemmaMatch struct {
	Lemma   string
	Entries []dictionary.Entry
}

// NotFound means neither the word nor its lemma matched.
// ResolverAvailable is false when lookup degraded to exact match only.
type NotFound struct {
	ResolverAvailable bool
}

type StorageFailure struct {
	Err error
}

func (ExactMatch) outcome()     {}
func (LemmaMatch) outcome()     {}
func (NotFound) outcome()       {}
func (StorageFailure) outcome() {}

// NewResult converts an outcome of looking up word into its serialized form.
func NewResult(word string, o Outcome) Result {
	result := Result{
		Word:    word,
		Entries: []dictionary.Entry{},
	}
	switch o := o.(type) {
	case ExactMatch:
		result.Success = true
		result.Method = MethodExact
		result.Entries = o.Entries
	case LemmaMatch:
		result.Success = true
		result.Method = MethodLemmatized
		result.Lemma = o.Lemma
		result.Entries = o.Entries
	case NotFound:
		result.Method = MethodNone
		if o.ResolverAvailable {
			result.Error = fmt.Sprintf("No results found for '%s' or its lemma", word)
		} else {
			result.Error = fmt.Sprintf("No results found for '%s' (lemmatizer not available)", word)
		}
	case StorageFailure:
		result.Method = MethodError
		result.Error = o.Err.Error()
	default:
		result.Method = MethodError
		result.Error = fmt.Sprintf("unexpected lookup outcome %T", o)
	}
	return result
}
