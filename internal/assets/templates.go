package assets

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/at-ishikawa/logeion/internal/dictionary"
	"github.com/at-ishikawa/logeion/internal/lookup"
)

const lookupTemplateName = "lookup-result.md.go.tmpl"

//go:embed templates/lookup-result.md.go.tmpl
var fallbackLookupTemplate string

// LookupTemplate is the data rendered by the lookup result template
type LookupTemplate struct {
	Word    string
	Method  string
	Lemma   string
	Error   string
	Entries []EntryView
}

// EntryView is one dictionary entry with its columns in a stable order
type EntryView struct {
	Head   string
	Fields []Field
}

type Field struct {
	Name  string
	Value string
}

// NewLookupTemplate converts a lookup result. The head column titles each entry
// and the other non-empty columns are listed alphabetically.
func NewLookupTemplate(result lookup.Result, headColumn string) LookupTemplate {
	entries := make([]EntryView, 0, len(result.Entries))
	for _, entry := range result.Entries {
		entries = append(entries, newEntryView(entry, headColumn))
	}
	return LookupTemplate{
		Word:    result.Word,
		Method:  string(result.Method),
		Lemma:   result.Lemma,
		Error:   result.Error,
		Entries: entries,
	}
}

func newEntryView(entry dictionary.Entry, headColumn string) EntryView {
	names := make([]string, 0, len(entry))
	for name := range entry {
		if name != headColumn {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		if entry[name] == nil {
			continue
		}
		value := strings.TrimSpace(fmt.Sprint(entry[name]))
		if value == "" {
			continue
		}
		fields = append(fields, Field{Name: name, Value: value})
	}
	return EntryView{Head: entry.Head(headColumn), Fields: fields}
}

// ParseLookupTemplate parses templatePath, or the embedded template when
// templatePath is empty or cannot be parsed.
func ParseLookupTemplate(templatePath string) (*template.Template, error) {
	funcMap := template.FuncMap{
		"join": strings.Join,
	}

	if templatePath != "" {
		if _, err := os.Stat(templatePath); err == nil {
			tmpl, err := template.New(filepath.Base(templatePath)).
				Funcs(funcMap).
				ParseFiles(templatePath)
			if err == nil {
				return tmpl, nil
			}
			slog.Default().Warn("failed to parse a templatePath",
				slog.String("templatePath", templatePath),
				slog.Any("error", err),
			)
		}
	}

	tmpl, err := template.New(lookupTemplateName).
		Funcs(funcMap).
		Parse(fallbackLookupTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}

// RenderLookup writes the markdown rendering of a lookup result to w
func RenderLookup(w io.Writer, templatePath string, data LookupTemplate) error {
	tmpl, err := ParseLookupTemplate(templatePath)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("tmpl.Execute > %w", err)
	}
	return nil
}
