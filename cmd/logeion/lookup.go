package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/logeion/internal/assets"
	"github.com/at-ishikawa/logeion/internal/lookup"
	"github.com/at-ishikawa/logeion/internal/pdf"
)

func newLookupCommand() *cobra.Command {
	var (
		asJSON       bool
		pdfPath      string
		templatePath string
	)

	command := &cobra.Command{
		Use:   "lookup <word>",
		Short: "Look a Latin word up, falling back to its lemma",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			service, resolver := newLookupService(ctx, cfg)
			defer func() {
				_ = resolver.Close()
			}()

			result := service.LookupWord(ctx, args[0])
			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, result); err != nil {
					return err
				}
			} else {
				var markdown bytes.Buffer
				data := assets.NewLookupTemplate(result, cfg.Database.HeadColumn)
				if err := assets.RenderLookup(&markdown, templatePath, data); err != nil {
					return fmt.Errorf("assets.RenderLookup > %w", err)
				}
				printSummary(out, result)
				if _, err := out.Write(markdown.Bytes()); err != nil {
					return fmt.Errorf("write markdown > %w", err)
				}

				if pdfPath != "" {
					written, err := pdf.WriteMarkdownAsPDF(markdown.Bytes(), pdfPath)
					if err != nil {
						return fmt.Errorf("pdf.WriteMarkdownAsPDF > %w", err)
					}
					_, _ = fmt.Fprintf(out, "PDF written to %s\n", written)
				}
			}

			if result.Method == lookup.MethodError {
				return fmt.Errorf("lookup of %q failed: %s", result.Word, result.Error)
			}
			return nil
		},
	}

	flags := command.Flags()
	flags.BoolVar(&asJSON, "json", false, "Print the lookup result as JSON")
	flags.StringVar(&pdfPath, "pdf", "", "Also write the rendered result to this PDF file")
	flags.StringVar(&templatePath, "template", "", "Markdown template to render the result with")
	command.MarkFlagsMutuallyExclusive("json", "pdf")
	return command
}

func printSummary(w io.Writer, result lookup.Result) {
	switch result.Method {
	case lookup.MethodExact:
		_, _ = color.New(color.FgGreen).Fprintf(w, "%d entries for %s\n\n", len(result.Entries), result.Word)
	case lookup.MethodLemmatized:
		_, _ = color.New(color.FgGreen).Fprintf(w, "%d entries for %s through its lemma %s\n\n", len(result.Entries), result.Word, result.Lemma)
	case lookup.MethodNone:
		_, _ = color.New(color.FgYellow).Fprintf(w, "%s\n\n", result.Error)
	default:
		_, _ = color.New(color.FgRed).Fprintf(w, "Error: %s\n\n", result.Error)
	}
}
