// Package cli renders lookup results and progress for the terminal.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/lexigen-app/lexigen/internal/fetch"
	"github.com/lexigen-app/lexigen/internal/lexicon"
)

// Renderer writes entries, suggestions and in-flight progress to a
// terminal.
type Renderer struct {
	out    io.Writer
	bold   *color.Color
	italic *color.Color
	faint  *color.Color
}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{
		out:    out,
		bold:   color.New(color.Bold),
		italic: color.New(color.Italic),
		faint:  color.New(color.Faint),
	}
}

// RenderEntry prints a complete dictionary entry.
func (r *Renderer) RenderEntry(entry lexicon.Entry) {
	_, _ = fmt.Fprintf(r.out, "%s", r.bold.Sprintf("%s", entry.Word))
	if entry.Phonetic != "" {
		_, _ = fmt.Fprintf(r.out, "  %s", r.italic.Sprintf("/%s/", entry.Phonetic))
	}
	_, _ = fmt.Fprintln(r.out)

	for i, sense := range entry.Senses {
		_, _ = fmt.Fprintf(r.out, "%d. ", i+1)
		if sense.PartOfSpeech != "" {
			_, _ = fmt.Fprintf(r.out, "%s ", r.italic.Sprintf("(%s)", sense.PartOfSpeech))
		}
		_, _ = fmt.Fprintln(r.out, sense.Definition)
		if sense.Translation != "" {
			_, _ = fmt.Fprintf(r.out, "   = %s\n", sense.Translation)
		}
		if sense.UsageHint != "" {
			_, _ = fmt.Fprintf(r.out, "   %s\n", r.faint.Sprintf("%s", sense.UsageHint))
		}
	}

	if len(entry.Examples) > 0 {
		_, _ = fmt.Fprintf(r.out, "Examples:\n")
		for _, example := range entry.Examples {
			_, _ = fmt.Fprintf(r.out, "  - %s\n", example)
		}
	}
	if len(entry.Synonyms) > 0 {
		_, _ = fmt.Fprintf(r.out, "Synonyms: %s\n", strings.Join(entry.Synonyms, ", "))
	}
	if entry.Etymology != "" {
		_, _ = fmt.Fprintf(r.out, "Etymology: %s\n", r.faint.Sprintf("%s", entry.Etymology))
	}
}

// RenderProgress prints one line per progress event while a remote
// fetch is in flight.
func (r *Renderer) RenderProgress(event fetch.ProgressEvent) {
	summary := "waiting for first result"
	if event.Partial != nil {
		var parts []string
		if len(event.Partial.Senses) > 0 {
			parts = append(parts, fmt.Sprintf("%d sense(s)", len(event.Partial.Senses)))
		}
		if len(event.Partial.Examples) > 0 {
			parts = append(parts, fmt.Sprintf("%d example(s)", len(event.Partial.Examples)))
		}
		if len(event.Partial.Synonyms) > 0 {
			parts = append(parts, fmt.Sprintf("%d synonym(s)", len(event.Partial.Synonyms)))
		}
		if event.Partial.Etymology != "" {
			parts = append(parts, "etymology")
		}
		if len(parts) > 0 {
			summary = strings.Join(parts, ", ")
		}
	}
	_, _ = fmt.Fprintf(r.out, "%s\n", r.faint.Sprintf("[%3d%%] %s", event.Progress, summary))
}

// RenderSuggestions prints a suggestion batch.
func (r *Renderer) RenderSuggestions(suggestions []lexicon.Suggestion) {
	for _, suggestion := range suggestions {
		_, _ = fmt.Fprintf(r.out, "%s", r.bold.Sprintf("%s", suggestion.Word))
		if suggestion.Reason != "" {
			_, _ = fmt.Fprintf(r.out, "  %s", r.faint.Sprintf("%s", suggestion.Reason))
		}
		_, _ = fmt.Fprintln(r.out)
	}
}

// RenderTranslation prints a one-shot translation result.
func (r *Renderer) RenderTranslation(translation lexicon.Translation) {
	_, _ = fmt.Fprintln(r.out, r.bold.Sprintf("%s", translation.Text))
	if translation.SourceLanguage != "" {
		_, _ = fmt.Fprintf(r.out, "%s\n", r.faint.Sprintf("detected source: %s", translation.SourceLanguage))
	}
}
