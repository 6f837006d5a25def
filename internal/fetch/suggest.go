package fetch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lexigen-app/lexigen/internal/generator"
	"github.com/lexigen-app/lexigen/internal/lexicon"
)

// Suggester streams related-word suggestions for a query, surfacing
// each batch as it arrives.
type Suggester struct {
	stream StreamFunc
}

func NewSuggester(stream StreamFunc) *Suggester {
	return &Suggester{stream: stream}
}

// Suggest streams suggestions for the query. onBatch receives each
// incremental batch; the returned slice is the complete final list.
func (s *Suggester) Suggest(ctx context.Context, query, language string, onBatch func([]lexicon.Suggestion)) ([]lexicon.Suggestion, error) {
	var final []lexicon.Suggestion
	err := s.stream(ctx, generator.GenerateRequest{Prompt: suggestionPrompt(query, language)}, func(event generator.StreamEvent) error {
		switch event.Type {
		case generator.EventSection:
			batch, err := decodeSuggestions(event.Data)
			if err != nil {
				return err
			}
			if onBatch != nil && len(batch) > 0 {
				onBatch(batch)
			}
		case generator.EventComplete:
			list, err := decodeSuggestions(event.Data)
			if err != nil {
				return err
			}
			final = list
		case generator.EventError:
			return fmt.Errorf("stream error: %s", event.Message)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("stream > %w", err)
	}
	return final, nil
}

func decodeSuggestions(data json.RawMessage) ([]lexicon.Suggestion, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var list []lexicon.Suggestion
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("json.Unmarshal > %w", generator.ErrMalformedResponse)
	}
	return list, nil
}

func suggestionPrompt(query, language string) string {
	return fmt.Sprintf(
		`Suggest words related to %q in language %q as a JSON array of objects with "word" and "reason". Stream batches as they are ready.`,
		query, language)
}
