package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lexigen-app/lexigen/internal/cache"
	"github.com/lexigen-app/lexigen/internal/generator"
	"github.com/lexigen-app/lexigen/internal/lexicon"
)

// StreamFunc is the streaming call the enricher consumes, typically
// (*generator.Client).StreamAdditional.
type StreamFunc func(ctx context.Context, req generator.GenerateRequest, fn func(generator.StreamEvent) error) error

// UsageEnricher streams auxiliary fields (examples, synonyms,
// etymology) for an already returned entry and folds each update into
// the cached copy. Failures only degrade the entry's richness, so they
// are logged, never surfaced.
type UsageEnricher struct {
	cache  *cache.Cache
	stream StreamFunc
}

func NewUsageEnricher(resultCache *cache.Cache, stream StreamFunc) *UsageEnricher {
	return &UsageEnricher{cache: resultCache, stream: stream}
}

func (e *UsageEnricher) Enrich(ctx context.Context, key lexicon.Key, entry lexicon.Entry) {
	logger := slog.Default()
	err := e.stream(ctx, generator.GenerateRequest{Prompt: enrichmentPrompt(entry)}, func(event generator.StreamEvent) error {
		switch event.Type {
		case generator.EventSection, generator.EventComplete:
			if len(event.Data) == 0 {
				return nil
			}
			var update lexicon.Entry
			if err := json.Unmarshal(event.Data, &update); err != nil {
				return fmt.Errorf("json.Unmarshal > %w", err)
			}
			return e.apply(ctx, key, update)
		case generator.EventError:
			return fmt.Errorf("stream error: %s", event.Message)
		}
		return nil
	})
	if err != nil {
		logger.Warn("background enrichment failed", "key", key.String(), "error", err)
		return
	}
	logger.Debug("background enrichment finished", "key", key.String())
}

// apply merges one update into the cached entry. cache.Update holds a
// per-key lock across read-modify-write, so concurrent lookups and a
// later enrichment for the same key cannot lose each other's fields.
func (e *UsageEnricher) apply(ctx context.Context, key lexicon.Key, update lexicon.Entry) error {
	return e.cache.Update(ctx, key.String(), func(current json.RawMessage) (json.RawMessage, error) {
		var entry lexicon.Entry
		if len(current) > 0 {
			if err := json.Unmarshal(current, &entry); err != nil {
				return nil, fmt.Errorf("json.Unmarshal > %w", err)
			}
		}
		merged := lexicon.Merge(entry, update)
		encoded, err := json.Marshal(merged)
		if err != nil {
			return nil, fmt.Errorf("json.Marshal > %w", err)
		}
		return encoded, nil
	})
}

func enrichmentPrompt(entry lexicon.Entry) string {
	return fmt.Sprintf(
		`Extend the dictionary entry for %q in language %q with "examples", "synonyms" and "etymology" as JSON. Emit each section as soon as it is ready.`,
		entry.Word, entry.Language)
}
