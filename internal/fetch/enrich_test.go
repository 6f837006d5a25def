package fetch_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexigen-app/lexigen/internal/fetch"
	"github.com/lexigen-app/lexigen/internal/generator"
	"github.com/lexigen-app/lexigen/internal/lexicon"
)

func scriptedStream(events ...generator.StreamEvent) fetch.StreamFunc {
	return func(ctx context.Context, req generator.GenerateRequest, fn func(generator.StreamEvent) error) error {
		for _, event := range events {
			if err := fn(event); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestUsageEnricher_Enrich(t *testing.T) {
	key := lexicon.NewKey("run", "en")
	base := lexicon.Entry{
		Word:     "run",
		Language: "en",
		Senses:   []lexicon.Sense{{Definition: "move fast on foot", PartOfSpeech: "verb"}},
	}

	t.Run("section events fold into the cached entry", func(t *testing.T) {
		resultCache := newTestCache(t)
		seedCache(t, resultCache, key, base)

		enricher := fetch.NewUsageEnricher(resultCache, scriptedStream(
			generator.StreamEvent{
				Type: generator.EventSection,
				Data: json.RawMessage(`{"examples":["she runs daily"]}`),
			},
			generator.StreamEvent{
				Type: generator.EventSection,
				Data: json.RawMessage(`{"synonyms":["sprint","jog"]}`),
			},
			generator.StreamEvent{Type: generator.EventComplete},
		))
		enricher.Enrich(context.Background(), key, base)

		raw, ok, err := resultCache.Read(context.Background(), key.String())
		require.NoError(t, err)
		require.True(t, ok)

		var got lexicon.Entry
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, base.Senses, got.Senses)
		assert.Equal(t, []string{"she runs daily"}, got.Examples)
		assert.Equal(t, []string{"sprint", "jog"}, got.Synonyms)
	})

	t.Run("stream error leaves the cached entry intact", func(t *testing.T) {
		resultCache := newTestCache(t)
		seedCache(t, resultCache, key, base)

		enricher := fetch.NewUsageEnricher(resultCache, scriptedStream(
			generator.StreamEvent{
				Type: generator.EventSection,
				Data: json.RawMessage(`{"examples":["she runs daily"]}`),
			},
			generator.StreamEvent{Type: generator.EventError, Message: "model overloaded"},
		))
		enricher.Enrich(context.Background(), key, base)

		raw, ok, err := resultCache.Read(context.Background(), key.String())
		require.NoError(t, err)
		require.True(t, ok)

		var got lexicon.Entry
		require.NoError(t, json.Unmarshal(raw, &got))
		// Sections applied before the error stay; the base fields never
		// regress.
		assert.Equal(t, base.Senses, got.Senses)
		assert.Equal(t, []string{"she runs daily"}, got.Examples)
	})

	t.Run("enrichment of an uncached key writes a fresh entry", func(t *testing.T) {
		resultCache := newTestCache(t)

		enricher := fetch.NewUsageEnricher(resultCache, scriptedStream(
			generator.StreamEvent{
				Type: generator.EventComplete,
				Data: json.RawMessage(`{"word":"run","synonyms":["sprint"]}`),
			},
		))
		enricher.Enrich(context.Background(), key, base)

		raw, ok, err := resultCache.Read(context.Background(), key.String())
		require.NoError(t, err)
		require.True(t, ok)

		var got lexicon.Entry
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, []string{"sprint"}, got.Synonyms)
	})
}
