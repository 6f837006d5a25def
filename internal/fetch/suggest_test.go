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

func TestSuggester_Suggest(t *testing.T) {
	t.Run("batches stream in before the final list", func(t *testing.T) {
		suggester := fetch.NewSuggester(scriptedStream(
			generator.StreamEvent{
				Type: generator.EventSection,
				Data: json.RawMessage(`[{"word":"sprint","reason":"faster running"}]`),
			},
			generator.StreamEvent{
				Type: generator.EventSection,
				Data: json.RawMessage(`[{"word":"jog","reason":"slower running"}]`),
			},
			generator.StreamEvent{
				Type: generator.EventComplete,
				Data: json.RawMessage(`[{"word":"sprint","reason":"faster running"},{"word":"jog","reason":"slower running"}]`),
			},
		))

		var batches [][]lexicon.Suggestion
		got, err := suggester.Suggest(context.Background(), "run", "en", func(batch []lexicon.Suggestion) {
			batches = append(batches, batch)
		})

		require.NoError(t, err)
		require.Len(t, batches, 2)
		assert.Equal(t, "sprint", batches[0][0].Word)
		assert.Equal(t, "jog", batches[1][0].Word)
		require.Len(t, got, 2)
		assert.Equal(t, "sprint", got[0].Word)
	})

	t.Run("error event fails the stream", func(t *testing.T) {
		suggester := fetch.NewSuggester(scriptedStream(
			generator.StreamEvent{Type: generator.EventError, Message: "model overloaded"},
		))

		got, err := suggester.Suggest(context.Background(), "run", "en", nil)
		assert.ErrorContains(t, err, "model overloaded")
		assert.Nil(t, got)
	})

	t.Run("malformed batch fails the stream", func(t *testing.T) {
		suggester := fetch.NewSuggester(scriptedStream(
			generator.StreamEvent{
				Type: generator.EventSection,
				Data: json.RawMessage(`{"not":"a list"}`),
			},
		))

		_, err := suggester.Suggest(context.Background(), "run", "en", nil)
		assert.ErrorIs(t, err, generator.ErrMalformedResponse)
	})
}
