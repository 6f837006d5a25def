package fetch_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lexigen-app/lexigen/internal/cache"
	"github.com/lexigen-app/lexigen/internal/dataset"
	"github.com/lexigen-app/lexigen/internal/fetch"
	"github.com/lexigen-app/lexigen/internal/lexicon"
	mock_fetch "github.com/lexigen-app/lexigen/internal/mocks/fetch"
)

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	store, err := cache.OpenBadger(cache.BadgerConfig{InMemory: true})
	require.NoError(t, err)
	c := cache.New(store, time.Hour)
	t.Cleanup(func() {
		_ = c.Close()
	})
	return c
}

func seedCache(t *testing.T, c *cache.Cache, key lexicon.Key, entry lexicon.Entry) {
	t.Helper()
	encoded, err := json.Marshal(entry)
	require.NoError(t, err)
	require.NoError(t, c.Write(context.Background(), key.String(), encoded))
}

func TestChain_Lookup(t *testing.T) {
	runEntry := lexicon.Entry{
		Word:     "run",
		Language: "en",
		Senses:   []lexicon.Sense{{Definition: "move fast on foot", PartOfSpeech: "verb"}},
	}

	t.Run("cache hit resolves without touching any source", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		local := mock_fetch.NewMockLocalSource(ctrl)
		remote := mock_fetch.NewMockRemoteSource(ctrl)

		resultCache := newTestCache(t)
		seedCache(t, resultCache, lexicon.NewKey("run", "en"), runEntry)

		var states []fetch.State
		chain := fetch.NewChain(resultCache, local, remote, dataset.Fallback(),
			fetch.WithStateHook(func(s fetch.State) {
				states = append(states, s)
			}))

		entry, err := chain.Lookup(context.Background(), "Run ", "en", nil)
		require.NoError(t, err)
		assert.Equal(t, "run", entry.Word)
		assert.Equal(t, []fetch.State{fetch.StateCacheLookup, fetch.StateDone}, states)
	})

	t.Run("local dataset hit is cached and skips remote", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		local := mock_fetch.NewMockLocalSource(ctrl)
		remote := mock_fetch.NewMockRemoteSource(ctrl)
		local.EXPECT().Lookup("run", "en").Return(&runEntry, true)

		resultCache := newTestCache(t)
		chain := fetch.NewChain(resultCache, local, remote, dataset.Fallback())

		entry, err := chain.Lookup(context.Background(), "run", "en", nil)
		require.NoError(t, err)
		assert.Equal(t, "run", entry.Word)

		// The second lookup must come out of the cache.
		entry, err = chain.Lookup(context.Background(), "run", "en", nil)
		require.NoError(t, err)
		assert.Equal(t, "run", entry.Word)
	})

	t.Run("remote result is cached and enriched in the background", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		local := mock_fetch.NewMockLocalSource(ctrl)
		remote := mock_fetch.NewMockRemoteSource(ctrl)
		enricher := mock_fetch.NewMockEnricher(ctrl)

		key := lexicon.NewKey("serendipity", "en")
		generated := lexicon.Entry{Word: "serendipity", Language: "en"}
		local.EXPECT().Lookup("serendipity", "en").Return(nil, false)
		remote.EXPECT().Available(gomock.Any()).Return(true)
		remote.EXPECT().Fetch(gomock.Any(), key, gomock.Any()).Return(&generated, nil)

		enriched := make(chan struct{})
		enricher.EXPECT().Enrich(gomock.Any(), key, generated).Do(
			func(context.Context, lexicon.Key, lexicon.Entry) {
				close(enriched)
			})

		resultCache := newTestCache(t)
		chain := fetch.NewChain(resultCache, local, remote, dataset.Fallback(),
			fetch.WithEnricher(enricher))

		entry, err := chain.Lookup(context.Background(), "serendipity", "en", nil)
		require.NoError(t, err)
		assert.Equal(t, "serendipity", entry.Word)

		select {
		case <-enriched:
		case <-time.After(2 * time.Second):
			t.Fatal("enricher was never invoked")
		}

		raw, ok, err := resultCache.Read(context.Background(), key.String())
		require.NoError(t, err)
		require.True(t, ok)
		assert.Contains(t, string(raw), "serendipity")
	})

	t.Run("remote failure falls back to the static dataset", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		local := mock_fetch.NewMockLocalSource(ctrl)
		remote := mock_fetch.NewMockRemoteSource(ctrl)

		local.EXPECT().Lookup("run", "en").Return(nil, false)
		remote.EXPECT().Available(gomock.Any()).Return(true)
		remote.EXPECT().Fetch(gomock.Any(), lexicon.NewKey("run", "en"), gomock.Any()).
			Return(nil, assert.AnError)

		resultCache := newTestCache(t)
		var states []fetch.State
		chain := fetch.NewChain(resultCache, local, remote, dataset.Fallback(),
			fetch.WithStateHook(func(s fetch.State) {
				states = append(states, s)
			}))

		// "run" ships in the bundled fallback dataset.
		entry, err := chain.Lookup(context.Background(), "run", "en", nil)
		require.NoError(t, err)
		assert.Equal(t, "run", entry.Word)
		assert.Equal(t, []fetch.State{
			fetch.StateCacheLookup,
			fetch.StateLocalDataset,
			fetch.StateRemoteGeneration,
			fetch.StateStaticFallback,
			fetch.StateDone,
		}, states)

		// Static fallback hits are not written back to the cache.
		_, ok, err := resultCache.Read(context.Background(), lexicon.NewKey("run", "en").String())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unavailable backend skips remote generation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		local := mock_fetch.NewMockLocalSource(ctrl)
		remote := mock_fetch.NewMockRemoteSource(ctrl)

		local.EXPECT().Lookup("run", "en").Return(nil, false)
		remote.EXPECT().Available(gomock.Any()).Return(false)

		chain := fetch.NewChain(newTestCache(t), local, remote, dataset.Fallback())

		entry, err := chain.Lookup(context.Background(), "run", "en", nil)
		require.NoError(t, err)
		assert.Equal(t, "run", entry.Word)
	})

	t.Run("unknown word exhausts every source", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		local := mock_fetch.NewMockLocalSource(ctrl)
		remote := mock_fetch.NewMockRemoteSource(ctrl)

		local.EXPECT().Lookup("xyzzy", "en").Return(nil, false)
		remote.EXPECT().Available(gomock.Any()).Return(false)

		var states []fetch.State
		chain := fetch.NewChain(newTestCache(t), local, remote, dataset.Fallback(),
			fetch.WithStateHook(func(s fetch.State) {
				states = append(states, s)
			}))

		entry, err := chain.Lookup(context.Background(), "xyzzy", "en", nil)
		assert.ErrorIs(t, err, fetch.ErrNotFound)
		assert.Nil(t, entry)
		assert.Equal(t, []fetch.State{
			fetch.StateCacheLookup,
			fetch.StateLocalDataset,
			fetch.StateRemoteGeneration,
			fetch.StateStaticFallback,
			fetch.StateFailed,
		}, states)
	})
}

func TestChain_Invalidate(t *testing.T) {
	ctrl := gomock.NewController(t)
	local := mock_fetch.NewMockLocalSource(ctrl)
	remote := mock_fetch.NewMockRemoteSource(ctrl)

	key := lexicon.NewKey("run", "en")
	resultCache := newTestCache(t)
	seedCache(t, resultCache, key, lexicon.Entry{Word: "run", Language: "en"})

	chain := fetch.NewChain(resultCache, local, remote, dataset.Fallback())
	require.NoError(t, chain.Invalidate(context.Background(), "run", "en"))

	_, ok, err := resultCache.Read(context.Background(), key.String())
	require.NoError(t, err)
	assert.False(t, ok)
}
