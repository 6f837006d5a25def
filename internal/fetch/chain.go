package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lexigen-app/lexigen/internal/cache"
	"github.com/lexigen-app/lexigen/internal/generator"
	"github.com/lexigen-app/lexigen/internal/lexicon"
)

//go:generate mockgen -source=chain.go -destination=../mocks/fetch/mock_sources.go -package=mock_fetch

// ErrNotFound means no source, including the bundled static dataset,
// has an entry for the query. Terminal and user-facing.
var ErrNotFound = errors.New("fetch: no source has an entry for this query")

// State is one step of the fallback chain.
type State string

const (
	StateCacheLookup      State = "cache_lookup"
	StateLocalDataset     State = "local_dataset"
	StateRemoteGeneration State = "remote_generation"
	StateStaticFallback   State = "static_fallback"
	StateDone             State = "done"
	StateFailed           State = "failed"
)

// LocalSource is an offline, synchronous data source: the local
// dataset or the bundled static fallback.
type LocalSource interface {
	Lookup(query, language string) (*lexicon.Entry, bool)
}

// RemoteSource produces entries via the generation backend.
type RemoteSource interface {
	// Available probes whether remote generation can be attempted.
	Available(ctx context.Context) bool
	Fetch(ctx context.Context, key lexicon.Key, onProgress ProgressFunc) (*lexicon.Entry, error)
}

// Enricher runs a secondary background pass that adds auxiliary fields
// to an entry after the primary result has been returned.
type Enricher interface {
	Enrich(ctx context.Context, key lexicon.Key, entry lexicon.Entry)
}

// Chain walks the ordered data sources for one lookup:
// cache → local dataset → remote generation → static fallback.
type Chain struct {
	cache     *cache.Cache
	local     LocalSource
	remote    RemoteSource
	static    LocalSource
	enricher  Enricher
	stateHook func(State)
}

// ChainOption configures optional chain collaborators.
type ChainOption func(*Chain)

// WithEnricher enables the background enrichment pass after a remote
// result.
func WithEnricher(enricher Enricher) ChainOption {
	return func(c *Chain) {
		c.enricher = enricher
	}
}

// WithStateHook observes every state transition. Used by tests and
// debug tracing.
func WithStateHook(fn func(State)) ChainOption {
	return func(c *Chain) {
		c.stateHook = fn
	}
}

// NewChain builds a chain over the given sources. static is the
// last-resort dataset consulted after remote generation failed.
func NewChain(resultCache *cache.Cache, local LocalSource, remote RemoteSource, static LocalSource, options ...ChainOption) *Chain {
	chain := &Chain{
		cache:  resultCache,
		local:  local,
		remote: remote,
		static: static,
	}
	for _, option := range options {
		option(chain)
	}
	return chain
}

// Lookup resolves the query through the fallback chain. onProgress
// receives progress events while remote generation is in flight; it is
// not invoked for cache, local dataset or static fallback hits, which
// resolve immediately.
func (c *Chain) Lookup(ctx context.Context, query, language string, onProgress ProgressFunc) (*lexicon.Entry, error) {
	key := lexicon.NewKey(query, language)

	c.transition(StateCacheLookup)
	if entry := c.readCache(ctx, key); entry != nil {
		c.transition(StateDone)
		return entry, nil
	}

	c.transition(StateLocalDataset)
	if entry, ok := c.local.Lookup(query, language); ok {
		c.writeCache(ctx, key, entry)
		c.transition(StateDone)
		return entry, nil
	}

	c.transition(StateRemoteGeneration)
	if c.remote != nil && c.remote.Available(ctx) {
		entry, err := c.remote.Fetch(ctx, key, onProgress)
		if err == nil {
			c.writeCache(ctx, key, entry)
			if c.enricher != nil {
				// Non-blocking: the caller gets the primary result now,
				// auxiliary fields land in the cache later.
				go c.enricher.Enrich(context.WithoutCancel(ctx), key, *entry)
			}
			c.transition(StateDone)
			return entry, nil
		}
		slog.Default().Warn("remote generation failed, falling back",
			"key", key.String(),
			"classification", generator.Classify(err),
			"error", err)
	}

	c.transition(StateStaticFallback)
	if entry, ok := c.static.Lookup(query, language); ok {
		c.transition(StateDone)
		return entry, nil
	}

	c.transition(StateFailed)
	return nil, fmt.Errorf("%q (%s) > %w", query, language, ErrNotFound)
}

// Invalidate drops the cached entry for a query.
func (c *Chain) Invalidate(ctx context.Context, query, language string) error {
	return c.cache.Invalidate(ctx, lexicon.NewKey(query, language).String())
}

func (c *Chain) readCache(ctx context.Context, key lexicon.Key) *lexicon.Entry {
	raw, ok, err := c.cache.Read(ctx, key.String())
	if err != nil {
		slog.Default().Warn("cache read failed", "key", key.String(), "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var entry lexicon.Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		slog.Default().Warn("corrupt cache entry, ignoring", "key", key.String(), "error", err)
		return nil
	}
	return &entry
}

func (c *Chain) writeCache(ctx context.Context, key lexicon.Key, entry *lexicon.Entry) {
	encoded, err := json.Marshal(entry)
	if err != nil {
		slog.Default().Warn("cache encode failed", "key", key.String(), "error", err)
		return
	}
	if err := c.cache.Write(ctx, key.String(), encoded); err != nil {
		slog.Default().Warn("cache write failed", "key", key.String(), "error", err)
	}
}

func (c *Chain) transition(state State) {
	if c.stateHook != nil {
		c.stateHook(state)
	}
}
