package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lexigen-app/lexigen/internal/generator"
	"github.com/lexigen-app/lexigen/internal/lexicon"
)

// GenerationClient is the slice of the generator client the remote
// source depends on.
type GenerationClient interface {
	generator.TaskAPI
	Configured(ctx context.Context) (bool, error)
	GenerateJSON(ctx context.Context, req generator.GenerateRequest) (generator.JSONResult, error)
	StreamAdditional(ctx context.Context, req generator.GenerateRequest, fn func(generator.StreamEvent) error) error
	StreamSuggestions(ctx context.Context, req generator.GenerateRequest, fn func(generator.StreamEvent) error) error
}

// RemoteGenerator is the chain's RemoteSource: a deduplicated
// two-stage fetch against the generation backend.
type RemoteGenerator struct {
	client       GenerationClient
	dedup        *Deduplicator
	pollerConfig generator.PollerConfig
}

// NewRemoteGenerator wires the remote source. pollerConfig zero values
// take defaults.
func NewRemoteGenerator(client GenerationClient, pollerConfig generator.PollerConfig) *RemoteGenerator {
	return &RemoteGenerator{
		client:       client,
		dedup:        NewDeduplicator(),
		pollerConfig: pollerConfig,
	}
}

// Available probes the backend's /status endpoint. A probe failure
// counts as unavailable: the chain descends to the static fallback.
func (r *RemoteGenerator) Available(ctx context.Context) bool {
	configured, err := r.client.Configured(ctx)
	if err != nil {
		slog.Default().Warn("backend status probe failed", "error", err)
		return false
	}
	return configured
}

// Fetch runs the two-stage fetch for key, collapsed with any
// concurrent fetch for the same key.
func (r *RemoteGenerator) Fetch(ctx context.Context, key lexicon.Key, onProgress ProgressFunc) (*lexicon.Entry, error) {
	return r.dedup.GetOrStart(ctx, key.String(), func(opCtx context.Context, emit ProgressFunc) (*lexicon.Entry, error) {
		stages := TwoStage{
			Basic:    r.basicStage(key),
			Detailed: r.detailedStage(key),
		}
		entry, err := stages.Fetch(opCtx, func(progress int, partial *lexicon.Entry) {
			emit(ProgressEvent{Progress: progress, Partial: partial})
		})
		if err != nil {
			return nil, fmt.Errorf("stages.Fetch > %w", err)
		}
		return entry, nil
	}, onProgress)
}

func (r *RemoteGenerator) basicStage(key lexicon.Key) func(ctx context.Context) (*lexicon.Entry, error) {
	return func(ctx context.Context) (*lexicon.Entry, error) {
		result, err := r.client.GenerateJSON(ctx, generator.GenerateRequest{Prompt: basicPrompt(key)})
		if err != nil {
			return nil, fmt.Errorf("client.GenerateJSON > %w", err)
		}
		return decodeEntry(result.Data, key)
	}
}

func (r *RemoteGenerator) detailedStage(key lexicon.Key) func(ctx context.Context, onProgress func(int, *lexicon.Entry)) (*lexicon.Entry, error) {
	return func(ctx context.Context, onProgress func(int, *lexicon.Entry)) (*lexicon.Entry, error) {
		poller := generator.NewPoller(r.client, r.pollerConfig)
		result, err := poller.Run(ctx, generator.GenerateRequest{Prompt: detailedPrompt(key)}, func(progress int, partial json.RawMessage) {
			if len(partial) == 0 {
				onProgress(progress, nil)
				return
			}
			entry, err := decodeEntry(partial, key)
			if err != nil {
				slog.Default().Warn("skipping undecodable partial result",
					"key", key.String(),
					"error", err)
				onProgress(progress, nil)
				return
			}
			onProgress(progress, entry)
		})
		if err != nil {
			return nil, fmt.Errorf("poller.Run > %w", err)
		}
		return decodeEntry(result.Data, key)
	}
}

func decodeEntry(data json.RawMessage, key lexicon.Key) (*lexicon.Entry, error) {
	var entry lexicon.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("json.Unmarshal(%s) > %w", string(data), generator.ErrMalformedResponse)
	}
	if entry.Word == "" {
		entry.Word = key.Query
	}
	if entry.Language == "" {
		entry.Language = key.Language
	}
	return &entry, nil
}

func basicPrompt(key lexicon.Key) string {
	return fmt.Sprintf(
		`Produce a minimal dictionary entry for %q in language %q as JSON with fields "word", "language", "phonetic" and "senses" (definition, partOfSpeech, translation). Keep it short; this is the fast first pass.`,
		key.Query, key.Language)
}

func detailedPrompt(key lexicon.Key) string {
	return fmt.Sprintf(
		`Produce a complete dictionary entry for %q in language %q as JSON with fields "word", "language", "phonetic", "etymology", "senses" (definition, partOfSpeech, translation, usageHint), "examples" and "synonyms".`,
		key.Query, key.Language)
}
