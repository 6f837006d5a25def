package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lexigen-app/lexigen/internal/lexicon"
)

// basicShare is the progress band covered by the basic stage. The
// detailed stage's own 0–100 progress is rescaled into the remaining
// band.
const basicShare = 30

// TwoStage runs a fast basic fetch and a slower detailed fetch
// concurrently, combining both into one progress timeline and one
// evolving entry.
type TwoStage struct {
	// Basic resolves quickly and is surfaced as soon as it lands,
	// reported as progress 30.
	Basic func(ctx context.Context) (*lexicon.Entry, error)
	// Detailed reports its own 0–100 progress via onProgress.
	Detailed func(ctx context.Context, onProgress func(progress int, partial *lexicon.Entry)) (*lexicon.Entry, error)
}

// Fetch resolves both stages. A detailed failure after a successful
// basic stage degrades to the basic entry merged with whatever partial
// detailed data arrived; a basic failure fails the operation. Progress
// delivered to onProgress is strictly increasing and partials never
// regress fields already surfaced.
func (t TwoStage) Fetch(ctx context.Context, onProgress func(progress int, partial *lexicon.Entry)) (*lexicon.Entry, error) {
	var (
		mu           sync.Mutex
		state        *lexicon.Entry
		lastProgress int
	)
	emit := func(progress int, incoming *lexicon.Entry) {
		mu.Lock()
		if incoming != nil {
			state = lexicon.MergeInto(state, *incoming)
		}
		snapshot := state
		fire := progress > lastProgress
		if fire {
			lastProgress = progress
		}
		mu.Unlock()
		if fire && onProgress != nil {
			onProgress(progress, snapshot)
		}
	}

	var (
		wg          sync.WaitGroup
		basicErr    error
		detailedErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		entry, err := t.Basic(ctx)
		if err != nil {
			basicErr = err
			return
		}
		emit(basicShare, entry)
	}()
	go func() {
		defer wg.Done()
		entry, err := t.Detailed(ctx, func(progress int, partial *lexicon.Entry) {
			emit(rescale(progress), partial)
		})
		if err != nil {
			detailedErr = err
			return
		}
		emit(100, entry)
	}()
	wg.Wait()

	if basicErr != nil {
		return nil, fmt.Errorf("basic stage > %w", basicErr)
	}
	if detailedErr != nil {
		// Degrade rather than fail: the basic entry plus any partial
		// detailed data is still a usable result.
		slog.Default().Warn("detailed stage failed, returning basic result",
			"error", detailedErr)
	}

	mu.Lock()
	defer mu.Unlock()
	return state, nil
}

// rescale maps the detailed stage's 0–100 onto the 30–100 band.
func rescale(progress int) int {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return basicShare + progress*(100-basicShare)/100
}
