// Package fetch orchestrates content retrieval: it deduplicates
// concurrent requests, drives the two-stage basic/detailed fetch, and
// walks the fallback chain across cache, local dataset, remote
// generation and the bundled static dataset.
package fetch

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/lexigen-app/lexigen/internal/lexicon"
)

// ProgressEvent is one progress update of an in-flight fetch. Partial
// is the merged entry visible so far, never a regression of an earlier
// one.
type ProgressEvent struct {
	Progress int
	Partial  *lexicon.Entry
}

// ProgressFunc receives progress events. May be nil.
type ProgressFunc func(ProgressEvent)

// Factory starts the underlying remote operation for a key. The
// context stays alive while at least one subscriber remains attached;
// emit fans progress out to every subscriber.
type Factory func(ctx context.Context, emit ProgressFunc) (*lexicon.Entry, error)

type operation struct {
	ctx    context.Context
	cancel context.CancelFunc
	subs   map[string]ProgressFunc
}

// Deduplicator collapses concurrent fetches for the same key into one
// remote operation. All callers observe the same eventual result and
// each receives the operation's progress events independently, in the
// order the operation emits them. When the last subscriber cancels,
// the underlying operation is aborted.
type Deduplicator struct {
	group singleflight.Group

	mu  sync.Mutex
	ops map[string]*operation
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{ops: make(map[string]*operation)}
}

// GetOrStart attaches to the pending operation for key, starting one
// via factory when none exists. factory is invoked exactly once per
// in-flight key regardless of how many callers attach.
func (d *Deduplicator) GetOrStart(ctx context.Context, key string, factory Factory, onProgress ProgressFunc) (*lexicon.Entry, error) {
	subID := uuid.NewString()
	d.attach(key, subID, onProgress)
	defer d.detach(key, subID)

	ch := d.group.DoChan(key, func() (any, error) {
		opCtx := d.operationContext(key)
		entry, err := factory(opCtx, func(event ProgressEvent) {
			d.fanOut(key, event)
		})
		d.settle(key)
		return entry, err
	})

	select {
	case result := <-ch:
		if result.Err != nil {
			return nil, result.Err
		}
		entry, _ := result.Val.(*lexicon.Entry)
		return entry, nil
	case <-ctx.Done():
		// The operation keeps running for the remaining subscribers;
		// detach aborts it only when this caller was the last one.
		return nil, ctx.Err()
	}
}

// Pending reports whether an operation is currently in flight for key.
func (d *Deduplicator) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.ops[key]
	return ok
}

func (d *Deduplicator) attach(key, subID string, onProgress ProgressFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	op, ok := d.ops[key]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		op = &operation{ctx: ctx, cancel: cancel, subs: make(map[string]ProgressFunc)}
		d.ops[key] = op
	}
	op.subs[subID] = onProgress
}

func (d *Deduplicator) detach(key, subID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	op, ok := d.ops[key]
	if !ok {
		return
	}
	delete(op.subs, subID)
	if len(op.subs) == 0 {
		op.cancel()
		delete(d.ops, key)
	}
}

func (d *Deduplicator) operationContext(key string) context.Context {
	d.mu.Lock()
	defer d.mu.Unlock()
	if op, ok := d.ops[key]; ok {
		return op.ctx
	}
	return context.Background()
}

// settle removes the registration exactly once when the operation
// finishes, releasing its context and letting a later request for the
// same key start fresh.
func (d *Deduplicator) settle(key string) {
	d.mu.Lock()
	op, ok := d.ops[key]
	delete(d.ops, key)
	d.mu.Unlock()
	if ok {
		op.cancel()
	}
	d.group.Forget(key)
}

func (d *Deduplicator) fanOut(key string, event ProgressEvent) {
	d.mu.Lock()
	var subs []ProgressFunc
	if op, ok := d.ops[key]; ok {
		for _, fn := range op.subs {
			if fn != nil {
				subs = append(subs, fn)
			}
		}
	}
	d.mu.Unlock()
	for _, fn := range subs {
		fn(event)
	}
}
