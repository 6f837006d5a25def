package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// PollerConfig tunes the polling loop.
type PollerConfig struct {
	// Interval between status checks.
	Interval time.Duration
	// RateLimitCooldown is how long to wait after HTTP 429 before
	// re-checking; it does not count as a poll failure.
	RateLimitCooldown time.Duration
	// NotFoundTolerance is how many consecutive 404s are tolerated
	// once progress passed HighWaterProgress and a partial exists.
	NotFoundTolerance int
	// HighWaterProgress is the progress threshold above which a 404 is
	// treated as possible post-completion task eviction.
	HighWaterProgress int
	// OverallTimeout is the wall-clock ceiling for a whole operation,
	// independent of the per-poll interval.
	OverallTimeout time.Duration
}

// DefaultPollerConfig matches the backend's task store behavior.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:          500 * time.Millisecond,
		RateLimitCooldown: time.Second,
		NotFoundTolerance: 3,
		HighWaterProgress: 75,
		OverallTimeout:    60 * time.Second,
	}
}

// ProgressFunc receives progress updates. Progress values are strictly
// increasing across invocations for one Run.
type ProgressFunc func(progress int, partial json.RawMessage)

// TaskResult is the terminal outcome of one polled generation task.
type TaskResult struct {
	Data       json.RawMessage
	TokensUsed int
}

// Poller drives a progressive generation task: it starts the task and
// polls its status until terminal, surfacing partial payloads whenever
// progress strictly increases.
type Poller struct {
	api    TaskAPI
	config PollerConfig
}

// NewPoller creates a poller. Zero config fields take defaults.
func NewPoller(api TaskAPI, config PollerConfig) *Poller {
	defaults := DefaultPollerConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.RateLimitCooldown <= 0 {
		config.RateLimitCooldown = defaults.RateLimitCooldown
	}
	if config.NotFoundTolerance <= 0 {
		config.NotFoundTolerance = defaults.NotFoundTolerance
	}
	if config.HighWaterProgress <= 0 {
		config.HighWaterProgress = defaults.HighWaterProgress
	}
	if config.OverallTimeout <= 0 {
		config.OverallTimeout = defaults.OverallTimeout
	}
	return &Poller{api: api, config: config}
}

// Run starts a task and polls until completed or error. onProgress may
// be nil.
func (p *Poller) Run(ctx context.Context, req GenerateRequest, onProgress ProgressFunc) (TaskResult, error) {
	taskID, err := p.api.StartTask(ctx, req)
	if err != nil {
		return TaskResult{}, fmt.Errorf("api.StartTask > %w", err)
	}

	deadline := time.NewTimer(p.config.OverallTimeout)
	defer deadline.Stop()

	var (
		lastProgress  int
		lastPartial   json.RawMessage
		notFoundCount int
	)

	for {
		snapshot, err := p.api.TaskSnapshot(ctx, taskID)
		switch {
		case err == nil:
			notFoundCount = 0

			if len(snapshot.PartialData) > 0 {
				lastPartial = snapshot.PartialData
			}
			if snapshot.Progress > lastProgress {
				lastProgress = snapshot.Progress
				if onProgress != nil {
					onProgress(snapshot.Progress, snapshot.PartialData)
				}
			}

			switch snapshot.Status {
			case TaskCompleted:
				data := snapshot.PartialData
				if len(data) == 0 {
					data = lastPartial
				}
				return TaskResult{Data: data, TokensUsed: snapshot.TokensUsed}, nil
			case TaskError:
				return TaskResult{}, fmt.Errorf("task %s failed: %s", taskID, snapshot.Error)
			}

			if err := p.sleep(ctx, deadline, p.config.Interval, taskID); err != nil {
				return TaskResult{}, err
			}

		case isRateLimited(err):
			// Soft: cool down and re-check, without counting a failure.
			slog.Default().Debug("task status rate limited, cooling down",
				"taskId", taskID,
				"cooldown", p.config.RateLimitCooldown)
			if err := p.sleep(ctx, deadline, p.config.RateLimitCooldown, taskID); err != nil {
				return TaskResult{}, err
			}

		case isTaskNotFound(err):
			// The task store may evict a task slightly before the last
			// poll observes completion. Only tolerated close to the end
			// and with a partial in hand.
			if lastProgress < p.config.HighWaterProgress || len(lastPartial) == 0 {
				return TaskResult{}, fmt.Errorf("task %s vanished at progress %d > %w", taskID, lastProgress, ErrTaskNotFound)
			}
			notFoundCount++
			if notFoundCount > p.config.NotFoundTolerance {
				return TaskResult{}, fmt.Errorf("task %s vanished after %d checks > %w", taskID, notFoundCount, ErrTaskNotFound)
			}
			if notFoundCount == p.config.NotFoundTolerance {
				slog.Default().Info("synthesizing completion from last partial result",
					"taskId", taskID,
					"progress", lastProgress,
					"notFoundCount", notFoundCount)
				return TaskResult{Data: lastPartial}, nil
			}
			if err := p.sleep(ctx, deadline, p.config.Interval, taskID); err != nil {
				return TaskResult{}, err
			}

		default:
			return TaskResult{}, fmt.Errorf("api.TaskSnapshot > %w", err)
		}
	}
}

func (p *Poller) sleep(ctx context.Context, deadline *time.Timer, d time.Duration, taskID string) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-deadline.C:
		return fmt.Errorf("task %s exceeded %s > %w", taskID, p.config.OverallTimeout, ErrTimeout)
	case <-timer.C:
		return nil
	}
}

func isRateLimited(err error) bool {
	return Classify(err) == ClassRateLimited
}

func isTaskNotFound(err error) bool {
	return Classify(err) == ClassNotFound
}
