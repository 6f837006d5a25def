package generator

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// EventType tags a decoded stream event.
type EventType string

const (
	EventSection  EventType = "section"
	EventChunk    EventType = "chunk"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// StreamEvent is one decoded frame of a generation stream.
// Complete and Error are terminal; a stream carries at most one
// terminal event.
type StreamEvent struct {
	Type    EventType       `json:"type"`
	Section string          `json:"section,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Text    string          `json:"text,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Terminal reports whether the event ends the stream.
func (e StreamEvent) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

const (
	ssePrefix   = "data: "
	sseSentinel = "[DONE]"
)

// DecodeStream reads text/event-stream content from r and invokes fn
// for each decoded event until a terminal event, the DONE sentinel, or
// EOF. Payload lines are framed as `data: <json>`; the `[DONE]`
// sentinel is swallowed, not emitted. A frame that fails to decode is
// logged and skipped; subsequent frames are independent.
//
// The underlying bufio.Scanner only surfaces complete lines, so a
// payload split across arbitrary network chunk boundaries decodes to
// the identical event sequence as the unsplit stream.
func DecodeStream(ctx context.Context, r io.Reader, fn func(StreamEvent) error) error {
	scanner := bufio.NewScanner(r)
	// SSE frames carry whole JSON payloads, which can get large.
	const maxBuf = 1024 * 1024
	scanner.Buffer(make([]byte, 0, 64*1024), maxBuf)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, ssePrefix) {
			continue
		}
		payload := strings.TrimPrefix(line, ssePrefix)
		if payload == sseSentinel {
			return nil
		}

		var event StreamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			slog.Default().Warn("skipping malformed stream frame",
				"payload", payload,
				"error", err)
			continue
		}
		if err := fn(event); err != nil {
			return fmt.Errorf("stream handler > %w", err)
		}
		if event.Terminal() {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner.Err > %w", err)
	}
	return nil
}

// CollectStream decodes a whole stream into its event sequence.
// Mostly useful in tests and for small responses.
func CollectStream(ctx context.Context, r io.Reader) ([]StreamEvent, error) {
	var events []StreamEvent
	err := DecodeStream(ctx, r, func(e StreamEvent) error {
		events = append(events, e)
		return nil
	})
	return events, err
}
