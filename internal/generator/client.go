// Package generator is the HTTP client for the remote generative
// backend. It covers one-shot text/JSON generation, progressive
// task-based generation with polling, and the SSE streaming variants.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"
)

//go:generate mockgen -source=client.go -destination=../mocks/generator/mock_client.go -package=mock_generator

// TaskAPI is the subset of the client the poller depends on.
type TaskAPI interface {
	StartTask(ctx context.Context, req GenerateRequest) (string, error)
	TaskSnapshot(ctx context.Context, taskID string) (TaskSnapshot, error)
}

// GenerateConfig tunes one generation call.
type GenerateConfig struct {
	Model       string  `json:"model,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
}

// GenerateRequest is the request body shared by all generation endpoints.
type GenerateRequest struct {
	Prompt string         `json:"prompt"`
	Config GenerateConfig `json:"config"`
}

// JSONResult is the response of one-shot structured generation.
type JSONResult struct {
	Data       json.RawMessage `json:"data"`
	TokensUsed int             `json:"tokensUsed"`
}

// TaskState is the lifecycle state of a server-side generation task.
type TaskState string

const (
	TaskQueued    TaskState = "queued"
	TaskRunning   TaskState = "running"
	TaskCompleted TaskState = "completed"
	TaskError     TaskState = "error"
)

// TaskSnapshot is one observation of a generation task's status.
type TaskSnapshot struct {
	Status      TaskState       `json:"status"`
	Progress    int             `json:"progress"`
	PartialData json.RawMessage `json:"partialData,omitempty"`
	TokensUsed  int             `json:"tokensUsed,omitempty"`
	Error       string          `json:"error,omitempty"`
}

type textResponse struct {
	Text string `json:"text"`
}

type startTaskResponse struct {
	TaskID string `json:"taskId"`
}

type statusResponse struct {
	Configured bool `json:"configured"`
}

// Client talks to the generation backend over HTTP.
type Client struct {
	httpClient       *resty.Client
	model            string
	maxRetryAttempts uint
}

// NewClient creates a client for the given backend. retryAttempts
// bounds the retries of the one-shot JSON calls.
func NewClient(baseURL, apiKey, model string, retryAttempts uint) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}
	client.SetHeader("Content-Type", "application/json")

	return &Client{
		httpClient:       client,
		model:            model,
		maxRetryAttempts: retryAttempts,
	}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

// GetModel returns the model name configured for this client.
func (client *Client) GetModel() string {
	return client.model
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "i/o timeout") {
		return true
	}
	// 5xx server errors and rate limiting
	if strings.Contains(errStr, "response error 5") {
		return true
	}
	if strings.Contains(errStr, "response error 429") {
		return true
	}
	return false
}

// GenerateText calls POST /generate and returns the produced text.
func (client *Client) GenerateText(ctx context.Context, req GenerateRequest) (string, error) {
	var result string
	if err := retry.Do(
		func() error {
			response, err := client.generateText(ctx, req)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			result = response
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	); err != nil {
		return "", err
	}
	return result, nil
}

func (client *Client) generateText(ctx context.Context, req GenerateRequest) (string, error) {
	req.Config.Model = client.modelOrDefault(req.Config.Model)
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&textResponse{}).
		Post("/generate")
	if err != nil {
		return "", fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return "", fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody := response.Result().(*textResponse)
	if responseBody == nil || responseBody.Text == "" {
		return "", fmt.Errorf("empty response text: %s: %w", response.String(), ErrMalformedResponse)
	}
	return responseBody.Text, nil
}

// GenerateJSON calls POST /generate-json and returns the structured data.
func (client *Client) GenerateJSON(ctx context.Context, req GenerateRequest) (JSONResult, error) {
	var result JSONResult
	if err := retry.Do(
		func() error {
			response, err := client.generateJSON(ctx, req)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			result = response
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	); err != nil {
		return JSONResult{}, err
	}
	return result, nil
}

func (client *Client) generateJSON(ctx context.Context, req GenerateRequest) (JSONResult, error) {
	req.Config.Model = client.modelOrDefault(req.Config.Model)
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&JSONResult{}).
		Post("/generate-json")
	if err != nil {
		return JSONResult{}, fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return JSONResult{}, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody := response.Result().(*JSONResult)
	if responseBody == nil || len(responseBody.Data) == 0 {
		return JSONResult{}, fmt.Errorf("empty response data: %s: %w", response.String(), ErrMalformedResponse)
	}
	return *responseBody, nil
}

// StartTask calls POST /generate-json-progressive and returns the task id.
func (client *Client) StartTask(ctx context.Context, req GenerateRequest) (string, error) {
	req.Config.Model = client.modelOrDefault(req.Config.Model)
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&startTaskResponse{}).
		Post("/generate-json-progressive")
	if err != nil {
		return "", fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return "", fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody := response.Result().(*startTaskResponse)
	if responseBody == nil || responseBody.TaskID == "" {
		return "", fmt.Errorf("empty task id: %s: %w", response.String(), ErrMalformedResponse)
	}
	return responseBody.TaskID, nil
}

// TaskSnapshot calls GET /task/{taskId}. Rate limiting and task
// eviction surface as ErrRateLimited and ErrTaskNotFound so the poller
// can apply its soft-retry policies.
func (client *Client) TaskSnapshot(ctx context.Context, taskID string) (TaskSnapshot, error) {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetResult(&TaskSnapshot{}).
		SetPathParam("taskId", taskID).
		Get("/task/{taskId}")
	if err != nil {
		return TaskSnapshot{}, fmt.Errorf("httpClient.Get > %w", err)
	}
	switch response.StatusCode() {
	case http.StatusTooManyRequests:
		return TaskSnapshot{}, fmt.Errorf("task %s: %w", taskID, ErrRateLimited)
	case http.StatusNotFound:
		return TaskSnapshot{}, fmt.Errorf("task %s: %w", taskID, ErrTaskNotFound)
	}
	if response.IsError() {
		return TaskSnapshot{}, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody := response.Result().(*TaskSnapshot)
	if responseBody == nil {
		return TaskSnapshot{}, fmt.Errorf("empty task snapshot: %w", ErrMalformedResponse)
	}
	return *responseBody, nil
}

// Configured calls GET /status to probe whether the backend has a
// generation capability available at all.
func (client *Client) Configured(ctx context.Context) (bool, error) {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetResult(&statusResponse{}).
		Get("/status")
	if err != nil {
		return false, fmt.Errorf("httpClient.Get > %w", err)
	}
	if response.IsError() {
		return false, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}
	responseBody := response.Result().(*statusResponse)
	if responseBody == nil {
		return false, fmt.Errorf("empty status response: %w", ErrMalformedResponse)
	}
	return responseBody.Configured, nil
}

// StreamAdditional calls POST /generate-additional-stream and decodes
// the SSE response, invoking fn per event.
func (client *Client) StreamAdditional(ctx context.Context, req GenerateRequest, fn func(StreamEvent) error) error {
	return client.stream(ctx, "/generate-additional-stream", req, fn)
}

// StreamSuggestions calls POST /generate-suggestions-stream and decodes
// the SSE response, invoking fn per event.
func (client *Client) StreamSuggestions(ctx context.Context, req GenerateRequest, fn func(StreamEvent) error) error {
	return client.stream(ctx, "/generate-suggestions-stream", req, fn)
}

func (client *Client) stream(ctx context.Context, path string, req GenerateRequest, fn func(StreamEvent) error) error {
	req.Config.Model = client.modelOrDefault(req.Config.Model)
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetDoNotParseResponse(true).
		Post(path)
	if err != nil {
		return fmt.Errorf("httpClient.Post > %w", err)
	}
	defer func() {
		_ = response.Body.Close()
	}()
	if response.IsError() {
		if response.StatusCode() == http.StatusTooManyRequests {
			return fmt.Errorf("stream %s: %w", path, ErrRateLimited)
		}
		return fmt.Errorf("response error %d on %s", response.StatusCode(), path)
	}

	slog.Default().Debug("decoding generation stream", "path", path)
	if err := DecodeStream(ctx, response.Body, fn); err != nil {
		return fmt.Errorf("DecodeStream > %w", err)
	}
	return nil
}

func (client *Client) modelOrDefault(model string) string {
	if model != "" {
		return model
	}
	return client.model
}
