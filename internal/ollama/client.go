// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/streamchat/internal/stream"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the Ollama client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeModelNotFound
	ErrTypeConnection
	ErrTypeInvalidResponse
	ErrTypeDecode
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	defaultBaseURL = "http://127.0.0.1:11434"
	defaultModel   = "llama3.2"
	defaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of a failed response is read for its message.
	maxErrorBody = 4 * 1024
)

// ClientConfig holds configuration options for the Ollama client.
type ClientConfig struct {
	// BaseURL is the Ollama API base URL (default: http://127.0.0.1:11434)
	// Note: Uses explicit IPv4 address instead of localhost to avoid IPv6 resolution issues on Windows
	BaseURL string

	// Timeout for non-streaming requests (default: 30s). Streaming requests
	// are bounded only by their context.
	Timeout time.Duration

	// DefaultModel to use if none specified
	DefaultModel string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:      defaultBaseURL,
		Timeout:      defaultTimeout,
		DefaultModel: defaultModel,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the Ollama API. It is safe for
// concurrent use.
type Client struct {
	config       *ClientConfig
	httpClient   *http.Client
	streamClient *http.Client
}

// NewClientWithConfig creates a new Ollama client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.DefaultModel == "" {
		config.DefaultModel = defaultModel
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		// SECURITY: TLS is whatever BaseURL asks for; a local Ollama listens on plain HTTP.
		streamClient: &http.Client{},
	}
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckRunning verifies that Ollama is reachable and running.
func (c *Client) CheckRunning(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError(ctx, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &ClientError{
			Type:    ErrTypeConnection,
			Message: "unexpected status from Ollama: " + resp.Status,
		}
	}

	return nil
}

// =============================================================================
// MODEL OPERATIONS
// =============================================================================

// ListModels retrieves all available models from Ollama.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("failed to list models", resp)
	}

	var result ListModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	return result.Models, nil
}

// =============================================================================
// STREAMING GENERATION
// =============================================================================

// GenerateStream posts req to /api/generate with streaming enabled and calls
// fn for each record, synchronously and in arrival order.
//
// Records keep being decoded until the server closes the body; the record
// with Done set carries the final statistics. A record with a non-empty
// Error field ends the stream with an ErrTypeInvalidResponse error. A
// malformed line ends it with an ErrTypeDecode error wrapping the
// *stream.DecodeError. Cancelling ctx returns stream.ErrCanceled.
func (c *Client) GenerateStream(ctx context.Context, req GenerateRequest, fn func(GenerateResponse) error) error {
	if req.Model == "" {
		req.Model = c.config.DefaultModel
	}
	req.Stream = true

	body, err := json.Marshal(req)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return c.transportError(ctx, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError("generate request failed", resp)
	}

	err = stream.DecodeInto(ctx, resp.Body, func(r GenerateResponse) error {
		if r.Error != "" {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: r.Error}
		}
		return fn(r)
	})
	return c.streamError(err)
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

// transportError classifies a failed http.Client.Do call.
func (c *Client) transportError(ctx context.Context, err error) error {
	if errors.Is(stream.ContextErr(ctx), stream.ErrCanceled) {
		return stream.ErrCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	return &ClientError{
		Type:    ErrTypeNotRunning,
		Message: "could not reach Ollama at " + c.config.BaseURL,
		Cause:   err,
	}
}

// streamError classifies an error from decoding a response body. Errors the
// caller's callback returned pass through unchanged.
func (c *Client) streamError(err error) error {
	if err == nil {
		return nil
	}
	if stream.IsCanceled(err) {
		return stream.ErrCanceled
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return err
	}
	var decErr *stream.DecodeError
	if errors.As(err, &decErr) {
		return &ClientError{Type: ErrTypeDecode, Message: "malformed stream record", Cause: decErr}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: "stream timed out", Cause: err}
	}
	if errors.Is(err, stream.ErrLineTooLong) {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "stream record too large", Cause: err}
	}
	var readErr *stream.ReadError
	if errors.As(err, &readErr) {
		return &ClientError{Type: ErrTypeConnection, Message: "stream interrupted", Cause: readErr.Err}
	}
	return err
}

// statusError builds an error from a non-2xx response, preferring the
// server's own error message.
func statusError(prefix string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := strings.TrimSpace(string(raw))
	var ollamaErr OllamaError
	if err := json.Unmarshal(raw, &ollamaErr); err == nil && ollamaErr.Error != "" {
		msg = ollamaErr.Error
	}

	if resp.StatusCode == http.StatusNotFound {
		if msg == "" {
			msg = "model not found"
		}
		return &ClientError{Type: ErrTypeModelNotFound, Message: msg}
	}

	if msg == "" {
		msg = resp.Status
	}
	return &ClientError{Type: ErrTypeInvalidResponse, Message: prefix + ": " + msg}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// =============================================================================
// UTILITY METHODS
// =============================================================================

// IsModelNotFound checks if an error is a model not found error.
func IsModelNotFound(err error) bool {
	return hasType(err, ErrTypeModelNotFound)
}

// IsNotRunning checks if an error indicates Ollama is not running.
func IsNotRunning(err error) bool {
	return hasType(err, ErrTypeNotRunning)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	return hasType(err, ErrTypeTimeout)
}

// IsConnection checks if an error is a connection failure after Ollama was
// reached: an unexpected status from the health check or a stream that was
// cut off mid-read.
func IsConnection(err error) bool {
	return hasType(err, ErrTypeConnection)
}

// IsDecode checks if an error came from a malformed stream record.
func IsDecode(err error) bool {
	return hasType(err, ErrTypeDecode)
}

func hasType(err error, t ErrorType) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == t
	}
	return false
}

// Helper to drain response body
func drainAndClose(r io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, maxErrorBody))
	_ = r.Close()
}
