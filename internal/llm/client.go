package llm

import (
	"bufio"
	"bytes"
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout   = 120 * time.Second
	baseRetryDelay   = 500 * time.Millisecond
	maxRetryDelay    = 8 * time.Second
	backoffMultiplier = 2.0
)

// ErrNotConfigured is returned when no API key is set. Generation
// features surface it at call time; the rest of the app runs fine.
var ErrNotConfigured = errors.New("llm api key is not configured")

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration, maxRetries int) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		maxRetries: maxRetries,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Complete runs a non-streaming completion with automatic retry on
// transient failures. Permanent failures (auth, not found, validation)
// return immediately.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	req := ChatRequest{Model: c.model, Messages: messages}

	var resp *ChatResponse
	err := c.withRetry(ctx, func() error {
		var invokeErr error
		resp, invokeErr = c.invoke(ctx, req)
		return invokeErr
	})
	if err != nil {
		return "", err
	}
	return resp.Content(), nil
}

// Stream runs a streaming completion. Chunks arrive on the first
// channel; at most one error arrives on the second. Both channels close
// when the stream ends. The initial connection is retried on transient
// failures, but a stream that breaks mid-flight is not resumed.
func (c *Client) Stream(ctx context.Context, messages []Message) (<-chan StreamChunk, <-chan error) {
	req := ChatRequest{Model: c.model, Messages: messages, Stream: true}
	chunkChan := make(chan StreamChunk, 10)
	errChan := make(chan error, 1)

	go func() {
		defer close(chunkChan)
		defer close(errChan)

		var resp *http.Response
		err := c.withRetry(ctx, func() error {
			var openErr error
			resp, openErr = c.openStream(ctx, req)
			return openErr
		})
		if err != nil {
			errChan <- err
			return
		}
		defer resp.Body.Close()

		if err := readSSE(resp.Body, chunkChan); err != nil {
			errChan <- err
		}
	}()

	return chunkChan, errChan
}

func (c *Client) invoke(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &chatResp, nil
}

func (c *Client) openStream(ctx context.Context, req ChatRequest) (*http.Response, error) {
	return c.post(ctx, req)
}

func (c *Client) post(ctx context.Context, req ChatRequest) (*http.Response, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	return resp, nil
}

func readSSE(body io.Reader, chunkChan chan<- StreamChunk) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		data := scanner.Text()
		if data == "" {
			continue
		}
		if strings.HasPrefix(data, "data: ") {
			data = data[6:]
		}
		if data == "[DONE]" {
			break
		}

		var chunk StreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("decoding chunk: %w", err)
		}
		chunkChan <- chunk
	}
	return scanner.Err()
}

// withRetry retries fn on transient errors with exponential backoff and
// jitter. Non-retryable errors and context cancellation fail fast.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	delay := baseRetryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			jitterFactor := 0.75 + cryptoRandFloat64()*0.5
			jitter := time.Duration(float64(delay) * jitterFactor)

			select {
			case <-time.After(jitter):
			case <-ctx.Done():
				return ctx.Err()
			}

			delay = time.Duration(float64(delay) * backoffMultiplier)
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}

	// Transport-level failures (connection refused, reset) surface as
	// url.Error and are worth retrying.
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return true
	}
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset")
}

func cryptoRandFloat64() float64 {
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		return 0.5
	}
	n := binary.BigEndian.Uint64(b[:]) >> 11
	return float64(n) / float64(uint64(1)<<53)
}
