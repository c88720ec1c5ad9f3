// Package restapi implements the service.Service interface against the task
// REST API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tasker/internal/service"
)

const (
	// TaskPath is the task collection endpoint.
	TaskPath = "/task"

	// TaskIDParam is the query parameter carrying the ID on delete.
	TaskIDParam = "taskId"

	// RequestIDHeader carries a per-request UUID for correlating logs.
	RequestIDHeader = "X-Request-ID"

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 10 << 20
)

// Client implements service.Service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithClock sets the time source used for default due dates.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a client for the API at baseURL.
// Requests have no timeout of their own; cancel through the context.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request describes one round trip.
type request struct {
	method     string
	path       string
	query      url.Values
	auth       string
	body       any
	accept     bool
	failureMsg string
}

// do sends req and decodes a success body into out (unless out is nil).
// Non-success responses become *service.RemoteError carrying the body's
// message, or req.failureMsg if there is none.
func (c *Client) do(ctx context.Context, req request, out any) error {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set(RequestIDHeader, requestID)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.accept || out != nil {
		httpReq.Header.Set("Accept", "application/json")
	}
	if req.auth != "" {
		httpReq.Header.Set("Authorization", req.auth)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("request_id", requestID),
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Error(err),
		)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("request done",
		zap.String("request_id", requestID),
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.String("query", httpReq.URL.RawQuery),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &service.RemoteError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data, req.failureMsg),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.log.Debug("undecodable response body",
			zap.String("request_id", requestID),
			zap.ByteString("body", truncate(data, 512)),
		)
		return &service.RemoteError{
			StatusCode: resp.StatusCode,
			Message:    req.failureMsg,
			Err:        fmt.Errorf("%w: %v", service.ErrMalformedResponse, err),
		}
	}
	return nil
}

// errorMessage returns the "message" field of a JSON error body, or fallback.
func errorMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return fallback
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

var _ service.Service = (*Client)(nil)
