// Package backend is the console's client for the campaign platform REST API.
// Every call carries the bearer token of the session it is made for.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/patrickwarner/troyconsole/internal/observability"
	"github.com/patrickwarner/troyconsole/internal/session"
)

// ErrMalformed is returned when a response body is not the JSON shape expected.
var ErrMalformed = errors.New("malformed backend response")

// maxErrorBody caps how much of a failed response is kept for messages.
const maxErrorBody = 4 << 10

// StatusError is returned for non-2xx backend responses.
type StatusError struct {
	Code    int
	Message string
	Body    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend http %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("backend http %d", e.Code)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Client calls the platform REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	transport  *http.Transport
	group      singleflight.Group
	logger     *zap.Logger
	metrics    observability.MetricsRegistry
}

// NewClient creates a client for the API at baseURL. Requests are traced with
// otelhttp and bounded by timeout.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger, metrics observability.MetricsRegistry) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	base := http.DefaultTransport.(*http.Transport).Clone()
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(base),
		},
		transport: base,
		logger:    logger,
		metrics:   metrics,
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Close releases idle connections.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

// GetJSON performs a GET and returns the raw body. Identical GETs issued
// concurrently under the same token share one backend round trip. The shared
// round trip is bounded by the client timeout only; each caller stops
// waiting when its own ctx is done.
func (c *Client) GetJSON(ctx context.Context, sc session.Context, route, path string, query url.Values) (json.RawMessage, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	key := sc.Token + "\x00" + target
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.do(shared, sc, route, http.MethodGet, target, nil)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.logger.Debug("shared in-flight backend GET", zap.String("route", route))
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(json.RawMessage), nil
	}
}

// Send performs a mutating request with an optional JSON body.
func (c *Client) Send(ctx context.Context, sc session.Context, route, method, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, sc, route, method, c.baseURL+path, body)
}

func (c *Client) do(ctx context.Context, sc session.Context, route, method, target string, body any) (raw json.RawMessage, err error) {
	start := time.Now()
	outcome := "success"
	defer func() {
		if err != nil {
			outcome = "failure"
		}
		c.metrics.RecordBackendLatency(route, time.Since(start))
		c.metrics.IncrementBackendCalls(route, outcome)
	}()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sc.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sc.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, route, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Message: errorMessage(b), Body: string(b)}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(b) {
		return nil, fmt.Errorf("%w: %s %s", ErrMalformed, method, route)
	}
	return json.RawMessage(b), nil
}

// errorMessage extracts the message field platform error bodies carry.
func errorMessage(body []byte) string {
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// HealthCheck checks if the platform API is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create health check request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}
	return nil
}
