// Package upstream is the console's client for the backend API it fronts.
//
// Responses are decoded into untyped JSON (any) and handed to the normalizers
// in internal/normalize and internal/evaluation; this package never interprets
// backend shapes. Retries and caching belong to the caller.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/solatis/tpaconsole/internal/types"
)

// maxResponseSize bounds how much of a backend response is read.
const maxResponseSize = 10 << 20

// Backend paths used by the console.
const (
	PathCombinationRules   = "/combination-rules"
	PathDosageRules        = "/dosage-rules"
	PathDrugRules          = "/drug-rules"
	PathDecision           = "/evaluations/decision"
	PathDrugRuleEvaluation = "/evaluations/drug-rules"
)

// StatusError is a non-2xx backend response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: upstream returned %d", e.Method, e.Path, e.Status)
}

// Unwrap lets callers match with errors.Is(err, types.ErrUpstreamStatus).
func (e *StatusError) Unwrap() error {
	return types.ErrUpstreamStatus
}

// Message extracts a backend-supplied message from the body, if any.
func (e *StatusError) Message() string {
	var body map[string]any
	if json.Unmarshal(e.Body, &body) == nil {
		for _, key := range []string{"message", "error", "detail"} {
			if s, ok := body[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return strings.TrimSpace(string(e.Body))
}

// AsStatusError returns the StatusError in err's chain, if any.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	ok := errors.As(err, &se)
	return se, ok
}

// Client issues JSON requests against the backend base URL.
// Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client. baseURL must not end with a slash.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type requestIDKey struct{}

// WithRequestID attaches a request ID forwarded as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Get fetches path and decodes the JSON response.
func (c *Client) Get(ctx context.Context, path string) (any, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post sends body as JSON to path.
func (c *Client) Post(ctx context.Context, path string, body any) (any, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put sends body as JSON to path.
func (c *Client) Put(ctx context.Context, path string, body any) (any, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Do performs one request. Transport failures wrap types.ErrUpstreamUnavailable;
// non-2xx answers return *StatusError. An empty 2xx body decodes to nil.
func (c *Client) Do(ctx context.Context, method, path string, body any) (any, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %v", method, path, types.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w: %v", method, path, types.ErrUpstreamUnavailable, err)
	}
	if len(data) > maxResponseSize {
		return nil, fmt.Errorf("%s %s: %w: response exceeds %d bytes", method, path, types.ErrUpstreamUnavailable, maxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: data}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return out, nil
}
