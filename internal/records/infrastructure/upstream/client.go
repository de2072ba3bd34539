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

	"golang.org/x/time/rate"

	records "marketplace-admin/internal/records/domain"
)

const maxBodyBytes = 32 << 20

// envelopeKeys are the wrapper keys the backend uses around list payloads.
var envelopeKeys = []string{"data", "items", "results"}

// ErrUnexpectedPayload is returned when a list endpoint does not return records.
var ErrUnexpectedPayload = errors.New("upstream: unexpected payload")

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Path       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream: %s: http %d", e.Path, e.StatusCode)
}

// Client reads resource collections from the marketplace REST API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithRateLimit caps outgoing requests per second. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient constructs a client.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("upstream: empty base url")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List fetches every record of resource. The endpoint may return a bare JSON
// array or an object wrapping it under data, items or results.
func (c *Client) List(ctx context.Context, resource records.Resource) ([]records.Record, error) {
	path := resource.Path
	if path == "" {
		path = "/" + resource.Name
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	list, err := decodeList(body, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{StatusCode: resp.StatusCode, Path: path}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

func decodeList(data []byte, depth int) ([]records.Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrUnexpectedPayload
	}
	switch data[0] {
	case '[':
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var list []records.Record
		if err := dec.Decode(&list); err != nil {
			return nil, err
		}
		out := make([]records.Record, 0, len(list))
		for _, record := range list {
			if record != nil {
				out = append(out, record)
			}
		}
		return out, nil
	case '{':
		if depth > 1 {
			return nil, ErrUnexpectedPayload
		}
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, err
		}
		for _, key := range envelopeKeys {
			if raw, ok := envelope[key]; ok {
				return decodeList(raw, depth+1)
			}
		}
		return nil, ErrUnexpectedPayload
	default:
		return nil, ErrUnexpectedPayload
	}
}
