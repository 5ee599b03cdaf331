package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	maxResponseBytes = 8 << 20
	errorBodyLimit   = 512
)

// ErrNotFound matches HTTP 404 responses from the content API.
var ErrNotFound = errors.New("cms: not found")

// HTTPError reports a non-2xx response from the content API.
type HTTPError struct {
	Method   string
	Endpoint string
	Status   int
	Body     string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("cms: %s %s: status %d: %s", e.Method, e.Endpoint, e.Status, e.Body)
	}
	return fmt.Sprintf("cms: %s %s: status %d", e.Method, e.Endpoint, e.Status)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// NetworkError reports a transport failure: the API was unreachable or the
// request was cancelled before a response arrived.
type NetworkError struct {
	Method   string
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("cms: %s %s: %v", e.Method, e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Client issues read and write calls against the headless content API.
// Every call is a single attempt; there are no retries and no client timeout,
// only the caller's context bounds a request.
type Client struct {
	baseURL         string
	contactEndpoint string
	http            *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithContactEndpoint overrides the contact submission path.
func WithContactEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
			c.contactEndpoint = endpoint
		}
	}
}

// NewClient constructs a Client for the API rooted at baseURL (e.g. http://host:1337/api).
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		contactEndpoint: EndpointContacts,
		http:            &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchJSON GETs endpoint (a path plus optional query string, passed through
// verbatim) and decodes the response envelope. Non-2xx responses yield
// *HTTPError and transport failures *NetworkError; the body is never partially
// decoded.
func (c *Client) FetchJSON(ctx context.Context, endpoint string) (Envelope, error) {
	var env Envelope
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// SubmitContact POSTs the submission wrapped as {"data": {...}} and returns the
// created record.
func (c *Client) SubmitContact(ctx context.Context, sub ContactSubmission) (Record, error) {
	payload, err := json.Marshal(struct {
		Data ContactSubmission `json:"data"`
	}{Data: sub})
	if err != nil {
		return Record{}, fmt.Errorf("cms: encode contact submission: %w", err)
	}
	var env Envelope
	if err := c.do(ctx, http.MethodPost, c.contactEndpoint, payload, &env); err != nil {
		return Record{}, err
	}
	rec, _, err := env.Single()
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out *Envelope) error {
	if c == nil || c.baseURL == "" {
		return &NetworkError{Method: method, Endpoint: endpoint, Err: errors.New("content API base URL not configured")}
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("cms: build request %s %s: %w", method, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Method: method, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Method: method, Endpoint: endpoint, Status: resp.StatusCode, Body: drainError(resp.Body)}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &NetworkError{Method: method, Endpoint: endpoint, Err: err}
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("cms: decode %s %s: %w", method, endpoint, err)
	}
	*out = env
	return nil
}

func drainError(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, errorBodyLimit))
	return strings.TrimSpace(string(b))
}
