package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/google/uuid"
)

// Client is the typed request pipeline. It joins paths onto a fixed base
// URL, applies the wire naming convention in both directions, and collapses
// every failure into *Error. The pipeline is fail-fast: no retries, no
// timeout of its own (timeout policy lives on the injected http.Client).
type Client struct {
	base *url.URL
	http *http.Client
	log  *slog.Logger
}

// Option adjusts a Client at construction time.
type Option func(*Client)

// WithHTTPClient injects a shared http.Client. The process constructs one
// client holding the single cookie jar and hands it to every pipeline
// instance so session continuity works without token threading.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the debug logger. The pipeline never writes to stdout.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New builds a pipeline against baseURL. Without WithHTTPClient it owns a
// private http.Client with a fresh in-memory cookie jar.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{base: base, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http = &http.Client{Jar: jar}
	}
	return c, nil
}

// SharedHTTPClient returns an http.Client carrying a fresh cookie jar,
// suitable for sharing across every pipeline instance in the process.
func SharedHTTPClient() (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &http.Client{Jar: jar}, nil
}

// Request describes one call. Zero Method means GET. Query entries with
// empty values are dropped; the wire never carries empty query parameters.
// Body, when non-nil, is serialized with lowerCamel→snake_case key rewrite.
type Request struct {
	Path   string
	Method string
	Query  map[string]string
	Body   any
}

type detailPayload struct {
	Detail string `json:"detail"`
}

// Do issues req and decodes a 2xx body into T after the snake→camel key
// rewrite. Every returned error is *Error.
func Do[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var zero T
	raw, err := c.roundTrip(ctx, req)
	if err != nil {
		return zero, err
	}
	converted, err := convertKeys(raw, toCamel)
	if err == nil {
		err = json.Unmarshal(converted, &zero)
	}
	if err != nil {
		// Contract mismatch between client and backend. Same shape as a
		// transport fault for callers, but distinguishable in the log.
		c.log.Warn("api: schema mismatch", "path", req.Path, "err", err)
		var again T
		return again, errTransport()
	}
	return zero, nil
}

// Raw issues req and returns the undecoded 2xx body. Used for non-JSON
// payloads such as CSV exports; error normalization matches Do.
func (c *Client) Raw(ctx context.Context, req Request) ([]byte, error) {
	return c.roundTrip(ctx, req)
}

func (c *Client) roundTrip(ctx context.Context, req Request) ([]byte, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := c.base.JoinPath(req.Path)
	if len(req.Query) > 0 {
		q := url.Values{}
		for k, v := range req.Query {
			if v == "" {
				continue
			}
			q.Set(k, v)
		}
		target.RawQuery = q.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err == nil {
			encoded, err = convertKeys(encoded, toSnake)
		}
		if err != nil {
			c.log.Warn("api: encode failed", "path", req.Path, "err", err)
			return nil, errTransport()
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, errTransport()
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("X-Request-Id", requestID)
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Debug("api: transport failure", "id", requestID, "method", method, "path", req.Path, "err", err)
		return nil, errTransport()
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Debug("api: read failure", "id", requestID, "path", req.Path, "err", err)
		return nil, errTransport()
	}

	c.log.Debug("api: response", "id", requestID, "method", method, "path", req.Path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Two-tier fallback: a structured {detail} payload wins, otherwise a
		// generic status message. This path never panics past the caller.
		var d detailPayload
		if err := json.Unmarshal(payload, &d); err == nil && d.Detail != "" {
			return nil, &Error{Message: d.Detail}
		}
		return nil, errStatus(resp.StatusCode)
	}
	return payload, nil
}
