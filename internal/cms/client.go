package cms

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

	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/pkg/circuitbreaker"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultBaseURL = "http://localhost:1337"

	maxBodyBytes = 4 << 20
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker[*response]
	settings   circuitbreaker.Settings
	log        zerolog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithBreakerSettings(s circuitbreaker.Settings) Option {
	return func(c *Client) { c.settings = s }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		settings: circuitbreaker.DefaultSettings("cms"),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.settings.Ignore == nil {
		// a caller giving up says nothing about the CMS
		c.settings.Ignore = func(err error) bool {
			return errors.Is(err, context.Canceled)
		}
	}
	c.breaker = circuitbreaker.New[*response](c.settings, c.log)
	return c
}

// BaseURL is the origin relative media paths are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, token string, payload any) (*response, error) {
	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, &NetworkError{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		body = b
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	res, err := c.breaker.Execute(func() (*response, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		httpRes, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpRes.Body.Close()

		data, err := io.ReadAll(io.LimitReader(httpRes.Body, maxBodyBytes))
		if err != nil {
			return nil, err
		}
		out := &response{status: httpRes.StatusCode, body: data}
		if httpRes.StatusCode >= http.StatusInternalServerError {
			return out, errServerStatus
		}
		return out, nil
	})
	c.metrics.CMSRequest(op, err)
	if err != nil {
		status := 0
		if res != nil {
			status = res.status
		}
		c.log.Warn().Err(err).Str("op", op).Int("status", status).Msg("cms request failed")
		return nil, &NetworkError{Op: op, StatusCode: status, Err: err}
	}
	return res, nil
}

// getData runs a read and returns the records under its "data" key.
func (c *Client) getData(ctx context.Context, op, path string, query url.Values, token string) ([]Record, error) {
	res, err := c.do(ctx, op, http.MethodGet, path, query, token, nil)
	if err != nil {
		return nil, err
	}
	if !res.ok() {
		return nil, &NetworkError{Op: op, StatusCode: res.status}
	}
	doc, err := decode(res.body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	return List(doc["data"]), nil
}

func decode(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc Record
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if doc == nil {
		doc = Record{}
	}
	return doc, nil
}
