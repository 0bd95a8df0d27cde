// Package twelvedata wraps the Twelve Data market-data HTTP API. Each method
// issues one GET, adds the endpoint's default parameters and pipes the body
// through the schema validator. Retries are left to the caller.
package twelvedata

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lfarina18/metafar-challenge/internal/schema"
)

const (
	baseURL = "https://api.twelvedata.com"

	endpointStocks       = "/stocks"
	endpointTimeSeries   = "/time_series"
	endpointSymbolSearch = "/symbol_search"
	endpointQuote        = "/quote"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=twelvedata_test -destination=mock_http_client_test.go -source=client.go HTTPClient,RequestObserver
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestObserver is told about every upstream request. status is 0 when
// the request never produced a response.
type RequestObserver interface {
	ObserveRequest(endpoint string, status int, elapsed time.Duration)
}

// Client is a client for the Twelve Data API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient performs the requests.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// query contains query parameters sent with each request (the API key).
	query url.Values

	validator *schema.Validator
	observer  RequestObserver
}

// Option is a configuration option for the client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithValidator replaces the default payload validator.
func WithValidator(v *schema.Validator) Option {
	return func(c *Client) {
		c.validator = v
	}
}

// WithObserver registers a RequestObserver.
func WithObserver(o RequestObserver) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// New creates a new Twelve Data client. key is sent as the apikey query
// parameter on every request.
func New(key string, options ...Option) (*Client, error) {
	var client = &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
	}
	if key != "" {
		client.query.Set("apikey", key)
	}
	for _, option := range options {
		option(client)
	}
	if client.validator == nil {
		client.validator = schema.New(nil)
	}
	if _, err := url.Parse(client.baseURL); err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	return client, nil
}

// get performs GET endpoint?params and decodes the body into out.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	query := maps.Clone(c.query)
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}

	u := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, 0, start)
		return fmt.Errorf("performing request %s: %w", endpoint, err)
	}
	defer res.Body.Close()
	c.observe(endpoint, res.StatusCode, start)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<10))
		return &HTTPError{Method: http.MethodGet, Endpoint: endpoint, StatusCode: res.StatusCode, Body: string(b)}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", endpoint, err)
	}
	if err := c.validator.Decode(body, out); err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) observe(endpoint string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRequest(endpoint, status, time.Since(start))
	}
}
