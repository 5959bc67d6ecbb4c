package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"

	"github.com/securevault/svault/internal/credential"
)

// CredentialStore is the subset of *credential.Store the client depends on.
type CredentialStore interface {
	Credential() string
	Mode() credential.Mode
	Logout(ctx context.Context)
}

// Compile-time check that *credential.Store satisfies CredentialStore
var _ CredentialStore = (*credential.Store)(nil)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	transport  http.RoundTripper
	jar        http.CookieJar
	timeout    time.Duration
	logger     *slog.Logger
	strictJSON bool
}

// WithTransport sets the base transport for API requests.
// If not provided, http.DefaultTransport is used.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *clientConfig) {
		c.transport = transport
	}
}

// WithCookieJar sets the jar carrying the session cookie in cookie mode.
// If not provided, an in-memory jar is created. Ignored in token mode.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *clientConfig) {
		c.jar = jar
	}
}

// WithTimeout bounds each request including reading the response body.
// Zero (default) leaves requests bounded only by their context.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithLogger sets the logger for request diagnostics.
// If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithStrictJSON makes successful responses that fail to parse as JSON return
// ErrMalformedJSON instead of the raw text.
func WithStrictJSON() Option {
	return func(c *clientConfig) {
		c.strictJSON = true
	}
}

// Client issues requests against the API origin on behalf of every collaborator.
type Client struct {
	baseURL    string
	store      CredentialStore
	httpClient *http.Client
	logger     *slog.Logger
	strictJSON bool
}

// New creates a Client for the API at baseURL. Paths passed to Request are appended to it.
// In cookie mode the HTTP client carries a cookie jar so the session cookie is sent
// with every request; in token mode it carries none.
func New(baseURL string, store CredentialStore, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, fmt.Errorf("missing credential store")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", baseURL)
	}

	cfg := &clientConfig{
		transport: http.DefaultTransport,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	httpClient := &http.Client{
		Transport: &Transport{Base: cfg.transport},
		Timeout:   cfg.timeout,
	}

	if store.Mode() == credential.ModeCookie {
		jar := cfg.jar
		if jar == nil {
			jar, err = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
			if err != nil {
				return nil, fmt.Errorf("creating cookie jar: %w", err)
			}
		}
		httpClient.Jar = jar
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		store:      store,
		httpClient: httpClient,
		logger:     cfg.logger,
		strictJSON: cfg.strictJSON,
	}, nil
}

// IncludesCredentials reports whether ambient credentials (cookies) are sent with requests.
func (c *Client) IncludesCredentials() bool {
	return c.httpClient.Jar != nil
}

// RequestOption configures a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	method       string
	header       http.Header
	body         Body
	responseType ResponseType
}

// WithMethod sets the HTTP method. Defaults to GET.
func WithMethod(method string) RequestOption {
	return func(o *requestOptions) {
		o.method = method
	}
}

// WithHeader sets a header, replacing any default or earlier value. Names are case-insensitive.
func WithHeader(name, value string) RequestOption {
	return func(o *requestOptions) {
		o.header.Set(name, value)
	}
}

// WithHeaders merges headers over the defaults.
func WithHeaders(h http.Header) RequestOption {
	return func(o *requestOptions) {
		for name, values := range h {
			o.header.Del(name)
			for _, v := range values {
				o.header.Add(name, v)
			}
		}
	}
}

// WithBody sets the request payload.
func WithBody(body Body) RequestOption {
	return func(o *requestOptions) {
		o.body = body
	}
}

// WithResponseType sets how the response body is parsed. Defaults to ResponseJSON.
func WithResponseType(t ResponseType) RequestOption {
	return func(o *requestOptions) {
		o.responseType = t
	}
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (any, error) {
	return c.Request(ctx, path, append(slices.Clip(opts), WithMethod(http.MethodGet))...)
}

// Post issues a POST request with body.
func (c *Client) Post(ctx context.Context, path string, body Body, opts ...RequestOption) (any, error) {
	return c.Request(ctx, path, append(slices.Clip(opts), WithMethod(http.MethodPost), WithBody(body))...)
}

// Patch issues a PATCH request with body.
func (c *Client) Patch(ctx context.Context, path string, body Body, opts ...RequestOption) (any, error) {
	return c.Request(ctx, path, append(slices.Clip(opts), WithMethod(http.MethodPatch), WithBody(body))...)
}

// Delete issues a DELETE request. A payload may be passed with WithBody.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (any, error) {
	return c.Request(ctx, path, append(slices.Clip(opts), WithMethod(http.MethodDelete))...)
}

// Request issues a request to path and returns the parsed response:
// a JSON value (nil for an empty body), a string for ResponseText, or *Blob for ResponseBlob.
//
// A 401 response logs the session out and returns ErrUnauthorized without reading the body.
// Other non-2xx responses return *RequestError.
func (c *Client) Request(ctx context.Context, path string, opts ...RequestOption) (any, error) {
	ro := &requestOptions{
		method:       http.MethodGet,
		header:       http.Header{"Accept": []string{"application/json"}},
		responseType: ResponseJSON,
	}
	for _, opt := range opts {
		opt(ro)
	}

	header := ro.header
	body, err := encodeBody(ro.body, header)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", ro.method, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, ro.method, c.baseURL+path, body)
	if err != nil {
		// Unblocks a streaming multipart writer
		if closer, ok := body.(io.Closer); ok {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("%s %s: %w", ro.method, path, err)
	}
	req.Header = header

	// Cookie mode never carries a bearer token, not even one set by the caller
	if c.store.Mode() == credential.ModeCookie {
		req.Header.Del("Authorization")
	} else if token := c.store.Credential(); token != "" {
		(&oauth2.Token{AccessToken: token}).SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if IsCanceled(err) {
			c.logger.DebugContext(ctx, "request canceled", "method", ro.method, "path", path)
		} else {
			c.logger.ErrorContext(ctx, "request failed", "method", ro.method, "path", path, "error", err)
		}
		return nil, fmt.Errorf("%s %s: %w", ro.method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.DebugContext(ctx, "request completed",
		"method", ro.method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.WarnContext(ctx, "unauthorized response, logging out", "method", ro.method, "path", path)
		// Logout must complete even if the caller gives up now
		c.store.Logout(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("%s %s: %w", ro.method, path, ErrUnauthorized)
	}

	data, err := c.parseResponse(ctx, resp, ro.responseType)
	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	if err != nil && !errors.Is(err, ErrMalformedJSON) {
		return nil, fmt.Errorf("%s %s: %w", ro.method, path, err)
	}
	if !success {
		return nil, newRequestError(resp.StatusCode, data)
	}
	if err != nil && c.strictJSON {
		return nil, fmt.Errorf("%s %s: %w", ro.method, path, err)
	}

	return data, nil
}
