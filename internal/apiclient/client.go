// Package apiclient is the single gateway to the shop REST API. The core
// Client encodes requests, attaches the operator's bearer token and maps
// failures into HTTPError, NetworkError and ErrCanceled. Caching, retry and
// metrics are Middleware wrapped around it.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shop-admin/internal/session"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 20 * time.Second

// Request is one API call. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
}

// Key identifies a GET for caching and coalescing.
func (r Request) Key() string {
	var b strings.Builder
	b.WriteString(r.method())
	b.WriteByte(' ')
	b.WriteString(r.Path)
	if len(r.Query) > 0 {
		b.WriteByte('?')
		b.WriteString(r.Query.Encode())
	}
	return b.String()
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

// Response is a successful (2xx) reply.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if r == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &NetworkError{Message: fmt.Sprintf("invalid response body: %v", err), Err: err}
	}
	return nil
}

// Doer performs API calls.
type Doer interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// DoerFunc adapts a function to Doer.
type DoerFunc func(ctx context.Context, req Request) (*Response, error)

// Do calls f.
func (f DoerFunc) Do(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware decorates a Doer.
type Middleware func(Doer) Doer

// Chain wraps d with middlewares; the first one is outermost.
func Chain(d Doer, middlewares ...Middleware) Doer {
	for i := len(middlewares) - 1; i >= 0; i-- {
		d = middlewares[i](d)
	}
	return d
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Session    session.Source
	Logger     zerolog.Logger
}

// Client is the core Doer talking HTTP.
type Client struct {
	baseURL *url.URL
	timeout time.Duration
	http    *http.Client
	session session.Source
	logger  zerolog.Logger
}

// New creates a Client for the given origin.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Session == nil {
		opts.Session = session.Static{}
	}
	return &Client{
		baseURL: base,
		timeout: opts.Timeout,
		http:    opts.HTTPClient,
		session: opts.Session,
		logger:  opts.Logger.With().Str("component", "api-client").Logger(),
	}, nil
}

// Do sends req and returns the 2xx response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrCanceled
	}

	method := req.method()
	requestID := uuid.New().String()

	httpReq, err := c.newHTTPRequest(ctx, method, req, requestID)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(httpReq.Context(), c.timeout)
	defer cancel()
	httpReq = httpReq.WithContext(callCtx)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, callCtx, err, method, req.Path, requestID)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, callCtx, err, method, req.Path, requestID)
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Status: resp.StatusCode, Method: method, Path: req.Path}
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, method string, req Request, requestID string) (*http.Request, error) {
	target := c.baseURL.JoinPath(req.Path)
	if len(req.Query) > 0 {
		target.RawQuery = encodeQuery(req.Query)
	}

	var body io.Reader
	if method != http.MethodGet && req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if auth := c.session.Current().AuthorizationHeader(); auth != "" {
		httpReq.Header.Set("Authorization", auth)
	}
	return httpReq, nil
}

func (c *Client) transportError(parent, callCtx context.Context, err error, method, path, requestID string) error {
	if parent.Err() != nil {
		return ErrCanceled
	}
	msg := err.Error()
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		msg = fmt.Sprintf("request timed out after %s", c.timeout)
	}
	c.logger.Warn().
		Err(err).
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Msg("api request failed")
	return &NetworkError{Message: msg, Err: err}
}

// encodeQuery keeps parameter order stable and drops empty values.
func encodeQuery(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k, vs := range q {
		if len(vs) == 0 || (len(vs) == 1 && vs[0] == "") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	clean := url.Values{}
	for _, k := range keys {
		clean[k] = q[k]
	}
	return clean.Encode()
}
