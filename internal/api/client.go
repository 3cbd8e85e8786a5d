// Authenticated HTTP core for the catalog backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/castctl/castctl/internal/shared"
	"golang.org/x/time/rate"
)

// TokenSource supplies the current bearer token. An empty string means no
// credential is attached; only the session manager writes the token, call sites
// read it at request-construction time.
type TokenSource interface {
	Token() string
}

// Client issues requests to the catalog backend, injecting the bearer token
// from its [TokenSource] and reporting authentication failures through the
// OnUnauthorized hook. It is the single transport used by every component.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	limiter        *rate.Limiter
	onUnauthorized func()
}

// Opts configures a [Client]. Zero values fall back to defaults.
type Opts struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource
	// RateLimit caps outbound requests per second; 0 disables limiting.
	RateLimit float64
	// OnUnauthorized fires once per response carrying 401, regardless of which
	// component issued the request.
	OnUnauthorized func()
}

// NewClient creates a new backend client.
func NewClient(opts Opts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:8000"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &Client{
		baseURL:        opts.BaseURL,
		httpClient:     opts.HTTPClient,
		tokens:         opts.Tokens,
		limiter:        limiter,
		onUnauthorized: opts.OnUnauthorized,
	}
}

// BaseURL returns the backend base URL the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetOnUnauthorized installs the authentication-failure hook after construction.
// The session manager needs the client to log in, so the two are wired in stages.
func (c *Client) SetOnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// SetTokens installs the token source after construction.
func (c *Client) SetTokens(ts TokenSource) {
	c.tokens = ts
}

// Response represents a raw API response with status and body.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Err maps the response status to the client error taxonomy: nil for 2xx,
// [shared.ErrUnauthorized] for 401, [shared.ErrAPIRequest] otherwise.
func (r *Response) Err() error {
	switch {
	case r.StatusCode >= 200 && r.StatusCode < 300:
		return nil
	case r.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d", shared.ErrUnauthorized, r.StatusCode)
	default:
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, r.StatusCode, detail(r.Body))
	}
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// detail extracts the backend's error message from a JSON body, falling back to
// the raw payload.
func detail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return string(body)
}

type requestOpts struct {
	contentType string
	anonymous   bool
	progress    func(sent, total int64)
}

// do performs a request against the backend. The bearer token is read from the
// token source at construction time; a 401 response fires the OnUnauthorized
// hook before the response is returned to the caller.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, size int64, opts requestOpts) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
	}

	if body != nil && opts.progress != nil {
		body = &countingReader{r: body, total: size, report: opts.progress}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if size > 0 {
		req.ContentLength = size
	}

	if opts.contentType != "" {
		req.Header.Set("Content-Type", opts.contentType)
	}
	if !opts.anonymous && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && !opts.anonymous && c.onUnauthorized != nil {
		c.onUnauthorized()
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}, nil
}

// jsonBody marshals data for transmission; nil data yields a nil reader.
func jsonBody(data any) (io.Reader, int64, error) {
	if data == nil {
		return nil, 0, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode request: %w", err)
	}
	return bytes.NewReader(raw), int64(len(raw)), nil
}

// Get performs an authenticated GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, 0, requestOpts{})
}

// Post performs an authenticated POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, data any) (*Response, error) {
	body, size, err := jsonBody(data)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, path, body, size, requestOpts{contentType: "application/json"})
}

// PostAnonymous performs a POST without a bearer token and without firing the
// authentication-failure hook. Used for login, where a 401 means bad
// credentials rather than a lost session.
func (c *Client) PostAnonymous(ctx context.Context, path string, data any) (*Response, error) {
	body, size, err := jsonBody(data)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, path, body, size, requestOpts{contentType: "application/json", anonymous: true})
}

// Put performs an authenticated PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, data any) (*Response, error) {
	body, size, err := jsonBody(data)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPut, path, body, size, requestOpts{contentType: "application/json"})
}

// Delete performs an authenticated DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, 0, requestOpts{})
}

// FilePart describes one file attached to a multipart request.
type FilePart struct {
	Field    string
	Filename string
	Data     []byte
}

// PostMultipart performs an authenticated multipart/form-data POST. The
// progress callback, if non-nil, receives cumulative transmitted bytes against
// the total body size as the request streams out; sent is monotonic.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, files []FilePart, progress func(sent, total int64)) (*Response, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}

	for _, file := range files {
		part, err := writer.CreateFormFile(file.Field, filepath.Base(file.Filename))
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, fmt.Errorf("failed to write form file: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	opts := requestOpts{contentType: writer.FormDataContentType(), progress: progress}
	return c.do(ctx, http.MethodPost, path, &buf, int64(buf.Len()), opts)
}

// countingReader reports cumulative bytes read from the wrapped reader.
type countingReader struct {
	r      io.Reader
	sent   int64
	total  int64
	report func(sent, total int64)
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.sent += int64(n)
		cr.report(cr.sent, cr.total)
	}
	return n, err
}
