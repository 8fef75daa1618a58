// Package apiclient is the typed request pipeline in front of the study backend.
//
// Every call is described by a RequestDescriptor, sent exactly once, and
// classified into either a decoded value of the caller's response type or an
// *Error carrying one of the Kind values.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/subtitle-study/app/internal/models"
)

const DefaultTimeout = 30 * time.Second

// maxBodyBytes bounds how much of a response body is read into memory.
const maxBodyBytes = 10_000_000

// CredentialProvider supplies the bearer token attached to every request.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
}

// Client builds descriptors against one backend. It holds no per-call state
// and is safe for concurrent use.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials CredentialProvider
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the overall timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

func New(baseURL string, credentials CredentialProvider, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		credentials: credentials,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// descriptor starts a request with the fixed JSON and bearer headers.
func (c *Client) descriptor(ctx context.Context, method, path string) (RequestDescriptor, error) {
	token := ""
	if c.credentials != nil {
		t, err := c.credentials.Token(ctx)
		if err != nil {
			return RequestDescriptor{}, &Error{Kind: KindInvalidRequest, Err: fmt.Errorf("load credentials: %w", err)}
		}
		token = t
	}
	return RequestDescriptor{
		BaseURL: c.baseURL,
		Path:    path,
		Method:  method,
		Headers: map[string]string{
			"Content-Type":  "application/json",
			"Accept":        "application/json",
			"Authorization": "Bearer " + token,
		},
	}, nil
}

// Do sends d once and decodes a 2xx body into T.
func Do[T any](ctx context.Context, c *Client, d RequestDescriptor) (T, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := d.Build(ctx)
	if err != nil {
		return zero, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, transportError(ctx, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return zero, &Error{Kind: KindUnauthorized, StatusCode: resp.StatusCode}
	case resp.StatusCode >= 500 && resp.StatusCode <= 599:
		return zero, &Error{Kind: KindServerError, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return zero, transportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb models.ErrorBody
		if err := json.Unmarshal(body, &eb); err != nil {
			return zero, &Error{Kind: KindResponseDecodeFailed, StatusCode: resp.StatusCode, Err: err}
		}
		return zero, statusError(resp.StatusCode, eb)
	}

	return decode[T](body)
}

func decode[T any](body []byte) (T, error) {
	var v T
	if _, ok := any(&v).(*models.Empty); ok && len(bytes.TrimSpace(body)) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(body, &v); err != nil {
		var zero T
		return zero, &Error{Kind: KindResponseDecodeFailed, Err: err}
	}
	return v, nil
}

// Result is the single outcome delivered by Execute.
type Result[T any] struct {
	Value T
	Err   error
}

// Execute runs Do on its own goroutine. The returned channel yields exactly
// one Result and is then closed.
func Execute[T any](ctx context.Context, c *Client, d RequestDescriptor) <-chan Result[T] {
	out := make(chan Result[T], 1)
	go func() {
		defer close(out)
		v, err := Do[T](ctx, c, d)
		out <- Result[T]{Value: v, Err: err}
	}()
	return out
}
