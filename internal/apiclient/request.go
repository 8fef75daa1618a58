package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// RequestDescriptor describes a request that has not been sent yet.
type RequestDescriptor struct {
	BaseURL      string
	Path         string
	Method       string
	Headers      map[string]string
	PathSegments []string
	Query        map[string]string
	Body         []byte
}

// RawURL joins base, path and path segments, then appends the query string.
// Query keys are emitted in ascending order. Values are written as-is: callers
// must escape reserved characters themselves.
func (d RequestDescriptor) RawURL() string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(d.BaseURL, "/"))
	if d.Path != "" {
		if !strings.HasPrefix(d.Path, "/") {
			b.WriteByte('/')
		}
		b.WriteString(strings.TrimRight(d.Path, "/"))
	}
	for _, seg := range d.PathSegments {
		b.WriteByte('/')
		b.WriteString(seg)
	}

	if len(d.Query) > 0 {
		keys := make([]string, 0, len(d.Query))
		for k := range d.Query {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('?')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(d.Query[k])
		}
	}
	return b.String()
}

// Build turns the descriptor into an *http.Request. The body is only attached
// to non-GET requests.
func (d RequestDescriptor) Build(ctx context.Context) (*http.Request, error) {
	method := d.Method
	if method == "" {
		method = http.MethodGet
	}
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return nil, &Error{Kind: KindInvalidRequest, Err: fmt.Errorf("unsupported method %q", method)}
	}

	raw := d.RawURL()
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &Error{Kind: KindInvalidRequest, Err: fmt.Errorf("malformed url %q", raw)}
	}

	var body *bytes.Reader
	if method != http.MethodGet && d.Body != nil {
		body = bytes.NewReader(d.Body)
	}

	var req *http.Request
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, raw, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, raw, nil)
	}
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Err: err}
	}

	for k, v := range d.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// jsonBody encodes v for a descriptor body.
func jsonBody(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Err: fmt.Errorf("encode body: %w", err)}
	}
	return data, nil
}
