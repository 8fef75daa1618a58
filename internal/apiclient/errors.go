package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"syscall"

	"github.com/subtitle-study/app/internal/models"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindMethodNotAllowed
	KindNotAcceptable
	KindRequestTimeout
	KindBadRequest
	KindServerError
	KindResponseDecodeFailed
	KindNoNetwork
	KindTimeout
	KindCancelled
)

var kindNames = map[Kind]string{
	KindUnknown:              "unknown",
	KindInvalidRequest:       "invalid request",
	KindUnauthorized:         "unauthorized",
	KindForbidden:            "forbidden",
	KindNotFound:             "not found",
	KindMethodNotAllowed:     "method not allowed",
	KindNotAcceptable:        "not acceptable",
	KindRequestTimeout:       "request timeout",
	KindBadRequest:           "bad request",
	KindServerError:          "server error",
	KindResponseDecodeFailed: "response decode failed",
	KindNoNetwork:            "no network",
	KindTimeout:              "timeout",
	KindCancelled:            "cancelled",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the typed failure returned by every pipeline call.
// StatusCode, Message and Detail are set for structured 4xx responses;
// Err holds the transport or decode cause when there is one. Code is the
// status the envelope itself reported under "code" or "statusCode"; Kind
// always follows the HTTP status.
type Error struct {
	Kind       Kind
	StatusCode int
	Code       int
	Message    string
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Detail != "":
		return fmt.Sprintf("apiclient: %s (%d): %s: %s", e.Kind, e.StatusCode, e.Message, e.Detail)
	case e.Message != "":
		return fmt.Sprintf("apiclient: %s (%d): %s", e.Kind, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("apiclient: %s: %v", e.Kind, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("apiclient: %s (%d)", e.Kind, e.StatusCode)
	}
	return "apiclient: " + e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidRequest       = &Error{Kind: KindInvalidRequest}
	ErrUnauthorized         = &Error{Kind: KindUnauthorized}
	ErrForbidden            = &Error{Kind: KindForbidden}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrMethodNotAllowed     = &Error{Kind: KindMethodNotAllowed}
	ErrNotAcceptable        = &Error{Kind: KindNotAcceptable}
	ErrRequestTimeout       = &Error{Kind: KindRequestTimeout}
	ErrBadRequest           = &Error{Kind: KindBadRequest}
	ErrServerError          = &Error{Kind: KindServerError}
	ErrResponseDecodeFailed = &Error{Kind: KindResponseDecodeFailed}
	ErrNoNetwork            = &Error{Kind: KindNoNetwork}
	ErrTimeout              = &Error{Kind: KindTimeout}
	ErrCancelled            = &Error{Kind: KindCancelled}
	ErrUnknown              = &Error{Kind: KindUnknown}
)

// KindOf returns the kind of a pipeline error, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsIgnorable reports whether err is the catch-all kind that callers pass
// through as "no error".
func IsIgnorable(err error) bool {
	return err != nil && KindOf(err) == KindUnknown
}

// statusKinds maps the structured 4xx statuses to their kinds.
var statusKinds = map[int]Kind{
	http.StatusBadRequest:       KindBadRequest,
	http.StatusForbidden:        KindForbidden,
	http.StatusNotFound:         KindNotFound,
	http.StatusMethodNotAllowed: KindMethodNotAllowed,
	http.StatusNotAcceptable:    KindNotAcceptable,
	http.StatusRequestTimeout:   KindRequestTimeout,
}

func statusError(status int, body models.ErrorBody) *Error {
	kind, ok := statusKinds[status]
	if !ok {
		kind = KindUnknown
	}
	return &Error{
		Kind:       kind,
		StatusCode: status,
		Code:       body.Status(),
		Message:    body.Message,
		Detail:     body.Detail,
	}
}

// transportError maps a failed http.Client.Do into the taxonomy.
func transportError(ctx context.Context, err error) *Error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(ctx.Err(), context.Canceled):
		return &Error{Kind: KindCancelled, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Err: err}
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	switch {
	case errors.As(err, &dnsErr),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EHOSTUNREACH):
		return &Error{Kind: KindNoNetwork, Err: err}
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return &Error{Kind: KindNoNetwork, Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Op == "parse" {
		return &Error{Kind: KindInvalidRequest, Err: err}
	}

	return &Error{Kind: KindUnknown, Err: err}
}
