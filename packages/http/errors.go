package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

type ErrorKind int

const (
	// ConnectionFailed covers dial, DNS, TLS and cancellation failures.
	ConnectionFailed ErrorKind = iota
	// Timeout means the request exceeded its deadline.
	Timeout
	// InvalidResponse means the server answered with something that is not a
	// readable HTTP response.
	InvalidResponse
)

func (k ErrorKind) String() string {
	switch k {
	case ConnectionFailed:
		return "ConnectionFailed"
	case Timeout:
		return "Timeout"
	case InvalidResponse:
		return "InvalidResponse"
	default:
		return "unknown"
	}
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// RequestError is the failure of a single request.
type RequestError struct {
	Kind ErrorKind
	Err  error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a *RequestError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Kind == kind
}

func newRequestError(ctx context.Context, err error) *RequestError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &RequestError{Kind: Classify(ctxErr), Err: err}
	}
	return &RequestError{Kind: Classify(err), Err: err}
}

// Classify maps a transport error onto an ErrorKind.
func Classify(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout
	}

	msg := err.Error()
	if strings.Contains(msg, "malformed HTTP") || strings.Contains(msg, "unexpected EOF") {
		return InvalidResponse
	}

	return ConnectionFailed
}
