package keyspace

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/kvgrid/keyspace_sdk_go/internal/httpx"
)

// Backend issues one keyspace request and returns the raw response body.
// Implementations must hand back every body-carrying response for
// interpretation, successful or not: the keys API encodes domain failures in
// 4xx bodies. Only a call that produced no interpretable body at all may
// fail, and then with a transport-typed *Error.
type Backend interface {
	RoundTrip(ctx context.Context, method, uri string, query, form url.Values) ([]byte, error)
}

type httpBackend struct {
	client *httpx.Client
}

func (b *httpBackend) RoundTrip(ctx context.Context, method, uri string, query, form url.Values) ([]byte, error) {
	req := &httpx.Request{
		Method: method,
		Path:   uri,
		Query:  query,
		Form:   form,
		// Writes are not idempotent under conditions and in-order creates;
		// only reads keep the executor's retry policy.
		DisableRetry: method != http.MethodGet,
	}

	resp, err := b.client.Do(ctx, req)
	if err != nil {
		var httpErr *httpx.HTTPError
		if errors.As(err, &httpErr) && len(httpErr.Body) > 0 {
			return httpErr.Body, nil
		}
		return nil, &Error{
			Type:    ErrorTypeTransport,
			Message: "request failed without an interpretable response",
			Cause:   err,
		}
	}

	body, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, &Error{
			Type:    ErrorTypeTransport,
			Message: "read response body",
			Cause:   err,
		}
	}
	return body, nil
}
