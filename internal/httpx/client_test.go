package httpx_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kvgrid/keyspace_sdk_go/internal/httpx"
)

func fastRetryPolicy(maxRetries int) httpx.Option {
	return httpx.WithRetryPolicy(httpx.RetryPolicy{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	})
}

func TestDoReturnsErrorBodyOnFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"errorCode":100,"message":"Key not found"}`)
	}))
	t.Cleanup(srv.Close)

	client, err := httpx.NewClient(srv.URL, fastRetryPolicy(0))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Do(context.Background(), &httpx.Request{Method: http.MethodGet, Path: "/x"})
	var httpErr *httpx.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", httpErr.StatusCode)
	}
	if len(httpErr.Body) == 0 {
		t.Fatal("error body was not preserved")
	}
	if httpErr.JSON == nil {
		t.Fatal("JSON content-type body was not decoded")
	}
}

func TestDoRetriesServerErrorsForRetryableRequests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, "ok")
	}))
	t.Cleanup(srv.Close)

	client, err := httpx.NewClient(srv.URL, fastRetryPolicy(3))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	resp, err := client.Do(context.Background(), &httpx.Request{Method: http.MethodGet, Path: "/x"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	if got := calls.Load(); got != 3 {
		t.Fatalf("server saw %d calls, want 3", got)
	}
}

func TestDoDisableRetrySkipsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client, err := httpx.NewClient(srv.URL, fastRetryPolicy(3))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Do(context.Background(), &httpx.Request{
		Method:       http.MethodPut,
		Path:         "/x",
		DisableRetry: true,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("server saw %d calls, want 1", got)
	}
}

func TestDoClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusPreconditionFailed)
		io.WriteString(w, `{"errorCode":101,"message":"Compare failed"}`)
	}))
	t.Cleanup(srv.Close)

	client, err := httpx.NewClient(srv.URL, fastRetryPolicy(3))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err = client.Do(context.Background(), &httpx.Request{Method: http.MethodGet, Path: "/x"}); err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("server saw %d calls, want 1", got)
	}
}

func TestDoSendsFormBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("content-type = %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("value") != "hello world" || r.PostForm.Get("ttl") != "5" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		if r.URL.Query().Get("prevExist") != "false" {
			t.Errorf("unexpected query: %v", r.URL.Query())
		}
		io.WriteString(w, "ok")
	}))
	t.Cleanup(srv.Close)

	client, err := httpx.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	resp, err := client.Do(context.Background(), &httpx.Request{
		Method: http.MethodPut,
		Path:   "/v2/keys/k",
		Query:  url.Values{"prevExist": {"false"}},
		Form:   url.Values{"value": {"hello world"}, "ttl": {"5"}},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	if _, err := httpx.NewClient(""); err == nil {
		t.Fatal("expected error for empty base URL")
	}
	if _, err := httpx.NewClient("://bad"); err == nil {
		t.Fatal("expected error for invalid base URL")
	}
}
