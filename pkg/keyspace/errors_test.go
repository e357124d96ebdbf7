package keyspace_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kvgrid/keyspace_sdk_go/pkg/keyspace"
)

func TestErrorMessageCarriesServerFields(t *testing.T) {
	err := &keyspace.Error{
		Type:    keyspace.ErrorTypeKeyNotFound,
		Code:    100,
		Key:     "/missing",
		Message: "Key not found",
	}
	msg := err.Error()
	for _, want := range []string{"key_not_found", "/missing", "100", "Key not found"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestErrorIsMatchesByType(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &keyspace.Error{Type: keyspace.ErrorTypeKeyExists, Code: 105})

	if !errors.Is(err, &keyspace.Error{Type: keyspace.ErrorTypeKeyExists}) {
		t.Fatal("errors.Is failed to match by type")
	}
	if errors.Is(err, &keyspace.Error{Type: keyspace.ErrorTypeTransport}) {
		t.Fatal("errors.Is matched a different type")
	}
	if !keyspace.IsKeyExists(err) || keyspace.IsKeyNotFound(err) {
		t.Fatal("helper classification mismatch")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &keyspace.Error{Type: keyspace.ErrorTypeTransport, Cause: cause}

	if !errors.Is(err, cause) {
		t.Fatal("Unwrap chain does not reach the cause")
	}
	if !keyspace.IsTransport(err) {
		t.Fatal("IsTransport failed")
	}
}

func TestHelpersRejectForeignErrors(t *testing.T) {
	err := errors.New("some other failure")
	if keyspace.IsKeyNotFound(err) || keyspace.IsKeyExists(err) ||
		keyspace.IsTransport(err) || keyspace.IsMalformedResponse(err) {
		t.Fatal("helpers matched a non-keyspace error")
	}
}
