package keyspace

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kvgrid/keyspace_sdk_go/pkg/keyspace/mock"
)

func TestMetricsObserveOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewMetricsCollectorWithRegistry(registry)
	client := NewWithBackend(mock.New(), WithMetrics(collector))

	ctx := context.Background()
	if _, err := client.Set(ctx, "/k", "v", nil); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := client.Get(ctx, "/missing"); err == nil {
		t.Fatal("expected failure for missing key")
	}

	if got := testutil.ToFloat64(collector.requestsTotal.WithLabelValues("set", "success")); got != 1 {
		t.Fatalf("set success count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.requestsTotal.WithLabelValues("get", "error")); got != 1 {
		t.Fatalf("get error count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.errorsTotal.WithLabelValues(string(ErrorTypeKeyNotFound))); got != 1 {
		t.Fatalf("key-not-found error count = %v, want 1", got)
	}
}

func TestMetricsNilCollectorIsSafe(t *testing.T) {
	client := NewWithBackend(mock.New())
	if _, err := client.Set(context.Background(), "/k", "v", nil); err != nil {
		t.Fatalf("set without metrics: %v", err)
	}
}
