package devseed_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kvgrid/keyspace_sdk_go/internal/devseed"
)

func writeSeed(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeSeed(t, "seed.json", `[
		{"key": "/config/db", "value": "postgres"},
		{"key": "/queue", "dir": true},
		{"key": "/session/a", "value": "x", "ttlSeconds": 30}
	]`)

	entries, err := devseed.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	if entries[0].Key != "/config/db" || entries[0].Value != "postgres" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if !entries[1].Dir {
		t.Fatalf("expected dir entry: %+v", entries[1])
	}
	if entries[2].TTLSeconds == nil || *entries[2].TTLSeconds != 30 {
		t.Fatalf("unexpected ttl: %+v", entries[2])
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeSeed(t, "seed.yaml", `
- key: /config/db
  value: postgres
- key: /queue
  dir: true
`)

	entries, err := devseed.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[1].Key != "/queue" || !entries[1].Dir {
		t.Fatalf("unexpected entry: %+v", entries[1])
	}
}

func TestLoadRejectsMissingKey(t *testing.T) {
	path := writeSeed(t, "seed.json", `[{"value": "no key"}]`)
	if _, err := devseed.Load(path); err == nil {
		t.Fatal("expected error for entry without key")
	}
}

func TestLoadRejectsNegativeTTL(t *testing.T) {
	path := writeSeed(t, "seed.json", `[{"key": "/a", "ttlSeconds": -1}]`)
	if _, err := devseed.Load(path); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}
