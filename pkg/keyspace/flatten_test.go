package keyspace_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kvgrid/keyspace_sdk_go/pkg/keyspace"
)

func decodeTree(t *testing.T, raw string) *keyspace.Node {
	t.Helper()
	var resp keyspace.Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("decode tree: %v", err)
	}
	return resp.Node
}

func TestFlattenMixedTree(t *testing.T) {
	root := decodeTree(t, `{
		"node": {
			"key": "/", "dir": true,
			"nodes": [
				{"key": "/a", "value": "1"},
				{"key": "/b", "dir": true, "nodes": [
					{"key": "/b/c", "value": "2"}
				]}
			]
		}
	}`)

	dirs, values := keyspace.Flatten(root)

	// Leaves never count as directories; the root is never listed.
	if diff := cmp.Diff([]string{"/b"}, dirs); diff != "" {
		t.Fatalf("dirs mismatch (-want +got):\n%s", diff)
	}
	wantValues := map[string]string{"/a": "1", "/b/c": "2"}
	if diff := cmp.Diff(wantValues, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenPreservesChildOrder(t *testing.T) {
	root := decodeTree(t, `{
		"node": {
			"key": "/", "dir": true,
			"nodes": [
				{"key": "/z", "dir": true, "nodes": [
					{"key": "/z/inner", "dir": true}
				]},
				{"key": "/a", "dir": true},
				{"key": "/m", "dir": true}
			]
		}
	}`)

	dirs, _ := keyspace.Flatten(root)

	// Pre-order: a parent precedes its children, siblings keep server order.
	want := []string{"/z", "/z/inner", "/a", "/m"}
	if diff := cmp.Diff(want, dirs); diff != "" {
		t.Fatalf("dirs order mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenEmptyAndNil(t *testing.T) {
	dirs, values := keyspace.Flatten(nil)
	if len(dirs) != 0 || len(values) != 0 {
		t.Fatalf("flatten(nil) = %v, %v; want empty", dirs, values)
	}

	root := decodeTree(t, `{"node": {"key": "/", "dir": true}}`)
	dirs, values = keyspace.Flatten(root)
	if len(dirs) != 0 || len(values) != 0 {
		t.Fatalf("flatten(empty root) = %v, %v; want empty", dirs, values)
	}
}

func TestFlattenSingleLeaf(t *testing.T) {
	root := decodeTree(t, `{"node": {"key": "/solo", "value": "v"}}`)
	dirs, values := keyspace.Flatten(root)
	if len(dirs) != 0 {
		t.Fatalf("dirs = %v, want empty", dirs)
	}
	if diff := cmp.Diff(map[string]string{"/solo": "v"}, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}
