// Package devseed loads seed files used to pre-populate the mock keyspace
// and the sandbox server. Seeds are a flat list of entries; parent
// directories are created implicitly by the store.
package devseed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// Entry describes one seeded key. Dir entries ignore Value.
type Entry struct {
	Key        string `json:"key" yaml:"key"`
	Value      string `json:"value,omitempty" yaml:"value,omitempty"`
	Dir        bool   `json:"dir,omitempty" yaml:"dir,omitempty"`
	TTLSeconds *int64 `json:"ttlSeconds,omitempty" yaml:"ttlSeconds,omitempty"`
}

// Load reads seed entries from path. Files ending in .yaml or .yml are parsed
// as YAML, everything else as JSON.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read seed file: %w", err)
	}

	var entries []Entry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("devseed: parse YAML seed %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("devseed: parse JSON seed %s: %w", path, err)
		}
	}

	for i, e := range entries {
		if strings.TrimSpace(e.Key) == "" {
			return nil, fmt.Errorf("devseed: seed entry %d missing key", i)
		}
		if e.TTLSeconds != nil && *e.TTLSeconds < 0 {
			return nil, fmt.Errorf("devseed: seed entry %q has negative ttl", e.Key)
		}
	}
	return entries, nil
}
