package keyspace

import (
	"fmt"
	"os"
	"strings"

	"github.com/kvgrid/keyspace_sdk_go/internal/devseed"
	"github.com/kvgrid/keyspace_sdk_go/pkg/keyspace/mock"
)

const (
	envMode     = "KEYSPACE_RUNTIME_MODE"
	envURL      = "KEYSPACE_API_URL"
	envRoot     = "KEYSPACE_ROOT"
	envMockSeed = "KEYSPACE_MOCK_SEED"

	modeAuto = "auto"
	modeHTTP = "http"
	modeMock = "mock"
)

// NewFromEnv initialises a Client based on environment variables and returns
// the resolved mode ("http" or "mock"). KEYSPACE_RUNTIME_MODE selects the
// mode (auto picks http when KEYSPACE_API_URL is set); KEYSPACE_ROOT scopes
// all keys; KEYSPACE_MOCK_SEED points at a JSON or YAML seed file applied to
// the in-memory mock.
func NewFromEnv(opts ...Option) (client *Client, mode string, err error) {
	mode = strings.ToLower(strings.TrimSpace(os.Getenv(envMode)))
	baseURL := strings.TrimSpace(os.Getenv(envURL))
	if root := strings.TrimSpace(os.Getenv(envRoot)); root != "" {
		opts = append(opts, WithRoot(root))
	}

	switch mode {
	case "", modeAuto:
		if baseURL != "" {
			return newEnvHTTPClient(baseURL, opts)
		}
		return newEnvMockClient(opts)
	case modeHTTP:
		if baseURL == "" {
			return nil, "", fmt.Errorf("keyspace: HTTP mode requires %s", envURL)
		}
		return newEnvHTTPClient(baseURL, opts)
	case modeMock:
		return newEnvMockClient(opts)
	default:
		return nil, "", fmt.Errorf("keyspace: unsupported %s value %q", envMode, mode)
	}
}

func newEnvHTTPClient(baseURL string, opts []Option) (*Client, string, error) {
	client, err := New(baseURL, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("keyspace: init HTTP client: %w", err)
	}
	return client, modeHTTP, nil
}

func newEnvMockClient(opts []Option) (*Client, string, error) {
	store := mock.New()
	if path := strings.TrimSpace(os.Getenv(envMockSeed)); path != "" {
		entries, err := devseed.Load(path)
		if err != nil {
			return nil, "", fmt.Errorf("keyspace: load mock seed: %w", err)
		}
		if err := store.Seed(entries); err != nil {
			return nil, "", fmt.Errorf("keyspace: apply mock seed: %w", err)
		}
	}
	return NewWithBackend(store, opts...), modeMock, nil
}
