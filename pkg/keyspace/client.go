package keyspace

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kvgrid/keyspace_sdk_go/internal/httpx"
	"github.com/kvgrid/keyspace_sdk_go/internal/keysapi"
)

const (
	// DefaultBaseURL targets a store running on the conventional local port.
	DefaultBaseURL = "http://127.0.0.1:2379"

	// DefaultAPIVersion selects the v2 keys API.
	DefaultAPIVersion = "v2"
)

// Client provides access to the hierarchical keyspace API. A Client is safe
// for concurrent use; flattening accumulators live on the call stack, and the
// root/version configuration is only mutated via SetRoot.
type Client struct {
	backend Backend
	paths   pathBuilder
	logger  *logrus.Logger
	metrics *MetricsCollector
}

type clientConfig struct {
	apiVersion string
	root       string
	httpClient *http.Client
	logger     *logrus.Logger
	metrics    *MetricsCollector
}

// Option configures a Client at construction time.
type Option func(*clientConfig)

// WithHTTPClient injects the *http.Client used for transport.
func WithHTTPClient(h *http.Client) Option {
	return func(cfg *clientConfig) {
		cfg.httpClient = h
	}
}

// WithAPIVersion overrides the API version segment (default "v2").
func WithAPIVersion(version string) Option {
	return func(cfg *clientConfig) {
		if version != "" {
			cfg.apiVersion = version
		}
	}
}

// WithRoot scopes every key under the given prefix.
func WithRoot(root string) Option {
	return func(cfg *clientConfig) {
		cfg.root = root
	}
}

// WithLogger enables debug logging of failed operations.
func WithLogger(l *logrus.Logger) Option {
	return func(cfg *clientConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithMetrics attaches a prometheus collector observing every operation.
func WithMetrics(m *MetricsCollector) Option {
	return func(cfg *clientConfig) {
		cfg.metrics = m
	}
}

// New constructs a Client bound to the provided base URL. An empty baseURL
// selects DefaultBaseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := newClientConfig(opts)

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	var httpOpts []httpx.Option
	if cfg.httpClient != nil {
		httpOpts = append(httpOpts, httpx.WithHTTPClient(cfg.httpClient))
	}
	hc, err := httpx.NewClient(baseURL, httpOpts...)
	if err != nil {
		return nil, err
	}
	return newClient(&httpBackend{client: hc}, cfg), nil
}

// NewWithBackend allows callers to supply a custom backend (e.g. the
// in-memory mock).
func NewWithBackend(b Backend, opts ...Option) *Client {
	return newClient(b, newClientConfig(opts))
}

func newClientConfig(opts []Option) *clientConfig {
	cfg := &clientConfig{
		apiVersion: DefaultAPIVersion,
		logger:     discardLogger(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func newClient(b Backend, cfg *clientConfig) *Client {
	c := &Client{
		backend: b,
		paths:   pathBuilder{version: cfg.apiVersion},
		logger:  cfg.logger,
		metrics: cfg.metrics,
	}
	c.paths.setRoot(cfg.root)
	return c
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// SetRoot changes the root prefix applied to every subsequently built key
// URI. Leading slash is ensured, trailing slashes are stripped. SetRoot is
// not synchronized with in-flight calls.
func (c *Client) SetRoot(root string) {
	c.paths.setRoot(root)
}

// Root returns the currently stored root prefix.
func (c *Client) Root() string {
	return c.paths.root
}

// Get retrieves the value of a leaf node.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	resp, err := c.do(ctx, "get", failNotFound, http.MethodGet, key, nil, nil)
	if err != nil {
		return "", err
	}
	return resp.Node.Value, nil
}

// GetNode retrieves the full node object for a key.
func (c *Client) GetNode(ctx context.Context, key string, opts *GetOptions) (*Node, error) {
	resp, err := c.do(ctx, "get_node", failNotFound, http.MethodGet, key, opts.query(), nil)
	if err != nil {
		return nil, err
	}
	return resp.Node, nil
}

// Set writes a leaf value, creating or overwriting the key. Conditions in
// opts turn the write into a compare-and-swap; condition failures surface as
// domain errors.
func (c *Client) Set(ctx context.Context, key, value string, opts *SetOptions) (*Response, error) {
	form := url.Values{"value": {value}}
	addTTL(form, opts.ttlSeconds())
	return c.do(ctx, "set", failDomain, http.MethodPut, key, opts.condition().apply(nil), form)
}

// Create writes a leaf value guarded by prevExist=false; it fails with a
// key-exists error when the node is already present.
func (c *Client) Create(ctx context.Context, key, value string, ttl time.Duration) (*Response, error) {
	form := url.Values{"value": {value}}
	addTTL(form, ttlSecondsOf(ttl))
	query := Condition{PrevExist: PrevNoExist}.apply(nil)
	return c.do(ctx, "create", failExists, http.MethodPut, key, query, form)
}

// Update rewrites an existing leaf value (prevExist=true, merged with any
// extra condition in opts); it fails with a key-not-found error when the key
// is absent.
func (c *Client) Update(ctx context.Context, key, value string, opts *SetOptions) (*Response, error) {
	form := url.Values{"value": {value}}
	addTTL(form, opts.ttlSeconds())
	cond := opts.condition()
	cond.PrevExist = PrevExist
	return c.do(ctx, "update", failNotFound, http.MethodPut, key, cond.apply(nil), form)
}

// CreateDir creates a directory node guarded by prevExist=false.
func (c *Client) CreateDir(ctx context.Context, key string, ttl time.Duration) (*Response, error) {
	form := url.Values{"dir": {"true"}}
	addTTL(form, ttlSecondsOf(ttl))
	query := Condition{PrevExist: PrevNoExist}.apply(nil)
	return c.do(ctx, "create_dir", failExists, http.MethodPut, key, query, form)
}

// UpdateDir refreshes the TTL of an existing directory. The TTL is required;
// a zero ttl fails with a domain error before any request is issued.
func (c *Client) UpdateDir(ctx context.Context, key string, ttl time.Duration) (*Response, error) {
	secs := ttlSecondsOf(ttl)
	if secs <= 0 {
		err := &Error{
			Type:    ErrorTypeDomain,
			Key:     key,
			Message: "a positive ttl is required to update a directory",
		}
		c.logFailure("update_dir", key, err)
		return nil, err
	}
	form := url.Values{"dir": {"true"}}
	addTTL(form, secs)
	query := Condition{PrevExist: PrevExist}.apply(nil)
	return c.do(ctx, "update_dir", failDomain, http.MethodPut, key, query, form)
}

// Delete removes a leaf node.
func (c *Client) Delete(ctx context.Context, key string) (*Response, error) {
	return c.do(ctx, "delete", failDomain, http.MethodDelete, key, nil, nil)
}

// DeleteDir removes a directory node, recursively when requested.
func (c *Client) DeleteDir(ctx context.Context, key string, recursive bool) (*Response, error) {
	query := url.Values{"dir": {"true"}}
	if recursive {
		query.Set("recursive", "true")
	}
	return c.do(ctx, "delete_dir", failDomain, http.MethodDelete, key, query, nil)
}

// ListDir reads a directory tree. With recursive set the server returns the
// whole subtree in a single response.
func (c *Client) ListDir(ctx context.Context, key string, recursive bool) (*Response, error) {
	var query url.Values
	if recursive {
		query = url.Values{"recursive": {"true"}}
	}
	return c.do(ctx, "list_dir", failNotFound, http.MethodGet, key, query, nil)
}

// CreateInOrder creates a leaf under dir with a server-generated key that
// orders siblings by creation time.
func (c *Client) CreateInOrder(ctx context.Context, dir, value string, opts *SetOptions) (*Response, error) {
	form := url.Values{"value": {value}}
	addTTL(form, opts.ttlSeconds())
	return c.do(ctx, "create_in_order", failDomain, http.MethodPost, dir, opts.condition().apply(nil), form)
}

// CreateDirInOrder creates a directory under dir with a server-generated
// ordered key.
func (c *Client) CreateDirInOrder(ctx context.Context, dir string, ttl time.Duration) (*Response, error) {
	form := url.Values{"dir": {"true"}}
	addTTL(form, ttlSecondsOf(ttl))
	return c.do(ctx, "create_dir_in_order", failDomain, http.MethodPost, dir, nil, form)
}

// Ls lists the directory key paths under key in the server's pre-order, the
// root path "/" excluded.
func (c *Client) Ls(ctx context.Context, key string, recursive bool) ([]string, error) {
	resp, err := c.ListDir(ctx, key, recursive)
	if err != nil {
		return nil, err
	}
	dirs, _ := Flatten(resp.Node)
	return dirs, nil
}

// Values flattens the tree under key into a leaf-path to value mapping.
func (c *Client) Values(ctx context.Context, key string, recursive bool) (map[string]string, error) {
	resp, err := c.ListDir(ctx, key, recursive)
	if err != nil {
		return nil, err
	}
	_, values := Flatten(resp.Node)
	return values, nil
}

// Value flattens the tree under root and returns the value stored at key.
// A key absent from the flattened mapping yields a key-not-found error.
func (c *Client) Value(ctx context.Context, root string, recursive bool, key string) (string, error) {
	values, err := c.Values(ctx, root, recursive)
	if err != nil {
		return "", err
	}
	value, ok := values[key]
	if !ok {
		return "", &Error{
			Type:    ErrorTypeKeyNotFound,
			Key:     key,
			Message: "key not present in flattened values",
		}
	}
	return value, nil
}

// failKind selects which domain error an operation maps error envelopes to.
type failKind int

const (
	failNotFound failKind = iota
	failExists
	failDomain
)

func (k failKind) errorType() ErrorType {
	switch k {
	case failNotFound:
		return ErrorTypeKeyNotFound
	case failExists:
		return ErrorTypeKeyExists
	default:
		return ErrorTypeDomain
	}
}

// do is the shared request helper: build the URI, execute, interpret. Every
// operation funnels through it, so the tolerate-failed-status-but-decode-body
// behaviour is implemented exactly once.
func (c *Client) do(ctx context.Context, op string, kind failKind, method, key string, query, form url.Values) (*Response, error) {
	uri := c.paths.keyURI(key)
	start := time.Now()

	resp, err := c.roundTrip(ctx, kind, method, key, uri, query, form)
	c.metrics.observe(op, time.Since(start), err)
	if err != nil {
		c.logFailure(op, key, err)
		return nil, err
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, kind failKind, method, key, uri string, query, form url.Values) (*Response, error) {
	body, err := c.backend.RoundTrip(ctx, method, uri, query, form)
	if err != nil {
		return nil, err
	}

	var resp Response
	envelope, err := keysapi.DecodeResponse(body, &resp)
	if err != nil {
		return nil, &Error{
			Type:    ErrorTypeMalformedResponse,
			Key:     key,
			Message: "response body is not a valid envelope",
			Cause:   err,
		}
	}
	if envelope != nil {
		return nil, &Error{
			Type:    kind.errorType(),
			Code:    envelope.ErrorCode,
			Key:     key,
			Message: envelope.Message,
		}
	}
	if resp.Node == nil {
		return nil, &Error{
			Type:    ErrorTypeMalformedResponse,
			Key:     key,
			Message: "response envelope is missing its node",
		}
	}
	return &resp, nil
}

func (c *Client) logFailure(op, key string, err error) {
	c.logger.WithError(err).WithFields(logrus.Fields{
		"operation": op,
		"key":       key,
	}).Debug("keyspace operation failed")
}

func addTTL(form url.Values, seconds int64) {
	if seconds > 0 {
		form.Set("ttl", strconv.FormatInt(seconds, 10))
	}
}
