// Package mock implements an in-memory keyspace with the server-side
// semantics of the v2 keys API: tree structure with implicit parent
// directories, TTL expiry, conditional writes and in-order key generation.
// It speaks the wire envelope of the real store, so it can back a Client
// directly (RoundTrip) or serve the HTTP protocol (Handler) for sandboxing
// and end-to-end tests.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kvgrid/keyspace_sdk_go/internal/devseed"
	"github.com/kvgrid/keyspace_sdk_go/internal/keysapi"
)

type entry struct {
	value         string
	dir           bool
	createdIndex  uint64
	modifiedIndex uint64
	expiresAt     time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Store is an in-memory keyspace. The zero value is not usable; construct
// with New.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	index   uint64
	now     func() time.Time
}

// Option configures the store.
type Option func(*Store)

// WithClock overrides the clock used for TTL bookkeeping (useful in tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.now = fn
		}
	}
}

// New creates an empty store containing only the root directory.
func New(opts ...Option) *Store {
	s := &Store{
		entries: map[string]*entry{"/": {dir: true}},
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) clock() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now()
}

// Seed loads initial entries, typically decoded via devseed.Load. Parent
// directories are created implicitly.
func (s *Store) Seed(entries []devseed.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		key := cleanKey(e.Key)
		if key == "/" {
			return fmt.Errorf("mock keyspace: seed entry targets the root")
		}
		var ttl int64
		if e.TTLSeconds != nil {
			ttl = *e.TTLSeconds
		}
		if _, envelope := s.put(key, e.Value, e.Dir, ttl, writeCondition{}); envelope != nil {
			return fmt.Errorf("mock keyspace: seed %q: %s", e.Key, envelope.Message)
		}
	}
	return nil
}

// RoundTrip implements the keyspace Backend contract: it serves one request
// against the in-memory tree and returns the same JSON envelope bytes the
// HTTP API would produce, error envelopes included.
func (s *Store) RoundTrip(ctx context.Context, method, uri string, query, form url.Values) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, envelope := s.Dispatch(method, uri, query, form)
	if envelope != nil {
		return json.Marshal(envelope)
	}
	return json.Marshal(resp)
}

// Dispatch parses a keys API request ("/{version}/keys{key}") and applies it
// to the store. Parameters are read from the form body first, then the query,
// matching how the HTTP API merges the two.
func (s *Store) Dispatch(method, uri string, query, form url.Values) (*keysapi.Response, *keysapi.ErrorEnvelope) {
	key, ok := parseKeyURI(uri)
	if !ok {
		return nil, &keysapi.ErrorEnvelope{
			ErrorCode: keysapi.CodeInvalidForm,
			Message:   "Invalid path",
			Cause:     uri,
		}
	}

	param := func(name string) string {
		if v := form.Get(name); v != "" {
			return v
		}
		return query.Get(name)
	}
	flag := func(name string) bool {
		return param(name) == "true"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired()

	switch method {
	case "GET":
		return s.get(key, flag("recursive"))
	case "PUT", "POST":
		ttl, envelope := parseTTL(param("ttl"), key)
		if envelope != nil {
			return nil, envelope
		}
		if method == "POST" {
			return s.createInOrder(key, form.Get("value"), flag("dir"), ttl)
		}
		cond, envelope := parseCondition(param, key)
		if envelope != nil {
			return nil, envelope
		}
		return s.put(key, form.Get("value"), flag("dir"), ttl, cond)
	case "DELETE":
		return s.delete(key, flag("dir"), flag("recursive"))
	default:
		return nil, &keysapi.ErrorEnvelope{
			ErrorCode: keysapi.CodeInvalidForm,
			Message:   "Method not allowed",
			Cause:     method,
		}
	}
}

type writeCondition struct {
	prevExist    string // "", "true" or "false"
	prevValue    string
	hasPrevValue bool
	prevIndex    uint64
}

func parseCondition(param func(string) string, key string) (writeCondition, *keysapi.ErrorEnvelope) {
	cond := writeCondition{prevExist: param("prevExist")}
	if v := param("prevValue"); v != "" {
		cond.prevValue = v
		cond.hasPrevValue = true
	}
	if v := param("prevIndex"); v != "" {
		idx, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return cond, &keysapi.ErrorEnvelope{
				ErrorCode: keysapi.CodeInvalidField,
				Message:   "The given index in POST form is not a number",
				Cause:     key,
			}
		}
		cond.prevIndex = idx
	}
	return cond, nil
}

func parseTTL(raw, key string) (int64, *keysapi.ErrorEnvelope) {
	if raw == "" {
		return 0, nil
	}
	ttl, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ttl < 0 {
		return 0, &keysapi.ErrorEnvelope{
			ErrorCode: keysapi.CodeInvalidField,
			Message:   "The given TTL in POST form is not a number",
			Cause:     key,
		}
	}
	return ttl, nil
}

func (s *Store) get(key string, recursive bool) (*keysapi.Response, *keysapi.ErrorEnvelope) {
	ent, ok := s.entries[key]
	if !ok {
		return nil, notFound(key)
	}
	return &keysapi.Response{
		Action: "get",
		Node:   s.buildNode(key, ent, recursive, true),
	}, nil
}

func (s *Store) put(key, value string, dir bool, ttl int64, cond writeCondition) (*keysapi.Response, *keysapi.ErrorEnvelope) {
	if key == "/" {
		return nil, rootReadOnly()
	}
	if envelope := s.ensureParents(key); envelope != nil {
		return nil, envelope
	}

	existing := s.entries[key]
	action := "set"

	switch cond.prevExist {
	case "false":
		if existing != nil {
			return nil, &keysapi.ErrorEnvelope{
				ErrorCode: keysapi.CodeNodeExist,
				Message:   "Key already exists",
				Cause:     key,
			}
		}
		action = "create"
	case "true":
		if existing == nil {
			return nil, notFound(key)
		}
		action = "update"
	}

	if cond.hasPrevValue || cond.prevIndex != 0 {
		if existing == nil {
			return nil, notFound(key)
		}
		if existing.dir {
			return nil, notAFile(key)
		}
		if cond.hasPrevValue && existing.value != cond.prevValue {
			return nil, compareFailed(fmt.Sprintf("[%s != %s]", cond.prevValue, existing.value))
		}
		if cond.prevIndex != 0 && existing.modifiedIndex != cond.prevIndex {
			return nil, compareFailed(fmt.Sprintf("[%d != %d]", cond.prevIndex, existing.modifiedIndex))
		}
		action = "compareAndSwap"
	}

	if existing != nil {
		if existing.dir && !dir {
			return nil, notAFile(key)
		}
		if dir && !existing.dir {
			return nil, notADir(key)
		}
	}

	var prevNode *keysapi.Node
	if existing != nil {
		prevNode = s.buildNode(key, existing, false, false)
	}

	s.index++
	ent := &entry{
		value:         value,
		dir:           dir,
		createdIndex:  s.index,
		modifiedIndex: s.index,
	}
	if dir {
		ent.value = ""
	}
	if existing != nil {
		ent.createdIndex = existing.createdIndex
	}
	if ttl > 0 {
		ent.expiresAt = s.clock().Add(time.Duration(ttl) * time.Second)
	}
	s.entries[key] = ent

	return &keysapi.Response{
		Action:   action,
		Node:     s.buildNode(key, ent, false, false),
		PrevNode: prevNode,
	}, nil
}

func (s *Store) createInOrder(dir string, value string, asDir bool, ttl int64) (*keysapi.Response, *keysapi.ErrorEnvelope) {
	parent := s.entries[dir]
	if parent != nil && !parent.dir {
		return nil, notADir(dir)
	}
	if parent == nil {
		if envelope := s.ensureParents(dir + "/x"); envelope != nil {
			return nil, envelope
		}
	}

	s.index++
	key := dir
	if key == "/" {
		key = ""
	}
	key = fmt.Sprintf("%s/%020d", key, s.index)

	ent := &entry{
		value:         value,
		dir:           asDir,
		createdIndex:  s.index,
		modifiedIndex: s.index,
	}
	if asDir {
		ent.value = ""
	}
	if ttl > 0 {
		ent.expiresAt = s.clock().Add(time.Duration(ttl) * time.Second)
	}
	s.entries[key] = ent

	return &keysapi.Response{
		Action: "create",
		Node:   s.buildNode(key, ent, false, false),
	}, nil
}

func (s *Store) delete(key string, dir, recursive bool) (*keysapi.Response, *keysapi.ErrorEnvelope) {
	if key == "/" {
		return nil, rootReadOnly()
	}
	ent, ok := s.entries[key]
	if !ok {
		return nil, notFound(key)
	}
	if ent.dir {
		if !dir && !recursive {
			return nil, notAFile(key)
		}
		if len(s.childKeys(key)) > 0 && !recursive {
			return nil, &keysapi.ErrorEnvelope{
				ErrorCode: keysapi.CodeDirNotEmpty,
				Message:   "Directory not empty",
				Cause:     key,
			}
		}
	}

	node := s.buildNode(key, ent, false, false)
	prefix := key + "/"
	for k := range s.entries {
		if k == key || strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
	s.index++

	deleted := &keysapi.Node{
		Key:           key,
		Dir:           ent.dir,
		CreatedIndex:  ent.createdIndex,
		ModifiedIndex: s.index,
	}
	return &keysapi.Response{
		Action:   "delete",
		Node:     deleted,
		PrevNode: node,
	}, nil
}

// ensureParents creates every missing ancestor of key as a directory and
// rejects ancestors that exist as leaves.
func (s *Store) ensureParents(key string) *keysapi.ErrorEnvelope {
	parts := strings.Split(strings.TrimPrefix(key, "/"), "/")
	path := ""
	for _, part := range parts[:len(parts)-1] {
		path += "/" + part
		ent, ok := s.entries[path]
		if !ok {
			s.index++
			s.entries[path] = &entry{
				dir:           true,
				createdIndex:  s.index,
				modifiedIndex: s.index,
			}
			continue
		}
		if !ent.dir {
			return notADir(path)
		}
	}
	return nil
}

func (s *Store) childKeys(dir string) []string {
	prefix := dir + "/"
	if dir == "/" {
		prefix = "/"
	}
	var keys []string
	for k := range s.entries {
		if k == "/" || !strings.HasPrefix(k, prefix) {
			continue
		}
		if strings.Contains(k[len(prefix):], "/") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// buildNode renders an entry as a wire node. Directories include one level
// of children, or the whole subtree when recursive is set; withChildren false
// renders the bare node (used for write responses).
func (s *Store) buildNode(key string, ent *entry, recursive, withChildren bool) *keysapi.Node {
	node := &keysapi.Node{
		Key:           key,
		Dir:           ent.dir,
		CreatedIndex:  ent.createdIndex,
		ModifiedIndex: ent.modifiedIndex,
	}
	if key == "/" {
		node.CreatedIndex = 0
		node.ModifiedIndex = 0
	}
	if !ent.dir {
		node.Value = ent.value
	}
	if !ent.expiresAt.IsZero() {
		expires := ent.expiresAt
		node.Expiration = &expires
		remaining := int64(expires.Sub(s.clock()) / time.Second)
		if remaining < 1 {
			remaining = 1
		}
		node.TTL = remaining
	}
	if ent.dir && withChildren {
		for _, childKey := range s.childKeys(key) {
			child := s.entries[childKey]
			node.Nodes = append(node.Nodes, s.buildNode(childKey, child, recursive, recursive))
		}
	}
	return node
}

func (s *Store) purgeExpired() {
	now := s.clock()
	for k, ent := range s.entries {
		if ent.expired(now) {
			prefix := k + "/"
			for other := range s.entries {
				if other == k || strings.HasPrefix(other, prefix) {
					delete(s.entries, other)
				}
			}
		}
	}
}

func cleanKey(key string) string {
	if !strings.HasPrefix(key, "/") {
		key = "/" + key
	}
	if key != "/" {
		key = strings.TrimRight(key, "/")
		if key == "" {
			key = "/"
		}
	}
	return key
}

// parseKeyURI extracts the target key from "/{version}/keys{key}".
func parseKeyURI(uri string) (string, bool) {
	trimmed := strings.TrimPrefix(uri, "/")
	idx := strings.Index(trimmed, "/")
	if idx < 0 {
		return "", false
	}
	rest := trimmed[idx+1:]
	if rest != "keys" && !strings.HasPrefix(rest, "keys/") {
		return "", false
	}
	key := strings.TrimPrefix(rest, "keys")
	if key == "" {
		key = "/"
	}
	return cleanKey(key), true
}

func notFound(key string) *keysapi.ErrorEnvelope {
	return &keysapi.ErrorEnvelope{
		ErrorCode: keysapi.CodeKeyNotFound,
		Message:   "Key not found",
		Cause:     key,
	}
}

func notAFile(key string) *keysapi.ErrorEnvelope {
	return &keysapi.ErrorEnvelope{
		ErrorCode: keysapi.CodeNotFile,
		Message:   "Not a file",
		Cause:     key,
	}
}

func notADir(key string) *keysapi.ErrorEnvelope {
	return &keysapi.ErrorEnvelope{
		ErrorCode: keysapi.CodeNotDir,
		Message:   "Not a directory",
		Cause:     key,
	}
}

func rootReadOnly() *keysapi.ErrorEnvelope {
	return &keysapi.ErrorEnvelope{
		ErrorCode: keysapi.CodeRootReadOnly,
		Message:   "Root is read only",
		Cause:     "/",
	}
}

func compareFailed(cause string) *keysapi.ErrorEnvelope {
	return &keysapi.ErrorEnvelope{
		ErrorCode: keysapi.CodeTestFailed,
		Message:   "Compare failed",
		Cause:     cause,
	}
}
