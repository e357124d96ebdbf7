package keyspace

import (
	"net/url"
	"strconv"
	"time"

	"github.com/kvgrid/keyspace_sdk_go/internal/keysapi"
)

// Node is one entry in the keyspace, leaf (Value) or directory (Nodes).
type Node = keysapi.Node

// Nodes is an ordered sequence of child nodes.
type Nodes = keysapi.Nodes

// Response is the decoded success envelope returned by write and list
// operations.
type Response = keysapi.Response

// PrevExistType restricts a write to keys that do or do not already exist.
type PrevExistType string

const (
	PrevIgnore  PrevExistType = ""
	PrevExist   PrevExistType = "true"
	PrevNoExist PrevExistType = "false"
)

// Condition guards a write; the server evaluates the set fields atomically
// against current node state before mutating. Zero values mean "no guard".
type Condition struct {
	PrevValue string
	PrevIndex uint64
	PrevExist PrevExistType
}

func (c Condition) apply(q url.Values) url.Values {
	if c.PrevValue == "" && c.PrevIndex == 0 && c.PrevExist == PrevIgnore {
		return q
	}
	if q == nil {
		q = url.Values{}
	}
	if c.PrevValue != "" {
		q.Set("prevValue", c.PrevValue)
	}
	if c.PrevIndex != 0 {
		q.Set("prevIndex", strconv.FormatUint(c.PrevIndex, 10))
	}
	if c.PrevExist != PrevIgnore {
		q.Set("prevExist", string(c.PrevExist))
	}
	return q
}

// SetOptions controls write semantics for Set, Update and CreateInOrder.
type SetOptions struct {
	// TTL attaches a server-side expiry to the key. Sub-second durations are
	// rounded up to one second.
	TTL time.Duration

	Condition Condition
}

func (o *SetOptions) ttlSeconds() int64 {
	if o == nil || o.TTL <= 0 {
		return 0
	}
	secs := int64(o.TTL / time.Second)
	if o.TTL%time.Second != 0 || secs == 0 {
		secs++
	}
	return secs
}

func (o *SetOptions) condition() Condition {
	if o == nil {
		return Condition{}
	}
	return o.Condition
}

// GetOptions controls read semantics for GetNode.
type GetOptions struct {
	Recursive bool
	Sorted    bool
	Quorum    bool
}

func (o *GetOptions) query() url.Values {
	if o == nil {
		return nil
	}
	q := url.Values{}
	if o.Recursive {
		q.Set("recursive", "true")
	}
	if o.Sorted {
		q.Set("sorted", "true")
	}
	if o.Quorum {
		q.Set("quorum", "true")
	}
	if len(q) == 0 {
		return nil
	}
	return q
}

func ttlSecondsOf(ttl time.Duration) int64 {
	return (&SetOptions{TTL: ttl}).ttlSeconds()
}
