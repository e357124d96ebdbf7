package keysapi

import "time"

// Node is one entry in the keyspace: a leaf carrying a value or a directory
// carrying child nodes. A node is never both.
type Node struct {
	Key           string     `json:"key"`
	Value         string     `json:"value,omitempty"`
	Dir           bool       `json:"dir,omitempty"`
	TTL           int64      `json:"ttl,omitempty"`
	Expiration    *time.Time `json:"expiration,omitempty"`
	CreatedIndex  uint64     `json:"createdIndex,omitempty"`
	ModifiedIndex uint64     `json:"modifiedIndex,omitempty"`
	Nodes         Nodes      `json:"nodes,omitempty"`
}

// Nodes preserves the server's child ordering.
type Nodes []*Node

// Response is the success envelope returned by every keys API operation.
type Response struct {
	Action   string `json:"action"`
	Node     *Node  `json:"node"`
	PrevNode *Node  `json:"prevNode,omitempty"`
}
