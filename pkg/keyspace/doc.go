// Package keyspace provides a client for a hierarchical key-value store
// spoken over the v2-style HTTP keys API (paths map to nodes; nodes are
// either leaf values or directories of child nodes). The public API centres
// around the Client type, which exposes Get/Set/Create/Update/Delete along
// with directory operations, TTL expiry, conditional writes guarded by
// prevExist/prevValue/prevIndex, and recursive tree flattening (Ls/Values).
// Domain failures arrive as 4xx responses whose JSON bodies carry an
// errorCode; the client maps those onto a typed error taxonomy instead of
// surfacing raw transport errors.
package keyspace
