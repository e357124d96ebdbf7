package keyspace

import "strings"

// pathBuilder scopes keys under the API version segment and an optional root
// prefix. Pure string transform, no error cases.
type pathBuilder struct {
	version string
	root    string
}

// keyURI produces "/" + version + "/keys" + root + key, prepending a slash to
// the key when missing.
func (p *pathBuilder) keyURI(key string) string {
	if !strings.HasPrefix(key, "/") {
		key = "/" + key
	}
	return "/" + p.version + "/keys" + p.root + key
}

// setRoot stores the prefix applied to every subsequently built URI: leading
// slash ensured, trailing slashes stripped. A bare "/" clears the prefix.
func (p *pathBuilder) setRoot(root string) {
	if root != "" && !strings.HasPrefix(root, "/") {
		root = "/" + root
	}
	p.root = strings.TrimRight(root, "/")
}
