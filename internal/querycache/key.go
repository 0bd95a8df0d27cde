package querycache

import (
	"net/url"
	"slices"
	"strings"
)

// Kind names an entity kind. Policies are looked up by Kind.
type Kind string

// Key identifies one cache entry: an entity kind plus the parameters that
// discriminate it. Two keys are the same entry when their String forms match.
type Key struct {
	Kind   Kind     `json:"kind"`
	Params []string `json:"params,omitempty"`
}

// NewKey builds a Key.
func NewKey(kind Kind, params ...string) Key {
	return Key{Kind: kind, Params: params}
}

func (k Key) String() string {
	var b strings.Builder
	b.WriteString(url.PathEscape(string(k.Kind)))
	for _, p := range k.Params {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

// HasPrefix reports whether k has the given kind and starts with params.
func (k Key) HasPrefix(kind Kind, params ...string) bool {
	if k.Kind != kind || len(params) > len(k.Params) {
		return false
	}
	return slices.Equal(k.Params[:len(params)], params)
}

// Predicate selects cache entries by key.
type Predicate func(Key) bool

// Match selects every key of kind whose leading params equal params.
func Match(kind Kind, params ...string) Predicate {
	return func(k Key) bool { return k.HasPrefix(kind, params...) }
}

// All selects every entry.
func All(Key) bool { return true }
