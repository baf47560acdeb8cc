// Package tags provides a small string-to-string tag store with the
// predicate helpers lane inference and splitting lean on heavily:
// Is, IsAny, HasAny. It is backed by a plain map and converts to and from
// github.com/paulmach/osm's Tags type (FromOSM, ToOSM), which is how the
// OSM-facing packages already represent way/node/relation tags.
package tags

import "github.com/paulmach/osm"

// Bag is an immutable-by-convention view over a way or node's tags. Callers
// that need to synthesize tags (e.g. inferred sidewalks) build a new Bag
// rather than mutating one in place, keeping lane inference a pure function.
type Bag struct {
	m map[string]string
}

// New returns an empty Bag.
func New() *Bag {
	return &Bag{m: make(map[string]string)}
}

// FromMap builds a Bag from a plain map, copying it so the caller's map can
// be mutated afterward without affecting the Bag.
func FromMap(m map[string]string) *Bag {
	b := New()
	for k, v := range m {
		b.m[k] = v
	}
	return b
}

// FromOSM builds a Bag from osm.Tags, the form way/node/relation tags
// arrive in from the (external) OSM parser.
func FromOSM(t osm.Tags) *Bag {
	b := New()
	for _, kv := range t {
		b.m[kv.Key] = kv.Value
	}
	return b
}

// ToOSM converts the Bag back to osm.Tags, e.g. for provenance round-trips.
func (b *Bag) ToOSM() osm.Tags {
	out := make(osm.Tags, 0, len(b.m))
	for k, v := range b.m {
		out = append(out, osm.Tag{Key: k, Value: v})
	}
	return out
}

// Get returns the tag's value, or "" if absent.
func (b *Bag) Get(key string) string {
	if b == nil {
		return ""
	}
	return b.m[key]
}

// GetDefault returns the tag's value, or def if absent or empty.
func (b *Bag) GetDefault(key, def string) string {
	if v := b.Get(key); v != "" {
		return v
	}
	return def
}

// Has reports whether key is present (with any value, including "").
func (b *Bag) Has(key string) bool {
	if b == nil {
		return false
	}
	_, ok := b.m[key]
	return ok
}

// Is reports whether key is present with exactly value.
func (b *Bag) Is(key, value string) bool {
	return b.Get(key) == value
}

// IsAny reports whether key's value matches any of values.
func (b *Bag) IsAny(key string, values ...string) bool {
	v := b.Get(key)
	for _, want := range values {
		if v == want {
			return true
		}
	}
	return false
}

// HasAny reports whether any of keys is present.
func (b *Bag) HasAny(keys ...string) bool {
	for _, k := range keys {
		if b.Has(k) {
			return true
		}
	}
	return false
}

// With returns a shallow copy of the Bag with key set to value, leaving the
// receiver untouched. Used to synthesize tags (e.g. inferred sidewalks)
// without mutating the caller's original tag map.
func (b *Bag) With(key, value string) *Bag {
	out := New()
	if b != nil {
		for k, v := range b.m {
			out.m[k] = v
		}
	}
	out.m[key] = value
	return out
}

// Len returns the number of tags in the bag.
func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.m)
}

// Each calls fn for every tag. Iteration order is unspecified.
func (b *Bag) Each(fn func(key, value string)) {
	if b == nil {
		return
	}
	for k, v := range b.m {
		fn(k, v)
	}
}
