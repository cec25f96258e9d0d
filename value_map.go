package morphon

import (
	"iter"
	"slices"
	"sort"
)

// Map is a string-keyed map that remembers insertion order. Keys are unique;
// setting an existing key replaces its value in place. The zero value is an
// empty map ready to use.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// MapOf builds a map from alternating key/value pairs. It panics on an odd
// argument count or a non-string key and is meant for literals in tests and
// examples.
func MapOf(pairs ...any) *Map {
	if len(pairs)%2 != 0 {
		panic("morphon: MapOf requires key/value pairs")
	}
	m := NewMap()
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic("morphon: MapOf key must be a string")
		}
		value, err := ValueOf(pairs[i+1])
		if err != nil {
			panic(err)
		}
		m.Set(key, value)
	}
	return m
}

// Set stores value under key.
func (m *Map) Set(key string, value Value) *Map {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return m
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	value, ok := m.values[key]
	return value, ok
}

func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key string) bool {
	if m == nil {
		return false
	}
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	if idx := slices.Index(m.keys, key); idx >= 0 {
		m.keys = slices.Delete(m.keys, idx, idx+1)
	}
	return true
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// All iterates entries in insertion order.
func (m *Map) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if m == nil {
			return
		}
		for _, key := range m.keys {
			if !yield(key, m.values[key]) {
				return
			}
		}
	}
}

// Clone returns a deep copy of m.
func (m *Map) Clone() *Map {
	out := NewMap()
	for key, value := range m.All() {
		out.Set(key, value.Clone())
	}
	return out
}

// Equal reports whether both maps hold equal values under the same keys,
// regardless of insertion order.
func (m *Map) Equal(other *Map) bool {
	if m.Len() != other.Len() {
		return false
	}
	for key, value := range m.All() {
		theirs, ok := other.Get(key)
		if !ok || !value.Equal(theirs) {
			return false
		}
	}
	return true
}

// Merge returns a new map holding the entries of base followed by the entries
// of each override in order. Later maps win on key collisions while keeping
// the position of the first occurrence.
func Merge(base *Map, overrides ...*Map) *Map {
	merged := base.Clone()
	for _, override := range overrides {
		for key, value := range override.All() {
			merged.Set(key, value.Clone())
		}
	}
	return merged
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
