package types

import (
	"bytes"
	"encoding/json"
	"iter"
	"slices"
)

// TagMap is an insertion-ordered mapping from tag name to Value.
//
// Keys are unique; setting an existing key replaces the value in place
// without changing its position. Iteration order is the insertion order,
// which keeps repeated reads of the same file deterministic and makes
// JSON export stable.
//
// A TagMap is owned by exactly one Image and is not safe for concurrent
// mutation.
type TagMap struct {
	keys []string
	vals map[string]Value
}

// NewTagMap returns an empty tag map.
func NewTagMap() *TagMap {
	return &TagMap{vals: make(map[string]Value)}
}

// Len returns the number of tags.
func (m *TagMap) Len() int { return len(m.keys) }

// Has reports whether a tag with the given name exists.
func (m *TagMap) Has(name string) bool {
	_, ok := m.vals[name]
	return ok
}

// Get returns the value for name. The second result is false when the
// tag is absent.
func (m *TagMap) Get(name string) (Value, bool) {
	v, ok := m.vals[name]
	return v, ok
}

// Set stores a value under name, appending the key if it is new.
func (m *TagMap) Set(name string, v Value) {
	if m.vals == nil {
		m.vals = make(map[string]Value)
	}
	if _, exists := m.vals[name]; !exists {
		m.keys = append(m.keys, name)
	}
	m.vals[name] = v
}

// Delete removes a tag. Returns false when the tag was absent.
func (m *TagMap) Delete(name string) bool {
	if _, ok := m.vals[name]; !ok {
		return false
	}
	delete(m.vals, name)
	if i := slices.Index(m.keys, name); i >= 0 {
		m.keys = slices.Delete(m.keys, i, i+1)
	}
	return true
}

// Clear removes every tag.
func (m *TagMap) Clear() {
	m.keys = m.keys[:0]
	m.vals = make(map[string]Value)
}

// Keys returns the tag names in insertion order.
func (m *TagMap) Keys() []string {
	return slices.Clone(m.keys)
}

// All returns an iterator over (name, value) pairs in insertion order.
//
// The iterator is restartable: ranging over it a second time yields the
// same sequence.
func (m *TagMap) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, k := range m.keys {
			if !yield(k, m.vals[k]) {
				return
			}
		}
	}
}

// Clone returns a deep copy of the map.
func (m *TagMap) Clone() *TagMap {
	c := &TagMap{
		keys: slices.Clone(m.keys),
		vals: make(map[string]Value, len(m.vals)),
	}
	for k, v := range m.vals {
		c.vals[k] = v
	}
	return c
}

// Equal reports whether two maps hold the same tags with the same values
// in the same order.
func (m *TagMap) Equal(other *TagMap) bool {
	if m == nil || other == nil {
		return m == other
	}
	if !slices.Equal(m.keys, other.keys) {
		return false
	}
	for _, k := range m.keys {
		if !m.vals[k].Equal(other.vals[k]) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the map as a JSON object in insertion order. Byte
// sequences render as "<N bytes>" markers and rationals as "num/den"
// strings so the output is always valid text.
func (m *TagMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.vals[k].exportValue())
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
