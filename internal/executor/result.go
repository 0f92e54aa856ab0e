package executor

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/alexchamberlain/tartiflette/internal/gqlerrors"
)

// ExecutionResult represents the result of executing a GraphQL query
type ExecutionResult struct {
	Data   any                `json:"data"`
	Errors []*gqlerrors.Error `json:"errors,omitempty"`
}

// OrderedMap is a response object. Keys keep the order in which fields were
// collected, independently of the order in which they completed.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

func newOrderedMap(size int) *OrderedMap {
	return &OrderedMap{keys: make([]string, 0, size), values: make(map[string]any, size)}
}

// Set adds or replaces key. A new key is appended.
func (m *OrderedMap) Set(key string, value any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value of key.
func (m *OrderedMap) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *OrderedMap) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

// Len returns the number of keys.
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// MarshalJSON encodes the map as an object keyed in insertion order.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
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
		val, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// errorCollector gathers the errors of one request. Sibling fields append
// concurrently; the order of the collected errors is unspecified.
type errorCollector struct {
	mu   sync.Mutex
	errs []*gqlerrors.Error
}

func (c *errorCollector) add(errs ...*gqlerrors.Error) {
	if len(errs) == 0 {
		return
	}
	c.mu.Lock()
	c.errs = append(c.errs, errs...)
	c.mu.Unlock()
}

func (c *errorCollector) list() []*gqlerrors.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.errs) == 0 {
		return nil
	}
	return append([]*gqlerrors.Error(nil), c.errs...)
}
