package contract

import (
	"bytes"
	"encoding/json"
)

// Entry is one key of a canonical result.
type Entry struct {
	Key   string
	Value any
}

// Result is a canonical object. It keeps the schema's declared field order
// when encoded as JSON.
type Result []Entry

// Get returns the value stored under key.
func (r Result) Get(key string) (any, bool) {
	for _, e := range r {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// String returns the string stored under key, or "".
func (r Result) String(key string) string {
	v, _ := r.Get(key)
	s, _ := v.(string)
	return s
}

// Strings returns the string list stored under key, or nil.
func (r Result) Strings(key string) []string {
	v, _ := r.Get(key)
	s, _ := v.([]string)
	return s
}

// Keys returns the keys in canonical order.
func (r Result) Keys() []string {
	keys := make([]string, 0, len(r))
	for _, e := range r {
		keys = append(keys, e.Key)
	}
	return keys
}

// Map converts the result, nested results included, into plain maps.
func (r Result) Map() map[string]any {
	out := make(map[string]any, len(r))
	for _, e := range r {
		if nested, ok := e.Value.(Result); ok {
			out[e.Key] = nested.Map()
			continue
		}
		out[e.Key] = e.Value
	}
	return out
}

// MarshalJSON encodes the entries in order. A nil result encodes as {}.
func (r Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
