package session

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Set stores v under key. The map must be non-nil.
func (v Values) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	v[key] = raw
	return nil
}

// Get decodes the value under key into dst. It reports false when the key is
// absent.
func (v Values) Get(key string, dst any) (bool, error) {
	raw, ok := v[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// String returns the string stored under key, or "" if it is absent or not a
// string.
func (v Values) String(key string) string {
	var s string
	if ok, err := v.Get(key, &s); !ok || err != nil {
		return ""
	}
	return s
}

func (v Values) Has(key string) bool {
	_, ok := v[key]
	return ok
}

func (v Values) Delete(key string) {
	delete(v, key)
}

func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for k, raw := range v {
		out[k] = slices.Clone(raw)
	}
	return out
}

func (v Values) Keys() []string {
	return slices.Sorted(maps.Keys(v))
}
