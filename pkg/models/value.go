package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// TextKey holds element text when the element also carries attributes or children.
const TextKey = "#text"

// Lookup walks nested maps along path. A sequence met on the way resolves
// to its first element.
func Lookup(root map[string]interface{}, path ...string) (interface{}, bool) {
	var current interface{} = root
	for _, part := range path {
		if list, ok := current.([]interface{}); ok {
			if len(list) == 0 {
				return nil, false
			}
			current = list[0]
		}
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, ok := m[part]
		if !ok {
			return nil, false
		}
		current = v
	}
	return current, true
}

// Text returns the scalar text of a normalized XML value.
func Text(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), true
	case map[string]interface{}:
		if t, ok := val[TextKey]; ok {
			return Text(t)
		}
	case []interface{}:
		if len(val) > 0 {
			return Text(val[0])
		}
	case fmt.Stringer:
		return val.String(), true
	}
	return "", false
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// marshal encodes v without HTML escaping so fixtures keep '<', '>' and '&' literal.
func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
