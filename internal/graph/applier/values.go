package applier

import (
	"strings"

	"ifmap2json/pkg/models"
)

// DefaultListFields are elements that are sequences in the object schema but
// collapse to a single value when the XML carries only one of them.
var DefaultListFields = []string{
	"mac_address",
	"policy_rule",
	"src_addresses",
	"dst_addresses",
	"ipam_subnets",
}

func protocolKey(key string) bool {
	return strings.HasPrefix(key, "xmlns") || strings.HasPrefix(key, "ifmap_")
}

// cleaner strips protocol bookkeeping from metadata values and restores
// single-element sequences.
type cleaner struct {
	listFields map[string]struct{}
}

func newCleaner(fields []string) cleaner {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[strings.ReplaceAll(strings.TrimSpace(f), "-", "_")] = struct{}{}
	}
	return cleaner{listFields: set}
}

func (c cleaner) clean(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			if protocolKey(k) {
				continue
			}
			out[k] = c.wrap(k, c.clean(child))
		}
		if text, ok := out[models.TextKey]; ok && len(out) == 1 {
			return text
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = c.clean(child)
		}
		return out
	default:
		return v
	}
}

// cleanMetadata cleans every metadata element, dropping protocol attributes
// carried on the metadata container itself.
func (c cleaner) cleanMetadata(meta map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		if protocolKey(k) || k == models.TextKey {
			continue
		}
		out[k] = c.wrap(k, c.clean(v))
	}
	return out
}

func (c cleaner) wrap(key string, v interface{}) interface{} {
	if _, ok := c.listFields[key]; !ok || v == nil {
		return v
	}
	if _, isList := v.([]interface{}); isList {
		return v
	}
	return []interface{}{v}
}
