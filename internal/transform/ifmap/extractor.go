package ifmap

import (
	"fmt"
	"sort"
	"strconv"

	"ifmap2json/pkg/models"
)

const pollResultKey = "pollResult"

var resultGroups = []struct {
	key  string
	oper models.Oper
}{
	{"searchResult", models.OperSearch},
	{"updateResult", models.OperUpdate},
	{"deleteResult", models.OperDelete},
	{"notifyResult", models.OperUpdate},
}

// Extract flattens the result groups of a normalized poll response into
// records sorted by their position in the document.
func Extract(doc map[string]interface{}) ([]models.RawRecord, error) {
	poll, ok := findKey(doc, pollResultKey)
	if !ok {
		return nil, ErrNoPollResult
	}

	var records []models.RawRecord
	for _, result := range asMaps(poll) {
		for _, group := range resultGroups {
			for _, container := range asMaps(result[group.key]) {
				for _, item := range asMaps(container["resultItem"]) {
					rec, err := toRecord(item, group.oper)
					if err != nil {
						return nil, err
					}
					records = append(records, rec)
				}
			}
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Seq < records[j].Seq
	})
	return records, nil
}

// Parse runs Normalize and Extract over a raw poll response.
func Parse(raw []byte) ([]models.RawRecord, error) {
	doc, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	return Extract(doc)
}

func toRecord(item map[string]interface{}, oper models.Oper) (models.RawRecord, error) {
	seqText, _ := models.Text(item[SeqKey])
	seq, err := strconv.Atoi(seqText)
	if err != nil {
		return models.RawRecord{}, fmt.Errorf("%w: %q", ErrBadSequence, seqText)
	}

	rec := models.RawRecord{Oper: oper, Seq: seq}
	for _, ident := range asMaps(item["identity"]) {
		name, _ := models.Text(ident["name"])
		typ, _ := models.Text(ident["type"])
		rec.Identities = append(rec.Identities, models.Identity{Name: name, Type: typ})
	}

	for _, meta := range asMaps(item["metadata"]) {
		if rec.Metadata == nil {
			rec.Metadata = make(map[string]interface{}, len(meta))
		}
		for k, v := range meta {
			rec.Metadata[k] = v
		}
	}
	return rec, nil
}

// asMaps normalizes a single map or a sequence of maps into a slice.
func asMaps(v interface{}) []map[string]interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return []map[string]interface{}{val}
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(val))
		for _, item := range val {
			if m, ok := item.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func findKey(v interface{}, key string) (interface{}, bool) {
	switch val := v.(type) {
	case map[string]interface{}:
		if found, ok := val[key]; ok {
			return found, true
		}
		for _, k := range models.SortedKeys(val) {
			if found, ok := findKey(val[k], key); ok {
				return found, true
			}
		}
	case []interface{}:
		for _, item := range val {
			if found, ok := findKey(item, key); ok {
				return found, true
			}
		}
	}
	return nil, false
}
