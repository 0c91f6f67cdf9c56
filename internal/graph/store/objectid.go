package store

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"ifmap2json/pkg/models"
)

// ObjectID derives the object id from the two 64-bit halves carried in
// id_perms: (high << 64) | low in canonical UUID layout.
func ObjectID(high, low uint64) string {
	var u uuid.UUID
	binary.BigEndian.PutUint64(u[:8], high)
	binary.BigEndian.PutUint64(u[8:], low)
	return u.String()
}

// ObjectIDFromMetadata resolves id_perms.uuid.{uuid_mslong,uuid_lslong}.
func ObjectIDFromMetadata(meta map[string]interface{}) (string, bool) {
	if meta == nil {
		return "", false
	}
	high, ok := longAt(meta, "id_perms", "uuid", "uuid_mslong")
	if !ok {
		return "", false
	}
	low, ok := longAt(meta, "id_perms", "uuid", "uuid_lslong")
	if !ok {
		return "", false
	}
	return ObjectID(high, low), true
}

func longAt(meta map[string]interface{}, path ...string) (uint64, bool) {
	v, ok := models.Lookup(meta, path...)
	if !ok {
		return 0, false
	}
	text, ok := models.Text(v)
	if !ok {
		return 0, false
	}
	n, err := ParseLong(text)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseLong parses a decimal 64-bit half. Negative values are taken as
// their two's complement bit pattern.
func ParseLong(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse uuid half %q: %w", s, err)
	}
	return uint64(n), nil
}
