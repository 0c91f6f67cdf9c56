package models

import "strings"

// Oper is the poll result group a record was reported in.
type Oper string

const (
	OperSearch Oper = "search"
	OperUpdate Oper = "update"
	OperDelete Oper = "delete"
)

const identityPrefix = "contrail:"

// Identity is one IF-MAP identifier of a result item.
type Identity struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// RawRecord is a single poll result item in protocol order.
type RawRecord struct {
	Oper       Oper                   `json:"oper"`
	Seq        int                    `json:"seq"`
	Identities []Identity             `json:"identities"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// IsLink reports whether the record names two identifiers.
func (r *RawRecord) IsLink() bool {
	return r != nil && len(r.Identities) == 2
}

// MetadataNames returns the metadata element names of the record.
func (r *RawRecord) MetadataNames() []string {
	if r == nil || len(r.Metadata) == 0 {
		return nil
	}
	return SortedKeys(r.Metadata)
}

// ParseIdentityName splits "contrail:<type>:<name>" into the object type
// (dashes mapped to underscores) and its qualified name components.
func ParseIdentityName(name string) (string, []string, bool) {
	if !strings.HasPrefix(name, identityPrefix) {
		return "", nil, false
	}
	rest := strings.TrimPrefix(name, identityPrefix)
	idx := strings.Index(rest, ":")
	if idx <= 0 || idx == len(rest)-1 {
		return "", nil, false
	}
	typ := strings.ReplaceAll(rest[:idx], "-", "_")
	return typ, strings.Split(rest[idx+1:], ":"), true
}

// JoinName joins qualified name components the way IF-MAP identifiers do.
func JoinName(fqName []string) string {
	return strings.Join(fqName, ":")
}
