package models

import (
	"encoding/json"
	"fmt"
)

const (
	PropPrefix = "prop:"
	RefPrefix  = "ref:"
)

// Encoded is JSON text that travels as a string value: the configuration
// database stores every column pre-serialized, and fixtures mirror that.
type Encoded string

// Encode serializes v once into its JSON text.
func Encode(v interface{}) (Encoded, error) {
	b, err := marshal(v)
	if err != nil {
		return "", err
	}
	return Encoded(b), nil
}

// MarshalJSON writes the JSON text as a JSON string.
func (e Encoded) MarshalJSON() ([]byte, error) {
	return marshal(string(e))
}

// UnmarshalJSON reads a JSON string holding JSON text.
func (e *Encoded) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*e = Encoded(s)
	return nil
}

// Decode unmarshals the JSON text into v.
func (e Encoded) Decode(v interface{}) error {
	return json.Unmarshal([]byte(e), v)
}

// RefAttr is the value stored under a "ref:" key.
type RefAttr struct {
	Attr interface{} `json:"attr"`
}

// ObjectRecord is the graph store state of one configuration object.
type ObjectRecord struct {
	ID     string
	FQName []string
	Type   string
	Props  map[string]interface{}
	Refs   map[string]RefAttr
}

// NewObjectRecord creates an empty object.
func NewObjectRecord(id string, fqName []string, typ string) *ObjectRecord {
	return &ObjectRecord{
		ID:     id,
		FQName: append([]string{}, fqName...),
		Type:   typ,
		Props:  make(map[string]interface{}),
		Refs:   make(map[string]RefAttr),
	}
}

// RefKey builds the "ref:<type>:<id>" key pointing at target.
func RefKey(target *ObjectRecord) string {
	return RefPrefix + target.Type + ":" + target.ID
}

// WireObject is the column map of one object with every value pre-encoded.
type WireObject map[string]Encoded

// DBSnapshot maps object ids to their column maps.
type DBSnapshot map[string]WireObject

// NameIndex maps type to "<fq_name>:<id>" to null.
type NameIndex map[string]map[string]interface{}

// Wire encodes the object into its column map; the id is not part of it.
func (o *ObjectRecord) Wire() (WireObject, error) {
	out := make(WireObject, len(o.Props)+len(o.Refs)+2)
	fqName := o.FQName
	if fqName == nil {
		fqName = []string{}
	}
	var err error
	if out["fq_name"], err = Encode(fqName); err != nil {
		return nil, fmt.Errorf("encode fq_name of %s: %w", o.ID, err)
	}
	if out["type"], err = Encode(o.Type); err != nil {
		return nil, fmt.Errorf("encode type of %s: %w", o.ID, err)
	}
	for key, value := range o.Props {
		if out[key], err = Encode(value); err != nil {
			return nil, fmt.Errorf("encode %s of %s: %w", key, o.ID, err)
		}
	}
	for key, ref := range o.Refs {
		if out[key], err = Encode(ref); err != nil {
			return nil, fmt.Errorf("encode %s of %s: %w", key, o.ID, err)
		}
	}
	return out, nil
}

// NameIndexKey is the column name of the object in the name index.
func (o *ObjectRecord) NameIndexKey() string {
	return JoinName(o.FQName) + ":" + o.ID
}
