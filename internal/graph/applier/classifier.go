package applier

import (
	"ifmap2json/internal/graph/store"
	"ifmap2json/pkg/models"
)

// SkipReason explains why a record produced no mutation.
type SkipReason string

const (
	SkipNone           SkipReason = ""
	SkipBadIdentity    SkipReason = "bad_identity"
	SkipMissingUUID    SkipReason = "missing_uuid"
	SkipUnresolvedLink SkipReason = "unresolved_link"
	SkipExcluded       SkipReason = "excluded"
)

// Endpoint is an object named by an IF-MAP identity.
type Endpoint struct {
	Type   string
	FQName []string
}

// Classified is one of LinkRecord, DeleteRecord or NodeRecord.
type Classified interface {
	Sequence() int
}

// LinkRecord attaches or detaches a reference from From to To.
type LinkRecord struct {
	Seq      int
	Oper     models.Oper
	From     Endpoint
	To       Endpoint
	LinkType string
	Attr     interface{}
}

// DeleteRecord removes an object.
type DeleteRecord struct {
	Seq      int
	Endpoint Endpoint
	ObjectID string
}

// NodeRecord creates an object or merges properties into it.
type NodeRecord struct {
	Seq      int
	Oper     models.Oper
	Endpoint Endpoint
	ObjectID string
	Props    map[string]interface{}
}

func (r LinkRecord) Sequence() int   { return r.Seq }
func (r DeleteRecord) Sequence() int { return r.Seq }
func (r NodeRecord) Sequence() int   { return r.Seq }

// Classify decides how a raw record mutates the graph.
func (a *Applier) Classify(rec *models.RawRecord) (Classified, SkipReason) {
	switch len(rec.Identities) {
	case 1:
	case 2:
		return a.classifyLink(rec)
	default:
		return nil, SkipBadIdentity
	}

	ep, ok := endpointOf(rec.Identities[0])
	if !ok {
		return nil, SkipBadIdentity
	}
	meta := a.cleaner.cleanMetadata(rec.Metadata)
	id, ok := store.ObjectIDFromMetadata(meta)
	if !ok {
		return nil, SkipMissingUUID
	}

	if rec.Oper == models.OperDelete {
		return DeleteRecord{Seq: rec.Seq, Endpoint: ep, ObjectID: id}, SkipNone
	}
	return NodeRecord{Seq: rec.Seq, Oper: rec.Oper, Endpoint: ep, ObjectID: id, Props: meta}, SkipNone
}

func (a *Applier) classifyLink(rec *models.RawRecord) (Classified, SkipReason) {
	from, ok := endpointOf(rec.Identities[0])
	if !ok {
		return nil, SkipBadIdentity
	}
	to, ok := endpointOf(rec.Identities[1])
	if !ok {
		return nil, SkipBadIdentity
	}

	link := LinkRecord{Seq: rec.Seq, Oper: rec.Oper, From: from, To: to}
	meta := a.cleaner.cleanMetadata(rec.Metadata)
	if names := models.SortedKeys(meta); len(names) > 0 {
		link.LinkType = names[0]
		attr := meta[names[0]]
		if list, ok := attr.([]interface{}); ok {
			attr = nil
			if len(list) > 0 {
				attr = list[0]
			}
		}
		link.Attr = attr
	}
	return link, SkipNone
}

func endpointOf(ident models.Identity) (Endpoint, bool) {
	typ, fqName, ok := models.ParseIdentityName(ident.Name)
	if !ok {
		return Endpoint{}, false
	}
	return Endpoint{Type: typ, FQName: fqName}, true
}
