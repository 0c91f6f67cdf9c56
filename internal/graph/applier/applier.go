package applier

import (
	"ifmap2json/internal/graph/store"
	"ifmap2json/internal/logger"
	"ifmap2json/pkg/models"
)

// Applier replays classified records onto the graph store.
type Applier struct {
	store   *store.Store
	cleaner cleaner
	created map[string]bool
}

// New creates an applier over st. listFields names elements that must
// always be sequences; nil selects DefaultListFields.
func New(st *store.Store, listFields []string) *Applier {
	if listFields == nil {
		listFields = DefaultListFields
	}
	return &Applier{
		store:   st,
		cleaner: newCleaner(listFields),
		created: make(map[string]bool),
	}
}

// Apply mutates the store and returns the resulting notification.
func (a *Applier) Apply(rec Classified) (*models.Notification, SkipReason) {
	switch r := rec.(type) {
	case LinkRecord:
		return a.applyLink(r)
	case DeleteRecord:
		return a.applyDelete(r), SkipNone
	case NodeRecord:
		return a.applyNode(r), SkipNone
	default:
		return nil, SkipBadIdentity
	}
}

func (a *Applier) applyLink(r LinkRecord) (*models.Notification, SkipReason) {
	from, ok := a.store.GetByName(r.From.FQName, r.From.Type)
	if !ok {
		logger.Debugf("Link seq=%d: %s %s not found", r.Seq, r.From.Type, models.JoinName(r.From.FQName))
		return nil, SkipUnresolvedLink
	}
	to, ok := a.store.GetByName(r.To.FQName, r.To.Type)
	if !ok {
		logger.Debugf("Link seq=%d: %s %s not found", r.Seq, r.To.Type, models.JoinName(r.To.FQName))
		return nil, SkipUnresolvedLink
	}

	key := models.RefKey(to)
	if r.Oper == models.OperDelete {
		delete(from.Refs, key)
	} else {
		from.Refs[key] = models.RefAttr{Attr: r.Attr}
	}
	a.store.Put(from)

	return &models.Notification{
		Oper:     models.NotifyUpdate,
		Type:     from.Type,
		FQName:   from.FQName,
		ObjectID: from.ID,
	}, SkipNone
}

func (a *Applier) applyDelete(r DeleteRecord) *models.Notification {
	if !a.store.Delete(r.ObjectID) {
		logger.Debugf("Delete seq=%d: %s was not in the store", r.Seq, r.ObjectID)
	}
	delete(a.created, r.ObjectID)
	return &models.Notification{
		Oper:     models.NotifyDelete,
		Type:     r.Endpoint.Type,
		FQName:   r.Endpoint.FQName,
		ObjectID: r.ObjectID,
	}
}

func (a *Applier) applyNode(r NodeRecord) *models.Notification {
	obj, ok := a.store.Get(r.ObjectID)
	if !ok {
		obj = models.NewObjectRecord(r.ObjectID, r.Endpoint.FQName, r.Endpoint.Type)
	} else {
		obj.FQName = append([]string{}, r.Endpoint.FQName...)
		obj.Type = r.Endpoint.Type
	}
	for key, value := range r.Props {
		obj.Props[models.PropPrefix+key] = value
	}
	a.store.Put(obj)

	oper := models.NotifyUpdate
	if !a.created[r.ObjectID] {
		oper = models.NotifyCreate
		a.created[r.ObjectID] = true
	}
	return &models.Notification{
		Oper:     oper,
		Type:     obj.Type,
		FQName:   obj.FQName,
		ObjectID: obj.ID,
	}
}
