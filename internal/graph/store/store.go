package store

import (
	"strings"

	"ifmap2json/pkg/models"
)

// Store holds the object graph rebuilt from poll records.
type Store struct {
	objects map[string]*models.ObjectRecord
	// byName maps a type and qualified name to the ids carrying it.
	byName map[string]map[string]struct{}
	names  map[string]string
}

// New creates an empty store.
func New() *Store {
	return &Store{
		objects: make(map[string]*models.ObjectRecord),
		byName:  make(map[string]map[string]struct{}),
		names:   make(map[string]string),
	}
}

func nameKey(fqName []string, typ string) string {
	return typ + "\x00" + strings.Join(fqName, "\x00")
}

// Get returns the object with the given id.
func (s *Store) Get(id string) (*models.ObjectRecord, bool) {
	obj, ok := s.objects[id]
	return obj, ok
}

// GetByName finds an object by exact qualified name and type.
func (s *Store) GetByName(fqName []string, typ string) (*models.ObjectRecord, bool) {
	ids := s.byName[nameKey(fqName, typ)]
	if len(ids) == 0 {
		return nil, false
	}
	return s.objects[models.SortedKeys(ids)[0]], true
}

// Put stores obj under its id, replacing any previous entry.
func (s *Store) Put(obj *models.ObjectRecord) {
	s.unindex(obj.ID)
	s.objects[obj.ID] = obj
	key := nameKey(obj.FQName, obj.Type)
	ids, ok := s.byName[key]
	if !ok {
		ids = make(map[string]struct{})
		s.byName[key] = ids
	}
	ids[obj.ID] = struct{}{}
	s.names[obj.ID] = key
}

func (s *Store) unindex(id string) {
	key, ok := s.names[id]
	if !ok {
		return
	}
	delete(s.names, id)
	delete(s.byName[key], id)
	if len(s.byName[key]) == 0 {
		delete(s.byName, key)
	}
}

// Delete removes the object and reports whether it existed.
func (s *Store) Delete(id string) bool {
	if _, ok := s.objects[id]; !ok {
		return false
	}
	s.unindex(id)
	delete(s.objects, id)
	return true
}

// Len returns the number of objects.
func (s *Store) Len() int {
	return len(s.objects)
}

// IDs returns the object ids in ascending order.
func (s *Store) IDs() []string {
	return models.SortedKeys(s.objects)
}

// Objects returns the objects ordered by id.
func (s *Store) Objects() []*models.ObjectRecord {
	ids := s.IDs()
	out := make([]*models.ObjectRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.objects[id])
	}
	return out
}

// Snapshot encodes every object into a detached copy keyed by id.
func (s *Store) Snapshot() (models.DBSnapshot, error) {
	snap := make(models.DBSnapshot, len(s.objects))
	for id, obj := range s.objects {
		wire, err := obj.Wire()
		if err != nil {
			return nil, err
		}
		snap[id] = wire
	}
	return snap, nil
}

// NameIndex lists every object under its type.
func (s *Store) NameIndex() models.NameIndex {
	index := make(models.NameIndex)
	for _, obj := range s.objects {
		byType, ok := index[obj.Type]
		if !ok {
			byType = make(map[string]interface{})
			index[obj.Type] = byType
		}
		byType[obj.NameIndexKey()] = nil
	}
	return index
}
