package pipeline

import (
	"fmt"

	"ifmap2json/internal/graph/store"
	"ifmap2json/pkg/models"
)

// Emitter turns notifications into the ordered fixture event list.
type Emitter struct {
	chain   bool
	counter int
	docs    int

	events   []models.Event
	pending  []models.Event
	recorded []models.Event
}

// NewEmitter creates an emitter. In chain mode every document after the
// first keeps its notifications behind a pause marker.
func NewEmitter(chain bool) *Emitter {
	return &Emitter{chain: chain, counter: 1}
}

// Keeps reports whether notifications of the current document reach the
// output. Only those need a per-notification snapshot.
func (e *Emitter) Keeps() bool {
	return e.chain && e.docs > 0
}

// Notify records one notification together with the graph state at this
// point. db is nil for notifications collapsed into a db_sync.
func (e *Emitter) Notify(note models.Notification, db models.DBSnapshot) models.Event {
	ev := models.EnqueueEvent(models.NewMessage(e.counter, note), db)
	e.counter++
	e.recorded = append(e.recorded, ev)
	e.pending = append(e.pending, ev)
	return ev
}

// FinishDocument closes the current document and returns the event list
// accumulated so far.
func (e *Emitter) FinishDocument(st *store.Store) ([]models.Event, error) {
	defer func() {
		e.docs++
		e.pending = nil
	}()

	if !e.chain || e.docs == 0 {
		db, err := st.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("snapshot store: %w", err)
		}
		sync := models.DBSyncEvent(st.NameIndex(), db)
		if !e.chain {
			return []models.Event{sync}, nil
		}
		e.events = []models.Event{sync}
	} else {
		e.events = append(e.events, models.PauseEvent())
		e.events = append(e.events, e.pending...)
	}

	out := make([]models.Event, len(e.events))
	copy(out, e.events)
	return out, nil
}

// Notifications returns every notification recorded so far, including the
// ones collapsed into a db_sync.
func (e *Emitter) Notifications() []models.Event {
	out := make([]models.Event, len(e.recorded))
	copy(out, e.recorded)
	return out
}

// Documents returns the number of finished documents.
func (e *Emitter) Documents() int {
	return e.docs
}
