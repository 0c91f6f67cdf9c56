package models

import (
	"fmt"
)

// Operation names the kind of fixture event.
type Operation string

const (
	OperationDBSync  Operation = "db_sync"
	OperationEnqueue Operation = "rabbit_enqueue"
	OperationPause   Operation = "pause"
)

// NotifyOper is the change kind carried by a notification.
type NotifyOper string

const (
	NotifyCreate NotifyOper = "CREATE"
	NotifyUpdate NotifyOper = "UPDATE"
	NotifyDelete NotifyOper = "DELETE"
)

// Notification describes one object change produced by the applier.
type Notification struct {
	Oper     NotifyOper
	Type     string
	FQName   []string
	ObjectID string
}

// Message is the queue payload of a rabbit_enqueue event.
// Fields are declared in key order so the encoded text is sorted.
type Message struct {
	FQName []string   `json:"fq_name"`
	ID     string     `json:"id"`
	IMID   string     `json:"imid"`
	Oper   NotifyOper `json:"oper"`
	Type   string     `json:"type"`
}

// NewMessage builds the payload for the n-th notification.
func NewMessage(n int, note Notification) *Message {
	fqName := note.FQName
	if fqName == nil {
		fqName = []string{}
	}
	return &Message{
		Oper:   note.Oper,
		FQName: append([]string{}, fqName...),
		Type:   note.Type,
		ID:     fmt.Sprintf("%d:%s", n, note.ObjectID),
		IMID:   identityPrefix + note.Type + ":" + JoinName(fqName),
	}
}

// Event is one entry of the fixture event list.
type Event struct {
	Operation Operation
	NameIndex NameIndex
	Message   *Message
	DB        DBSnapshot
}

// DBSyncEvent builds a full-sync event.
func DBSyncEvent(index NameIndex, db DBSnapshot) Event {
	return Event{Operation: OperationDBSync, NameIndex: index, DB: db}
}

// EnqueueEvent builds a per-object notification event.
func EnqueueEvent(msg *Message, db DBSnapshot) Event {
	return Event{Operation: OperationEnqueue, Message: msg, DB: db}
}

// PauseEvent builds the marker placed between chained documents.
func PauseEvent() Event {
	return Event{Operation: OperationPause}
}

// MarshalJSON writes the shape matching the event operation.
func (e Event) MarshalJSON() ([]byte, error) {
	db := e.DB
	if db == nil {
		db = DBSnapshot{}
	}
	switch e.Operation {
	case OperationDBSync:
		index := e.NameIndex
		if index == nil {
			index = NameIndex{}
		}
		return marshal(struct {
			DB        DBSnapshot `json:"db"`
			NameIndex NameIndex  `json:"name_index"`
			Operation Operation  `json:"operation"`
		}{db, index, e.Operation})
	case OperationEnqueue:
		if e.Message == nil {
			return nil, fmt.Errorf("rabbit_enqueue event without message")
		}
		msg, err := Encode(e.Message)
		if err != nil {
			return nil, fmt.Errorf("encode message: %w", err)
		}
		return marshal(struct {
			DB        DBSnapshot `json:"db"`
			Message   Encoded    `json:"message"`
			Operation Operation  `json:"operation"`
		}{db, msg, e.Operation})
	default:
		return marshal(struct {
			Operation Operation `json:"operation"`
		}{e.Operation})
	}
}
