package pipeline

import "ifmap2json/pkg/models"

// EventWriter writes the converted event list of one document.
type EventWriter interface {
	WriteEvents(events []models.Event) error
	Close() error
}
