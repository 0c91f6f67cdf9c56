package pipeline

import "ifmap2json/pkg/models"

// GraphWriter writes the object graph left after one document.
type GraphWriter interface {
	WriteGraph(objects []*models.ObjectRecord) error
	Close() error
}
