package rules

import "ifmap2json/pkg/models"

// Filter decides which poll records are left out of the conversion.
type Filter interface {
	// Exclude returns the title of the matching rule and true when rec must be skipped.
	Exclude(rec *models.RawRecord) (string, bool)
}

// NoopFilter keeps every record.
type NoopFilter struct{}

// Exclude never matches.
func (n *NoopFilter) Exclude(rec *models.RawRecord) (string, bool) {
	return "", false
}
