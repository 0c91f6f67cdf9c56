package pipeline

import (
	"fmt"

	"ifmap2json/internal/graph/applier"
	"ifmap2json/internal/graph/store"
	"ifmap2json/internal/logger"
	"ifmap2json/internal/metrics"
	"ifmap2json/internal/rules"
	"ifmap2json/internal/transform/ifmap"
	"ifmap2json/pkg/models"
)

// Options configures a Converter.
type Options struct {
	// Chain keeps the notifications of every document after the first.
	Chain bool
	// ListFields overrides applier.DefaultListFields when non-nil.
	ListFields []string
	Filter     rules.Filter
	Metrics    *metrics.Recorder
}

// Converter owns the graph store and event stream of one run.
type Converter struct {
	store   *store.Store
	applier *applier.Applier
	emitter *Emitter
	filter  rules.Filter
	metrics *metrics.Recorder
}

// NewConverter creates a converter with an empty graph.
func NewConverter(opts Options) *Converter {
	st := store.New()
	filter := opts.Filter
	if filter == nil {
		filter = &rules.NoopFilter{}
	}
	return &Converter{
		store:   st,
		applier: applier.New(st, opts.ListFields),
		emitter: NewEmitter(opts.Chain),
		filter:  filter,
		metrics: opts.Metrics,
	}
}

// Convert applies one poll response and returns the event list so far.
// A malformed document leaves the converter untouched.
func (c *Converter) Convert(raw []byte) ([]models.Event, error) {
	records, err := ifmap.Parse(raw)
	if err != nil {
		return nil, err
	}

	for i := range records {
		if err := c.process(&records[i]); err != nil {
			return nil, err
		}
	}

	events, err := c.emitter.FinishDocument(c.store)
	if err != nil {
		return nil, err
	}
	c.metrics.Document(c.store.Len())
	logger.Debugf("Document %d: %d records, %d objects, %d events",
		c.emitter.Documents(), len(records), c.store.Len(), len(events))
	return events, nil
}

func (c *Converter) process(rec *models.RawRecord) error {
	c.metrics.Record(string(rec.Oper))

	if title, ok := c.filter.Exclude(rec); ok {
		logger.Debugf("Record seq=%d excluded by rule %q", rec.Seq, title)
		c.skip(applier.SkipExcluded)
		return nil
	}

	classified, reason := c.applier.Classify(rec)
	if reason != applier.SkipNone {
		logger.Debugf("Record seq=%d skipped: %s", rec.Seq, reason)
		c.skip(reason)
		return nil
	}

	note, reason := c.applier.Apply(classified)
	if reason != applier.SkipNone {
		c.skip(reason)
		return nil
	}

	var db models.DBSnapshot
	if c.emitter.Keeps() {
		snap, err := c.store.Snapshot()
		if err != nil {
			return fmt.Errorf("snapshot after seq=%d: %w", rec.Seq, err)
		}
		db = snap
	}
	c.emitter.Notify(*note, db)
	c.metrics.Notify(string(note.Oper))
	return nil
}

func (c *Converter) skip(reason applier.SkipReason) {
	c.metrics.Skip(string(reason))
}

// Store exposes the graph built so far.
func (c *Converter) Store() *store.Store {
	return c.store
}

// Notifications returns every notification emitted so far. Notifications
// collapsed into a db_sync carry no snapshot.
func (c *Converter) Notifications() []models.Event {
	return c.emitter.Notifications()
}
