package pipeline

import (
	"context"
	"fmt"
	"io"

	"ifmap2json/internal/logger"
	"ifmap2json/pkg/models"
)

// Document is one poll response handed to the pipeline.
type Document struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Sinks opens the writers for one document. A nil GraphWriter skips the
// graph dump.
type Sinks func(doc Document) (EventWriter, GraphWriter, error)

// FilePipeline converts documents in order and writes each result.
type FilePipeline struct {
	docs         []Document
	opts         Options
	sinks        Sinks
	newConverter func(Options) *Converter
}

// NewFilePipeline creates a pipeline over docs. In chain mode one converter
// carries the graph across all documents; otherwise each document starts
// from an empty graph.
func NewFilePipeline(docs []Document, opts Options, sinks Sinks) *FilePipeline {
	return &FilePipeline{
		docs:         docs,
		opts:         opts,
		sinks:        sinks,
		newConverter: NewConverter,
	}
}

// Run converts every document. It stops at the first failure and between
// documents when ctx is done.
func (p *FilePipeline) Run(ctx context.Context) error {
	logger.Infof("Converting %d document(s), chain=%t", len(p.docs), p.opts.Chain)

	var conv *Converter
	for i, doc := range p.docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if conv == nil || !p.opts.Chain {
			conv = p.newConverter(p.opts)
		}

		raw, err := readDocument(doc)
		if err != nil {
			return err
		}
		events, err := conv.Convert(raw)
		if err != nil {
			return fmt.Errorf("convert %s: %w", doc.Name, err)
		}
		if err := p.write(doc, events, conv.Store().Objects()); err != nil {
			return err
		}
		logger.Infof("Document %d/%d %s: %d events, %d objects",
			i+1, len(p.docs), doc.Name, len(events), conv.Store().Len())
	}
	return nil
}

func (p *FilePipeline) write(doc Document, events []models.Event, objects []*models.ObjectRecord) error {
	eventWriter, graphWriter, err := p.sinks(doc)
	if err != nil {
		return fmt.Errorf("open outputs for %s: %w", doc.Name, err)
	}
	defer closeWriters(doc, eventWriter, graphWriter)

	if err := eventWriter.WriteEvents(events); err != nil {
		return fmt.Errorf("write events for %s: %w", doc.Name, err)
	}
	if graphWriter != nil {
		if err := graphWriter.WriteGraph(objects); err != nil {
			return fmt.Errorf("write graph for %s: %w", doc.Name, err)
		}
	}
	return nil
}

func closeWriters(doc Document, eventWriter EventWriter, graphWriter GraphWriter) {
	if graphWriter != nil {
		if err := graphWriter.Close(); err != nil {
			logger.Errorf("Failed to close graph writer for %s: %v", doc.Name, err)
		}
	}
	if err := eventWriter.Close(); err != nil {
		logger.Errorf("Failed to close event writer for %s: %v", doc.Name, err)
	}
}

func readDocument(doc Document) ([]byte, error) {
	r, err := doc.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", doc.Name, err)
	}
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", doc.Name, err)
	}
	return raw, nil
}
