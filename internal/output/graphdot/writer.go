package graphdot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"ifmap2json/internal/logger"
	"ifmap2json/pkg/models"
)

// Writer renders the object graph as a DOT file.
type Writer struct {
	path string
	file *os.File
	ctx  context.Context
}

// NewWriter creates (or truncates) the DOT file at path.
func NewWriter(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	return &Writer{path: path, file: f, ctx: context.Background()}, nil
}

// WriteGraph renders one node per object and one edge per reference.
func (w *Writer) WriteGraph(objects []*models.ObjectRecord) error {
	out, err := Render(w.ctx, objects)
	if err != nil {
		return err
	}
	if _, err := w.file.Write(out); err != nil {
		return fmt.Errorf("failed to write graph: %w", err)
	}
	logger.Debugf("Graph written: %s (%d objects)", w.path, len(objects))
	return nil
}

// Close closes the output file.
func (w *Writer) Close() error {
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}

// Render lays out objects and returns the DOT source.
func Render(ctx context.Context, objects []*models.ObjectRecord) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() {
		if err := gv.Close(); err != nil {
			logger.Warnf("Error closing graphviz: %v", err)
		}
	}()

	graph, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() {
		if err := graph.Close(); err != nil {
			logger.Warnf("Error closing graph: %v", err)
		}
	}()
	graph.SetRankDir(cgraph.LRRank)

	nodes := make(map[string]*cgraph.Node, len(objects))
	for _, obj := range objects {
		node, err := graph.CreateNodeByName(obj.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create node %s: %w", obj.ID, err)
		}
		node.SetLabel(fmt.Sprintf("%s\n%s", obj.Type, models.JoinName(obj.FQName)))
		node.SetShape("box")
		nodes[obj.ID] = node
	}

	for _, obj := range objects {
		for _, key := range models.SortedKeys(obj.Refs) {
			refType, targetID, ok := splitRefKey(key)
			if !ok {
				continue
			}
			target, ok := nodes[targetID]
			if !ok {
				continue
			}
			edge, err := graph.CreateEdgeByName(key, nodes[obj.ID], target)
			if err != nil {
				return nil, fmt.Errorf("failed to create edge %s: %w", key, err)
			}
			edge.SetLabel(refType)
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, dotFormat, &buf); err != nil {
		return nil, fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.Bytes(), nil
}

// dotFormat selects the plain layout-annotated DOT output.
const dotFormat = graphviz.Format("dot")

func splitRefKey(key string) (string, string, bool) {
	rest, ok := strings.CutPrefix(key, models.RefPrefix)
	if !ok {
		return "", "", false
	}
	refType, targetID, ok := strings.Cut(rest, ":")
	if !ok || refType == "" || targetID == "" {
		return "", "", false
	}
	return refType, targetID, true
}
