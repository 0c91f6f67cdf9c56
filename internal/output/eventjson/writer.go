package eventjson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"ifmap2json/internal/logger"
	"ifmap2json/pkg/models"
)

// DefaultIndent is used when no indent is configured.
const DefaultIndent = "    "

// Writer outputs an event list as one JSON array.
type Writer struct {
	out     io.Writer
	closer  io.Closer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewWriter creates (or truncates) the JSON file at path.
func NewWriter(path, indent string) (*Writer, error) {
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

	logger.Debugf("Event JSON writer initialized: %s", path)
	w := NewStreamWriter(f, indent)
	w.closer = f
	return w, nil
}

// NewStreamWriter writes to out and leaves it open on Close. An empty
// indent produces compact output.
func NewStreamWriter(out io.Writer, indent string) *Writer {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return &Writer{out: out, encoder: enc}
}

// WriteEvents writes the events followed by a newline.
func (w *Writer) WriteEvents(events []models.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if events == nil {
		events = []models.Event{}
	}
	if err := w.encoder.Encode(events); err != nil {
		return fmt.Errorf("failed to encode events: %w", err)
	}
	return nil
}

// Close closes the output file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closer != nil {
		err := w.closer.Close()
		w.closer = nil
		return err
	}
	return nil
}
