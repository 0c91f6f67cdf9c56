package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects the statistics of one conversion run in its own registry.
// A nil Recorder discards everything.
type Recorder struct {
	registry      *prometheus.Registry
	records       *prometheus.CounterVec
	skipped       *prometheus.CounterVec
	notifications *prometheus.CounterVec
	documents     prometheus.Counter
	objects       prometheus.Gauge
}

// NewRecorder creates a recorder with a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ifmap2json_records_total",
			Help: "Poll result items read, by group.",
		}, []string{"oper"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ifmap2json_records_skipped_total",
			Help: "Poll result items that did not change the graph, by reason.",
		}, []string{"reason"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ifmap2json_notifications_total",
			Help: "Object notifications produced, by kind.",
		}, []string{"oper"}),
		documents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ifmap2json_documents_total",
			Help: "Poll response documents converted.",
		}),
		objects: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ifmap2json_objects",
			Help: "Objects in the graph after the last document.",
		}),
	}
	r.registry.MustRegister(r.records, r.skipped, r.notifications, r.documents, r.objects)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Record counts one raw record by its group operation.
func (r *Recorder) Record(oper string) {
	if r != nil {
		r.records.WithLabelValues(oper).Inc()
	}
}

// Skip counts one record that produced no mutation.
func (r *Recorder) Skip(reason string) {
	if r != nil {
		r.skipped.WithLabelValues(reason).Inc()
	}
}

// Notify counts one emitted notification by its operation.
func (r *Recorder) Notify(oper string) {
	if r != nil {
		r.notifications.WithLabelValues(oper).Inc()
	}
}

// Document counts a finished document and the graph size after it.
func (r *Recorder) Document(objects int) {
	if r != nil {
		r.documents.Inc()
		r.objects.Set(float64(objects))
	}
}

// WriteTextfile writes the registry in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}

// Summary renders every sample on one line, e.g. for a closing log message.
func (r *Recorder) Summary() (string, error) {
	if r == nil {
		return "", nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return "", fmt.Errorf("gather metrics: %w", err)
	}

	var parts []string
	for _, family := range families {
		name := strings.TrimPrefix(family.GetName(), "ifmap2json_")
		for _, m := range family.GetMetric() {
			label := name
			for _, pair := range m.GetLabel() {
				label += "{" + pair.GetValue() + "}"
			}
			value := m.GetCounter().GetValue()
			if m.GetGauge() != nil {
				value = m.GetGauge().GetValue()
			}
			parts = append(parts, fmt.Sprintf("%s=%g", label, value))
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, " "), nil
}
