package metrics

import "github.com/asakaida/monban/internal/services/acl"

var _ acl.Recorder = (*Recorder)(nil)

// Recorder feeds ACL events to the collector and, when set, the exporter.
// It satisfies acl.Recorder.
type Recorder struct {
	collector *Collector
	exporter  *PrometheusExporter
}

// NewRecorder creates a Recorder. exporter may be nil.
func NewRecorder(collector *Collector, exporter *PrometheusExporter) *Recorder {
	return &Recorder{collector: collector, exporter: exporter}
}

// RecordDecision records a resolution outcome
func (r *Recorder) RecordDecision(model, outcome string) {
	r.collector.RecordDecision(model, outcome)
	if r.exporter != nil {
		r.exporter.RecordDecision(model, outcome)
	}
}

// RecordCacheHit records an identity cache hit
func (r *Recorder) RecordCacheHit() {
	if r.exporter != nil {
		r.exporter.RecordCacheHit()
	}
}

// RecordCacheMiss records an identity cache miss
func (r *Recorder) RecordCacheMiss() {
	if r.exporter != nil {
		r.exporter.RecordCacheMiss()
	}
}
