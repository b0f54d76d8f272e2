// Package metrics is a small backend-agnostic layer for recording load-run
// metrics. A global pluggable backend defaults to a no-op, so the pipeline
// can instrument unconditionally; concrete systems (Prometheus Pushgateway,
// Datadog) live in subpackages and are installed at startup.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface a metrics system must provide.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration-style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics, for backends that need it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the current one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStage measures one pipeline stage: latency plus a success/failure
// counter. Stages are "extract", "dimensions", "resolve", "facts", "load".
func RecordStage(run, stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"run":    run,
		"stage":  stage,
		"status": status,
	}
	backend.IncCounter("mart_stage_total", 1, lbls)
	backend.ObserveHistogram("mart_stage_duration_seconds", d.Seconds(), lbls)
}

// RecordRows counts rows by kind for a run. Kinds in use:
//   - "airlines", "airports", "dates", "cancellations" (dimension rows written)
//   - "facts" (fact rows loaded)
//   - "unresolved" (lookups that produced no dimension key)
func RecordRows(run, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("mart_rows_total", float64(delta), Labels{
		"run":  run,
		"kind": kind,
	})
}

// RecordBatches counts committed fact batches for a run.
func RecordBatches(run string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("mart_batches_total", float64(delta), Labels{
		"run": run,
	})
}
