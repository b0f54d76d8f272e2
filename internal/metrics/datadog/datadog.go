// Package datadog adapts metrics.Backend to DogStatsD via the official
// statsd client. Each load-run metric maps to a namespaced DogStatsD metric
// with its labels rendered as tags; names the pipeline never emits are
// dropped. Flush closes the client so buffered data drains at shutdown.
package datadog

import (
	"fmt"

	"github.com/DataDog/datadog-go/v5/statsd"

	"flightmart/internal/metrics"
)

// Config holds DogStatsD connection settings.
type Config struct {
	// Addr is the agent address, e.g. "127.0.0.1:8125" or "unix:///path/to/socket".
	Addr string

	// Namespace is an optional prefix for all metric names, e.g. "flightmart.".
	Namespace string

	// GlobalTags apply to every metric, e.g. []string{"env:prod", "service:flightmart"}.
	GlobalTags []string
}

// statsdClient is the slice of *statsd.Client the backend uses.
type statsdClient interface {
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
	Close() error
}

// Backend is a DogStatsD implementation of metrics.Backend.
type Backend struct {
	client statsdClient
}

// NewBackend connects a statsd client. Addr is required.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("datadog: Addr is required")
	}
	var opts []statsd.Option
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}
	c, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}
	return &Backend{client: c}, nil
}

// IncCounter routes the pipeline's counters to Count metrics; fractional
// deltas are truncated.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	switch name {
	case "mart_stage_total":
		b.client.Count(name, int64(delta), stageTags(labels), 1)
	case "mart_rows_total":
		b.client.Count(name, int64(delta), []string{"run:" + labels["run"], "kind:" + labels["kind"]}, 1)
	case "mart_batches_total":
		b.client.Count(name, int64(delta), []string{"run:" + labels["run"]}, 1)
	}
}

// ObserveHistogram routes the stage-duration observation to a Histogram.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if b.client == nil || name != "mart_stage_duration_seconds" {
		return
	}
	b.client.Histogram(name, value, stageTags(labels), 1)
}

// Flush closes the client, draining anything buffered.
func (b *Backend) Flush() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

func stageTags(lbls metrics.Labels) []string {
	return []string{"run:" + lbls["run"], "stage:" + lbls["stage"], "status:" + lbls["status"]}
}
