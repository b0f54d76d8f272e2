package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"flightmart/internal/metrics"
)

func readCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write: %v", err)
	}
	return m.GetCounter().GetValue()
}

func readSummaryCountSum(t *testing.T, v *prometheus.SummaryVec, labels ...string) (uint64, float64) {
	t.Helper()

	m := &dto.Metric{}
	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	if !ok {
		t.Fatalf("SummaryVec.WithLabelValues does not implement prometheus.Metric")
	}
	if err := metric.Write(m); err != nil {
		t.Fatalf("Summary.Write: %v", err)
	}
	s := m.GetSummary()
	return s.GetSampleCount(), s.GetSampleSum()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{name: "missing gateway URL returns error", jobName: "mart", wantErr: true},
		{name: "empty job name uses default", gatewayURL: "http://pushgateway:9091", wantJobName: "flightmart"},
		{name: "explicit job name is preserved", jobName: "nightly-load", gatewayURL: "http://pushgateway:9091", wantJobName: "nightly-load"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewBackend error = nil, want non-nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend: %v", err)
			}
			if b.jobName != tt.wantJobName {
				t.Fatalf("jobName = %q, want %q", b.jobName, tt.wantJobName)
			}
			// Label cardinality sanity: these must not panic.
			b.stageCounter.WithLabelValues("load", "success").Add(1)
			b.stageDuration.WithLabelValues("facts", "failure").Observe(0.5)
			b.rowCounter.WithLabelValues("airlines").Add(1)
			b.batchCounter.Add(1)
		})
	}
}

func TestIncCounterRouting(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("mart", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.IncCounter("mart_stage_total", 3, metrics.Labels{"stage": "extract", "status": "success"})
	b.IncCounter("mart_rows_total", 5, metrics.Labels{"kind": "facts"})
	b.IncCounter("mart_batches_total", 2, metrics.Labels{})
	b.IncCounter("unknown_metric", 10, metrics.Labels{"foo": "bar"})

	if got := readCounterValue(t, b.stageCounter.WithLabelValues("extract", "success")); got != 3 {
		t.Errorf("stage counter = %v, want 3", got)
	}
	if got := readCounterValue(t, b.rowCounter.WithLabelValues("facts")); got != 5 {
		t.Errorf("row counter = %v, want 5", got)
	}
	if got := readCounterValue(t, b.batchCounter); got != 2 {
		t.Errorf("batch counter = %v, want 2", got)
	}
}

func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("mart", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.ObserveHistogram("mart_stage_duration_seconds", 1.5, metrics.Labels{"stage": "load", "status": "success"})
	b.ObserveHistogram("other_metric", 2.0, metrics.Labels{"stage": "load", "status": "success"})

	count, sum := readSummaryCountSum(t, b.stageDuration, "load", "success")
	if count != 1 || sum != 1.5 {
		t.Errorf("summary count/sum = %d/%v, want 1/1.5", count, sum)
	}
}

// TestFlush pushes to a fake Pushgateway and checks a request arrives.
func TestFlush(t *testing.T) {
	t.Parallel()

	type pushInfo struct {
		method  string
		path    string
		bodyLen int
	}
	reqCh := make(chan pushInfo, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)
		reqCh <- pushInfo{method: r.Method, path: r.URL.Path, bodyLen: len(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	b, err := NewBackend("nightly-load", server.URL)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter("mart_stage_total", 1, metrics.Labels{"stage": "extract", "status": "success"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	select {
	case got := <-reqCh:
		if got.bodyLen == 0 {
			t.Error("push body is empty")
		}
	default:
		t.Fatal("Flush sent no HTTP request to the gateway")
	}
}
