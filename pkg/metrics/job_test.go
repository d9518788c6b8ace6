package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestJobMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)

	m.IncSuccess("etl_sync")
	m.IncSuccess("etl_sync")
	m.IncFailure("etl_sync")
	m.AddRows("etl_sync", 42)
	m.ObserveDuration("etl_sync", 150*time.Millisecond)

	if got := testutil.ToFloat64(m.success.WithLabelValues("etl_sync")); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(m.failure.WithLabelValues("etl_sync")); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.rows.WithLabelValues("etl_sync")); got != 42 {
		t.Fatalf("expected 42 rows, got %v", got)
	}
}

func TestJobMetricsNilSafe(t *testing.T) {
	var m *JobMetrics
	m.IncSuccess("etl_sync")
	m.IncFailure("etl_sync")
	m.AddRows("etl_sync", 1)
	m.ObserveDuration("etl_sync", time.Second)

	empty := NewJobMetrics(nil)
	empty.IncSuccess("etl_sync")
}

func TestNormalizeLabel(t *testing.T) {
	if got := normalizeLabel(""); got != "unknown" {
		t.Fatalf("empty job name should normalize to unknown, got %q", got)
	}
	if got := normalizeLabel("etl_sync"); got != "etl_sync" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}
