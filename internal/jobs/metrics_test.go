package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	metric:
		for _, m := range family.GetMetric() {
			for key, want := range labels {
				found := false
				for _, pair := range m.GetLabel() {
					if pair.GetName() == key && pair.GetValue() == want {
						found = true
						break
					}
				}
				if !found {
					continue metric
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func histogramSamples(t *testing.T, registry *prometheus.Registry, name, job string) uint64 {
	t.Helper()
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, pair := range m.GetLabel() {
				if pair.GetName() == "job" && pair.GetValue() == job {
					return m.GetHistogram().GetSampleCount()
				}
			}
		}
	}
	return 0
}

func TestTrackerRecordsSuccessAndFailure(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	if err := metrics.Track("deadline:scan").End(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantErr := errors.New("pool down")
	if err := metrics.Track("deadline:scan").End(wantErr); err != wantErr {
		t.Fatalf("End must return the original error, got %v", err)
	}

	success := counterValue(t, registry, "crewtrack_jobs_total", map[string]string{"job": "deadline:scan", "status": "success"})
	if success != 1 {
		t.Fatalf("expected 1 success run, got %v", success)
	}
	failure := counterValue(t, registry, "crewtrack_jobs_total", map[string]string{"job": "deadline:scan", "status": "failure"})
	if failure != 1 {
		t.Fatalf("expected 1 failure run, got %v", failure)
	}
	failures := counterValue(t, registry, "crewtrack_jobs_failures_total", map[string]string{"job": "deadline:scan"})
	if failures != 1 {
		t.Fatalf("expected 1 recorded failure, got %v", failures)
	}
	if samples := histogramSamples(t, registry, "crewtrack_job_duration_seconds", "deadline:scan"); samples != 2 {
		t.Fatalf("expected 2 duration samples, got %d", samples)
	}
}

func TestAddOverdueCountsByType(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.AddOverdue("BUG_FIX", 2)
	metrics.AddOverdue("TESTING", 1)
	metrics.AddOverdue("TESTING", 0)

	if got := counterValue(t, registry, "crewtrack_overdue_tasks_total", map[string]string{"type": "BUG_FIX"}); got != 2 {
		t.Fatalf("expected 2 overdue BUG_FIX tasks, got %v", got)
	}
	if got := counterValue(t, registry, "crewtrack_overdue_tasks_total", map[string]string{"type": "TESTING"}); got != 1 {
		t.Fatalf("expected 1 overdue TESTING task, got %v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	wantErr := errors.New("boom")
	if err := metrics.Track("deadline:scan").End(wantErr); err != wantErr {
		t.Fatalf("nil metrics must pass the error through, got %v", err)
	}
	metrics.AddOverdue("BUG_FIX", 1)
}
