package observability

import (
	"testing"
	"time"
)

func TestRecordRequestAccumulatesLatency(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/v1/tickets", "GET", 200, 30*time.Millisecond)
	m.RecordRequest("/api/v1/tickets", "GET", 200, 90*time.Millisecond)
	m.RecordRequest("/api/v1/tickets", "POST", 201, 10*time.Millisecond)

	key := "/api/v1/tickets|GET|200"
	if got := m.RequestCounts()[key]; got != 2 {
		t.Errorf("request count = %d, want 2", got)
	}
	if got := m.AverageLatencies()[key]; got != 60*time.Millisecond {
		t.Errorf("average latency = %s, want 60ms", got)
	}
	if got := m.AverageLatencies()["/api/v1/tickets|POST|201"]; got != 10*time.Millisecond {
		t.Errorf("average latency = %s, want 10ms", got)
	}
}

func TestTriageRunCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordTriageRun("succeeded")
	m.RecordTriageRun("succeeded")
	m.RecordTriageRun("failed")

	runs := m.TriageRuns()
	if runs["succeeded"] != 2 || runs["failed"] != 1 {
		t.Errorf("triage counters = %v", runs)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/x", "GET", 200, time.Millisecond)
	m.RecordTriageRun("succeeded")
	if m.AverageLatencies() != nil || m.RequestCounts() != nil {
		t.Error("nil metrics must return nil snapshots")
	}
}
