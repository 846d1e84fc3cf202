package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"metacore/pkg/domain"
)

type metricEvent struct {
	operation string
	success   bool
}

type captureMetricsRecorder struct {
	mu     sync.Mutex
	events []metricEvent
}

func (r *captureMetricsRecorder) Observe(_ context.Context, operation string, success bool, _ time.Duration) {
	r.mu.Lock()
	r.events = append(r.events, metricEvent{operation: operation, success: success})
	r.mu.Unlock()
}

func (r *captureMetricsRecorder) find(operation string) (metricEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.operation == operation {
			return ev, true
		}
	}
	return metricEvent{}, false
}

func TestServiceRecordsMetricsAndAudit(t *testing.T) {
	ctx := context.Background()
	recorder := &captureMetricsRecorder{}
	sink := NewMemoryAuditSink()
	svc := newTestService(t, WithMetricsRecorder(recorder), WithAuditSink(sink))

	detail, _, err := svc.CreateClass(ctx, internal, domain.ClassDraft{ID: "cls", Name: "Observed"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ev, ok := recorder.find("create_class")
	if !ok || !ev.success {
		t.Fatalf("create_class metric = %+v %v", ev, ok)
	}

	entries := sink.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %+v", entries)
	}
	entry := entries[0]
	if entry.Operation != "create_class" || entry.Status != AuditStatusSuccess || entry.NodeID != detail.ID {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.OccurredAt.IsZero() {
		t.Fatalf("audit entry missing timestamp")
	}

	// Reads record metrics but no audit entries.
	if _, err := svc.GetClass(ctx, internal, "cls"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, ok := recorder.find("get_class"); !ok {
		t.Fatalf("get_class metric missing")
	}
	if len(sink.Entries()) != 1 {
		t.Fatalf("reads must not audit: %+v", sink.Entries())
	}
}

func TestDeniedMutationAuditsAsDenied(t *testing.T) {
	ctx := context.Background()
	recorder := &captureMetricsRecorder{}
	sink := NewMemoryAuditSink()
	svc := newTestService(t, WithMetricsRecorder(recorder), WithAuditSink(sink))

	if _, _, err := svc.CreateClass(ctx, internal, domain.ClassDraft{ID: "cls", Name: "Guarded"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, _, err := svc.UpdateClass(ctx, domain.Identity("stranger"), "cls", domain.ClassDraft{Name: "X"}, UpdateSoft)
	if !domain.IsDenied(err) {
		t.Fatalf("expected denial, got %v", err)
	}

	if ev, ok := recorder.find("update_class"); !ok || ev.success {
		t.Fatalf("update_class metric = %+v %v", ev, ok)
	}
	var denied *AuditEntry
	for _, entry := range sink.Entries() {
		if entry.Operation == "update_class" {
			e := entry
			denied = &e
		}
	}
	if denied == nil || denied.Status != AuditStatusDenied || denied.Detail == "" {
		t.Fatalf("denied audit entry = %+v", denied)
	}
}

func TestExpvarRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if rec.Name() == "" {
		t.Fatalf("generated name must not be empty")
	}
	rec.Observe(context.Background(), "op", true, 20*time.Millisecond)
	rec.Observe(context.Background(), "op", true, 30*time.Millisecond)
	rec.Observe(context.Background(), "op", false, 5*time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Millisecond)

	snap := rec.Snapshot()
	if got := snap.Results["op"]["success"]; got != 2 {
		t.Fatalf("success count = %d", got)
	}
	if got := snap.Results["op"]["error"]; got != 1 {
		t.Fatalf("error count = %d", got)
	}
	if got := snap.DurationsMS["op"]; got != 55 {
		t.Fatalf("durations = %v", got)
	}
	if len(snap.Results) != 1 {
		t.Fatalf("empty operation names must be dropped: %+v", snap.Results)
	}
}

func TestPrometheusRecorderRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("construct recorder: %v", err)
	}
	rec.Observe(context.Background(), "create_class", true, 10*time.Millisecond)
	rec.Observe(context.Background(), "create_class", false, 10*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, fam := range families {
		names[fam.GetName()] = true
	}
	if !names["metacore_service_operations_total"] || !names["metacore_service_operation_duration_seconds"] {
		t.Fatalf("metric families = %v", names)
	}

	// Double registration against the same registry must fail.
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}
