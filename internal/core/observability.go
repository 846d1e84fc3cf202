package core

import (
	"context"
	"time"

	"metacore/pkg/domain"
)

// MetricsRecorder receives one observation per service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// AuditStatus classifies an audit entry outcome.
type AuditStatus string

// Audit entry outcomes.
const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusDenied  AuditStatus = "denied"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry records one mutating service operation and its outcome.
type AuditEntry struct {
	Operation  string          `json:"operation"`
	Actor      domain.Identity `json:"actor,omitempty"`
	NodeID     string          `json:"node_id,omitempty"`
	Status     AuditStatus     `json:"status"`
	Detail     string          `json:"detail,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// AuditSink receives audit entries. Implementations must be safe for
// concurrent use.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAuditSink struct{}

func (noopAuditSink) Record(context.Context, AuditEntry) {}
