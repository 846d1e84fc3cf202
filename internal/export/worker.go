// Package export renders the metamodel graph into portable artifacts and
// stores them through the blob layer. Exports run asynchronously: callers
// enqueue a request, poll the record, and fetch artifacts once the job
// succeeds.
package export

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"metacore/internal/blob"
	"metacore/internal/core"
	"metacore/pkg/domain"
)

// Format identifies an artifact rendering.
type Format string

// Supported export formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Status describes the lifecycle stage of an export request.
type Status string

// Export lifecycle states.
const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Artifact captures one stored export artifact.
type Artifact struct {
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	ETag        string    `json:"etag,omitempty"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Record tracks an export request and its resulting artifacts.
type Record struct {
	ID          string          `json:"id"`
	Formats     []Format        `json:"formats"`
	Status      Status          `json:"status"`
	Error       string          `json:"error,omitempty"`
	Artifacts   []Artifact      `json:"artifacts,omitempty"`
	RequestedBy domain.Identity `json:"requested_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

func (r Record) copy() Record {
	out := r
	out.Formats = append([]Format(nil), r.Formats...)
	out.Artifacts = append([]Artifact(nil), r.Artifacts...)
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// Input represents an enqueue request.
type Input struct {
	Formats     []Format
	RequestedBy domain.Identity
}

// Worker executes graph exports asynchronously against a persistent store.
type Worker struct {
	store     domain.PersistentStore
	artifacts blob.Store
	audit     core.AuditSink

	queue chan string
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker constructs an export worker. A nil audit sink disables audit
// entries.
func NewWorker(store domain.PersistentStore, artifacts blob.Store, audit core.AuditSink) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		store:     store,
		artifacts: artifacts,
		audit:     audit,
		queue:     make(chan string, 32),
		jobs:      make(map[string]*Record),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case id := <-w.queue:
			w.process(id)
		}
	}
}

// Enqueue schedules an export job and returns the queued record.
func (w *Worker) Enqueue(ctx context.Context, input Input) (Record, error) {
	if w.artifacts == nil {
		return Record{}, fmt.Errorf("artifact store not configured")
	}
	formats := input.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	seen := make(map[Format]struct{}, len(formats))
	uniq := make([]Format, 0, len(formats))
	for _, format := range formats {
		if format != FormatJSON && format != FormatCSV {
			return Record{}, fmt.Errorf("unsupported export format %s", format)
		}
		if _, dup := seen[format]; dup {
			continue
		}
		seen[format] = struct{}{}
		uniq = append(uniq, format)
	}

	id := newID()
	now := time.Now().UTC()
	record := Record{
		ID:          id,
		Formats:     uniq,
		Status:      StatusQueued,
		RequestedBy: input.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	queued := record.copy()
	w.mu.Unlock()

	w.recordAudit(ctx, id, input.RequestedBy, StatusQueued, "")

	select {
	case w.queue <- id:
	default:
		w.mu.Lock()
		delete(w.jobs, id)
		w.mu.Unlock()
		return Record{}, fmt.Errorf("export queue full")
	}
	return queued, nil
}

// Get returns a snapshot of the export record.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return record.copy(), true
}

func (w *Worker) process(id string) {
	w.mu.RLock()
	record, ok := w.jobs[id]
	var formats []Format
	var actor domain.Identity
	if ok {
		formats = append([]Format(nil), record.Formats...)
		actor = record.RequestedBy
	}
	w.mu.RUnlock()
	if !ok {
		return
	}

	w.updateStatus(id, StatusRunning, "")
	w.recordAudit(w.ctx, id, actor, StatusRunning, "")

	doc, err := snapshotGraph(w.ctx, w.store)
	if err != nil {
		w.fail(id, actor, fmt.Sprintf("snapshot graph: %v", err))
		return
	}

	var artifacts []Artifact
	for _, format := range formats {
		payloads, err := render(doc, format)
		if err != nil {
			w.fail(id, actor, fmt.Sprintf("render %s: %v", format, err))
			return
		}
		for _, payload := range payloads {
			key := fmt.Sprintf("exports/%s/%s", id, payload.name)
			info, err := w.artifacts.Put(w.ctx, key, bytes.NewReader(payload.data), blob.PutOptions{
				ContentType: payload.contentType,
				Metadata:    map[string]string{"export_id": id, "format": string(format)},
			})
			if err != nil {
				w.fail(id, actor, fmt.Sprintf("store artifact %s: %v", key, err))
				return
			}
			artifacts = append(artifacts, Artifact{
				Key:         info.Key,
				Format:      format,
				ContentType: payload.contentType,
				SizeBytes:   info.Size,
				ETag:        info.ETag,
				URL:         info.URL,
				CreatedAt:   info.LastModified,
			})
		}
	}

	now := time.Now().UTC()
	w.mu.Lock()
	if rec, ok := w.jobs[id]; ok {
		rec.Status = StatusSucceeded
		rec.Error = ""
		rec.Artifacts = artifacts
		rec.UpdatedAt = now
		rec.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, id, actor, StatusSucceeded, "")
}

func (w *Worker) fail(id string, actor domain.Identity, message string) {
	w.updateStatus(id, StatusFailed, message)
	w.recordAudit(w.ctx, id, actor, StatusFailed, message)
}

func (w *Worker) updateStatus(id string, status Status, message string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
		if status == StatusFailed {
			record.CompletedAt = &now
		}
	}
	w.mu.Unlock()
}

func (w *Worker) recordAudit(ctx context.Context, id string, actor domain.Identity, status Status, detail string) {
	if w.audit == nil {
		return
	}
	auditStatus := core.AuditStatusSuccess
	if status == StatusFailed {
		auditStatus = core.AuditStatusError
	}
	w.audit.Record(ctx, core.AuditEntry{
		Operation:  "graph_export",
		Actor:      actor,
		NodeID:     id,
		Status:     auditStatus,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	})
}

func newID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("export-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
