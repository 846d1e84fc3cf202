package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"testing"
	"time"

	"metacore/internal/blob"
	"metacore/internal/core"
	"metacore/internal/infra/persistence/memory"
	"metacore/pkg/domain"
)

func seedGraph(t *testing.T, store *memory.Store) {
	t.Helper()
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateClass(domain.Class{Base: domain.Base{ID: "cls", Name: "Pump"}}); err != nil {
			return err
		}
		if _, err := tx.CreateAttribute(domain.Attribute{Base: domain.Base{ID: "attr", Name: "capacity"}}); err != nil {
			return err
		}
		_, err := tx.PutAssociation(domain.Association{
			SourceID: "cls", TargetID: "attr", Kind: domain.KindHasAttribute, Sequence: 1,
		})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func waitForStatus(t *testing.T, worker *Worker, id string, want Status) Record {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		record, ok := worker.Get(id)
		if !ok {
			t.Fatalf("record %s disappeared", id)
		}
		if record.Status == want {
			return record
		}
		if record.Status == StatusFailed && want != StatusFailed {
			t.Fatalf("export failed: %s", record.Error)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("export %s never reached %s", id, want)
	return Record{}
}

func TestWorkerExportsGraphArtifacts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(nil)
	seedGraph(t, store)
	artifacts := blob.NewMemory()
	audit := core.NewMemoryAuditSink()

	worker := NewWorker(store, artifacts, audit)
	worker.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := worker.Stop(stopCtx); err != nil {
			t.Fatalf("stop: %v", err)
		}
	}()

	record, err := worker.Enqueue(ctx, Input{RequestedBy: domain.RootUserID})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if record.Status != StatusQueued || len(record.Formats) != 2 {
		t.Fatalf("queued record = %+v", record)
	}

	done := waitForStatus(t, worker, record.ID, StatusSucceeded)
	if done.CompletedAt == nil {
		t.Fatalf("completed record missing timestamp: %+v", done)
	}
	if len(done.Artifacts) != 3 {
		t.Fatalf("artifacts = %+v", done.Artifacts)
	}

	wantKeys := map[string]bool{
		"exports/" + record.ID + "/graph.json": false,
		"exports/" + record.ID + "/nodes.csv":  false,
		"exports/" + record.ID + "/edges.csv":  false,
	}
	for _, artifact := range done.Artifacts {
		if _, ok := wantKeys[artifact.Key]; !ok {
			t.Fatalf("unexpected artifact key %s", artifact.Key)
		}
		wantKeys[artifact.Key] = true
		info, err := artifacts.Head(ctx, artifact.Key)
		if err != nil {
			t.Fatalf("head %s: %v", artifact.Key, err)
		}
		if info.Metadata["export_id"] != record.ID {
			t.Fatalf("artifact metadata = %+v", info.Metadata)
		}
	}
	for key, seen := range wantKeys {
		if !seen {
			t.Fatalf("artifact %s missing", key)
		}
	}

	// The JSON artifact carries the seeded graph.
	_, rc, err := artifacts.Get(ctx, "exports/"+record.ID+"/graph.json")
	if err != nil {
		t.Fatalf("get json: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	var doc GraphDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(doc.Classes) != 1 || doc.Classes[0].ID != "cls" {
		t.Fatalf("classes = %+v", doc.Classes)
	}
	if len(doc.Associations) != 1 || doc.Associations[0].Kind != domain.KindHasAttribute {
		t.Fatalf("associations = %+v", doc.Associations)
	}

	// The edges artifact is parseable CSV with a header row.
	_, rc, err = artifacts.Get(ctx, "exports/"+record.ID+"/edges.csv")
	if err != nil {
		t.Fatalf("get csv: %v", err)
	}
	rows, err := csv.NewReader(rc).ReadAll()
	_ = rc.Close()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 2 || rows[0][0] != "source_id" || rows[1][0] != "cls" {
		t.Fatalf("rows = %+v", rows)
	}

	// Audit trail covers the full lifecycle: queued, running, succeeded.
	entries := audit.Entries()
	if len(entries) < 3 {
		t.Fatalf("audit entries = %+v", entries)
	}
	for _, entry := range entries {
		if entry.Operation != "graph_export" || entry.NodeID != record.ID {
			t.Fatalf("unexpected audit entry %+v", entry)
		}
		if entry.Status != core.AuditStatusSuccess {
			t.Fatalf("entry status = %+v", entry)
		}
	}
}

func TestEnqueueValidatesFormats(t *testing.T) {
	worker := NewWorker(memory.NewStore(nil), blob.NewMemory(), nil)
	if _, err := worker.Enqueue(context.Background(), Input{Formats: []Format{"xml"}}); err == nil {
		t.Fatalf("unsupported format must be rejected")
	}

	record, err := worker.Enqueue(context.Background(), Input{Formats: []Format{FormatJSON, FormatJSON}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(record.Formats) != 1 || record.Formats[0] != FormatJSON {
		t.Fatalf("duplicate formats not collapsed: %+v", record.Formats)
	}
}

func TestEnqueueRequiresArtifactStore(t *testing.T) {
	worker := NewWorker(memory.NewStore(nil), nil, nil)
	if _, err := worker.Enqueue(context.Background(), Input{}); err == nil {
		t.Fatalf("expected error without an artifact store")
	}
}

func TestGetUnknownRecord(t *testing.T) {
	worker := NewWorker(memory.NewStore(nil), blob.NewMemory(), nil)
	if _, ok := worker.Get("ghost"); ok {
		t.Fatalf("unknown record must not resolve")
	}
}
