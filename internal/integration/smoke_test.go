// Package integration exercises the full stack: service semantics over the
// durable sqlite backend, rights enforcement, and the export pipeline
// writing artifacts through the blob layer.
package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"metacore/internal/blob"
	"metacore/internal/core"
	"metacore/internal/export"
	"metacore/internal/infra/persistence/sqlite"
	"metacore/pkg/domain"
)

func TestEndToEndModelLifecycle(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "graph.db")
	engine := core.NewDefaultEngine()
	store, err := sqlite.NewStore(dbPath, engine)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	svc := core.NewService(store, engine)
	internal := domain.Identity("")

	// Build a small metamodel: a value domain, a class hierarchy, a relation
	// between classes, and a scene placing them.
	if _, _, err := svc.CreateAttributeType(ctx, internal, domain.AttributeTypeDraft{
		ID: "at-text", Name: "text", Kind: domain.ValueString,
	}); err != nil {
		t.Fatalf("attribute type: %v", err)
	}
	if _, _, err := svc.CreateClass(ctx, internal, domain.ClassDraft{
		ID: "cls-element", Name: "Element", Abstract: true,
	}); err != nil {
		t.Fatalf("base class: %v", err)
	}
	if _, _, err := svc.CreateClass(ctx, internal, domain.ClassDraft{
		ID: "cls-pump", Name: "Pump", SuperClassID: "cls-element",
		Attributes: []domain.AttributeDraft{{ID: "attr-vendor", Name: "vendor", TypeID: "at-text", Sequence: 1}},
		Ports:      []domain.PortDraft{{ID: "port-in", Name: "inlet", Direction: domain.PortIn}},
	}); err != nil {
		t.Fatalf("class: %v", err)
	}
	if _, _, err := svc.CreateRelationClass(ctx, internal, domain.RelationClassDraft{
		ID: "rel-feeds", Name: "feeds",
		Roles: []domain.RoleDraft{
			{ID: "role-src", Name: "source", Direction: domain.RoleFrom, ClassID: "cls-pump", MinCard: 1, MaxCard: 1},
			{ID: "role-dst", Name: "sink", Direction: domain.RoleTo, ClassID: "cls-element", MinCard: 0, MaxCard: domain.CardUnbounded},
		},
	}); err != nil {
		t.Fatalf("relation class: %v", err)
	}
	if _, _, err := svc.CreateSceneType(ctx, internal, domain.SceneTypeDraft{
		ID: "scene-flow", Name: "Flow Diagram",
		Classes:         []domain.SceneMemberDraft{{ID: "cls-pump", Sequence: 1}},
		RelationClasses: []domain.SceneMemberDraft{{ID: "rel-feeds"}},
	}); err != nil {
		t.Fatalf("scene type: %v", err)
	}

	// Rights: alice may read the pump class but nothing else.
	if _, _, err := svc.CreateUser(ctx, internal, domain.UserDraft{ID: "alice", Name: "Alice", Login: "alice"}); err != nil {
		t.Fatalf("user: %v", err)
	}
	if _, _, err := svc.CreateUserGroup(ctx, internal, domain.UserGroupDraft{
		ID: "grp-readers", Name: "Readers", MemberIDs: []string{"alice"},
	}); err != nil {
		t.Fatalf("group: %v", err)
	}
	if _, err := svc.GrantRight(ctx, internal, domain.Right{
		GroupID: "grp-readers", Action: domain.RightRead, NodeID: "cls-pump",
	}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	alice := domain.Identity("alice")
	if _, err := svc.GetClass(ctx, alice, "cls-pump"); err != nil {
		t.Fatalf("alice read: %v", err)
	}
	if _, err := svc.GetSceneType(ctx, alice, "scene-flow"); !domain.IsDenied(err) {
		t.Fatalf("alice must not read the scene type, got %v", err)
	}

	// Deleting the placed class is blocked by the scene reference.
	if _, _, err := svc.DeleteNode(ctx, internal, "cls-pump"); !domain.IsConflict(err) {
		t.Fatalf("expected blocked deletion, got %v", err)
	}

	// Export the graph through the worker into a filesystem blob store.
	artifacts, err := blob.NewFilesystem(filepath.Join(t.TempDir(), "blobs"))
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}
	worker := export.NewWorker(store, artifacts, nil)
	worker.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = worker.Stop(stopCtx)
	}()
	record, err := worker.Enqueue(ctx, export.Input{Formats: []export.Format{export.FormatJSON}, RequestedBy: domain.RootUserID})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		current, ok := worker.Get(record.ID)
		if !ok {
			t.Fatalf("export record lost")
		}
		if current.Status == export.StatusSucceeded {
			if len(current.Artifacts) != 1 {
				t.Fatalf("artifacts = %+v", current.Artifacts)
			}
			break
		}
		if current.Status == export.StatusFailed {
			t.Fatalf("export failed: %s", current.Error)
		}
		if time.Now().After(deadline) {
			t.Fatalf("export never finished")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if infos, err := artifacts.List(ctx, "exports/"+record.ID+"/"); err != nil || len(infos) != 1 {
		t.Fatalf("stored artifacts = %+v %v", infos, err)
	}

	// Everything survives a process restart.
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	reopened, err := sqlite.NewStore(dbPath, core.NewDefaultEngine())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	svc2 := core.NewService(reopened, nil)
	detail, err := svc2.GetClass(ctx, internal, "cls-pump")
	if err != nil {
		t.Fatalf("reload class: %v", err)
	}
	if detail.SuperClassID != "cls-element" || len(detail.Attributes) != 1 || len(detail.Ports) != 1 {
		t.Fatalf("reloaded detail = %+v", detail)
	}
	if _, err := svc2.GetSceneType(ctx, alice, "scene-flow"); !domain.IsDenied(err) {
		t.Fatalf("rights must survive restart, got %v", err)
	}
}
