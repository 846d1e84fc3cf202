package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"metacore/pkg/domain"
)

func TestStatePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.db")

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateClass(domain.Class{Base: domain.Base{ID: "cls", Name: "Pump"}}); err != nil {
			return err
		}
		if _, err := tx.CreateAttribute(domain.Attribute{Base: domain.Base{ID: "attr", Name: "capacity"}}); err != nil {
			return err
		}
		if _, err := tx.PutAssociation(domain.Association{
			SourceID: "cls", TargetID: "attr", Kind: domain.KindHasAttribute, Sequence: 3,
		}); err != nil {
			return err
		}
		if _, err := tx.CreateUserGroup(domain.UserGroup{Base: domain.Base{ID: "grp"}}); err != nil {
			return err
		}
		return tx.GrantRight(domain.Right{GroupID: "grp", Action: domain.RightRead, NodeID: "cls"})
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	err = reopened.View(ctx, func(view domain.TransactionView) error {
		cls, ok := view.FindClass("cls")
		if !ok || cls.Name != "Pump" {
			t.Fatalf("class lost: %+v %v", cls, ok)
		}
		edges := view.AssociationsFrom("cls", domain.KindHasAttribute)
		if len(edges) != 1 || edges[0].TargetID != "attr" || edges[0].Sequence != 3 {
			t.Fatalf("association lost: %+v", edges)
		}
		rights := view.RightsForGroup("grp")
		if len(rights) != 1 || rights[0].NodeID != "cls" {
			t.Fatalf("rights lost: %+v", rights)
		}
		if cat, ok := view.ResolveCategory("attr"); !ok || cat != domain.CategoryAttribute {
			t.Fatalf("index not rebuilt: %v %v", cat, ok)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestFailedTransactionIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.db")

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateClass(domain.Class{Base: domain.Base{ID: "cls"}}); err != nil {
			return err
		}
		return domain.ValidationError{Reason: "forced"}
	}); !domain.IsValidation(err) {
		t.Fatalf("expected the callback error, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	_ = reopened.View(ctx, func(view domain.TransactionView) error {
		if _, ok := view.FindClass("cls"); ok {
			t.Fatalf("aborted transaction reached disk")
		}
		return nil
	})
}

func TestNewStoreCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "graph.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Path() != path {
		t.Fatalf("path = %q", store.Path())
	}
	_ = store.Close()
}
