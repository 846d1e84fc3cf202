package core

import (
	"context"
	"testing"

	"metacore/internal/infra/persistence/memory"
	"metacore/pkg/domain"
)

func TestSetReferenceDrainsStaleEdges(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(nil)
	// Two specializes edges from one class cannot be produced through the
	// transactional layer; import the corrupted state directly.
	store.ImportState(memory.Snapshot{
		Classes: map[string]domain.Class{
			"cls": {Base: domain.Base{ID: "cls"}},
			"a":   {Base: domain.Base{ID: "a"}},
			"b":   {Base: domain.Base{ID: "b"}},
		},
		Associations: []domain.Association{
			{SourceID: "cls", TargetID: "a", Kind: domain.KindSpecializes},
			{SourceID: "cls", TargetID: "b", Kind: domain.KindSpecializes},
		},
	})

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return setReference(tx, "cls", domain.KindSpecializes, "a", nil)
	}); err != nil {
		t.Fatalf("set reference: %v", err)
	}

	err := store.View(ctx, func(view domain.TransactionView) error {
		edges := view.AssociationsFrom("cls", domain.KindSpecializes)
		if len(edges) != 1 || edges[0].TargetID != "a" {
			t.Fatalf("edges = %+v", edges)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}
