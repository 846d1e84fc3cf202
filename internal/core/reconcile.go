package core

import "metacore/pkg/domain"

// childSync describes how one child collection of a parent is reconciled.
// The key is the draft id; create materializes a new child node (returning
// its id), update re-applies a draft to an existing child, and edge builds
// the parent association carrying the draft's edge attributes.
type childSync[T any] struct {
	kind   domain.AssociationKind
	key    func(T) string
	create func(tx domain.Transaction, draft T) (string, error)
	update func(tx domain.Transaction, id string, draft T) error
	edge   func(parentID, childID string, draft T) domain.Association
}

// element pairs a child id with the draft describing it. Current children
// have no draft; desired children may have no id yet.
type element[T any] struct {
	id    string
	draft T
}

// reconcileChildren drives one child collection of parentID toward the
// desired drafts. Retained children are always re-applied, including their
// edge attributes. Removed children are disconnected; in hard mode they are
// additionally deleted with full cascade semantics, so a removed child still
// referenced elsewhere aborts the whole transaction.
func reconcileChildren[T any](tx domain.Transaction, parentID string, desired []T, sync childSync[T], hard bool) error {
	seenKeys := make(map[string]struct{}, len(desired))
	for _, draft := range desired {
		k := sync.key(draft)
		if k == "" {
			continue
		}
		if _, dup := seenKeys[k]; dup {
			return domain.ValidationError{Reason: "duplicate child id " + k}
		}
		seenKeys[k] = struct{}{}
	}

	current := tx.AssociationsFrom(parentID, sync.kind)
	currentEls := make([]element[T], 0, len(current))
	for _, assoc := range current {
		currentEls = append(currentEls, element[T]{id: assoc.TargetID})
	}
	desiredEls := make([]element[T], 0, len(desired))
	for _, draft := range desired {
		desiredEls = append(desiredEls, element[T]{id: sync.key(draft), draft: draft})
	}
	part := Diff(currentEls, desiredEls, func(e element[T]) string { return e.id })

	for _, el := range part.Added {
		childID := el.id
		if childID != "" {
			if _, exists := tx.ResolveCategory(childID); exists {
				// An existing node newly linked to this parent: re-apply the
				// draft, then attach.
				if err := sync.update(tx, childID, el.draft); err != nil {
					return err
				}
				if _, err := tx.PutAssociation(sync.edge(parentID, childID, el.draft)); err != nil {
					return err
				}
				continue
			}
		}
		created, err := sync.create(tx, el.draft)
		if err != nil {
			return err
		}
		if _, err := tx.PutAssociation(sync.edge(parentID, created, el.draft)); err != nil {
			return err
		}
	}

	for _, el := range part.Modified {
		if err := sync.update(tx, el.id, el.draft); err != nil {
			return err
		}
		want := sync.edge(parentID, el.id, el.draft)
		if _, err := tx.UpdateAssociation(want.Key(), func(a *domain.Association) error {
			*a = want
			return nil
		}); err != nil {
			return err
		}
	}

	for _, el := range part.Removed {
		if err := tx.DeleteAssociation(domain.AssociationKey{SourceID: parentID, TargetID: el.id, Kind: sync.kind}); err != nil {
			return err
		}
		if hard {
			if _, err := deleteCascade(tx, el.id); err != nil {
				return err
			}
		}
	}
	return nil
}

// setReference drives a single-valued reference edge toward targetID. An
// empty targetID clears the reference. Every other edge of the kind is
// removed, so a corrupted multi-edge state heals on the next write. The
// optional edge hook stamps edge attributes on the surviving association.
func setReference(tx domain.Transaction, sourceID string, kind domain.AssociationKind, targetID string, edge func(*domain.Association)) error {
	found := false
	for _, assoc := range tx.AssociationsFrom(sourceID, kind) {
		if assoc.TargetID == targetID {
			found = true
			if edge == nil {
				continue
			}
			if _, err := tx.UpdateAssociation(assoc.Key(), func(a *domain.Association) error {
				edge(a)
				return nil
			}); err != nil {
				return err
			}
			continue
		}
		if err := tx.DeleteAssociation(assoc.Key()); err != nil {
			return err
		}
	}
	if found || targetID == "" {
		return nil
	}
	assoc := domain.Association{SourceID: sourceID, TargetID: targetID, Kind: kind}
	if edge != nil {
		edge(&assoc)
	}
	_, err := tx.PutAssociation(assoc)
	return err
}
