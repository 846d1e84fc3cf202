package core

import (
	"sort"

	"metacore/pkg/domain"
)

// deleteByCategory dispatches a node deletion to the typed store operation.
var deleteByCategory = map[domain.Category]func(domain.Transaction, string) error{
	domain.CategorySceneType:     func(tx domain.Transaction, id string) error { return tx.DeleteSceneType(id) },
	domain.CategoryClass:         func(tx domain.Transaction, id string) error { return tx.DeleteClass(id) },
	domain.CategoryRelationClass: func(tx domain.Transaction, id string) error { return tx.DeleteRelationClass(id) },
	domain.CategoryAttribute:     func(tx domain.Transaction, id string) error { return tx.DeleteAttribute(id) },
	domain.CategoryAttributeType: func(tx domain.Transaction, id string) error { return tx.DeleteAttributeType(id) },
	domain.CategoryPort:          func(tx domain.Transaction, id string) error { return tx.DeletePort(id) },
	domain.CategoryRole:          func(tx domain.Transaction, id string) error { return tx.DeleteRole(id) },
	domain.CategoryRule:          func(tx domain.Transaction, id string) error { return tx.DeleteRule(id) },
	domain.CategoryProcedure:     func(tx domain.Transaction, id string) error { return tx.DeleteProcedure(id) },
	domain.CategoryUser:          func(tx domain.Transaction, id string) error { return tx.DeleteUser(id) },
	domain.CategoryUserGroup:     func(tx domain.Transaction, id string) error { return tx.DeleteUserGroup(id) },
}

// DeletionCascadeGuard deletes a node together with the children it owns.
// Before touching anything it computes the ownership closure and checks
// every member for inbound reference edges from outside the closure; any
// such edge aborts the whole deletion with a conflict naming the holders.
type DeletionCascadeGuard struct {
	gate RightsGate
}

// Delete removes id and its owned descendants, returning the deleted ids in
// removal order (leaves first). Nothing is removed on conflict.
func (g DeletionCascadeGuard) Delete(tx domain.Transaction, actor domain.Identity, id string) ([]string, error) {
	if err := g.gate.Check(tx, actor, domain.RightDelete, id); err != nil {
		return nil, err
	}
	return deleteCascade(tx, id)
}

// ownershipClosure walks owning edges depth-first and returns the closure in
// discovery order, root first. A child owned by two closure members appears
// once.
func ownershipClosure(view domain.TransactionView, rootID string) []string {
	seen := map[string]struct{}{}
	var order []string
	var walk func(id string)
	walk = func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		order = append(order, id)
		cat, ok := view.ResolveCategory(id)
		if !ok {
			return
		}
		for _, kind := range domain.OwningKinds(cat) {
			for _, assoc := range view.AssociationsFrom(id, kind) {
				walk(assoc.TargetID)
			}
		}
	}
	walk(rootID)
	return order
}

func deleteCascade(tx domain.Transaction, rootID string) ([]string, error) {
	cat, ok := tx.ResolveCategory(rootID)
	if !ok {
		return nil, domain.ErrNotFound{ID: rootID}
	}

	closure := ownershipClosure(tx, rootID)
	inClosure := make(map[string]struct{}, len(closure))
	for _, id := range closure {
		inClosure[id] = struct{}{}
	}

	var blocking []domain.NodeRef
	seenBlocker := map[string]struct{}{}
	for _, id := range closure {
		for _, assoc := range tx.AssociationsTo(id, "") {
			if domain.IsOwning(assoc.Kind) {
				// Owning edges into the closure never block: either the
				// owner is inside the closure too, or the edge dies with
				// the child.
				continue
			}
			if _, ok := inClosure[assoc.SourceID]; ok {
				continue
			}
			if _, ok := seenBlocker[assoc.SourceID]; ok {
				continue
			}
			seenBlocker[assoc.SourceID] = struct{}{}
			if ref, live := tx.Ref(assoc.SourceID); live {
				blocking = append(blocking, ref)
			}
		}
	}
	if len(blocking) > 0 {
		sort.Slice(blocking, func(i, j int) bool { return blocking[i].ID < blocking[j].ID })
		return nil, domain.ConflictError{Op: "delete " + string(cat), Blocking: blocking}
	}

	deleted := make([]string, 0, len(closure))
	for i := len(closure) - 1; i >= 0; i-- {
		id := closure[i]
		if _, ok := tx.ResolveCategory(id); !ok {
			continue
		}
		if err := deleteNode(tx, id); err != nil {
			return nil, err
		}
		deleted = append(deleted, id)
	}
	return deleted, nil
}

func deleteNode(tx domain.Transaction, id string) error {
	cat, ok := tx.ResolveCategory(id)
	if !ok {
		return domain.ErrNotFound{ID: id}
	}
	del, ok := deleteByCategory[cat]
	if !ok {
		return domain.ValidationError{Reason: "unknown category " + string(cat)}
	}
	return del(tx, id)
}
