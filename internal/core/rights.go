package core

import "metacore/pkg/domain"

// RightsGate decides whether an identity may perform an action. Enforcement
// is skipped entirely for the zero identity (trusted internal calls) and for
// the reserved root account; every other identity needs a matching right on
// one of its groups. Denial never reveals whether the target exists.
type RightsGate struct{}

// Check authorizes a node-scoped action (read, write, delete) on nodeID.
func (g RightsGate) Check(view domain.TransactionView, actor domain.Identity, action domain.RightAction, nodeID string) error {
	if actor.IsZero() || actor.IsRoot() {
		return nil
	}
	for _, groupID := range view.GroupsOf(string(actor)) {
		for _, right := range view.RightsForGroup(groupID) {
			if right.Action == action && right.NodeID == nodeID {
				return nil
			}
		}
	}
	return domain.DeniedError{Actor: actor, Action: action, Target: nodeID}
}

// CheckCreate authorizes creation of a node in the given category.
func (g RightsGate) CheckCreate(view domain.TransactionView, actor domain.Identity, category domain.Category) error {
	if actor.IsZero() || actor.IsRoot() {
		return nil
	}
	for _, groupID := range view.GroupsOf(string(actor)) {
		for _, right := range view.RightsForGroup(groupID) {
			if right.Action == domain.RightCreate && right.Category == category {
				return nil
			}
		}
	}
	return domain.DeniedError{Actor: actor, Action: domain.RightCreate, Target: string(category)}
}
