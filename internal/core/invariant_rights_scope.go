package core

import (
	"context"
	"fmt"

	"metacore/pkg/domain"
)

// RightsScopeInvariant verifies right tuples: the granted group must be a
// live user group (blocking), and node-scoped grants should point at live
// nodes. A grant whose node has since disappeared is reported as a warning
// rather than a block so that imported legacy state does not wedge commits.
type RightsScopeInvariant struct{}

// Name identifies the invariant.
func (RightsScopeInvariant) Name() string { return "rights_scope" }

// Evaluate checks every right tuple in the graph.
func (RightsScopeInvariant) Evaluate(_ context.Context, view domain.TransactionView, _ []domain.Change) (domain.Result, error) {
	var result domain.Result
	for _, right := range view.ListRights() {
		if _, ok := view.FindUserGroup(right.GroupID); !ok {
			result.Violations = append(result.Violations, domain.Violation{
				Invariant: "rights_scope",
				Severity:  domain.SeverityBlock,
				Message:   fmt.Sprintf("right %s granted to unknown group %s", right.Action, right.GroupID),
				Category:  domain.CategoryUserGroup,
				NodeID:    right.GroupID,
			})
			continue
		}
		if right.NodeID == "" {
			continue
		}
		if _, ok := view.ResolveCategory(right.NodeID); !ok {
			result.Violations = append(result.Violations, domain.Violation{
				Invariant: "rights_scope",
				Severity:  domain.SeverityWarn,
				Message:   fmt.Sprintf("group %s holds %s on missing node %s", right.GroupID, right.Action, right.NodeID),
				NodeID:    right.NodeID,
			})
		}
	}
	return result, nil
}
