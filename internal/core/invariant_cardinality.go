package core

import (
	"context"
	"fmt"

	"metacore/pkg/domain"
)

// CardinalityBoundsInvariant verifies the multiplicity bounds carried by
// role_class edges: the minimum must not be negative and the maximum must be
// unbounded or at least the minimum.
type CardinalityBoundsInvariant struct{}

// Name identifies the invariant.
func (CardinalityBoundsInvariant) Name() string { return "cardinality_bounds" }

// Evaluate checks the bounds of every role_class edge.
func (CardinalityBoundsInvariant) Evaluate(_ context.Context, view domain.TransactionView, _ []domain.Change) (domain.Result, error) {
	var result domain.Result
	for _, assoc := range view.ListAssociations() {
		if assoc.Kind != domain.KindRoleClass {
			continue
		}
		if assoc.MinCard < 0 {
			result.Violations = append(result.Violations, domain.Violation{
				Invariant: "cardinality_bounds",
				Severity:  domain.SeverityBlock,
				Message:   fmt.Sprintf("role %s has negative minimum cardinality %d", assoc.SourceID, assoc.MinCard),
				Category:  domain.CategoryRole,
				NodeID:    assoc.SourceID,
			})
		}
		if assoc.MaxCard != domain.CardUnbounded && assoc.MaxCard < assoc.MinCard {
			result.Violations = append(result.Violations, domain.Violation{
				Invariant: "cardinality_bounds",
				Severity:  domain.SeverityBlock,
				Message:   fmt.Sprintf("role %s has maximum cardinality %d below minimum %d", assoc.SourceID, assoc.MaxCard, assoc.MinCard),
				Category:  domain.CategoryRole,
				NodeID:    assoc.SourceID,
			})
		}
	}
	return result, nil
}
