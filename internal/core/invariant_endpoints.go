package core

import (
	"context"
	"fmt"

	"metacore/pkg/domain"
)

// AssociationEndpointsInvariant verifies every edge in the graph: the kind
// must be declared, both endpoints must be live, and the endpoint categories
// must match the kind's declaration. The store checks the same conditions on
// insert, so this invariant mostly guards state imported from durable
// backends and edges mutated by plugins.
type AssociationEndpointsInvariant struct{}

// Name identifies the invariant.
func (AssociationEndpointsInvariant) Name() string { return "association_endpoints" }

// Evaluate checks all edges against the kind table.
func (AssociationEndpointsInvariant) Evaluate(_ context.Context, view domain.TransactionView, _ []domain.Change) (domain.Result, error) {
	var result domain.Result
	for _, assoc := range view.ListAssociations() {
		spec, ok := domain.KindSpecFor(assoc.Kind)
		if !ok {
			result.Violations = append(result.Violations, domain.Violation{
				Invariant: "association_endpoints",
				Severity:  domain.SeverityBlock,
				Message:   fmt.Sprintf("unknown association kind %q on edge %s -> %s", assoc.Kind, assoc.SourceID, assoc.TargetID),
				NodeID:    assoc.SourceID,
			})
			continue
		}
		srcCat, srcOK := view.ResolveCategory(assoc.SourceID)
		dstCat, dstOK := view.ResolveCategory(assoc.TargetID)
		if !srcOK || !dstOK {
			result.Violations = append(result.Violations, domain.Violation{
				Invariant: "association_endpoints",
				Severity:  domain.SeverityBlock,
				Message:   fmt.Sprintf("%s edge %s -> %s has a dangling endpoint", assoc.Kind, assoc.SourceID, assoc.TargetID),
				NodeID:    assoc.SourceID,
			})
			continue
		}
		if !spec.AllowsSource(srcCat) || !spec.AllowsTarget(dstCat) {
			result.Violations = append(result.Violations, domain.Violation{
				Invariant: "association_endpoints",
				Severity:  domain.SeverityBlock,
				Message:   fmt.Sprintf("%s edge %s -> %s joins %s to %s", assoc.Kind, assoc.SourceID, assoc.TargetID, srcCat, dstCat),
				Category:  srcCat,
				NodeID:    assoc.SourceID,
			})
		}
	}
	return result, nil
}
