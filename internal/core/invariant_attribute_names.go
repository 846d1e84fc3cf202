package core

import (
	"context"
	"fmt"

	"metacore/pkg/domain"
)

// AttributeNameUniquenessInvariant warns when an owner carries two
// attributes with the same name. Editors tolerate the duplicate but users
// cannot tell the slots apart, so the condition is reported without
// blocking commit.
type AttributeNameUniquenessInvariant struct{}

// Name identifies the invariant.
func (AttributeNameUniquenessInvariant) Name() string { return "attribute_name_uniqueness" }

// Evaluate scans the attribute collections of every owner.
func (AttributeNameUniquenessInvariant) Evaluate(_ context.Context, view domain.TransactionView, _ []domain.Change) (domain.Result, error) {
	byOwner := map[string]map[string]int{}
	for _, assoc := range view.ListAssociations() {
		if assoc.Kind != domain.KindHasAttribute {
			continue
		}
		attr, ok := view.FindAttribute(assoc.TargetID)
		if !ok {
			continue
		}
		names := byOwner[assoc.SourceID]
		if names == nil {
			names = map[string]int{}
			byOwner[assoc.SourceID] = names
		}
		names[attr.Name]++
	}
	var result domain.Result
	for ownerID, names := range byOwner {
		for name, count := range names {
			if count < 2 {
				continue
			}
			cat, _ := view.ResolveCategory(ownerID)
			result.Violations = append(result.Violations, domain.Violation{
				Invariant: "attribute_name_uniqueness",
				Severity:  domain.SeverityWarn,
				Message:   fmt.Sprintf("%s %s carries %d attributes named %q", cat, ownerID, count, name),
				Category:  cat,
				NodeID:    ownerID,
			})
		}
	}
	return result, nil
}
