package core

import "metacore/pkg/domain"

// AttributeRepository manages attribute nodes. Attributes never live free:
// each one hangs off a scene type, class, port, or relation class through an
// owning has_attribute edge, and its value domain is an attribute_type
// reference driven from the draft's TypeID.
type AttributeRepository struct {
	resolver TypeResolver
}

func (r *AttributeRepository) create(tx domain.Transaction, draft domain.AttributeDraft) (string, error) {
	if draft.TypeID != "" {
		if err := r.resolver.ResolveAs(tx, draft.TypeID, domain.CategoryAttributeType); err != nil {
			return "", err
		}
	}
	attr, err := tx.CreateAttribute(domain.Attribute{
		Base: domain.Base{
			ID:          draft.ID,
			Name:        draft.Name,
			Description: draft.Description,
		},
		DefaultValue: draft.DefaultValue,
	})
	if err != nil {
		return "", err
	}
	if draft.TypeID != "" {
		if _, err := tx.PutAssociation(domain.Association{
			SourceID: attr.ID,
			TargetID: draft.TypeID,
			Kind:     domain.KindAttributeType,
		}); err != nil {
			return "", err
		}
	}
	return attr.ID, nil
}

func (r *AttributeRepository) apply(tx domain.Transaction, id string, draft domain.AttributeDraft) error {
	if draft.TypeID != "" {
		if err := r.resolver.ResolveAs(tx, draft.TypeID, domain.CategoryAttributeType); err != nil {
			return err
		}
	}
	if _, err := tx.UpdateAttribute(id, func(a *domain.Attribute) error {
		a.Name = draft.Name
		a.Description = draft.Description
		a.DefaultValue = draft.DefaultValue
		return nil
	}); err != nil {
		return err
	}
	return setReference(tx, id, domain.KindAttributeType, draft.TypeID, nil)
}

// sync reconciles the has_attribute collection of any owner category. The
// owning edge carries the draft's sequence and UI hint.
func (r *AttributeRepository) sync() childSync[domain.AttributeDraft] {
	return childSync[domain.AttributeDraft]{
		kind:   domain.KindHasAttribute,
		key:    func(d domain.AttributeDraft) string { return d.ID },
		create: r.create,
		update: r.apply,
		edge: func(parentID, childID string, d domain.AttributeDraft) domain.Association {
			return domain.Association{
				SourceID: parentID,
				TargetID: childID,
				Kind:     domain.KindHasAttribute,
				Sequence: d.Sequence,
				UIHint:   d.UIHint,
			}
		},
	}
}

// CreateUnder creates one attribute beneath an owner of any attribute-bearing
// category. The owner's category decides nothing beyond edge validity: the
// kind table rejects owners that cannot carry attributes.
func (r *AttributeRepository) CreateUnder(tx domain.Transaction, ownerID string, draft domain.AttributeDraft) (string, error) {
	if _, err := r.resolver.Resolve(tx, ownerID); err != nil {
		return "", err
	}
	id, err := r.create(tx, draft)
	if err != nil {
		return "", err
	}
	if _, err := tx.PutAssociation(domain.Association{
		SourceID: ownerID,
		TargetID: id,
		Kind:     domain.KindHasAttribute,
		Sequence: draft.Sequence,
		UIHint:   draft.UIHint,
	}); err != nil {
		return "", err
	}
	return id, nil
}

// Get loads one attribute with its type reference. The owning edge
// attributes come from the first owner found; an orphaned attribute reports
// zero edge attributes.
func (r *AttributeRepository) Get(view domain.TransactionView, id string) (AttributeDetail, error) {
	attr, ok := view.FindAttribute(id)
	if !ok {
		return AttributeDetail{}, domain.ErrNotFound{Category: domain.CategoryAttribute, ID: id}
	}
	detail := AttributeDetail{Attribute: attr}
	if owners := view.AssociationsTo(id, domain.KindHasAttribute); len(owners) > 0 {
		detail.Sequence = owners[0].Sequence
		detail.UIHint = owners[0].UIHint
	}
	if refs := view.AssociationsFrom(id, domain.KindAttributeType); len(refs) > 0 {
		detail.TypeID = refs[0].TargetID
	}
	return detail, nil
}

// ListByOwner returns the attributes owned by any attribute-bearing node in
// edge order. The owner's category is resolved polymorphically.
func (r *AttributeRepository) ListByOwner(view domain.TransactionView, ownerID string) ([]AttributeDetail, error) {
	if _, err := r.resolver.Resolve(view, ownerID); err != nil {
		return nil, err
	}
	return loadAttributes(view, ownerID)
}
