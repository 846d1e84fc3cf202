package core

import "metacore/pkg/domain"

// ClassRepository manages class nodes: their base fields, the optional
// specializes reference, and the owned attribute and port collections.
type ClassRepository struct {
	resolver TypeResolver
	attrs    *AttributeRepository
	ports    *PortRepository
}

// Create materializes a class and its nested collections from a draft.
func (r *ClassRepository) Create(tx domain.Transaction, draft domain.ClassDraft) (string, error) {
	if draft.SuperClassID != "" {
		if err := r.resolver.ResolveAs(tx, draft.SuperClassID, domain.CategoryClass); err != nil {
			return "", err
		}
	}
	class, err := tx.CreateClass(domain.Class{
		Base: domain.Base{
			ID:          draft.ID,
			Name:        draft.Name,
			Description: draft.Description,
		},
		Abstract: draft.Abstract,
	})
	if err != nil {
		return "", err
	}
	if draft.SuperClassID != "" {
		if _, err := tx.PutAssociation(domain.Association{
			SourceID: class.ID,
			TargetID: draft.SuperClassID,
			Kind:     domain.KindSpecializes,
		}); err != nil {
			return "", err
		}
	}
	if err := reconcileChildren(tx, class.ID, draft.Attributes, r.attrs.sync(), false); err != nil {
		return "", err
	}
	if err := reconcileChildren(tx, class.ID, draft.Ports, r.ports.sync(false), false); err != nil {
		return "", err
	}
	return class.ID, nil
}

// Apply drives an existing class toward the draft. In hard mode children
// missing from the draft are deleted with cascade semantics; in soft mode
// they are only disconnected.
func (r *ClassRepository) Apply(tx domain.Transaction, id string, draft domain.ClassDraft, hard bool) error {
	if id == draft.SuperClassID {
		return domain.ValidationError{Reason: "class cannot specialize itself"}
	}
	if draft.SuperClassID != "" {
		if err := r.resolver.ResolveAs(tx, draft.SuperClassID, domain.CategoryClass); err != nil {
			return err
		}
	}
	if _, err := tx.UpdateClass(id, func(c *domain.Class) error {
		c.Name = draft.Name
		c.Description = draft.Description
		c.Abstract = draft.Abstract
		return nil
	}); err != nil {
		return err
	}
	if err := setReference(tx, id, domain.KindSpecializes, draft.SuperClassID, nil); err != nil {
		return err
	}
	if err := reconcileChildren(tx, id, draft.Attributes, r.attrs.sync(), hard); err != nil {
		return err
	}
	return reconcileChildren(tx, id, draft.Ports, r.ports.sync(hard), hard)
}

// Get loads one class with its superclass, attributes, and ports.
func (r *ClassRepository) Get(view domain.TransactionView, id string) (ClassDetail, error) {
	class, ok := view.FindClass(id)
	if !ok {
		return ClassDetail{}, domain.ErrNotFound{Category: domain.CategoryClass, ID: id}
	}
	detail := ClassDetail{Class: class}
	if refs := view.AssociationsFrom(id, domain.KindSpecializes); len(refs) > 0 {
		detail.SuperClassID = refs[0].TargetID
	}
	attrs, err := loadAttributes(view, id)
	if err != nil {
		return ClassDetail{}, err
	}
	detail.Attributes = attrs
	ports, err := loadPorts(view, id)
	if err != nil {
		return ClassDetail{}, err
	}
	detail.Ports = ports
	return detail, nil
}
