package core

import "metacore/pkg/domain"

// PortRepository manages port nodes and their nested attribute collections.
type PortRepository struct {
	resolver TypeResolver
	attrs    *AttributeRepository
}

func (r *PortRepository) create(tx domain.Transaction, draft domain.PortDraft) (string, error) {
	port, err := tx.CreatePort(domain.Port{
		Base: domain.Base{
			ID:          draft.ID,
			Name:        draft.Name,
			Description: draft.Description,
		},
		Direction: draft.Direction,
	})
	if err != nil {
		return "", err
	}
	if err := reconcileChildren(tx, port.ID, draft.Attributes, r.attrs.sync(), false); err != nil {
		return "", err
	}
	return port.ID, nil
}

func (r *PortRepository) apply(tx domain.Transaction, id string, draft domain.PortDraft, hard bool) error {
	if _, err := tx.UpdatePort(id, func(p *domain.Port) error {
		p.Name = draft.Name
		p.Description = draft.Description
		p.Direction = draft.Direction
		return nil
	}); err != nil {
		return err
	}
	return reconcileChildren(tx, id, draft.Attributes, r.attrs.sync(), hard)
}

// sync reconciles the has_port collection of a class. Removal mode threads
// through to the nested attribute collections.
func (r *PortRepository) sync(hard bool) childSync[domain.PortDraft] {
	return childSync[domain.PortDraft]{
		kind: domain.KindHasPort,
		key:  func(d domain.PortDraft) string { return d.ID },
		create: func(tx domain.Transaction, d domain.PortDraft) (string, error) {
			return r.create(tx, d)
		},
		update: func(tx domain.Transaction, id string, d domain.PortDraft) error {
			return r.apply(tx, id, d, hard)
		},
		edge: func(parentID, childID string, d domain.PortDraft) domain.Association {
			return domain.Association{SourceID: parentID, TargetID: childID, Kind: domain.KindHasPort}
		},
	}
}

// CreateUnder creates one port beneath a class.
func (r *PortRepository) CreateUnder(tx domain.Transaction, classID string, draft domain.PortDraft) (string, error) {
	if err := r.resolver.ResolveAs(tx, classID, domain.CategoryClass); err != nil {
		return "", err
	}
	id, err := r.create(tx, draft)
	if err != nil {
		return "", err
	}
	if _, err := tx.PutAssociation(domain.Association{
		SourceID: classID,
		TargetID: id,
		Kind:     domain.KindHasPort,
	}); err != nil {
		return "", err
	}
	return id, nil
}

// Get loads one port with its attributes.
func (r *PortRepository) Get(view domain.TransactionView, id string) (PortDetail, error) {
	port, ok := view.FindPort(id)
	if !ok {
		return PortDetail{}, domain.ErrNotFound{Category: domain.CategoryPort, ID: id}
	}
	attrs, err := loadAttributes(view, id)
	if err != nil {
		return PortDetail{}, err
	}
	return PortDetail{Port: port, Attributes: attrs}, nil
}
