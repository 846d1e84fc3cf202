package core

import "metacore/pkg/domain"

// RoleRepository manages relation end nodes. The accepted class and the
// multiplicity bounds live on the role_class reference edge.
type RoleRepository struct {
	resolver TypeResolver
}

func (r *RoleRepository) validate(draft domain.RoleDraft) error {
	if draft.MinCard < 0 {
		return domain.ValidationError{Reason: "role minimum cardinality must not be negative"}
	}
	if draft.MaxCard != domain.CardUnbounded && draft.MaxCard < draft.MinCard {
		return domain.ValidationError{Reason: "role maximum cardinality below minimum"}
	}
	return nil
}

func (r *RoleRepository) create(tx domain.Transaction, draft domain.RoleDraft) (string, error) {
	if err := r.validate(draft); err != nil {
		return "", err
	}
	if draft.ClassID != "" {
		if err := r.resolver.ResolveAs(tx, draft.ClassID, domain.CategoryClass); err != nil {
			return "", err
		}
	}
	role, err := tx.CreateRole(domain.Role{
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
	if err := r.setClass(tx, role.ID, draft); err != nil {
		return "", err
	}
	return role.ID, nil
}

func (r *RoleRepository) apply(tx domain.Transaction, id string, draft domain.RoleDraft) error {
	if err := r.validate(draft); err != nil {
		return err
	}
	if draft.ClassID != "" {
		if err := r.resolver.ResolveAs(tx, draft.ClassID, domain.CategoryClass); err != nil {
			return err
		}
	}
	if _, err := tx.UpdateRole(id, func(role *domain.Role) error {
		role.Name = draft.Name
		role.Description = draft.Description
		role.Direction = draft.Direction
		return nil
	}); err != nil {
		return err
	}
	return r.setClass(tx, id, draft)
}

func (r *RoleRepository) setClass(tx domain.Transaction, roleID string, draft domain.RoleDraft) error {
	return setReference(tx, roleID, domain.KindRoleClass, draft.ClassID, func(a *domain.Association) {
		a.MinCard = draft.MinCard
		a.MaxCard = draft.MaxCard
	})
}

func (r *RoleRepository) sync() childSync[domain.RoleDraft] {
	return childSync[domain.RoleDraft]{
		kind:   domain.KindHasRole,
		key:    func(d domain.RoleDraft) string { return d.ID },
		create: r.create,
		update: r.apply,
		edge: func(parentID, childID string, d domain.RoleDraft) domain.Association {
			return domain.Association{SourceID: parentID, TargetID: childID, Kind: domain.KindHasRole}
		},
	}
}

// Get loads one role with its accepted class and bounds.
func (r *RoleRepository) Get(view domain.TransactionView, id string) (RoleDetail, error) {
	role, ok := view.FindRole(id)
	if !ok {
		return RoleDetail{}, domain.ErrNotFound{Category: domain.CategoryRole, ID: id}
	}
	detail := RoleDetail{Role: role}
	if refs := view.AssociationsFrom(id, domain.KindRoleClass); len(refs) > 0 {
		detail.ClassID = refs[0].TargetID
		detail.MinCard = refs[0].MinCard
		detail.MaxCard = refs[0].MaxCard
	}
	return detail, nil
}

// RelationClassRepository manages relation class nodes with their owned
// attribute and role collections.
type RelationClassRepository struct {
	attrs *AttributeRepository
	roles *RoleRepository
}

// Create materializes a relation class and its nested collections.
func (r *RelationClassRepository) Create(tx domain.Transaction, draft domain.RelationClassDraft) (string, error) {
	relation, err := tx.CreateRelationClass(domain.RelationClass{
		Base: domain.Base{
			ID:          draft.ID,
			Name:        draft.Name,
			Description: draft.Description,
		},
		Representation: draft.Representation,
	})
	if err != nil {
		return "", err
	}
	if err := reconcileChildren(tx, relation.ID, draft.Attributes, r.attrs.sync(), false); err != nil {
		return "", err
	}
	if err := reconcileChildren(tx, relation.ID, draft.Roles, r.roles.sync(), false); err != nil {
		return "", err
	}
	return relation.ID, nil
}

// Apply drives an existing relation class toward the draft.
func (r *RelationClassRepository) Apply(tx domain.Transaction, id string, draft domain.RelationClassDraft, hard bool) error {
	if _, err := tx.UpdateRelationClass(id, func(rc *domain.RelationClass) error {
		rc.Name = draft.Name
		rc.Description = draft.Description
		rc.Representation = draft.Representation
		return nil
	}); err != nil {
		return err
	}
	if err := reconcileChildren(tx, id, draft.Attributes, r.attrs.sync(), hard); err != nil {
		return err
	}
	return reconcileChildren(tx, id, draft.Roles, r.roles.sync(), hard)
}

// Get loads one relation class with its attributes and roles.
func (r *RelationClassRepository) Get(view domain.TransactionView, id string) (RelationClassDetail, error) {
	relation, ok := view.FindRelationClass(id)
	if !ok {
		return RelationClassDetail{}, domain.ErrNotFound{Category: domain.CategoryRelationClass, ID: id}
	}
	detail := RelationClassDetail{RelationClass: relation}
	attrs, err := loadAttributes(view, id)
	if err != nil {
		return RelationClassDetail{}, err
	}
	detail.Attributes = attrs
	roleEdges := view.AssociationsFrom(id, domain.KindHasRole)
	if len(roleEdges) > 0 {
		detail.Roles = make([]RoleDetail, 0, len(roleEdges))
		for _, edge := range roleEdges {
			roleDetail, err := r.roles.Get(view, edge.TargetID)
			if err != nil {
				return RelationClassDetail{}, err
			}
			detail.Roles = append(detail.Roles, roleDetail)
		}
	}
	return detail, nil
}
