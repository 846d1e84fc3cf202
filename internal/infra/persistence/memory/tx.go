package memory

import (
	"metacore/pkg/domain"
)

func (tx *transaction) recordChange(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

func identityClone[T any](t T) T { return t }

func createIn[T any](tx *transaction, table map[string]T, cat domain.Category, node T, base func(*T) *domain.Base, clone func(T) T, validate func(T) error) (T, error) {
	var zero T
	b := base(&node)
	if b.ID == "" {
		b.ID = newID()
	}
	if _, taken := tx.state.index[b.ID]; taken {
		ref, _ := tx.Ref(b.ID)
		return zero, domain.ConflictError{Op: "create " + string(cat), Blocking: []domain.NodeRef{ref}}
	}
	if validate != nil {
		if err := validate(node); err != nil {
			return zero, err
		}
	}
	b.CreatedAt = tx.now
	b.UpdatedAt = tx.now
	table[b.ID] = clone(node)
	tx.state.index[b.ID] = cat
	tx.recordChange(domain.Change{Category: cat, Action: domain.ChangeCreate, NodeID: b.ID, After: clone(node)})
	return clone(node), nil
}

func updateIn[T any](tx *transaction, table map[string]T, cat domain.Category, id string, mutator func(*T) error, base func(*T) *domain.Base, clone func(T) T, validate func(T) error) (T, error) {
	var zero T
	current, ok := table[id]
	if !ok {
		return zero, domain.ErrNotFound{Category: cat, ID: id}
	}
	before := clone(current)
	if err := mutator(&current); err != nil {
		return zero, err
	}
	b := base(&current)
	b.ID = id
	b.UpdatedAt = tx.now
	if validate != nil {
		if err := validate(current); err != nil {
			return zero, err
		}
	}
	table[id] = clone(current)
	tx.recordChange(domain.Change{Category: cat, Action: domain.ChangeUpdate, NodeID: id, Before: before, After: clone(current)})
	return clone(current), nil
}

// deleteIn removes a node, enforcing referential integrity: inbound
// reference edges from live nodes block the removal and are reported as
// the blocking set. Edges touching the node are removed with it; inbound
// ownership edges do not block (the owner simply loses the child).
func deleteIn[T any](tx *transaction, table map[string]T, cat domain.Category, id string, clone func(T) T) error {
	current, ok := table[id]
	if !ok {
		return domain.ErrNotFound{Category: cat, ID: id}
	}
	var blocking []domain.NodeRef
	for _, a := range tx.AssociationsTo(id, "") {
		if domain.IsOwning(a.Kind) {
			continue
		}
		if ref, live := tx.Ref(a.SourceID); live {
			blocking = append(blocking, ref)
		}
	}
	if len(blocking) > 0 {
		return domain.ConflictError{Op: "delete " + string(cat), Blocking: blocking}
	}
	for key := range tx.state.associations {
		if key.SourceID == id || key.TargetID == id {
			delete(tx.state.associations, key)
		}
	}
	delete(table, id)
	delete(tx.state.index, id)
	tx.recordChange(domain.Change{Category: cat, Action: domain.ChangeDelete, NodeID: id, Before: clone(current)})
	return nil
}

// CreateSceneType stores a new scene type.
func (tx *transaction) CreateSceneType(s domain.SceneType) (domain.SceneType, error) {
	return createIn(tx, tx.state.sceneTypes, domain.CategorySceneType, s,
		func(s *domain.SceneType) *domain.Base { return &s.Base }, cloneSceneType, nil)
}

// UpdateSceneType mutates an existing scene type.
func (tx *transaction) UpdateSceneType(id string, mutator func(*domain.SceneType) error) (domain.SceneType, error) {
	return updateIn(tx, tx.state.sceneTypes, domain.CategorySceneType, id, mutator,
		func(s *domain.SceneType) *domain.Base { return &s.Base }, cloneSceneType, nil)
}

// DeleteSceneType removes a scene type unless live references block it.
func (tx *transaction) DeleteSceneType(id string) error {
	return deleteIn(tx, tx.state.sceneTypes, domain.CategorySceneType, id, cloneSceneType)
}

// CreateClass stores a new class.
func (tx *transaction) CreateClass(c domain.Class) (domain.Class, error) {
	return createIn(tx, tx.state.classes, domain.CategoryClass, c,
		func(c *domain.Class) *domain.Base { return &c.Base }, identityClone, nil)
}

// UpdateClass mutates an existing class.
func (tx *transaction) UpdateClass(id string, mutator func(*domain.Class) error) (domain.Class, error) {
	return updateIn(tx, tx.state.classes, domain.CategoryClass, id, mutator,
		func(c *domain.Class) *domain.Base { return &c.Base }, identityClone, nil)
}

// DeleteClass removes a class unless live references block it.
func (tx *transaction) DeleteClass(id string) error {
	return deleteIn(tx, tx.state.classes, domain.CategoryClass, id, identityClone)
}

// CreateRelationClass stores a new relation class.
func (tx *transaction) CreateRelationClass(r domain.RelationClass) (domain.RelationClass, error) {
	return createIn(tx, tx.state.relationClasses, domain.CategoryRelationClass, r,
		func(r *domain.RelationClass) *domain.Base { return &r.Base }, identityClone, nil)
}

// UpdateRelationClass mutates an existing relation class.
func (tx *transaction) UpdateRelationClass(id string, mutator func(*domain.RelationClass) error) (domain.RelationClass, error) {
	return updateIn(tx, tx.state.relationClasses, domain.CategoryRelationClass, id, mutator,
		func(r *domain.RelationClass) *domain.Base { return &r.Base }, identityClone, nil)
}

// DeleteRelationClass removes a relation class unless references block it.
func (tx *transaction) DeleteRelationClass(id string) error {
	return deleteIn(tx, tx.state.relationClasses, domain.CategoryRelationClass, id, identityClone)
}

// CreateAttribute stores a new attribute.
func (tx *transaction) CreateAttribute(a domain.Attribute) (domain.Attribute, error) {
	return createIn(tx, tx.state.attributes, domain.CategoryAttribute, a,
		func(a *domain.Attribute) *domain.Base { return &a.Base }, identityClone, nil)
}

// UpdateAttribute mutates an existing attribute.
func (tx *transaction) UpdateAttribute(id string, mutator func(*domain.Attribute) error) (domain.Attribute, error) {
	return updateIn(tx, tx.state.attributes, domain.CategoryAttribute, id, mutator,
		func(a *domain.Attribute) *domain.Base { return &a.Base }, identityClone, nil)
}

// DeleteAttribute removes an attribute unless live references block it.
func (tx *transaction) DeleteAttribute(id string) error {
	return deleteIn(tx, tx.state.attributes, domain.CategoryAttribute, id, identityClone)
}

func validateAttributeType(t domain.AttributeType) error {
	if t.Kind == domain.ValueEnum && len(t.EnumValues) == 0 {
		return domain.ValidationError{Reason: "enum attribute type requires enum values"}
	}
	return nil
}

// CreateAttributeType stores a new attribute value domain.
func (tx *transaction) CreateAttributeType(t domain.AttributeType) (domain.AttributeType, error) {
	return createIn(tx, tx.state.attributeTypes, domain.CategoryAttributeType, t,
		func(t *domain.AttributeType) *domain.Base { return &t.Base }, cloneAttributeType, validateAttributeType)
}

// UpdateAttributeType mutates an existing attribute type.
func (tx *transaction) UpdateAttributeType(id string, mutator func(*domain.AttributeType) error) (domain.AttributeType, error) {
	return updateIn(tx, tx.state.attributeTypes, domain.CategoryAttributeType, id, mutator,
		func(t *domain.AttributeType) *domain.Base { return &t.Base }, cloneAttributeType, validateAttributeType)
}

// DeleteAttributeType removes an attribute type unless attributes still
// reference it.
func (tx *transaction) DeleteAttributeType(id string) error {
	return deleteIn(tx, tx.state.attributeTypes, domain.CategoryAttributeType, id, cloneAttributeType)
}

// CreatePort stores a new port.
func (tx *transaction) CreatePort(p domain.Port) (domain.Port, error) {
	return createIn(tx, tx.state.ports, domain.CategoryPort, p,
		func(p *domain.Port) *domain.Base { return &p.Base }, identityClone, nil)
}

// UpdatePort mutates an existing port.
func (tx *transaction) UpdatePort(id string, mutator func(*domain.Port) error) (domain.Port, error) {
	return updateIn(tx, tx.state.ports, domain.CategoryPort, id, mutator,
		func(p *domain.Port) *domain.Base { return &p.Base }, identityClone, nil)
}

// DeletePort removes a port unless live references block it.
func (tx *transaction) DeletePort(id string) error {
	return deleteIn(tx, tx.state.ports, domain.CategoryPort, id, identityClone)
}

// CreateRole stores a new role.
func (tx *transaction) CreateRole(r domain.Role) (domain.Role, error) {
	return createIn(tx, tx.state.roles, domain.CategoryRole, r,
		func(r *domain.Role) *domain.Base { return &r.Base }, identityClone, nil)
}

// UpdateRole mutates an existing role.
func (tx *transaction) UpdateRole(id string, mutator func(*domain.Role) error) (domain.Role, error) {
	return updateIn(tx, tx.state.roles, domain.CategoryRole, id, mutator,
		func(r *domain.Role) *domain.Base { return &r.Base }, identityClone, nil)
}

// DeleteRole removes a role unless live references block it.
func (tx *transaction) DeleteRole(id string) error {
	return deleteIn(tx, tx.state.roles, domain.CategoryRole, id, identityClone)
}

func validateRule(r domain.Rule) error {
	if r.Expression == "" {
		return domain.ValidationError{Reason: "rule expression must not be empty"}
	}
	return nil
}

// CreateRule stores a new constraint rule.
func (tx *transaction) CreateRule(r domain.Rule) (domain.Rule, error) {
	return createIn(tx, tx.state.rules, domain.CategoryRule, r,
		func(r *domain.Rule) *domain.Base { return &r.Base }, identityClone, validateRule)
}

// UpdateRule mutates an existing rule.
func (tx *transaction) UpdateRule(id string, mutator func(*domain.Rule) error) (domain.Rule, error) {
	return updateIn(tx, tx.state.rules, domain.CategoryRule, id, mutator,
		func(r *domain.Rule) *domain.Base { return &r.Base }, identityClone, validateRule)
}

// DeleteRule removes a rule.
func (tx *transaction) DeleteRule(id string) error {
	return deleteIn(tx, tx.state.rules, domain.CategoryRule, id, identityClone)
}

// CreateProcedure stores a new procedure.
func (tx *transaction) CreateProcedure(p domain.Procedure) (domain.Procedure, error) {
	return createIn(tx, tx.state.procedures, domain.CategoryProcedure, p,
		func(p *domain.Procedure) *domain.Base { return &p.Base }, identityClone, nil)
}

// UpdateProcedure mutates an existing procedure.
func (tx *transaction) UpdateProcedure(id string, mutator func(*domain.Procedure) error) (domain.Procedure, error) {
	return updateIn(tx, tx.state.procedures, domain.CategoryProcedure, id, mutator,
		func(p *domain.Procedure) *domain.Base { return &p.Base }, identityClone, nil)
}

// DeleteProcedure removes a procedure.
func (tx *transaction) DeleteProcedure(id string) error {
	return deleteIn(tx, tx.state.procedures, domain.CategoryProcedure, id, identityClone)
}

// CreateUser stores a new user account.
func (tx *transaction) CreateUser(u domain.User) (domain.User, error) {
	return createIn(tx, tx.state.users, domain.CategoryUser, u,
		func(u *domain.User) *domain.Base { return &u.Base }, identityClone, nil)
}

// UpdateUser mutates an existing user.
func (tx *transaction) UpdateUser(id string, mutator func(*domain.User) error) (domain.User, error) {
	return updateIn(tx, tx.state.users, domain.CategoryUser, id, mutator,
		func(u *domain.User) *domain.Base { return &u.Base }, identityClone, nil)
}

// DeleteUser removes a user unless group memberships block it.
func (tx *transaction) DeleteUser(id string) error {
	return deleteIn(tx, tx.state.users, domain.CategoryUser, id, identityClone)
}

// CreateUserGroup stores a new user group.
func (tx *transaction) CreateUserGroup(g domain.UserGroup) (domain.UserGroup, error) {
	return createIn(tx, tx.state.userGroups, domain.CategoryUserGroup, g,
		func(g *domain.UserGroup) *domain.Base { return &g.Base }, identityClone, nil)
}

// UpdateUserGroup mutates an existing user group.
func (tx *transaction) UpdateUserGroup(id string, mutator func(*domain.UserGroup) error) (domain.UserGroup, error) {
	return updateIn(tx, tx.state.userGroups, domain.CategoryUserGroup, id, mutator,
		func(g *domain.UserGroup) *domain.Base { return &g.Base }, identityClone, nil)
}

// DeleteUserGroup removes a user group and its right grants.
func (tx *transaction) DeleteUserGroup(id string) error {
	if err := deleteIn(tx, tx.state.userGroups, domain.CategoryUserGroup, id, identityClone); err != nil {
		return err
	}
	delete(tx.state.rights, id)
	return nil
}

// PutAssociation inserts a new edge after validating its endpoints against
// the kind table.
func (tx *transaction) PutAssociation(a domain.Association) (domain.Association, error) {
	spec, known := domain.KindSpecFor(a.Kind)
	if !known {
		return domain.Association{}, domain.ValidationError{Reason: "unknown association kind " + string(a.Kind)}
	}
	srcCat, ok := tx.ResolveCategory(a.SourceID)
	if !ok {
		return domain.Association{}, domain.ErrNotFound{ID: a.SourceID}
	}
	tgtCat, ok := tx.ResolveCategory(a.TargetID)
	if !ok {
		return domain.Association{}, domain.ErrNotFound{ID: a.TargetID}
	}
	if !spec.AllowsSource(srcCat) {
		return domain.Association{}, domain.ValidationError{Reason: string(a.Kind) + " cannot start at a " + string(srcCat)}
	}
	if !spec.AllowsTarget(tgtCat) {
		return domain.Association{}, domain.ValidationError{Reason: string(a.Kind) + " cannot end at a " + string(tgtCat)}
	}
	if _, exists := tx.state.associations[a.Key()]; exists {
		src, _ := tx.Ref(a.SourceID)
		return domain.Association{}, domain.ConflictError{Op: "link " + string(a.Kind), Blocking: []domain.NodeRef{src}}
	}
	tx.state.associations[a.Key()] = a
	return a, nil
}

// UpdateAssociation mutates the edge attributes of an existing edge. The
// identity of the edge is immutable.
func (tx *transaction) UpdateAssociation(key domain.AssociationKey, mutator func(*domain.Association) error) (domain.Association, error) {
	current, ok := tx.state.associations[key]
	if !ok {
		return domain.Association{}, domain.ErrNotFound{ID: key.SourceID + "->" + key.TargetID}
	}
	if err := mutator(&current); err != nil {
		return domain.Association{}, err
	}
	current.SourceID = key.SourceID
	current.TargetID = key.TargetID
	current.Kind = key.Kind
	tx.state.associations[key] = current
	return current, nil
}

// DeleteAssociation removes one edge.
func (tx *transaction) DeleteAssociation(key domain.AssociationKey) error {
	if _, ok := tx.state.associations[key]; !ok {
		return domain.ErrNotFound{ID: key.SourceID + "->" + key.TargetID}
	}
	delete(tx.state.associations, key)
	return nil
}

// GrantRight records a right tuple. Granting an identical tuple twice is a
// no-op.
func (tx *transaction) GrantRight(r domain.Right) error {
	if r.GroupID == "" {
		return domain.ValidationError{Reason: "right requires a group"}
	}
	if r.Action == domain.RightCreate {
		if r.Category == "" {
			return domain.ValidationError{Reason: "create right requires a category"}
		}
	} else if r.NodeID == "" {
		return domain.ValidationError{Reason: string(r.Action) + " right requires a node scope"}
	}
	for _, existing := range tx.state.rights[r.GroupID] {
		if existing == r {
			return nil
		}
	}
	tx.state.rights[r.GroupID] = append(tx.state.rights[r.GroupID], r)
	return nil
}

// RevokeRight removes a right tuple. Revoking an absent tuple is a no-op.
func (tx *transaction) RevokeRight(r domain.Right) error {
	grants := tx.state.rights[r.GroupID]
	for i, existing := range grants {
		if existing == r {
			tx.state.rights[r.GroupID] = append(grants[:i:i], grants[i+1:]...)
			return nil
		}
	}
	return nil
}
