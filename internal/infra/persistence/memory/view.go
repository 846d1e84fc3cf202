package memory

import (
	"sort"

	"metacore/pkg/domain"
)

// ResolveCategory maps an id to its category via the shared node index.
func (v view) ResolveCategory(id string) (domain.Category, bool) {
	cat, ok := v.state.index[id]
	return cat, ok
}

// Ref returns the display identity of a live node.
func (v view) Ref(id string) (domain.NodeRef, bool) {
	cat, ok := v.state.index[id]
	if !ok {
		return domain.NodeRef{}, false
	}
	ref := domain.NodeRef{ID: id, Category: cat}
	switch cat {
	case domain.CategorySceneType:
		ref.Name = v.state.sceneTypes[id].Name
	case domain.CategoryClass:
		ref.Name = v.state.classes[id].Name
	case domain.CategoryRelationClass:
		ref.Name = v.state.relationClasses[id].Name
	case domain.CategoryAttribute:
		ref.Name = v.state.attributes[id].Name
	case domain.CategoryAttributeType:
		ref.Name = v.state.attributeTypes[id].Name
	case domain.CategoryPort:
		ref.Name = v.state.ports[id].Name
	case domain.CategoryRole:
		ref.Name = v.state.roles[id].Name
	case domain.CategoryRule:
		ref.Name = v.state.rules[id].Name
	case domain.CategoryProcedure:
		ref.Name = v.state.procedures[id].Name
	case domain.CategoryUser:
		ref.Name = v.state.users[id].Name
	case domain.CategoryUserGroup:
		ref.Name = v.state.userGroups[id].Name
	}
	return ref, true
}

func findIn[T any](m map[string]T, id string, clone func(T) T) (T, bool) {
	val, ok := m[id]
	if !ok {
		var zero T
		return zero, false
	}
	if clone != nil {
		return clone(val), true
	}
	return val, true
}

func listOf[T any](m map[string]T, id func(T) string, clone func(T) T) []T {
	out := make([]T, 0, len(m))
	for _, val := range m {
		if clone != nil {
			val = clone(val)
		}
		out = append(out, val)
	}
	sort.Slice(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
	return out
}

// FindSceneType retrieves a scene type by id.
func (v view) FindSceneType(id string) (domain.SceneType, bool) {
	return findIn(v.state.sceneTypes, id, cloneSceneType)
}

// FindClass retrieves a class by id.
func (v view) FindClass(id string) (domain.Class, bool) {
	return findIn(v.state.classes, id, nil)
}

// FindRelationClass retrieves a relation class by id.
func (v view) FindRelationClass(id string) (domain.RelationClass, bool) {
	return findIn(v.state.relationClasses, id, nil)
}

// FindAttribute retrieves an attribute by id.
func (v view) FindAttribute(id string) (domain.Attribute, bool) {
	return findIn(v.state.attributes, id, nil)
}

// FindAttributeType retrieves an attribute type by id.
func (v view) FindAttributeType(id string) (domain.AttributeType, bool) {
	return findIn(v.state.attributeTypes, id, cloneAttributeType)
}

// FindPort retrieves a port by id.
func (v view) FindPort(id string) (domain.Port, bool) {
	return findIn(v.state.ports, id, nil)
}

// FindRole retrieves a role by id.
func (v view) FindRole(id string) (domain.Role, bool) {
	return findIn(v.state.roles, id, nil)
}

// FindRule retrieves a rule by id.
func (v view) FindRule(id string) (domain.Rule, bool) {
	return findIn(v.state.rules, id, nil)
}

// FindProcedure retrieves a procedure by id.
func (v view) FindProcedure(id string) (domain.Procedure, bool) {
	return findIn(v.state.procedures, id, nil)
}

// FindUser retrieves a user by id.
func (v view) FindUser(id string) (domain.User, bool) {
	return findIn(v.state.users, id, nil)
}

// FindUserGroup retrieves a user group by id.
func (v view) FindUserGroup(id string) (domain.UserGroup, bool) {
	return findIn(v.state.userGroups, id, nil)
}

func baseID[T any](get func(T) domain.Base) func(T) string {
	return func(t T) string { return get(t).ID }
}

// ListSceneTypes returns all scene types ordered by id.
func (v view) ListSceneTypes() []domain.SceneType {
	return listOf(v.state.sceneTypes, baseID(func(s domain.SceneType) domain.Base { return s.Base }), cloneSceneType)
}

// ListClasses returns all classes ordered by id.
func (v view) ListClasses() []domain.Class {
	return listOf(v.state.classes, baseID(func(c domain.Class) domain.Base { return c.Base }), nil)
}

// ListRelationClasses returns all relation classes ordered by id.
func (v view) ListRelationClasses() []domain.RelationClass {
	return listOf(v.state.relationClasses, baseID(func(r domain.RelationClass) domain.Base { return r.Base }), nil)
}

// ListAttributes returns all attributes ordered by id.
func (v view) ListAttributes() []domain.Attribute {
	return listOf(v.state.attributes, baseID(func(a domain.Attribute) domain.Base { return a.Base }), nil)
}

// ListAttributeTypes returns all attribute types ordered by id.
func (v view) ListAttributeTypes() []domain.AttributeType {
	return listOf(v.state.attributeTypes, baseID(func(t domain.AttributeType) domain.Base { return t.Base }), cloneAttributeType)
}

// ListPorts returns all ports ordered by id.
func (v view) ListPorts() []domain.Port {
	return listOf(v.state.ports, baseID(func(p domain.Port) domain.Base { return p.Base }), nil)
}

// ListRoles returns all roles ordered by id.
func (v view) ListRoles() []domain.Role {
	return listOf(v.state.roles, baseID(func(r domain.Role) domain.Base { return r.Base }), nil)
}

// ListRules returns all rules ordered by id.
func (v view) ListRules() []domain.Rule {
	return listOf(v.state.rules, baseID(func(r domain.Rule) domain.Base { return r.Base }), nil)
}

// ListProcedures returns all procedures ordered by id.
func (v view) ListProcedures() []domain.Procedure {
	return listOf(v.state.procedures, baseID(func(p domain.Procedure) domain.Base { return p.Base }), nil)
}

// ListUsers returns all users ordered by id.
func (v view) ListUsers() []domain.User {
	return listOf(v.state.users, baseID(func(u domain.User) domain.Base { return u.Base }), nil)
}

// ListUserGroups returns all user groups ordered by id.
func (v view) ListUserGroups() []domain.UserGroup {
	return listOf(v.state.userGroups, baseID(func(g domain.UserGroup) domain.Base { return g.Base }), nil)
}

// Association returns one edge by identity.
func (v view) Association(key domain.AssociationKey) (domain.Association, bool) {
	a, ok := v.state.associations[key]
	return a, ok
}

// AssociationsFrom returns edges leaving sourceID ordered by sequence then
// target id. An empty kind matches every kind.
func (v view) AssociationsFrom(sourceID string, kind domain.AssociationKind) []domain.Association {
	var out []domain.Association
	for _, a := range v.state.associations {
		if a.SourceID != sourceID {
			continue
		}
		if kind != "" && a.Kind != kind {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		if out[i].TargetID != out[j].TargetID {
			return out[i].TargetID < out[j].TargetID
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// AssociationsTo returns edges arriving at targetID ordered by source id.
// An empty kind matches every kind.
func (v view) AssociationsTo(targetID string, kind domain.AssociationKind) []domain.Association {
	var out []domain.Association
	for _, a := range v.state.associations {
		if a.TargetID != targetID {
			continue
		}
		if kind != "" && a.Kind != kind {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourceID != out[j].SourceID {
			return out[i].SourceID < out[j].SourceID
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// ListAssociations returns every edge ordered by identity.
func (v view) ListAssociations() []domain.Association {
	out := make([]domain.Association, 0, len(v.state.associations))
	for _, a := range v.state.associations {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.TargetID != b.TargetID {
			return a.TargetID < b.TargetID
		}
		return a.Kind < b.Kind
	})
	return out
}

// RightsForGroup returns the rights granted to one group.
func (v view) RightsForGroup(groupID string) []domain.Right {
	return append([]domain.Right(nil), v.state.rights[groupID]...)
}

// GroupsOf returns the ids of the groups the user is a member of, ordered.
func (v view) GroupsOf(userID string) []string {
	var out []string
	for _, a := range v.state.associations {
		if a.Kind == domain.KindGroupMember && a.TargetID == userID {
			out = append(out, a.SourceID)
		}
	}
	sort.Strings(out)
	return out
}

// ListRights returns every right tuple ordered by group then action.
func (v view) ListRights() []domain.Right {
	var out []domain.Right
	for _, grants := range v.state.rights {
		out = append(out, grants...)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.GroupID != b.GroupID {
			return a.GroupID < b.GroupID
		}
		if a.Action != b.Action {
			return a.Action < b.Action
		}
		if a.NodeID != b.NodeID {
			return a.NodeID < b.NodeID
		}
		return a.Category < b.Category
	})
	return out
}
