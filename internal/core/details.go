package core

import "metacore/pkg/domain"

// Detail read models materialize a node together with its linked context:
// owned children in edge order, single-valued references, and the edge
// attributes of each link. They are what the service returns from reads.

// AttributeDetail is an attribute with its value domain reference and the
// edge attributes of its owning association.
type AttributeDetail struct {
	domain.Attribute
	TypeID   string `json:"type_id,omitempty"`
	Sequence int    `json:"sequence,omitempty"`
	UIHint   string `json:"ui_hint,omitempty"`
}

// PortDetail is a port with its owned attributes.
type PortDetail struct {
	domain.Port
	Attributes []AttributeDetail `json:"attributes,omitempty"`
}

// ClassDetail is a class with its superclass reference, owned attributes,
// and owned ports.
type ClassDetail struct {
	domain.Class
	SuperClassID string            `json:"super_class_id,omitempty"`
	Attributes   []AttributeDetail `json:"attributes,omitempty"`
	Ports        []PortDetail      `json:"ports,omitempty"`
}

// SceneMember is a class or relation class placed in a scene type, with the
// placement's edge attributes.
type SceneMember struct {
	Ref      domain.NodeRef `json:"ref"`
	Sequence int            `json:"sequence,omitempty"`
	UIHint   string         `json:"ui_hint,omitempty"`
}

// SceneTypeDetail is a scene type with its owned attributes and member
// placements in edge order.
type SceneTypeDetail struct {
	domain.SceneType
	Attributes      []AttributeDetail `json:"attributes,omitempty"`
	Classes         []SceneMember     `json:"classes,omitempty"`
	RelationClasses []SceneMember     `json:"relation_classes,omitempty"`
}

// RoleDetail is a relation end with its accepted class and the multiplicity
// bounds carried by the role_class edge.
type RoleDetail struct {
	domain.Role
	ClassID string `json:"class_id,omitempty"`
	MinCard int    `json:"min_card,omitempty"`
	MaxCard int    `json:"max_card,omitempty"`
}

// RelationClassDetail is a relation class with its owned attributes and
// roles.
type RelationClassDetail struct {
	domain.RelationClass
	Attributes []AttributeDetail `json:"attributes,omitempty"`
	Roles      []RoleDetail      `json:"roles,omitempty"`
}

// RuleDetail is a rule with the node it constrains.
type RuleDetail struct {
	domain.Rule
	TargetID string `json:"target_id,omitempty"`
}

// UserGroupDetail is a group with its member ids and granted rights.
type UserGroupDetail struct {
	domain.UserGroup
	MemberIDs []string       `json:"member_ids,omitempty"`
	Rights    []domain.Right `json:"rights,omitempty"`
}

func loadAttributeDetail(view domain.TransactionView, owning domain.Association) (AttributeDetail, error) {
	attr, ok := view.FindAttribute(owning.TargetID)
	if !ok {
		return AttributeDetail{}, domain.ErrNotFound{Category: domain.CategoryAttribute, ID: owning.TargetID}
	}
	detail := AttributeDetail{Attribute: attr, Sequence: owning.Sequence, UIHint: owning.UIHint}
	if refs := view.AssociationsFrom(attr.ID, domain.KindAttributeType); len(refs) > 0 {
		detail.TypeID = refs[0].TargetID
	}
	return detail, nil
}

// loadAttributes returns the attributes owned by ownerID in edge order.
func loadAttributes(view domain.TransactionView, ownerID string) ([]AttributeDetail, error) {
	edges := view.AssociationsFrom(ownerID, domain.KindHasAttribute)
	if len(edges) == 0 {
		return nil, nil
	}
	out := make([]AttributeDetail, 0, len(edges))
	for _, edge := range edges {
		detail, err := loadAttributeDetail(view, edge)
		if err != nil {
			return nil, err
		}
		out = append(out, detail)
	}
	return out, nil
}

func loadPorts(view domain.TransactionView, classID string) ([]PortDetail, error) {
	edges := view.AssociationsFrom(classID, domain.KindHasPort)
	if len(edges) == 0 {
		return nil, nil
	}
	out := make([]PortDetail, 0, len(edges))
	for _, edge := range edges {
		port, ok := view.FindPort(edge.TargetID)
		if !ok {
			return nil, domain.ErrNotFound{Category: domain.CategoryPort, ID: edge.TargetID}
		}
		attrs, err := loadAttributes(view, port.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, PortDetail{Port: port, Attributes: attrs})
	}
	return out, nil
}

func loadRoles(view domain.TransactionView, relationID string) ([]RoleDetail, error) {
	edges := view.AssociationsFrom(relationID, domain.KindHasRole)
	if len(edges) == 0 {
		return nil, nil
	}
	out := make([]RoleDetail, 0, len(edges))
	for _, edge := range edges {
		role, ok := view.FindRole(edge.TargetID)
		if !ok {
			return nil, domain.ErrNotFound{Category: domain.CategoryRole, ID: edge.TargetID}
		}
		detail := RoleDetail{Role: role}
		if refs := view.AssociationsFrom(role.ID, domain.KindRoleClass); len(refs) > 0 {
			detail.ClassID = refs[0].TargetID
			detail.MinCard = refs[0].MinCard
			detail.MaxCard = refs[0].MaxCard
		}
		out = append(out, detail)
	}
	return out, nil
}

func loadSceneMembers(view domain.TransactionView, sceneID string, kind domain.AssociationKind) []SceneMember {
	edges := view.AssociationsFrom(sceneID, kind)
	if len(edges) == 0 {
		return nil
	}
	out := make([]SceneMember, 0, len(edges))
	for _, edge := range edges {
		ref, ok := view.Ref(edge.TargetID)
		if !ok {
			continue
		}
		out = append(out, SceneMember{Ref: ref, Sequence: edge.Sequence, UIHint: edge.UIHint})
	}
	return out
}
