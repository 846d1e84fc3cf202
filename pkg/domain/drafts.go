package domain

// Drafts are the desired-state payloads submitted to update operations.
// A draft with an empty ID describes a node to create; a draft whose ID is
// already linked to the parent updates that child in place; children linked
// to the parent but absent from the draft are disconnected (and deleted in
// hard mode). Edge attributes (sequence, UI hint, multiplicity) live on the
// draft and are re-applied to the association on every update.

// AttributeDraft is the desired state of one attribute, including the edge
// attributes of its owning association and its value domain reference.
type AttributeDraft struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	DefaultValue string `json:"default_value,omitempty"`
	TypeID       string `json:"type_id,omitempty"`
	Sequence     int    `json:"sequence,omitempty"`
	UIHint       string `json:"ui_hint,omitempty"`
}

// PortDraft is the desired state of one port and its nested attributes.
type PortDraft struct {
	ID          string           `json:"id,omitempty"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Direction   PortDirection    `json:"direction,omitempty"`
	Attributes  []AttributeDraft `json:"attributes,omitempty"`
}

// ClassDraft is the desired state of a class with its nested attribute and
// port collections. SuperClassID names an existing class or is empty.
type ClassDraft struct {
	ID           string           `json:"id,omitempty"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Abstract     bool             `json:"abstract,omitempty"`
	SuperClassID string           `json:"super_class_id,omitempty"`
	Attributes   []AttributeDraft `json:"attributes,omitempty"`
	Ports        []PortDraft      `json:"ports,omitempty"`
}

// RoleDraft is the desired state of a relation end. ClassID names the class
// the end accepts; the bounds land on the role_class edge.
type RoleDraft struct {
	ID          string        `json:"id,omitempty"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Direction   RoleDirection `json:"direction,omitempty"`
	ClassID     string        `json:"class_id,omitempty"`
	MinCard     int           `json:"min_card,omitempty"`
	MaxCard     int           `json:"max_card,omitempty"`
}

// RelationClassDraft is the desired state of a relation class with its
// nested attributes and roles.
type RelationClassDraft struct {
	ID             string           `json:"id,omitempty"`
	Name           string           `json:"name"`
	Description    string           `json:"description,omitempty"`
	Representation string           `json:"representation,omitempty"`
	Attributes     []AttributeDraft `json:"attributes,omitempty"`
	Roles          []RoleDraft      `json:"roles,omitempty"`
}

// SceneMemberDraft references an existing class or relation class placed
// into a scene type, with the edge attributes of the placement.
type SceneMemberDraft struct {
	ID       string `json:"id"`
	Sequence int    `json:"sequence,omitempty"`
	UIHint   string `json:"ui_hint,omitempty"`
}

// SceneTypeDraft is the desired state of a scene type: its owned attributes
// plus references to member classes and relation classes.
type SceneTypeDraft struct {
	ID              string             `json:"id,omitempty"`
	Name            string             `json:"name"`
	Description     string             `json:"description,omitempty"`
	Layout          map[string]any     `json:"layout,omitempty"`
	Attributes      []AttributeDraft   `json:"attributes,omitempty"`
	Classes         []SceneMemberDraft `json:"classes,omitempty"`
	RelationClasses []SceneMemberDraft `json:"relation_classes,omitempty"`
}

// AttributeTypeDraft is the desired state of an attribute value domain.
type AttributeTypeDraft struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Kind        ValueKind `json:"kind"`
	EnumValues  []string  `json:"enum_values,omitempty"`
	Pattern     string    `json:"pattern,omitempty"`
}

// RuleDraft is the desired state of a constraint rule. TargetID names the
// node the rule constrains.
type RuleDraft struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Expression  string   `json:"expression"`
	Severity    Severity `json:"severity,omitempty"`
	TargetID    string   `json:"target_id,omitempty"`
}

// ProcedureDraft is the desired state of a scripted procedure.
type ProcedureDraft struct {
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Body        string      `json:"body"`
	Trigger     TriggerKind `json:"trigger,omitempty"`
}

// UserDraft is the desired state of a user account.
type UserDraft struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Login       string `json:"login"`
}

// UserGroupDraft is the desired state of a user group and its membership.
// Members are references to existing users.
type UserGroupDraft struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	MemberIDs   []string `json:"member_ids,omitempty"`
}
