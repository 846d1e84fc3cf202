// Package domain defines the metamodel entities, association and rights
// model, error taxonomy, and invariant evaluation primitives used by
// metacore.
package domain

import "time"

// Category identifies the kind of node stored in the metamodel graph.
// All categories share a single identifier space: an id resolves to at
// most one category.
type Category string

// Supported node categories used in Change records and persistence buckets.
const (
	// CategorySceneType identifies a scene type definition.
	CategorySceneType Category = "scene_type"
	// CategoryClass identifies a modeling class definition.
	CategoryClass Category = "class"
	// CategoryRelationClass identifies a relation class definition.
	CategoryRelationClass Category = "relation_class"
	// CategoryAttribute identifies an attribute definition.
	CategoryAttribute Category = "attribute"
	// CategoryAttributeType identifies an attribute value domain.
	CategoryAttributeType Category = "attribute_type"
	// CategoryPort identifies a class port definition.
	CategoryPort Category = "port"
	// CategoryRole identifies a relation end role.
	CategoryRole Category = "role"
	// CategoryRule identifies a constraint rule definition.
	CategoryRule Category = "rule"
	// CategoryProcedure identifies a scripted procedure definition.
	CategoryProcedure Category = "procedure"
	// CategoryUser identifies a user account.
	CategoryUser Category = "user"
	// CategoryUserGroup identifies a user group.
	CategoryUserGroup Category = "user_group"
)

// Categories returns all node categories in a stable order.
func Categories() []Category {
	return []Category{
		CategorySceneType,
		CategoryClass,
		CategoryRelationClass,
		CategoryAttribute,
		CategoryAttributeType,
		CategoryPort,
		CategoryRole,
		CategoryRule,
		CategoryProcedure,
		CategoryUser,
		CategoryUserGroup,
	}
}

// Base carries the fields shared by every node regardless of category.
type Base struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NodeRef is the minimal identity of a node, used in conflict reports and
// audit entries.
type NodeRef struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

// PortDirection enumerates the flow direction of a class port.
type PortDirection string

// Canonical port directions.
const (
	PortIn    PortDirection = "in"
	PortOut   PortDirection = "out"
	PortInOut PortDirection = "inout"
)

// RoleDirection marks which end of a relation class a role occupies.
type RoleDirection string

// Canonical role directions.
const (
	RoleFrom RoleDirection = "from"
	RoleTo   RoleDirection = "to"
)

// ValueKind enumerates the base value domains an attribute type can carry.
type ValueKind string

// Canonical attribute value kinds.
const (
	ValueString    ValueKind = "string"
	ValueInteger   ValueKind = "integer"
	ValueFloat     ValueKind = "float"
	ValueBoolean   ValueKind = "boolean"
	ValueEnum      ValueKind = "enum"
	ValueReference ValueKind = "reference"
)

// TriggerKind enumerates when a procedure runs.
type TriggerKind string

// Canonical procedure triggers.
const (
	TriggerManual   TriggerKind = "manual"
	TriggerOnCreate TriggerKind = "on_create"
	TriggerOnUpdate TriggerKind = "on_update"
)

// SceneType describes a kind of diagram and the layout hints the editor
// applies to it. Contained classes and relation classes are references
// through scene_class / scene_relation associations.
type SceneType struct {
	Base
	Layout map[string]any `json:"layout,omitempty"`
}

// Class is a modeling class. Attributes and ports are owned children via
// has_attribute / has_port associations; an optional superclass is a
// specializes association.
type Class struct {
	Base
	Abstract bool `json:"abstract,omitempty"`
}

// RelationClass is an edge class connecting two role ends. Attributes and
// roles are owned children.
type RelationClass struct {
	Base
	Representation string `json:"representation,omitempty"`
}

// Attribute is a named, typed slot on a scene type, class, port, or
// relation class. Its value domain is an attribute_type association; the
// owning edge carries sequence and UI hint.
type Attribute struct {
	Base
	DefaultValue string `json:"default_value,omitempty"`
}

// AttributeType is a reusable value domain referenced by attributes.
type AttributeType struct {
	Base
	Kind       ValueKind `json:"kind"`
	EnumValues []string  `json:"enum_values,omitempty"`
	Pattern    string    `json:"pattern,omitempty"`
}

// Port is a connection point owned by a class. Ports may own attributes of
// their own.
type Port struct {
	Base
	Direction PortDirection `json:"direction,omitempty"`
}

// Role is one end of a relation class. The class it may attach to is a
// role_class association whose edge carries the multiplicity bounds.
type Role struct {
	Base
	Direction RoleDirection `json:"direction,omitempty"`
}

// Rule is a constraint expression evaluated against the node it constrains
// (a constrains association).
type Rule struct {
	Base
	Expression string   `json:"expression"`
	Severity   Severity `json:"severity,omitempty"`
}

// Procedure is a scripted operation attached to the metamodel.
type Procedure struct {
	Base
	Body    string      `json:"body"`
	Trigger TriggerKind `json:"trigger,omitempty"`
}

// User is an account that may act on the metamodel. Group membership is a
// group_member association from the group to the user.
type User struct {
	Base
	Login string `json:"login"`
}

// UserGroup bundles users and carries the rights granted to them.
type UserGroup struct {
	Base
}
