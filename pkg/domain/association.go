package domain

// AssociationKind identifies a typed edge between two nodes. The kind table
// below is closed: every edge written to the store must use one of these
// kinds with matching endpoint categories.
type AssociationKind string

// Supported association kinds.
const (
	// KindHasAttribute links an attribute owner (scene type, class, port,
	// or relation class) to an owned attribute.
	KindHasAttribute AssociationKind = "has_attribute"
	// KindHasPort links a class to an owned port.
	KindHasPort AssociationKind = "has_port"
	// KindHasRole links a relation class to an owned role.
	KindHasRole AssociationKind = "has_role"
	// KindSceneClass places a class into a scene type.
	KindSceneClass AssociationKind = "scene_class"
	// KindSceneRelation places a relation class into a scene type.
	KindSceneRelation AssociationKind = "scene_relation"
	// KindSpecializes links a class to its superclass.
	KindSpecializes AssociationKind = "specializes"
	// KindRoleClass links a role to the class its relation end accepts.
	KindRoleClass AssociationKind = "role_class"
	// KindAttributeType links an attribute to its value domain.
	KindAttributeType AssociationKind = "attribute_type"
	// KindConstrains links a rule to the node it constrains.
	KindConstrains AssociationKind = "constrains"
	// KindGroupMember links a user group to a member user.
	KindGroupMember AssociationKind = "group_member"
)

// CardUnbounded marks an association maximum cardinality without an upper
// bound.
const CardUnbounded = -1

// Association is a directed typed edge between two nodes. Associations are
// not first-class nodes; they are identified by (source, target, kind) and
// carry edge attributes.
type Association struct {
	SourceID string          `json:"source_id"`
	TargetID string          `json:"target_id"`
	Kind     AssociationKind `json:"kind"`
	Sequence int             `json:"sequence,omitempty"`
	UIHint   string          `json:"ui_hint,omitempty"`
	MinCard  int             `json:"min_card,omitempty"`
	MaxCard  int             `json:"max_card,omitempty"`
}

// AssociationKey is the identity of an association.
type AssociationKey struct {
	SourceID string          `json:"source_id"`
	TargetID string          `json:"target_id"`
	Kind     AssociationKind `json:"kind"`
}

// Key returns the identity of the association.
func (a Association) Key() AssociationKey {
	return AssociationKey{SourceID: a.SourceID, TargetID: a.TargetID, Kind: a.Kind}
}

// KindSpec declares the endpoint categories an association kind accepts and
// whether the edge expresses ownership. Ownership edges cascade on hard
// deletion of the source; reference edges block deletion of their target.
type KindSpec struct {
	Sources []Category
	Targets []Category
	Owning  bool
}

// AllowsSource reports whether the kind accepts the given source category.
func (k KindSpec) AllowsSource(c Category) bool {
	for _, s := range k.Sources {
		if s == c {
			return true
		}
	}
	return false
}

// AllowsTarget reports whether the kind accepts the given target category.
func (k KindSpec) AllowsTarget(c Category) bool {
	for _, t := range k.Targets {
		if t == c {
			return true
		}
	}
	return false
}

var kindTable = map[AssociationKind]KindSpec{
	KindHasAttribute: {
		Sources: []Category{CategorySceneType, CategoryClass, CategoryPort, CategoryRelationClass},
		Targets: []Category{CategoryAttribute},
		Owning:  true,
	},
	KindHasPort: {
		Sources: []Category{CategoryClass},
		Targets: []Category{CategoryPort},
		Owning:  true,
	},
	KindHasRole: {
		Sources: []Category{CategoryRelationClass},
		Targets: []Category{CategoryRole},
		Owning:  true,
	},
	KindSceneClass: {
		Sources: []Category{CategorySceneType},
		Targets: []Category{CategoryClass},
	},
	KindSceneRelation: {
		Sources: []Category{CategorySceneType},
		Targets: []Category{CategoryRelationClass},
	},
	KindSpecializes: {
		Sources: []Category{CategoryClass},
		Targets: []Category{CategoryClass},
	},
	KindRoleClass: {
		Sources: []Category{CategoryRole},
		Targets: []Category{CategoryClass},
	},
	KindAttributeType: {
		Sources: []Category{CategoryAttribute},
		Targets: []Category{CategoryAttributeType},
	},
	KindConstrains: {
		Sources: []Category{CategoryRule},
		Targets: []Category{CategorySceneType, CategoryClass, CategoryRelationClass},
	},
	KindGroupMember: {
		Sources: []Category{CategoryUserGroup},
		Targets: []Category{CategoryUser},
	},
}

// KindSpecFor returns the endpoint declaration for a kind.
func KindSpecFor(kind AssociationKind) (KindSpec, bool) {
	spec, ok := kindTable[kind]
	return spec, ok
}

// AssociationKinds returns all association kinds in a stable order.
func AssociationKinds() []AssociationKind {
	return []AssociationKind{
		KindHasAttribute,
		KindHasPort,
		KindHasRole,
		KindSceneClass,
		KindSceneRelation,
		KindSpecializes,
		KindRoleClass,
		KindAttributeType,
		KindConstrains,
		KindGroupMember,
	}
}

// OwningKinds returns, in stable order, the ownership kinds whose source may
// be the given category. Cascading deletion follows exactly these edges.
func OwningKinds(source Category) []AssociationKind {
	var out []AssociationKind
	for _, kind := range AssociationKinds() {
		spec := kindTable[kind]
		if spec.Owning && spec.AllowsSource(source) {
			out = append(out, kind)
		}
	}
	return out
}

// IsOwning reports whether the kind expresses ownership.
func IsOwning(kind AssociationKind) bool {
	spec, ok := kindTable[kind]
	return ok && spec.Owning
}
