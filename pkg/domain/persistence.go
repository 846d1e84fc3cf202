package domain

import "context"

// TransactionView provides read-only access to transactional state. The
// view is also handed to invariants at commit time.
type TransactionView interface {
	// ResolveCategory maps an id to its category. Every live node resolves
	// to exactly one category.
	ResolveCategory(id string) (Category, bool)
	// Ref returns the display identity of a live node.
	Ref(id string) (NodeRef, bool)

	FindSceneType(id string) (SceneType, bool)
	FindClass(id string) (Class, bool)
	FindRelationClass(id string) (RelationClass, bool)
	FindAttribute(id string) (Attribute, bool)
	FindAttributeType(id string) (AttributeType, bool)
	FindPort(id string) (Port, bool)
	FindRole(id string) (Role, bool)
	FindRule(id string) (Rule, bool)
	FindProcedure(id string) (Procedure, bool)
	FindUser(id string) (User, bool)
	FindUserGroup(id string) (UserGroup, bool)

	ListSceneTypes() []SceneType
	ListClasses() []Class
	ListRelationClasses() []RelationClass
	ListAttributes() []Attribute
	ListAttributeTypes() []AttributeType
	ListPorts() []Port
	ListRoles() []Role
	ListRules() []Rule
	ListProcedures() []Procedure
	ListUsers() []User
	ListUserGroups() []UserGroup

	// Association returns one edge by identity.
	Association(key AssociationKey) (Association, bool)
	// AssociationsFrom returns edges leaving a source, filtered by kind when
	// kind is non-empty, ordered by sequence then target id.
	AssociationsFrom(sourceID string, kind AssociationKind) []Association
	// AssociationsTo returns edges arriving at a target, filtered by kind
	// when kind is non-empty, ordered by source id.
	AssociationsTo(targetID string, kind AssociationKind) []Association
	// ListAssociations returns every edge in the graph.
	ListAssociations() []Association

	// RightsForGroup returns the rights granted to one group.
	RightsForGroup(groupID string) []Right
	// GroupsOf returns the ids of the groups a user belongs to.
	GroupsOf(userID string) []string
	// ListRights returns every right tuple.
	ListRights() []Right
}

// Transaction exposes the mutations a persistence implementation must
// support within an atomic scope. Deletions enforce referential integrity:
// a node with live inbound reference edges cannot be removed and the
// attempt reports the blocking nodes.
type Transaction interface {
	TransactionView

	CreateSceneType(SceneType) (SceneType, error)
	UpdateSceneType(id string, mutator func(*SceneType) error) (SceneType, error)
	DeleteSceneType(id string) error
	CreateClass(Class) (Class, error)
	UpdateClass(id string, mutator func(*Class) error) (Class, error)
	DeleteClass(id string) error
	CreateRelationClass(RelationClass) (RelationClass, error)
	UpdateRelationClass(id string, mutator func(*RelationClass) error) (RelationClass, error)
	DeleteRelationClass(id string) error
	CreateAttribute(Attribute) (Attribute, error)
	UpdateAttribute(id string, mutator func(*Attribute) error) (Attribute, error)
	DeleteAttribute(id string) error
	CreateAttributeType(AttributeType) (AttributeType, error)
	UpdateAttributeType(id string, mutator func(*AttributeType) error) (AttributeType, error)
	DeleteAttributeType(id string) error
	CreatePort(Port) (Port, error)
	UpdatePort(id string, mutator func(*Port) error) (Port, error)
	DeletePort(id string) error
	CreateRole(Role) (Role, error)
	UpdateRole(id string, mutator func(*Role) error) (Role, error)
	DeleteRole(id string) error
	CreateRule(Rule) (Rule, error)
	UpdateRule(id string, mutator func(*Rule) error) (Rule, error)
	DeleteRule(id string) error
	CreateProcedure(Procedure) (Procedure, error)
	UpdateProcedure(id string, mutator func(*Procedure) error) (Procedure, error)
	DeleteProcedure(id string) error
	CreateUser(User) (User, error)
	UpdateUser(id string, mutator func(*User) error) (User, error)
	DeleteUser(id string) error
	CreateUserGroup(UserGroup) (UserGroup, error)
	UpdateUserGroup(id string, mutator func(*UserGroup) error) (UserGroup, error)
	DeleteUserGroup(id string) error

	// PutAssociation inserts a new edge. The kind must accept the endpoint
	// categories; duplicate identities conflict.
	PutAssociation(Association) (Association, error)
	// UpdateAssociation mutates the edge attributes of an existing edge.
	UpdateAssociation(key AssociationKey, mutator func(*Association) error) (Association, error)
	// DeleteAssociation removes one edge. Removing a missing edge is an
	// ErrNotFound.
	DeleteAssociation(key AssociationKey) error

	// GrantRight records a right tuple; granting an identical tuple twice
	// is a no-op.
	GrantRight(Right) error
	// RevokeRight removes a right tuple; revoking an absent tuple is a
	// no-op.
	RevokeRight(Right) error
}

// PersistentStore is the minimal abstraction over durable backends. All
// reads and writes of one logical operation run inside a single
// RunInTransaction or View scope; no intermediate state is observable.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
}
