// Package memory provides the transactional in-memory store the durable
// backends build upon. Transactions run against a cloned state that is
// committed atomically after invariant evaluation, so a failed operation
// never leaves partial writes behind.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"metacore/pkg/domain"
)

type memoryState struct {
	index          map[string]domain.Category
	sceneTypes     map[string]domain.SceneType
	classes        map[string]domain.Class
	relationClasses map[string]domain.RelationClass
	attributes     map[string]domain.Attribute
	attributeTypes map[string]domain.AttributeType
	ports          map[string]domain.Port
	roles          map[string]domain.Role
	rules          map[string]domain.Rule
	procedures     map[string]domain.Procedure
	users          map[string]domain.User
	userGroups     map[string]domain.UserGroup
	associations   map[domain.AssociationKey]domain.Association
	rights         map[string][]domain.Right
}

func newMemoryState() memoryState {
	return memoryState{
		index:          map[string]domain.Category{},
		sceneTypes:     map[string]domain.SceneType{},
		classes:        map[string]domain.Class{},
		relationClasses: map[string]domain.RelationClass{},
		attributes:     map[string]domain.Attribute{},
		attributeTypes: map[string]domain.AttributeType{},
		ports:          map[string]domain.Port{},
		roles:          map[string]domain.Role{},
		rules:          map[string]domain.Rule{},
		procedures:     map[string]domain.Procedure{},
		users:          map[string]domain.User{},
		userGroups:     map[string]domain.UserGroup{},
		associations:   map[domain.AssociationKey]domain.Association{},
		rights:         map[string][]domain.Right{},
	}
}

func cloneSceneType(s domain.SceneType) domain.SceneType {
	cp := s
	if s.Layout != nil {
		cp.Layout = make(map[string]any, len(s.Layout))
		for k, v := range s.Layout {
			cp.Layout[k] = v
		}
	}
	return cp
}

func cloneAttributeType(t domain.AttributeType) domain.AttributeType {
	cp := t
	cp.EnumValues = append([]string(nil), t.EnumValues...)
	return cp
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.index {
		cloned.index[k] = v
	}
	for k, v := range s.sceneTypes {
		cloned.sceneTypes[k] = cloneSceneType(v)
	}
	for k, v := range s.classes {
		cloned.classes[k] = v
	}
	for k, v := range s.relationClasses {
		cloned.relationClasses[k] = v
	}
	for k, v := range s.attributes {
		cloned.attributes[k] = v
	}
	for k, v := range s.attributeTypes {
		cloned.attributeTypes[k] = cloneAttributeType(v)
	}
	for k, v := range s.ports {
		cloned.ports[k] = v
	}
	for k, v := range s.roles {
		cloned.roles[k] = v
	}
	for k, v := range s.rules {
		cloned.rules[k] = v
	}
	for k, v := range s.procedures {
		cloned.procedures[k] = v
	}
	for k, v := range s.users {
		cloned.users[k] = v
	}
	for k, v := range s.userGroups {
		cloned.userGroups[k] = v
	}
	for k, v := range s.associations {
		cloned.associations[k] = v
	}
	for k, v := range s.rights {
		cloned.rights[k] = append([]domain.Right(nil), v...)
	}
	return cloned
}

// Snapshot is the serialisable representation of the full graph state.
type Snapshot struct {
	SceneTypes     map[string]domain.SceneType     `json:"scene_types"`
	Classes        map[string]domain.Class         `json:"classes"`
	RelationClasses map[string]domain.RelationClass `json:"relation_classes"`
	Attributes     map[string]domain.Attribute     `json:"attributes"`
	AttributeTypes map[string]domain.AttributeType `json:"attribute_types"`
	Ports          map[string]domain.Port          `json:"ports"`
	Roles          map[string]domain.Role          `json:"roles"`
	Rules          map[string]domain.Rule          `json:"rules"`
	Procedures     map[string]domain.Procedure     `json:"procedures"`
	Users          map[string]domain.User          `json:"users"`
	UserGroups     map[string]domain.UserGroup     `json:"user_groups"`
	Associations   []domain.Association            `json:"associations"`
	Rights         []domain.Right                  `json:"rights"`
}

// Store is the in-memory transactional store for the metamodel graph.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *domain.InvariantEngine
	nowFn  func() time.Time
}

// Compile-time contract assertion.
var _ domain.PersistentStore = (*Store)(nil)

// NewStore constructs an in-memory store backed by the provided invariant
// engine. A nil engine disables invariant evaluation.
func NewStore(engine *domain.InvariantEngine) *Store {
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// SetNow overrides the transaction clock, for tests.
func (s *Store) SetNow(fn func() time.Time) {
	if fn != nil {
		s.nowFn = fn
	}
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// view implements domain.TransactionView over one state.
type view struct {
	state *memoryState
}

type transaction struct {
	view
	store   *Store
	state   *memoryState
	changes []domain.Change
	now     time.Time
}

var _ domain.Transaction = (*transaction)(nil)

// RunInTransaction executes fn within a transactional copy of the store
// state, evaluates invariants, and commits on success.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cloned := s.state.clone()
	tx := &transaction{
		view:  view{state: &cloned},
		store: s,
		state: &cloned,
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, view{state: &cloned}, tx.changes)
		if err != nil {
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.InvariantViolationError{Result: res}
		}
	}

	s.state = cloned
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(ctx context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(view{state: &snapshot})
}

// ExportState returns a serialisable snapshot of the committed state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state.clone()
	snap := Snapshot{
		SceneTypes:     st.sceneTypes,
		Classes:        st.classes,
		RelationClasses: st.relationClasses,
		Attributes:     st.attributes,
		AttributeTypes: st.attributeTypes,
		Ports:          st.ports,
		Roles:          st.roles,
		Rules:          st.rules,
		Procedures:     st.procedures,
		Users:          st.users,
		UserGroups:     st.userGroups,
	}
	snap.Associations = make([]domain.Association, 0, len(st.associations))
	for _, a := range st.associations {
		snap.Associations = append(snap.Associations, a)
	}
	sort.Slice(snap.Associations, func(i, j int) bool {
		a, b := snap.Associations[i], snap.Associations[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.TargetID != b.TargetID {
			return a.TargetID < b.TargetID
		}
		return a.Kind < b.Kind
	})
	for _, grants := range st.rights {
		snap.Rights = append(snap.Rights, grants...)
	}
	sort.Slice(snap.Rights, func(i, j int) bool {
		a, b := snap.Rights[i], snap.Rights[j]
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
	return snap
}

// ImportState replaces the committed state with the snapshot contents.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := newMemoryState()
	for id, v := range snap.SceneTypes {
		st.sceneTypes[id] = v
		st.index[id] = domain.CategorySceneType
	}
	for id, v := range snap.Classes {
		st.classes[id] = v
		st.index[id] = domain.CategoryClass
	}
	for id, v := range snap.RelationClasses {
		st.relationClasses[id] = v
		st.index[id] = domain.CategoryRelationClass
	}
	for id, v := range snap.Attributes {
		st.attributes[id] = v
		st.index[id] = domain.CategoryAttribute
	}
	for id, v := range snap.AttributeTypes {
		st.attributeTypes[id] = v
		st.index[id] = domain.CategoryAttributeType
	}
	for id, v := range snap.Ports {
		st.ports[id] = v
		st.index[id] = domain.CategoryPort
	}
	for id, v := range snap.Roles {
		st.roles[id] = v
		st.index[id] = domain.CategoryRole
	}
	for id, v := range snap.Rules {
		st.rules[id] = v
		st.index[id] = domain.CategoryRule
	}
	for id, v := range snap.Procedures {
		st.procedures[id] = v
		st.index[id] = domain.CategoryProcedure
	}
	for id, v := range snap.Users {
		st.users[id] = v
		st.index[id] = domain.CategoryUser
	}
	for id, v := range snap.UserGroups {
		st.userGroups[id] = v
		st.index[id] = domain.CategoryUserGroup
	}
	for _, a := range snap.Associations {
		st.associations[a.Key()] = a
	}
	for _, r := range snap.Rights {
		st.rights[r.GroupID] = append(st.rights[r.GroupID], r)
	}
	s.state = st
}
