package core

import (
	"context"
	"time"

	"metacore/pkg/domain"
)

// UpdateMode selects how reconciliation treats children that are linked to
// the node but missing from the submitted draft.
type UpdateMode string

// Update modes. Soft disconnects missing children; hard additionally
// deletes them with full cascade semantics. The zero value is soft.
const (
	UpdateSoft UpdateMode = "soft"
	UpdateHard UpdateMode = "hard"
)

func (m UpdateMode) hard() bool { return m == UpdateHard }

// Service exposes the transactional operations of the metamodel: typed CRUD
// per category, polymorphic resolution, reconciling updates, guarded
// cascading deletion, and rights administration. Every operation runs in a
// single store transaction; rights are checked inside the same scope.
type Service struct {
	store    domain.PersistentStore
	engine   *domain.InvariantEngine
	gate     RightsGate
	guard    DeletionCascadeGuard
	resolver TypeResolver

	sceneTypes      *SceneTypeRepository
	classes         *ClassRepository
	relationClasses *RelationClassRepository
	attributes      *AttributeRepository
	attributeTypes  *AttributeTypeRepository
	ports           *PortRepository
	roles           *RoleRepository
	rules           *RuleRepository
	procedures      *ProcedureRepository
	users           *UserRepository
	groups          *UserGroupRepository

	metrics MetricsRecorder
	audit   AuditSink
	plugins map[string]PluginMetadata
}

// ServiceOption customizes service construction.
type ServiceOption func(*Service)

// WithMetricsRecorder attaches a metrics recorder to the service.
func WithMetricsRecorder(rec MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithAuditSink attaches an audit sink to the service.
func WithAuditSink(sink AuditSink) ServiceOption {
	return func(s *Service) {
		if sink != nil {
			s.audit = sink
		}
	}
}

// NewService constructs a service backed by the supplied store. The engine
// is the same one the store evaluates at commit time; it is needed here so
// plugins can register additional invariants. A nil engine disables plugin
// invariant registration.
func NewService(store domain.PersistentStore, engine *domain.InvariantEngine, opts ...ServiceOption) *Service {
	attrs := &AttributeRepository{}
	ports := &PortRepository{attrs: attrs}
	roles := &RoleRepository{}
	s := &Service{
		store:           store,
		engine:          engine,
		sceneTypes:      &SceneTypeRepository{attrs: attrs},
		classes:         &ClassRepository{attrs: attrs, ports: ports},
		relationClasses: &RelationClassRepository{attrs: attrs, roles: roles},
		attributes:      attrs,
		attributeTypes:  &AttributeTypeRepository{},
		ports:           ports,
		roles:           roles,
		rules:           &RuleRepository{},
		procedures:      &ProcedureRepository{},
		users:           &UserRepository{},
		groups:          &UserGroupRepository{},
		metrics:         noopMetricsRecorder{},
		audit:           noopAuditSink{},
		plugins:         make(map[string]PluginMetadata),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying persistent store.
func (s *Service) Store() domain.PersistentStore { return s.store }

func (s *Service) recordAudit(ctx context.Context, op string, actor domain.Identity, nodeID string, err error) {
	entry := AuditEntry{
		Operation:  op,
		Actor:      actor,
		NodeID:     nodeID,
		Status:     AuditStatusSuccess,
		OccurredAt: time.Now().UTC(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		if domain.IsDenied(err) {
			entry.Status = AuditStatusDenied
		}
		entry.Detail = err.Error()
	}
	s.audit.Record(ctx, entry)
}

func filterReadable[T any](view domain.TransactionView, gate RightsGate, actor domain.Identity, items []T, id func(T) string) []T {
	if actor.IsZero() || actor.IsRoot() {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if gate.Check(view, actor, domain.RightRead, id(item)) == nil {
			out = append(out, item)
		}
	}
	return out
}

// ResolveNode maps an id to its category and display identity. All
// categories share one id space, so resolution never needs a category hint.
func (s *Service) ResolveNode(ctx context.Context, actor domain.Identity, id string) (domain.NodeRef, error) {
	const op = "resolve_node"
	started := time.Now()
	var ref domain.NodeRef
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		if err := s.gate.Check(view, actor, domain.RightRead, id); err != nil {
			return err
		}
		var err error
		ref, err = s.resolver.ResolveRef(view, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	return ref, err
}

// GetNode loads the detail read model of a node of any category. The
// concrete type of the returned value follows the resolved category.
func (s *Service) GetNode(ctx context.Context, actor domain.Identity, id string) (any, error) {
	const op = "get_node"
	started := time.Now()
	var detail any
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		if err := s.gate.Check(view, actor, domain.RightRead, id); err != nil {
			return err
		}
		cat, err := s.resolver.Resolve(view, id)
		if err != nil {
			return err
		}
		switch cat {
		case domain.CategorySceneType:
			detail, err = s.sceneTypes.Get(view, id)
		case domain.CategoryClass:
			detail, err = s.classes.Get(view, id)
		case domain.CategoryRelationClass:
			detail, err = s.relationClasses.Get(view, id)
		case domain.CategoryAttribute:
			detail, err = s.attributes.Get(view, id)
		case domain.CategoryAttributeType:
			detail, err = s.attributeTypes.Get(view, id)
		case domain.CategoryPort:
			detail, err = s.ports.Get(view, id)
		case domain.CategoryRole:
			detail, err = s.roles.Get(view, id)
		case domain.CategoryRule:
			detail, err = s.rules.Get(view, id)
		case domain.CategoryProcedure:
			detail, err = s.procedures.Get(view, id)
		case domain.CategoryUser:
			detail, err = s.users.Get(view, id)
		case domain.CategoryUserGroup:
			detail, err = s.groups.Get(view, id)
		default:
			err = domain.ErrNotFound{ID: id}
		}
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// DeleteNode removes a node of any category together with the children it
// owns. The returned ids are the removed nodes in removal order. A node
// still referenced from outside its ownership closure is not removed; the
// error names the referencing nodes.
func (s *Service) DeleteNode(ctx context.Context, actor domain.Identity, id string) ([]string, domain.Result, error) {
	const op = "delete_node"
	started := time.Now()
	var deleted []string
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		deleted, err = s.guard.Delete(tx, actor, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, id, err)
	if err != nil {
		return nil, res, err
	}
	return deleted, res, nil
}

// CreateSceneType persists a new scene type from a draft.
func (s *Service) CreateSceneType(ctx context.Context, actor domain.Identity, draft domain.SceneTypeDraft) (SceneTypeDetail, domain.Result, error) {
	const op = "create_scene_type"
	started := time.Now()
	var detail SceneTypeDetail
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.CheckCreate(tx, actor, domain.CategorySceneType); err != nil {
			return err
		}
		id, err := s.sceneTypes.Create(tx, draft)
		if err != nil {
			return err
		}
		detail, err = s.sceneTypes.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, detail.ID, err)
	if err != nil {
		return SceneTypeDetail{}, res, err
	}
	return detail, res, nil
}

// GetSceneType loads one scene type with attributes and member placements.
func (s *Service) GetSceneType(ctx context.Context, actor domain.Identity, id string) (SceneTypeDetail, error) {
	const op = "get_scene_type"
	started := time.Now()
	var detail SceneTypeDetail
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		if err := s.gate.Check(view, actor, domain.RightRead, id); err != nil {
			return err
		}
		var err error
		detail, err = s.sceneTypes.Get(view, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	if err != nil {
		return SceneTypeDetail{}, err
	}
	return detail, nil
}

// UpdateSceneType reconciles a scene type toward the draft.
func (s *Service) UpdateSceneType(ctx context.Context, actor domain.Identity, id string, draft domain.SceneTypeDraft, mode UpdateMode) (SceneTypeDetail, domain.Result, error) {
	const op = "update_scene_type"
	started := time.Now()
	var detail SceneTypeDetail
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.Check(tx, actor, domain.RightWrite, id); err != nil {
			return err
		}
		if err := s.sceneTypes.Apply(tx, id, draft, mode.hard()); err != nil {
			return err
		}
		var err error
		detail, err = s.sceneTypes.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, id, err)
	if err != nil {
		return SceneTypeDetail{}, res, err
	}
	return detail, res, nil
}

// ListSceneTypes returns the scene types readable by the actor.
func (s *Service) ListSceneTypes(ctx context.Context, actor domain.Identity) ([]domain.SceneType, error) {
	const op = "list_scene_types"
	started := time.Now()
	var out []domain.SceneType
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		out = filterReadable(view, s.gate, actor, view.ListSceneTypes(), func(st domain.SceneType) string { return st.ID })
		return nil
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	return out, err
}

// CreateClass persists a new class from a draft.
func (s *Service) CreateClass(ctx context.Context, actor domain.Identity, draft domain.ClassDraft) (ClassDetail, domain.Result, error) {
	const op = "create_class"
	started := time.Now()
	var detail ClassDetail
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.CheckCreate(tx, actor, domain.CategoryClass); err != nil {
			return err
		}
		id, err := s.classes.Create(tx, draft)
		if err != nil {
			return err
		}
		detail, err = s.classes.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, detail.ID, err)
	if err != nil {
		return ClassDetail{}, res, err
	}
	return detail, res, nil
}

// GetClass loads one class with its superclass, attributes, and ports.
func (s *Service) GetClass(ctx context.Context, actor domain.Identity, id string) (ClassDetail, error) {
	const op = "get_class"
	started := time.Now()
	var detail ClassDetail
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		if err := s.gate.Check(view, actor, domain.RightRead, id); err != nil {
			return err
		}
		var err error
		detail, err = s.classes.Get(view, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	if err != nil {
		return ClassDetail{}, err
	}
	return detail, nil
}

// UpdateClass reconciles a class toward the draft.
func (s *Service) UpdateClass(ctx context.Context, actor domain.Identity, id string, draft domain.ClassDraft, mode UpdateMode) (ClassDetail, domain.Result, error) {
	const op = "update_class"
	started := time.Now()
	var detail ClassDetail
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.Check(tx, actor, domain.RightWrite, id); err != nil {
			return err
		}
		if err := s.classes.Apply(tx, id, draft, mode.hard()); err != nil {
			return err
		}
		var err error
		detail, err = s.classes.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, id, err)
	if err != nil {
		return ClassDetail{}, res, err
	}
	return detail, res, nil
}

// ListClasses returns the classes readable by the actor.
func (s *Service) ListClasses(ctx context.Context, actor domain.Identity) ([]domain.Class, error) {
	const op = "list_classes"
	started := time.Now()
	var out []domain.Class
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		out = filterReadable(view, s.gate, actor, view.ListClasses(), func(c domain.Class) string { return c.ID })
		return nil
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	return out, err
}

// CreateRelationClass persists a new relation class from a draft.
func (s *Service) CreateRelationClass(ctx context.Context, actor domain.Identity, draft domain.RelationClassDraft) (RelationClassDetail, domain.Result, error) {
	const op = "create_relation_class"
	started := time.Now()
	var detail RelationClassDetail
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.CheckCreate(tx, actor, domain.CategoryRelationClass); err != nil {
			return err
		}
		id, err := s.relationClasses.Create(tx, draft)
		if err != nil {
			return err
		}
		detail, err = s.relationClasses.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, detail.ID, err)
	if err != nil {
		return RelationClassDetail{}, res, err
	}
	return detail, res, nil
}

// GetRelationClass loads one relation class with attributes and roles.
func (s *Service) GetRelationClass(ctx context.Context, actor domain.Identity, id string) (RelationClassDetail, error) {
	const op = "get_relation_class"
	started := time.Now()
	var detail RelationClassDetail
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		if err := s.gate.Check(view, actor, domain.RightRead, id); err != nil {
			return err
		}
		var err error
		detail, err = s.relationClasses.Get(view, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	if err != nil {
		return RelationClassDetail{}, err
	}
	return detail, nil
}

// UpdateRelationClass reconciles a relation class toward the draft.
func (s *Service) UpdateRelationClass(ctx context.Context, actor domain.Identity, id string, draft domain.RelationClassDraft, mode UpdateMode) (RelationClassDetail, domain.Result, error) {
	const op = "update_relation_class"
	started := time.Now()
	var detail RelationClassDetail
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.Check(tx, actor, domain.RightWrite, id); err != nil {
			return err
		}
		if err := s.relationClasses.Apply(tx, id, draft, mode.hard()); err != nil {
			return err
		}
		var err error
		detail, err = s.relationClasses.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, id, err)
	if err != nil {
		return RelationClassDetail{}, res, err
	}
	return detail, res, nil
}

// ListRelationClasses returns the relation classes readable by the actor.
func (s *Service) ListRelationClasses(ctx context.Context, actor domain.Identity) ([]domain.RelationClass, error) {
	const op = "list_relation_classes"
	started := time.Now()
	var out []domain.RelationClass
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		out = filterReadable(view, s.gate, actor, view.ListRelationClasses(), func(rc domain.RelationClass) string { return rc.ID })
		return nil
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	return out, err
}

// CreateAttributeType persists a new attribute value domain.
func (s *Service) CreateAttributeType(ctx context.Context, actor domain.Identity, draft domain.AttributeTypeDraft) (domain.AttributeType, domain.Result, error) {
	const op = "create_attribute_type"
	started := time.Now()
	var created domain.AttributeType
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.CheckCreate(tx, actor, domain.CategoryAttributeType); err != nil {
			return err
		}
		id, err := s.attributeTypes.Create(tx, draft)
		if err != nil {
			return err
		}
		created, err = s.attributeTypes.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, created.ID, err)
	if err != nil {
		return domain.AttributeType{}, res, err
	}
	return created, res, nil
}

// GetAttributeType loads one attribute type.
func (s *Service) GetAttributeType(ctx context.Context, actor domain.Identity, id string) (domain.AttributeType, error) {
	const op = "get_attribute_type"
	started := time.Now()
	var at domain.AttributeType
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		if err := s.gate.Check(view, actor, domain.RightRead, id); err != nil {
			return err
		}
		var err error
		at, err = s.attributeTypes.Get(view, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	if err != nil {
		return domain.AttributeType{}, err
	}
	return at, nil
}

// UpdateAttributeType re-applies a draft to an attribute type.
func (s *Service) UpdateAttributeType(ctx context.Context, actor domain.Identity, id string, draft domain.AttributeTypeDraft) (domain.AttributeType, domain.Result, error) {
	const op = "update_attribute_type"
	started := time.Now()
	var updated domain.AttributeType
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.Check(tx, actor, domain.RightWrite, id); err != nil {
			return err
		}
		if err := s.attributeTypes.Apply(tx, id, draft); err != nil {
			return err
		}
		var err error
		updated, err = s.attributeTypes.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, id, err)
	if err != nil {
		return domain.AttributeType{}, res, err
	}
	return updated, res, nil
}

// ListAttributeTypes returns the attribute types readable by the actor.
func (s *Service) ListAttributeTypes(ctx context.Context, actor domain.Identity) ([]domain.AttributeType, error) {
	const op = "list_attribute_types"
	started := time.Now()
	var out []domain.AttributeType
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		out = filterReadable(view, s.gate, actor, view.ListAttributeTypes(), func(at domain.AttributeType) string { return at.ID })
		return nil
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	return out, err
}

// CreateAttribute creates one attribute beneath an owner of any
// attribute-bearing category. The owner is resolved polymorphically.
func (s *Service) CreateAttribute(ctx context.Context, actor domain.Identity, ownerID string, draft domain.AttributeDraft) (AttributeDetail, domain.Result, error) {
	const op = "create_attribute"
	started := time.Now()
	var detail AttributeDetail
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.Check(tx, actor, domain.RightWrite, ownerID); err != nil {
			return err
		}
		if err := s.gate.CheckCreate(tx, actor, domain.CategoryAttribute); err != nil {
			return err
		}
		id, err := s.attributes.CreateUnder(tx, ownerID, draft)
		if err != nil {
			return err
		}
		detail, err = s.attributes.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, detail.ID, err)
	if err != nil {
		return AttributeDetail{}, res, err
	}
	return detail, res, nil
}

// GetAttribute loads one attribute with its type reference.
func (s *Service) GetAttribute(ctx context.Context, actor domain.Identity, id string) (AttributeDetail, error) {
	const op = "get_attribute"
	started := time.Now()
	var detail AttributeDetail
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		if err := s.gate.Check(view, actor, domain.RightRead, id); err != nil {
			return err
		}
		var err error
		detail, err = s.attributes.Get(view, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	if err != nil {
		return AttributeDetail{}, err
	}
	return detail, nil
}

// UpdateAttribute re-applies a draft to an attribute.
func (s *Service) UpdateAttribute(ctx context.Context, actor domain.Identity, id string, draft domain.AttributeDraft) (AttributeDetail, domain.Result, error) {
	const op = "update_attribute"
	started := time.Now()
	var detail AttributeDetail
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.Check(tx, actor, domain.RightWrite, id); err != nil {
			return err
		}
		if err := s.attributes.apply(tx, id, draft); err != nil {
			return err
		}
		var err error
		detail, err = s.attributes.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, id, err)
	if err != nil {
		return AttributeDetail{}, res, err
	}
	return detail, res, nil
}

// ListAttributesByOwner returns the attributes owned by a scene type, class,
// port, or relation class, in edge order.
func (s *Service) ListAttributesByOwner(ctx context.Context, actor domain.Identity, ownerID string) ([]AttributeDetail, error) {
	const op = "list_attributes_by_owner"
	started := time.Now()
	var out []AttributeDetail
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		if err := s.gate.Check(view, actor, domain.RightRead, ownerID); err != nil {
			return err
		}
		var err error
		out, err = s.attributes.ListByOwner(view, ownerID)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	return out, err
}

// CreatePort creates one port beneath a class.
func (s *Service) CreatePort(ctx context.Context, actor domain.Identity, classID string, draft domain.PortDraft) (PortDetail, domain.Result, error) {
	const op = "create_port"
	started := time.Now()
	var detail PortDetail
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.Check(tx, actor, domain.RightWrite, classID); err != nil {
			return err
		}
		if err := s.gate.CheckCreate(tx, actor, domain.CategoryPort); err != nil {
			return err
		}
		id, err := s.ports.CreateUnder(tx, classID, draft)
		if err != nil {
			return err
		}
		detail, err = s.ports.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, detail.ID, err)
	if err != nil {
		return PortDetail{}, res, err
	}
	return detail, res, nil
}

// GetPort loads one port with its attributes.
func (s *Service) GetPort(ctx context.Context, actor domain.Identity, id string) (PortDetail, error) {
	const op = "get_port"
	started := time.Now()
	var detail PortDetail
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		if err := s.gate.Check(view, actor, domain.RightRead, id); err != nil {
			return err
		}
		var err error
		detail, err = s.ports.Get(view, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	if err != nil {
		return PortDetail{}, err
	}
	return detail, nil
}

// UpdatePort reconciles a port toward the draft.
func (s *Service) UpdatePort(ctx context.Context, actor domain.Identity, id string, draft domain.PortDraft, mode UpdateMode) (PortDetail, domain.Result, error) {
	const op = "update_port"
	started := time.Now()
	var detail PortDetail
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.Check(tx, actor, domain.RightWrite, id); err != nil {
			return err
		}
		if err := s.ports.apply(tx, id, draft, mode.hard()); err != nil {
			return err
		}
		var err error
		detail, err = s.ports.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, id, err)
	if err != nil {
		return PortDetail{}, res, err
	}
	return detail, res, nil
}

// GetRole loads one relation end with its accepted class and bounds.
func (s *Service) GetRole(ctx context.Context, actor domain.Identity, id string) (RoleDetail, error) {
	const op = "get_role"
	started := time.Now()
	var detail RoleDetail
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		if err := s.gate.Check(view, actor, domain.RightRead, id); err != nil {
			return err
		}
		var err error
		detail, err = s.roles.Get(view, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	if err != nil {
		return RoleDetail{}, err
	}
	return detail, nil
}

// CreateRule persists a new constraint rule.
func (s *Service) CreateRule(ctx context.Context, actor domain.Identity, draft domain.RuleDraft) (RuleDetail, domain.Result, error) {
	const op = "create_rule"
	started := time.Now()
	var detail RuleDetail
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.CheckCreate(tx, actor, domain.CategoryRule); err != nil {
			return err
		}
		id, err := s.rules.Create(tx, draft)
		if err != nil {
			return err
		}
		detail, err = s.rules.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, detail.ID, err)
	if err != nil {
		return RuleDetail{}, res, err
	}
	return detail, res, nil
}

// GetRule loads one rule with its constrained target.
func (s *Service) GetRule(ctx context.Context, actor domain.Identity, id string) (RuleDetail, error) {
	const op = "get_rule"
	started := time.Now()
	var detail RuleDetail
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		if err := s.gate.Check(view, actor, domain.RightRead, id); err != nil {
			return err
		}
		var err error
		detail, err = s.rules.Get(view, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	if err != nil {
		return RuleDetail{}, err
	}
	return detail, nil
}

// UpdateRule re-applies a draft to a rule.
func (s *Service) UpdateRule(ctx context.Context, actor domain.Identity, id string, draft domain.RuleDraft) (RuleDetail, domain.Result, error) {
	const op = "update_rule"
	started := time.Now()
	var detail RuleDetail
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.Check(tx, actor, domain.RightWrite, id); err != nil {
			return err
		}
		if err := s.rules.Apply(tx, id, draft); err != nil {
			return err
		}
		var err error
		detail, err = s.rules.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, id, err)
	if err != nil {
		return RuleDetail{}, res, err
	}
	return detail, res, nil
}

// ListRules returns the rules readable by the actor.
func (s *Service) ListRules(ctx context.Context, actor domain.Identity) ([]domain.Rule, error) {
	const op = "list_rules"
	started := time.Now()
	var out []domain.Rule
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		out = filterReadable(view, s.gate, actor, view.ListRules(), func(r domain.Rule) string { return r.ID })
		return nil
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	return out, err
}

// CreateProcedure persists a new procedure.
func (s *Service) CreateProcedure(ctx context.Context, actor domain.Identity, draft domain.ProcedureDraft) (domain.Procedure, domain.Result, error) {
	const op = "create_procedure"
	started := time.Now()
	var created domain.Procedure
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.CheckCreate(tx, actor, domain.CategoryProcedure); err != nil {
			return err
		}
		id, err := s.procedures.Create(tx, draft)
		if err != nil {
			return err
		}
		created, err = s.procedures.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, created.ID, err)
	if err != nil {
		return domain.Procedure{}, res, err
	}
	return created, res, nil
}

// GetProcedure loads one procedure.
func (s *Service) GetProcedure(ctx context.Context, actor domain.Identity, id string) (domain.Procedure, error) {
	const op = "get_procedure"
	started := time.Now()
	var proc domain.Procedure
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		if err := s.gate.Check(view, actor, domain.RightRead, id); err != nil {
			return err
		}
		var err error
		proc, err = s.procedures.Get(view, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	if err != nil {
		return domain.Procedure{}, err
	}
	return proc, nil
}

// UpdateProcedure re-applies a draft to a procedure.
func (s *Service) UpdateProcedure(ctx context.Context, actor domain.Identity, id string, draft domain.ProcedureDraft) (domain.Procedure, domain.Result, error) {
	const op = "update_procedure"
	started := time.Now()
	var updated domain.Procedure
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.Check(tx, actor, domain.RightWrite, id); err != nil {
			return err
		}
		if err := s.procedures.Apply(tx, id, draft); err != nil {
			return err
		}
		var err error
		updated, err = s.procedures.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, id, err)
	if err != nil {
		return domain.Procedure{}, res, err
	}
	return updated, res, nil
}

// ListProcedures returns the procedures readable by the actor.
func (s *Service) ListProcedures(ctx context.Context, actor domain.Identity) ([]domain.Procedure, error) {
	const op = "list_procedures"
	started := time.Now()
	var out []domain.Procedure
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		out = filterReadable(view, s.gate, actor, view.ListProcedures(), func(p domain.Procedure) string { return p.ID })
		return nil
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	return out, err
}

// CreateUser persists a new user account.
func (s *Service) CreateUser(ctx context.Context, actor domain.Identity, draft domain.UserDraft) (domain.User, domain.Result, error) {
	const op = "create_user"
	started := time.Now()
	var created domain.User
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.CheckCreate(tx, actor, domain.CategoryUser); err != nil {
			return err
		}
		id, err := s.users.Create(tx, draft)
		if err != nil {
			return err
		}
		created, err = s.users.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, created.ID, err)
	if err != nil {
		return domain.User{}, res, err
	}
	return created, res, nil
}

// GetUser loads one user account.
func (s *Service) GetUser(ctx context.Context, actor domain.Identity, id string) (domain.User, error) {
	const op = "get_user"
	started := time.Now()
	var user domain.User
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		if err := s.gate.Check(view, actor, domain.RightRead, id); err != nil {
			return err
		}
		var err error
		user, err = s.users.Get(view, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// UpdateUser re-applies a draft to a user account.
func (s *Service) UpdateUser(ctx context.Context, actor domain.Identity, id string, draft domain.UserDraft) (domain.User, domain.Result, error) {
	const op = "update_user"
	started := time.Now()
	var updated domain.User
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.Check(tx, actor, domain.RightWrite, id); err != nil {
			return err
		}
		if err := s.users.Apply(tx, id, draft); err != nil {
			return err
		}
		var err error
		updated, err = s.users.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, id, err)
	if err != nil {
		return domain.User{}, res, err
	}
	return updated, res, nil
}

// ListUsers returns the users readable by the actor.
func (s *Service) ListUsers(ctx context.Context, actor domain.Identity) ([]domain.User, error) {
	const op = "list_users"
	started := time.Now()
	var out []domain.User
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		out = filterReadable(view, s.gate, actor, view.ListUsers(), func(u domain.User) string { return u.ID })
		return nil
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	return out, err
}

// CreateUserGroup persists a new group and links its members.
func (s *Service) CreateUserGroup(ctx context.Context, actor domain.Identity, draft domain.UserGroupDraft) (UserGroupDetail, domain.Result, error) {
	const op = "create_user_group"
	started := time.Now()
	var detail UserGroupDetail
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.CheckCreate(tx, actor, domain.CategoryUserGroup); err != nil {
			return err
		}
		id, err := s.groups.Create(tx, draft)
		if err != nil {
			return err
		}
		detail, err = s.groups.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, detail.ID, err)
	if err != nil {
		return UserGroupDetail{}, res, err
	}
	return detail, res, nil
}

// GetUserGroup loads one group with members and rights.
func (s *Service) GetUserGroup(ctx context.Context, actor domain.Identity, id string) (UserGroupDetail, error) {
	const op = "get_user_group"
	started := time.Now()
	var detail UserGroupDetail
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		if err := s.gate.Check(view, actor, domain.RightRead, id); err != nil {
			return err
		}
		var err error
		detail, err = s.groups.Get(view, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	if err != nil {
		return UserGroupDetail{}, err
	}
	return detail, nil
}

// UpdateUserGroup re-applies a draft to a group and reconciles membership.
func (s *Service) UpdateUserGroup(ctx context.Context, actor domain.Identity, id string, draft domain.UserGroupDraft) (UserGroupDetail, domain.Result, error) {
	const op = "update_user_group"
	started := time.Now()
	var detail UserGroupDetail
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.Check(tx, actor, domain.RightWrite, id); err != nil {
			return err
		}
		if err := s.groups.Apply(tx, id, draft); err != nil {
			return err
		}
		var err error
		detail, err = s.groups.Get(tx, id)
		return err
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, id, err)
	if err != nil {
		return UserGroupDetail{}, res, err
	}
	return detail, res, nil
}

// ListUserGroups returns the groups readable by the actor.
func (s *Service) ListUserGroups(ctx context.Context, actor domain.Identity) ([]domain.UserGroup, error) {
	const op = "list_user_groups"
	started := time.Now()
	var out []domain.UserGroup
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		out = filterReadable(view, s.gate, actor, view.ListUserGroups(), func(g domain.UserGroup) string { return g.ID })
		return nil
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	return out, err
}

// GrantRight grants one right tuple. The actor needs write on the group.
func (s *Service) GrantRight(ctx context.Context, actor domain.Identity, right domain.Right) (domain.Result, error) {
	const op = "grant_right"
	started := time.Now()
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.Check(tx, actor, domain.RightWrite, right.GroupID); err != nil {
			return err
		}
		return tx.GrantRight(right)
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, right.GroupID, err)
	return res, err
}

// RevokeRight removes one right tuple. The actor needs write on the group.
func (s *Service) RevokeRight(ctx context.Context, actor domain.Identity, right domain.Right) (domain.Result, error) {
	const op = "revoke_right"
	started := time.Now()
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := s.gate.Check(tx, actor, domain.RightWrite, right.GroupID); err != nil {
			return err
		}
		return tx.RevokeRight(right)
	})
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	s.recordAudit(ctx, op, actor, right.GroupID, err)
	return res, err
}
