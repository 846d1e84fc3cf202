package core

import "metacore/pkg/domain"

// SceneTypeRepository manages scene type nodes: their owned attributes and
// the member placements referencing existing classes and relation classes.
type SceneTypeRepository struct {
	resolver TypeResolver
	attrs    *AttributeRepository
}

// memberSync reconciles a scene placement collection. Members are references
// to existing nodes: a draft naming an unknown id fails instead of creating
// one. The placement edge carries sequence and UI hint.
func (r *SceneTypeRepository) memberSync(kind domain.AssociationKind) childSync[domain.SceneMemberDraft] {
	return childSync[domain.SceneMemberDraft]{
		kind: kind,
		key:  func(d domain.SceneMemberDraft) string { return d.ID },
		create: func(tx domain.Transaction, d domain.SceneMemberDraft) (string, error) {
			if d.ID == "" {
				return "", domain.ValidationError{Reason: "scene member requires an id"}
			}
			return "", domain.ErrNotFound{ID: d.ID}
		},
		update: func(tx domain.Transaction, id string, d domain.SceneMemberDraft) error {
			// Placement only; the member node itself is not touched.
			return nil
		},
		edge: func(parentID, childID string, d domain.SceneMemberDraft) domain.Association {
			return domain.Association{
				SourceID: parentID,
				TargetID: childID,
				Kind:     kind,
				Sequence: d.Sequence,
				UIHint:   d.UIHint,
			}
		},
	}
}

// Create materializes a scene type from a draft. Member references must
// resolve to existing classes and relation classes.
func (r *SceneTypeRepository) Create(tx domain.Transaction, draft domain.SceneTypeDraft) (string, error) {
	scene, err := tx.CreateSceneType(domain.SceneType{
		Base: domain.Base{
			ID:          draft.ID,
			Name:        draft.Name,
			Description: draft.Description,
		},
		Layout: draft.Layout,
	})
	if err != nil {
		return "", err
	}
	if err := reconcileChildren(tx, scene.ID, draft.Attributes, r.attrs.sync(), false); err != nil {
		return "", err
	}
	if err := reconcileChildren(tx, scene.ID, draft.Classes, r.memberSync(domain.KindSceneClass), false); err != nil {
		return "", err
	}
	if err := reconcileChildren(tx, scene.ID, draft.RelationClasses, r.memberSync(domain.KindSceneRelation), false); err != nil {
		return "", err
	}
	return scene.ID, nil
}

// Apply drives an existing scene type toward the draft. Hard mode deletes
// removed attributes and removed members with cascade semantics; soft mode
// only disconnects them.
func (r *SceneTypeRepository) Apply(tx domain.Transaction, id string, draft domain.SceneTypeDraft, hard bool) error {
	if _, err := tx.UpdateSceneType(id, func(s *domain.SceneType) error {
		s.Name = draft.Name
		s.Description = draft.Description
		s.Layout = draft.Layout
		return nil
	}); err != nil {
		return err
	}
	if err := reconcileChildren(tx, id, draft.Attributes, r.attrs.sync(), hard); err != nil {
		return err
	}
	if err := reconcileChildren(tx, id, draft.Classes, r.memberSync(domain.KindSceneClass), hard); err != nil {
		return err
	}
	return reconcileChildren(tx, id, draft.RelationClasses, r.memberSync(domain.KindSceneRelation), hard)
}

// Get loads one scene type with attributes and member placements.
func (r *SceneTypeRepository) Get(view domain.TransactionView, id string) (SceneTypeDetail, error) {
	scene, ok := view.FindSceneType(id)
	if !ok {
		return SceneTypeDetail{}, domain.ErrNotFound{Category: domain.CategorySceneType, ID: id}
	}
	detail := SceneTypeDetail{SceneType: scene}
	attrs, err := loadAttributes(view, id)
	if err != nil {
		return SceneTypeDetail{}, err
	}
	detail.Attributes = attrs
	detail.Classes = loadSceneMembers(view, id, domain.KindSceneClass)
	detail.RelationClasses = loadSceneMembers(view, id, domain.KindSceneRelation)
	return detail, nil
}
