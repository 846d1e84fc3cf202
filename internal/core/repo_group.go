package core

import "metacore/pkg/domain"

// UserGroupRepository manages groups and their membership edges. Membership
// is a pure reference: removing a member never deletes the user, regardless
// of update mode.
type UserGroupRepository struct {
	resolver TypeResolver
}

func (r *UserGroupRepository) memberSync() childSync[string] {
	return childSync[string]{
		kind: domain.KindGroupMember,
		key:  func(id string) string { return id },
		create: func(tx domain.Transaction, id string) (string, error) {
			if id == "" {
				return "", domain.ValidationError{Reason: "group member requires an id"}
			}
			return "", domain.ErrNotFound{Category: domain.CategoryUser, ID: id}
		},
		update: func(tx domain.Transaction, id string, _ string) error { return nil },
		edge: func(parentID, childID string, _ string) domain.Association {
			return domain.Association{SourceID: parentID, TargetID: childID, Kind: domain.KindGroupMember}
		},
	}
}

// Create materializes a group and links its members.
func (r *UserGroupRepository) Create(tx domain.Transaction, draft domain.UserGroupDraft) (string, error) {
	group, err := tx.CreateUserGroup(domain.UserGroup{
		Base: domain.Base{
			ID:          draft.ID,
			Name:        draft.Name,
			Description: draft.Description,
		},
	})
	if err != nil {
		return "", err
	}
	if err := reconcileChildren(tx, group.ID, draft.MemberIDs, r.memberSync(), false); err != nil {
		return "", err
	}
	return group.ID, nil
}

// Apply drives an existing group toward the draft.
func (r *UserGroupRepository) Apply(tx domain.Transaction, id string, draft domain.UserGroupDraft) error {
	if _, err := tx.UpdateUserGroup(id, func(group *domain.UserGroup) error {
		group.Name = draft.Name
		group.Description = draft.Description
		return nil
	}); err != nil {
		return err
	}
	return reconcileChildren(tx, id, draft.MemberIDs, r.memberSync(), false)
}

// Get loads one group with its members and rights.
func (r *UserGroupRepository) Get(view domain.TransactionView, id string) (UserGroupDetail, error) {
	group, ok := view.FindUserGroup(id)
	if !ok {
		return UserGroupDetail{}, domain.ErrNotFound{Category: domain.CategoryUserGroup, ID: id}
	}
	detail := UserGroupDetail{UserGroup: group}
	for _, edge := range view.AssociationsFrom(id, domain.KindGroupMember) {
		detail.MemberIDs = append(detail.MemberIDs, edge.TargetID)
	}
	detail.Rights = view.RightsForGroup(id)
	return detail, nil
}
