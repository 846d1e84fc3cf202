package core

import "metacore/pkg/domain"

// Repositories for the categories without owned children: attribute types,
// rules, procedures, and users. Rules carry one constrains reference.

// AttributeTypeRepository manages reusable value domains.
type AttributeTypeRepository struct{}

// Create materializes an attribute type from a draft.
func (r *AttributeTypeRepository) Create(tx domain.Transaction, draft domain.AttributeTypeDraft) (string, error) {
	at, err := tx.CreateAttributeType(domain.AttributeType{
		Base: domain.Base{
			ID:          draft.ID,
			Name:        draft.Name,
			Description: draft.Description,
		},
		Kind:       draft.Kind,
		EnumValues: draft.EnumValues,
		Pattern:    draft.Pattern,
	})
	if err != nil {
		return "", err
	}
	return at.ID, nil
}

// Apply drives an existing attribute type toward the draft.
func (r *AttributeTypeRepository) Apply(tx domain.Transaction, id string, draft domain.AttributeTypeDraft) error {
	_, err := tx.UpdateAttributeType(id, func(at *domain.AttributeType) error {
		at.Name = draft.Name
		at.Description = draft.Description
		at.Kind = draft.Kind
		at.EnumValues = draft.EnumValues
		at.Pattern = draft.Pattern
		return nil
	})
	return err
}

// Get loads one attribute type.
func (r *AttributeTypeRepository) Get(view domain.TransactionView, id string) (domain.AttributeType, error) {
	at, ok := view.FindAttributeType(id)
	if !ok {
		return domain.AttributeType{}, domain.ErrNotFound{Category: domain.CategoryAttributeType, ID: id}
	}
	return at, nil
}

// RuleRepository manages constraint rules and their constrains reference.
type RuleRepository struct {
	resolver TypeResolver
}

func (r *RuleRepository) checkTarget(tx domain.Transaction, targetID string) error {
	if targetID == "" {
		return nil
	}
	_, err := r.resolver.Resolve(tx, targetID)
	return err
}

// Create materializes a rule from a draft.
func (r *RuleRepository) Create(tx domain.Transaction, draft domain.RuleDraft) (string, error) {
	if err := r.checkTarget(tx, draft.TargetID); err != nil {
		return "", err
	}
	rule, err := tx.CreateRule(domain.Rule{
		Base: domain.Base{
			ID:          draft.ID,
			Name:        draft.Name,
			Description: draft.Description,
		},
		Expression: draft.Expression,
		Severity:   draft.Severity,
	})
	if err != nil {
		return "", err
	}
	if draft.TargetID != "" {
		if _, err := tx.PutAssociation(domain.Association{
			SourceID: rule.ID,
			TargetID: draft.TargetID,
			Kind:     domain.KindConstrains,
		}); err != nil {
			return "", err
		}
	}
	return rule.ID, nil
}

// Apply drives an existing rule toward the draft.
func (r *RuleRepository) Apply(tx domain.Transaction, id string, draft domain.RuleDraft) error {
	if err := r.checkTarget(tx, draft.TargetID); err != nil {
		return err
	}
	if _, err := tx.UpdateRule(id, func(rule *domain.Rule) error {
		rule.Name = draft.Name
		rule.Description = draft.Description
		rule.Expression = draft.Expression
		rule.Severity = draft.Severity
		return nil
	}); err != nil {
		return err
	}
	return setReference(tx, id, domain.KindConstrains, draft.TargetID, nil)
}

// Get loads one rule with its constrained target.
func (r *RuleRepository) Get(view domain.TransactionView, id string) (RuleDetail, error) {
	rule, ok := view.FindRule(id)
	if !ok {
		return RuleDetail{}, domain.ErrNotFound{Category: domain.CategoryRule, ID: id}
	}
	detail := RuleDetail{Rule: rule}
	if refs := view.AssociationsFrom(id, domain.KindConstrains); len(refs) > 0 {
		detail.TargetID = refs[0].TargetID
	}
	return detail, nil
}

// ProcedureRepository manages scripted procedures.
type ProcedureRepository struct{}

// Create materializes a procedure from a draft.
func (r *ProcedureRepository) Create(tx domain.Transaction, draft domain.ProcedureDraft) (string, error) {
	if draft.Body == "" {
		return "", domain.ValidationError{Reason: "procedure requires a body"}
	}
	proc, err := tx.CreateProcedure(domain.Procedure{
		Base: domain.Base{
			ID:          draft.ID,
			Name:        draft.Name,
			Description: draft.Description,
		},
		Body:    draft.Body,
		Trigger: draft.Trigger,
	})
	if err != nil {
		return "", err
	}
	return proc.ID, nil
}

// Apply drives an existing procedure toward the draft.
func (r *ProcedureRepository) Apply(tx domain.Transaction, id string, draft domain.ProcedureDraft) error {
	if draft.Body == "" {
		return domain.ValidationError{Reason: "procedure requires a body"}
	}
	_, err := tx.UpdateProcedure(id, func(proc *domain.Procedure) error {
		proc.Name = draft.Name
		proc.Description = draft.Description
		proc.Body = draft.Body
		proc.Trigger = draft.Trigger
		return nil
	})
	return err
}

// Get loads one procedure.
func (r *ProcedureRepository) Get(view domain.TransactionView, id string) (domain.Procedure, error) {
	proc, ok := view.FindProcedure(id)
	if !ok {
		return domain.Procedure{}, domain.ErrNotFound{Category: domain.CategoryProcedure, ID: id}
	}
	return proc, nil
}

// UserRepository manages user accounts.
type UserRepository struct{}

// Create materializes a user from a draft.
func (r *UserRepository) Create(tx domain.Transaction, draft domain.UserDraft) (string, error) {
	if draft.Login == "" {
		return "", domain.ValidationError{Reason: "user requires a login"}
	}
	user, err := tx.CreateUser(domain.User{
		Base: domain.Base{
			ID:          draft.ID,
			Name:        draft.Name,
			Description: draft.Description,
		},
		Login: draft.Login,
	})
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// Apply drives an existing user toward the draft.
func (r *UserRepository) Apply(tx domain.Transaction, id string, draft domain.UserDraft) error {
	if draft.Login == "" {
		return domain.ValidationError{Reason: "user requires a login"}
	}
	_, err := tx.UpdateUser(id, func(user *domain.User) error {
		user.Name = draft.Name
		user.Description = draft.Description
		user.Login = draft.Login
		return nil
	})
	return err
}

// Get loads one user.
func (r *UserRepository) Get(view domain.TransactionView, id string) (domain.User, error) {
	user, ok := view.FindUser(id)
	if !ok {
		return domain.User{}, domain.ErrNotFound{Category: domain.CategoryUser, ID: id}
	}
	return user, nil
}
