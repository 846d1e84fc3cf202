package core

import (
	"context"
	"testing"

	"metacore/internal/infra/persistence/memory"
	"metacore/pkg/domain"
)

// internal is the trusted zero identity used for test fixtures.
const internal = domain.Identity("")

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	engine := NewDefaultEngine()
	return NewService(memory.NewStore(engine), engine, opts...)
}

func seedStringType(t *testing.T, svc *Service, id string) {
	t.Helper()
	_, _, err := svc.CreateAttributeType(context.Background(), internal, domain.AttributeTypeDraft{
		ID: id, Name: id, Kind: domain.ValueString,
	})
	if err != nil {
		t.Fatalf("seed attribute type: %v", err)
	}
}

func TestCreateClassWithNestedChildren(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	seedStringType(t, svc, "at-string")

	super, _, err := svc.CreateClass(ctx, internal, domain.ClassDraft{ID: "cls-base", Name: "Element"})
	if err != nil {
		t.Fatalf("create superclass: %v", err)
	}

	detail, _, err := svc.CreateClass(ctx, internal, domain.ClassDraft{
		ID:           "cls-pump",
		Name:         "Pump",
		Abstract:     false,
		SuperClassID: super.ID,
		Attributes: []domain.AttributeDraft{
			{Name: "capacity", TypeID: "at-string", Sequence: 2},
			{Name: "vendor", TypeID: "at-string", Sequence: 1, UIHint: "dropdown"},
		},
		Ports: []domain.PortDraft{
			{Name: "inlet", Direction: domain.PortIn, Attributes: []domain.AttributeDraft{{Name: "rate"}}},
		},
	})
	if err != nil {
		t.Fatalf("create class: %v", err)
	}

	if detail.SuperClassID != "cls-base" {
		t.Fatalf("superclass = %q", detail.SuperClassID)
	}
	if len(detail.Attributes) != 2 {
		t.Fatalf("attributes = %+v", detail.Attributes)
	}
	if detail.Attributes[0].Name != "vendor" || detail.Attributes[1].Name != "capacity" {
		t.Fatalf("attributes not in sequence order: %q, %q", detail.Attributes[0].Name, detail.Attributes[1].Name)
	}
	if detail.Attributes[0].TypeID != "at-string" || detail.Attributes[0].UIHint != "dropdown" {
		t.Fatalf("edge attributes lost: %+v", detail.Attributes[0])
	}
	if len(detail.Ports) != 1 || detail.Ports[0].Name != "inlet" {
		t.Fatalf("ports = %+v", detail.Ports)
	}
	if len(detail.Ports[0].Attributes) != 1 || detail.Ports[0].Attributes[0].Name != "rate" {
		t.Fatalf("port attributes = %+v", detail.Ports[0].Attributes)
	}
}

func TestCreateClassRejectsUnknownSuperclass(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.CreateClass(context.Background(), internal, domain.ClassDraft{
		Name: "Orphan", SuperClassID: "ghost",
	})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found for unknown superclass, got %v", err)
	}
}

func TestUpdateClassRejectsSelfSpecialization(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	if _, _, err := svc.CreateClass(ctx, internal, domain.ClassDraft{ID: "cls", Name: "Loop"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, _, err := svc.UpdateClass(ctx, internal, "cls", domain.ClassDraft{Name: "Loop", SuperClassID: "cls"}, UpdateSoft)
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func classWithPorts(t *testing.T, svc *Service, classID string, portIDs ...string) {
	t.Helper()
	draft := domain.ClassDraft{ID: classID, Name: "Holder"}
	for _, id := range portIDs {
		draft.Ports = append(draft.Ports, domain.PortDraft{ID: id, Name: id})
	}
	if _, _, err := svc.CreateClass(context.Background(), internal, draft); err != nil {
		t.Fatalf("create class: %v", err)
	}
}

func TestSoftUpdateDisconnectsButKeepsRemovedChildren(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	classWithPorts(t, svc, "cls", "port-x", "port-y")

	detail, _, err := svc.UpdateClass(ctx, internal, "cls", domain.ClassDraft{
		Name: "Holder",
		Ports: []domain.PortDraft{
			{ID: "port-y", Name: "port-y"},
			{Name: "port-z"},
		},
	}, UpdateSoft)
	if err != nil {
		t.Fatalf("soft update: %v", err)
	}
	if len(detail.Ports) != 2 {
		t.Fatalf("ports = %+v", detail.Ports)
	}

	// The disconnected port survives as a free node.
	if _, err := svc.GetPort(ctx, internal, "port-x"); err != nil {
		t.Fatalf("soft mode must keep the disconnected port: %v", err)
	}
	if _, err := svc.ResolveNode(ctx, internal, "port-x"); err != nil {
		t.Fatalf("disconnected port not resolvable: %v", err)
	}
}

func TestHardUpdateDeletesRemovedChildren(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	classWithPorts(t, svc, "cls", "port-x", "port-y")

	detail, _, err := svc.UpdateClass(ctx, internal, "cls", domain.ClassDraft{
		Name:  "Holder",
		Ports: []domain.PortDraft{{ID: "port-y", Name: "port-y"}},
	}, UpdateHard)
	if err != nil {
		t.Fatalf("hard update: %v", err)
	}
	if len(detail.Ports) != 1 || detail.Ports[0].ID != "port-y" {
		t.Fatalf("ports = %+v", detail.Ports)
	}
	if _, err := svc.ResolveNode(ctx, internal, "port-x"); !domain.IsNotFound(err) {
		t.Fatalf("hard mode must delete the removed port, got %v", err)
	}
}

func TestSoftUpdateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	seedStringType(t, svc, "at-string")
	draft := domain.ClassDraft{
		ID:   "cls",
		Name: "Stable",
		Attributes: []domain.AttributeDraft{
			{ID: "attr-a", Name: "a", TypeID: "at-string", Sequence: 1},
		},
		Ports: []domain.PortDraft{{ID: "port-p", Name: "p"}},
	}
	if _, _, err := svc.CreateClass(ctx, internal, draft); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, _, err := svc.UpdateClass(ctx, internal, "cls", draft, UpdateSoft)
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	second, _, err := svc.UpdateClass(ctx, internal, "cls", draft, UpdateSoft)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}

	if len(second.Attributes) != 1 || second.Attributes[0].ID != "attr-a" {
		t.Fatalf("attributes churned: %+v", second.Attributes)
	}
	if len(second.Ports) != 1 || second.Ports[0].ID != "port-p" {
		t.Fatalf("ports churned: %+v", second.Ports)
	}
	if first.Attributes[0].TypeID != second.Attributes[0].TypeID {
		t.Fatalf("type reference churned: %q vs %q", first.Attributes[0].TypeID, second.Attributes[0].TypeID)
	}
}

func seedActor(t *testing.T, svc *Service, userID, groupID string) domain.Identity {
	t.Helper()
	ctx := context.Background()
	if _, _, err := svc.CreateUser(ctx, internal, domain.UserDraft{ID: userID, Name: userID, Login: userID}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, _, err := svc.CreateUserGroup(ctx, internal, domain.UserGroupDraft{
		ID: groupID, Name: groupID, MemberIDs: []string{userID},
	}); err != nil {
		t.Fatalf("create group: %v", err)
	}
	return domain.Identity(userID)
}

func grant(t *testing.T, svc *Service, right domain.Right) {
	t.Helper()
	if _, err := svc.GrantRight(context.Background(), internal, right); err != nil {
		t.Fatalf("grant %+v: %v", right, err)
	}
}

func TestRightsGateReadAndWrite(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	alice := seedActor(t, svc, "alice", "grp")
	if _, _, err := svc.CreateClass(ctx, internal, domain.ClassDraft{ID: "cls", Name: "Guarded"}); err != nil {
		t.Fatalf("create class: %v", err)
	}

	if _, err := svc.GetClass(ctx, alice, "cls"); !domain.IsDenied(err) {
		t.Fatalf("read without grant must be denied, got %v", err)
	}
	if list, err := svc.ListClasses(ctx, alice); err != nil || len(list) != 0 {
		t.Fatalf("list must filter unreadable nodes: %v %v", list, err)
	}

	grant(t, svc, domain.Right{GroupID: "grp", Action: domain.RightRead, NodeID: "cls"})
	if _, err := svc.GetClass(ctx, alice, "cls"); err != nil {
		t.Fatalf("read with grant: %v", err)
	}
	if list, err := svc.ListClasses(ctx, alice); err != nil || len(list) != 1 {
		t.Fatalf("list with grant: %v %v", list, err)
	}

	// Read does not imply write.
	_, _, err := svc.UpdateClass(ctx, alice, "cls", domain.ClassDraft{Name: "Renamed"}, UpdateSoft)
	if !domain.IsDenied(err) {
		t.Fatalf("write without grant must be denied, got %v", err)
	}
	if detail, err := svc.GetClass(ctx, internal, "cls"); err != nil || detail.Name != "Guarded" {
		t.Fatalf("denied write must leave the node untouched: %+v %v", detail, err)
	}

	grant(t, svc, domain.Right{GroupID: "grp", Action: domain.RightWrite, NodeID: "cls"})
	if _, _, err := svc.UpdateClass(ctx, alice, "cls", domain.ClassDraft{Name: "Renamed"}, UpdateSoft); err != nil {
		t.Fatalf("write with grant: %v", err)
	}
}

func TestRootBypassesRightsChecks(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	if _, _, err := svc.CreateClass(ctx, internal, domain.ClassDraft{ID: "cls", Name: "Open"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.GetClass(ctx, domain.RootUserID, "cls"); err != nil {
		t.Fatalf("root read: %v", err)
	}
	if _, _, err := svc.UpdateClass(ctx, domain.RootUserID, "cls", domain.ClassDraft{Name: "Open"}, UpdateSoft); err != nil {
		t.Fatalf("root write: %v", err)
	}
}

func TestCreateRequiresCategoryGrant(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	alice := seedActor(t, svc, "alice", "grp")

	_, _, err := svc.CreateClass(ctx, alice, domain.ClassDraft{Name: "Denied"})
	if !domain.IsDenied(err) {
		t.Fatalf("create without grant must be denied, got %v", err)
	}

	grant(t, svc, domain.Right{GroupID: "grp", Action: domain.RightCreate, Category: domain.CategoryClass})
	if _, _, err := svc.CreateClass(ctx, alice, domain.ClassDraft{Name: "Allowed"}); err != nil {
		t.Fatalf("create with grant: %v", err)
	}

	// The grant is per category.
	if _, _, err := svc.CreateSceneType(ctx, alice, domain.SceneTypeDraft{Name: "Denied"}); !domain.IsDenied(err) {
		t.Fatalf("grant must not leak across categories, got %v", err)
	}
}

func TestDeleteNodeCascadesOwnedChildren(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	if _, _, err := svc.CreateClass(ctx, internal, domain.ClassDraft{
		ID:         "cls",
		Name:       "Doomed",
		Attributes: []domain.AttributeDraft{{ID: "attr-c", Name: "direct"}},
		Ports: []domain.PortDraft{
			{ID: "port-p", Name: "p", Attributes: []domain.AttributeDraft{{ID: "attr-p", Name: "nested"}}},
		},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, _, err := svc.DeleteNode(ctx, internal, "cls")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(deleted) != 4 {
		t.Fatalf("deleted = %v", deleted)
	}
	for _, id := range []string{"cls", "attr-c", "port-p", "attr-p"} {
		if _, err := svc.ResolveNode(ctx, internal, id); !domain.IsNotFound(err) {
			t.Fatalf("%s survived the cascade: %v", id, err)
		}
	}
}

func TestDeleteNodeBlockedByExternalReference(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	if _, _, err := svc.CreateClass(ctx, internal, domain.ClassDraft{ID: "cls", Name: "Placed"}); err != nil {
		t.Fatalf("create class: %v", err)
	}
	if _, _, err := svc.CreateSceneType(ctx, internal, domain.SceneTypeDraft{
		ID: "scene", Name: "Overview",
		Classes: []domain.SceneMemberDraft{{ID: "cls"}},
	}); err != nil {
		t.Fatalf("create scene type: %v", err)
	}

	_, _, err := svc.DeleteNode(ctx, internal, "cls")
	conflict, ok := domain.AsConflict(err)
	if !ok {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(conflict.Blocking) != 1 || conflict.Blocking[0].ID != "scene" {
		t.Fatalf("blocking = %+v", conflict.Blocking)
	}
	if _, err := svc.GetClass(ctx, internal, "cls"); err != nil {
		t.Fatalf("blocked delete must leave the target readable: %v", err)
	}
}

func TestDeleteNodeDeniedWithoutDeleteGrant(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	alice := seedActor(t, svc, "alice", "grp")
	if _, _, err := svc.CreateClass(ctx, internal, domain.ClassDraft{ID: "cls-a", Name: "Granted"}); err != nil {
		t.Fatalf("create class: %v", err)
	}
	classWithPorts(t, svc, "cls-b", "port-p")
	grant(t, svc, domain.Right{GroupID: "grp", Action: domain.RightWrite, NodeID: "cls-a"})

	// A write grant on an unrelated node confers nothing on the target.
	if _, _, err := svc.DeleteNode(ctx, alice, "port-p"); !domain.IsDenied(err) {
		t.Fatalf("expected denied delete, got %v", err)
	}
	if _, err := svc.GetPort(ctx, internal, "port-p"); err != nil {
		t.Fatalf("denied delete must leave the target intact: %v", err)
	}

	grant(t, svc, domain.Right{GroupID: "grp", Action: domain.RightDelete, NodeID: "port-p"})
	if _, _, err := svc.DeleteNode(ctx, alice, "port-p"); err != nil {
		t.Fatalf("delete with grant: %v", err)
	}
}

func TestUpdateClassRejectsDuplicateChildIDs(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	classWithPorts(t, svc, "cls", "port-a")

	_, _, err := svc.UpdateClass(ctx, internal, "cls", domain.ClassDraft{
		Name: "Holder",
		Ports: []domain.PortDraft{
			{ID: "port-a", Name: "first"},
			{ID: "port-a", Name: "second"},
		},
	}, UpdateSoft)
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error for duplicate port id, got %v", err)
	}
	// The create path rejects the same duplication.
	_, _, err = svc.CreateClass(ctx, internal, domain.ClassDraft{
		ID: "cls-dup", Name: "Dup",
		Attributes: []domain.AttributeDraft{
			{ID: "attr-a", Name: "width"},
			{ID: "attr-a", Name: "height"},
		},
	})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error for duplicate attribute id, got %v", err)
	}
}

func TestAttributesAttachToAnyOwnerCategory(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	if _, _, err := svc.CreateSceneType(ctx, internal, domain.SceneTypeDraft{ID: "scene", Name: "S"}); err != nil {
		t.Fatalf("scene type: %v", err)
	}
	if _, _, err := svc.CreateClass(ctx, internal, domain.ClassDraft{
		ID: "cls", Name: "C",
		Ports: []domain.PortDraft{{ID: "port", Name: "P"}},
	}); err != nil {
		t.Fatalf("class: %v", err)
	}
	if _, _, err := svc.CreateRelationClass(ctx, internal, domain.RelationClassDraft{ID: "rel", Name: "R"}); err != nil {
		t.Fatalf("relation class: %v", err)
	}
	if _, _, err := svc.CreateUser(ctx, internal, domain.UserDraft{ID: "usr", Name: "U", Login: "u"}); err != nil {
		t.Fatalf("user: %v", err)
	}

	for _, owner := range []string{"scene", "cls", "port", "rel"} {
		detail, _, err := svc.CreateAttribute(ctx, internal, owner, domain.AttributeDraft{Name: "label"})
		if err != nil {
			t.Fatalf("attribute under %s: %v", owner, err)
		}
		attrs, err := svc.ListAttributesByOwner(ctx, internal, owner)
		if err != nil || len(attrs) != 1 || attrs[0].ID != detail.ID {
			t.Fatalf("list under %s: %+v %v", owner, attrs, err)
		}
	}

	// A user cannot own attributes.
	if _, _, err := svc.CreateAttribute(ctx, internal, "usr", domain.AttributeDraft{Name: "label"}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for non attribute-bearing owner, got %v", err)
	}
}

func TestGetNodeDispatchesByCategory(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	seedStringType(t, svc, "at")
	if _, _, err := svc.CreateClass(ctx, internal, domain.ClassDraft{ID: "cls", Name: "C"}); err != nil {
		t.Fatalf("class: %v", err)
	}

	got, err := svc.GetNode(ctx, internal, "cls")
	if err != nil {
		t.Fatalf("get class node: %v", err)
	}
	if _, ok := got.(ClassDetail); !ok {
		t.Fatalf("class node yields %T", got)
	}

	got, err = svc.GetNode(ctx, internal, "at")
	if err != nil {
		t.Fatalf("get attribute type node: %v", err)
	}
	if _, ok := got.(domain.AttributeType); !ok {
		t.Fatalf("attribute type node yields %T", got)
	}

	if _, err := svc.GetNode(ctx, internal, "ghost"); !domain.IsNotFound(err) {
		t.Fatalf("unknown node: %v", err)
	}

	ref, err := svc.ResolveNode(ctx, internal, "cls")
	if err != nil || ref.Category != domain.CategoryClass || ref.Name != "C" {
		t.Fatalf("resolve = %+v %v", ref, err)
	}
}

func TestRelationClassRolesCarryBounds(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	if _, _, err := svc.CreateClass(ctx, internal, domain.ClassDraft{ID: "cls", Name: "End"}); err != nil {
		t.Fatalf("class: %v", err)
	}

	detail, _, err := svc.CreateRelationClass(ctx, internal, domain.RelationClassDraft{
		ID: "rel", Name: "Connects",
		Roles: []domain.RoleDraft{
			{ID: "role-from", Name: "from", Direction: domain.RoleFrom, ClassID: "cls", MinCard: 1, MaxCard: domain.CardUnbounded},
			{ID: "role-to", Name: "to", Direction: domain.RoleTo, ClassID: "cls", MinCard: 0, MaxCard: 1},
		},
	})
	if err != nil {
		t.Fatalf("create relation class: %v", err)
	}
	if len(detail.Roles) != 2 {
		t.Fatalf("roles = %+v", detail.Roles)
	}

	role, err := svc.GetRole(ctx, internal, "role-from")
	if err != nil {
		t.Fatalf("get role: %v", err)
	}
	if role.ClassID != "cls" || role.MinCard != 1 || role.MaxCard != domain.CardUnbounded {
		t.Fatalf("role bounds = %+v", role)
	}

	// Bounds are validated before any edge is written.
	_, _, err = svc.CreateRelationClass(ctx, internal, domain.RelationClassDraft{
		Name:  "Broken",
		Roles: []domain.RoleDraft{{Name: "bad", ClassID: "cls", MinCard: 2, MaxCard: 1}},
	})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error for inverted bounds, got %v", err)
	}
}

func TestSceneTypeMemberPlacement(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	if _, _, err := svc.CreateClass(ctx, internal, domain.ClassDraft{ID: "cls", Name: "C"}); err != nil {
		t.Fatalf("class: %v", err)
	}
	if _, _, err := svc.CreateRelationClass(ctx, internal, domain.RelationClassDraft{ID: "rel", Name: "R"}); err != nil {
		t.Fatalf("relation class: %v", err)
	}

	detail, _, err := svc.CreateSceneType(ctx, internal, domain.SceneTypeDraft{
		ID: "scene", Name: "Overview",
		Classes:         []domain.SceneMemberDraft{{ID: "cls", Sequence: 1, UIHint: "top"}},
		RelationClasses: []domain.SceneMemberDraft{{ID: "rel"}},
	})
	if err != nil {
		t.Fatalf("create scene type: %v", err)
	}
	if len(detail.Classes) != 1 || detail.Classes[0].Ref.ID != "cls" || detail.Classes[0].UIHint != "top" {
		t.Fatalf("classes = %+v", detail.Classes)
	}
	if len(detail.RelationClasses) != 1 || detail.RelationClasses[0].Ref.ID != "rel" {
		t.Fatalf("relation classes = %+v", detail.RelationClasses)
	}

	// Members are references to existing nodes, never implicit creations.
	_, _, err = svc.CreateSceneType(ctx, internal, domain.SceneTypeDraft{
		Name:    "Broken",
		Classes: []domain.SceneMemberDraft{{ID: "ghost"}},
	})
	if !domain.IsNotFound(err) {
		t.Fatalf("unknown member: %v", err)
	}
	_, _, err = svc.CreateSceneType(ctx, internal, domain.SceneTypeDraft{
		Name:    "Broken",
		Classes: []domain.SceneMemberDraft{{}},
	})
	if !domain.IsValidation(err) {
		t.Fatalf("member without id: %v", err)
	}
}

func TestGroupMembershipUpdateNeverDeletesUsers(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	for _, id := range []string{"u1", "u2"} {
		if _, _, err := svc.CreateUser(ctx, internal, domain.UserDraft{ID: id, Name: id, Login: id}); err != nil {
			t.Fatalf("user %s: %v", id, err)
		}
	}
	if _, _, err := svc.CreateUserGroup(ctx, internal, domain.UserGroupDraft{
		ID: "grp", Name: "Team", MemberIDs: []string{"u1", "u2"},
	}); err != nil {
		t.Fatalf("group: %v", err)
	}

	detail, _, err := svc.UpdateUserGroup(ctx, internal, "grp", domain.UserGroupDraft{
		Name: "Team", MemberIDs: []string{"u2"},
	})
	if err != nil {
		t.Fatalf("update group: %v", err)
	}
	if len(detail.MemberIDs) != 1 || detail.MemberIDs[0] != "u2" {
		t.Fatalf("members = %v", detail.MemberIDs)
	}
	if _, err := svc.GetUser(ctx, internal, "u1"); err != nil {
		t.Fatalf("removed member must survive as a user: %v", err)
	}
}

func TestGrantRightRequiresGroupWrite(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	alice := seedActor(t, svc, "alice", "grp")

	right := domain.Right{GroupID: "grp", Action: domain.RightRead, NodeID: "grp"}
	if _, err := svc.GrantRight(ctx, alice, right); !domain.IsDenied(err) {
		t.Fatalf("grant without write on group must be denied, got %v", err)
	}

	grant(t, svc, domain.Right{GroupID: "grp", Action: domain.RightWrite, NodeID: "grp"})
	if _, err := svc.GrantRight(ctx, alice, right); err != nil {
		t.Fatalf("grant with write on group: %v", err)
	}
	if _, err := svc.RevokeRight(ctx, alice, right); err != nil {
		t.Fatalf("revoke with write on group: %v", err)
	}
}

func TestGrantRightRejectsUnknownGroup(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.GrantRight(context.Background(), internal, domain.Right{
		GroupID: "ghost", Action: domain.RightRead, NodeID: "ghost",
	})
	if err == nil {
		t.Fatalf("expected the rights scope invariant to block the grant")
	}
}
