package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorPredicates(t *testing.T) {
	cases := []struct {
		err   error
		check func(error) bool
	}{
		{ErrNotFound{Category: CategoryClass, ID: "x"}, IsNotFound},
		{DeniedError{Actor: "alice", Action: RightWrite, Target: "x"}, IsDenied},
		{ConflictError{Op: "delete class"}, IsConflict},
		{ValidationError{Reason: "bad"}, IsValidation},
	}
	for _, tc := range cases {
		if !tc.check(tc.err) {
			t.Fatalf("predicate rejected %T", tc.err)
		}
		// Predicates see through wrapping.
		if !tc.check(fmt.Errorf("outer: %w", tc.err)) {
			t.Fatalf("predicate missed wrapped %T", tc.err)
		}
	}
	if IsNotFound(ValidationError{Reason: "x"}) || IsDenied(ErrNotFound{ID: "x"}) {
		t.Fatalf("predicates must not cross-match")
	}
}

func TestAsConflictExtractsBlockers(t *testing.T) {
	conflict := ConflictError{
		Op:       "delete class",
		Blocking: []NodeRef{{ID: "scene", Category: CategorySceneType}},
	}
	got, ok := AsConflict(fmt.Errorf("wrapped: %w", conflict))
	if !ok || len(got.Blocking) != 1 || got.Blocking[0].ID != "scene" {
		t.Fatalf("AsConflict = %+v %v", got, ok)
	}
	if _, ok := AsConflict(errors.New("plain")); ok {
		t.Fatalf("plain error extracted as conflict")
	}
}

func TestStoreErrorUnwraps(t *testing.T) {
	inner := errors.New("disk full")
	err := StoreError{Op: "snapshot", Err: inner}
	if !errors.Is(err, inner) {
		t.Fatalf("store error must unwrap")
	}
	if !strings.Contains(err.Error(), "snapshot") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestIdentityClassification(t *testing.T) {
	if !Identity("").IsZero() || Identity("alice").IsZero() {
		t.Fatalf("IsZero misclassifies")
	}
	if !RootUserID.IsRoot() || Identity("alice").IsRoot() {
		t.Fatalf("IsRoot misclassifies")
	}
}
