package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound reports a referenced id that does not resolve to a live node.
type ErrNotFound struct {
	Category Category
	ID       string
}

func (e ErrNotFound) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("node %q not found", e.ID)
	}
	return fmt.Sprintf("%s %q not found", e.Category, e.ID)
}

// DeniedError reports a rights check rejection. It carries the acting
// identity and the attempted action so callers can explain the refusal.
type DeniedError struct {
	Actor  Identity
	Action RightAction
	Target string
}

func (e DeniedError) Error() string {
	return fmt.Sprintf("identity %q denied %s on %q", string(e.Actor), e.Action, e.Target)
}

// ConflictError reports a creation collision or a deletion blocked by live
// references. Blocking lists the nodes that hold the blocking references.
type ConflictError struct {
	Op       string
	Blocking []NodeRef
}

func (e ConflictError) Error() string {
	if len(e.Blocking) == 0 {
		return fmt.Sprintf("%s conflict", e.Op)
	}
	names := make([]string, 0, len(e.Blocking))
	for _, ref := range e.Blocking {
		names = append(names, fmt.Sprintf("%s %q", ref.Category, ref.ID))
	}
	return fmt.Sprintf("%s conflict: blocked by %s", e.Op, strings.Join(names, ", "))
}

// ValidationError reports a malformed desired-state payload.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string { return "invalid payload: " + e.Reason }

// StoreError wraps an unexpected persistence failure. It is not recovered
// locally: the surrounding transaction aborts and the error surfaces to the
// caller verbatim.
type StoreError struct {
	Op  string
	Err error
}

func (e StoreError) Error() string { return fmt.Sprintf("store failure during %s: %v", e.Op, e.Err) }

// Unwrap exposes the underlying persistence error.
func (e StoreError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is an ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}

// IsDenied reports whether err is a DeniedError.
func IsDenied(err error) bool {
	var de DeniedError
	return errors.As(err, &de)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce ConflictError
	return errors.As(err, &ce)
}

// AsConflict extracts a ConflictError when present.
func AsConflict(err error) (ConflictError, bool) {
	var ce ConflictError
	ok := errors.As(err, &ce)
	return ce, ok
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
