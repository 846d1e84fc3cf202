package domain

import "context"

// Severity captures invariant outcomes.
type Severity string

// Invariant severities determine commit behavior.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn reports a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// ChangeAction indicates the type of modification captured in a Change.
type ChangeAction string

// Change actions enumerate the CRUD operations captured for invariants and
// the audit trail.
const (
	ChangeCreate ChangeAction = "create"
	ChangeUpdate ChangeAction = "update"
	ChangeDelete ChangeAction = "delete"
)

// Change describes a node mutation applied during a transaction.
type Change struct {
	Category Category
	Action   ChangeAction
	NodeID   string
	Before   any
	After    any
}

// Violation reports a failed invariant evaluation.
type Violation struct {
	Invariant string
	Severity  Severity
	Message   string
	Category  Category
	NodeID    string
}

// Result aggregates violations from the invariant engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// InvariantViolationError is returned when blocking violations are present.
type InvariantViolationError struct {
	Result Result
}

func (e InvariantViolationError) Error() string {
	return "transaction blocked by invariants"
}

// Invariant defines a graph integrity check executed within a transaction
// boundary, before commit.
type Invariant interface {
	Name() string
	Evaluate(ctx context.Context, view TransactionView, changes []Change) (Result, error)
}

// InvariantEngine orchestrates invariant evaluation.
type InvariantEngine struct {
	invariants []Invariant
}

// NewInvariantEngine constructs an engine instance.
func NewInvariantEngine() *InvariantEngine {
	return &InvariantEngine{}
}

// Register appends an invariant to the engine.
func (e *InvariantEngine) Register(inv Invariant) {
	e.invariants = append(e.invariants, inv)
}

// Evaluate executes all registered invariants and aggregates their results.
func (e *InvariantEngine) Evaluate(ctx context.Context, view TransactionView, changes []Change) (Result, error) {
	var combined Result
	for _, inv := range e.invariants {
		res, err := inv.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
