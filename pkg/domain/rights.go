package domain

// Identity names the acting user of an operation. The zero value marks a
// trusted internal call: rights enforcement is skipped entirely when the
// caller identity is absent.
type Identity string

// RootUserID is the reserved identity that bypasses every rights check.
const RootUserID Identity = "root"

// IsZero reports whether no caller identity was supplied.
func (i Identity) IsZero() bool { return i == "" }

// IsRoot reports whether the identity is the reserved root account.
func (i Identity) IsRoot() bool { return i == RootUserID }

// RightAction enumerates the operations a right can grant.
type RightAction string

// Supported right actions. Read, write, and delete are scoped to a node id;
// create is scoped to a category.
const (
	RightRead   RightAction = "read"
	RightWrite  RightAction = "write"
	RightDelete RightAction = "delete"
	RightCreate RightAction = "create"
)

// Right grants one action to one user group. NodeID scopes read/write/delete
// grants; Category scopes create grants.
type Right struct {
	GroupID  string      `json:"group_id"`
	Action   RightAction `json:"action"`
	NodeID   string      `json:"node_id,omitempty"`
	Category Category    `json:"category,omitempty"`
}
