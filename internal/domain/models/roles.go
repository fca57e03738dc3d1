// internal/domain/models/roles.go
package models

// Role is the coarse authorization tier assigned to a user.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleEditor      Role = "editor"
	RoleAuthor      Role = "author"
	RoleContributor Role = "contributor"
	RoleReader      Role = "reader"
)

// DefaultRole is assigned when a registration does not specify a role.
const DefaultRole = RoleReader

// IsAdmin reports whether the role carries the implicit full-access grant.
// Every permission and product-access decision consults this in exactly one
// place (internal/app/system/authz) so the override rule cannot drift.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleAuthor, RoleContributor, RoleReader:
		return true
	}
	return false
}

// Resource is a protected category of operations.
type Resource string

const (
	ResourceContent   Resource = "content"
	ResourceUsers     Resource = "users"
	ResourceAnalytics Resource = "analytics"
	ResourceSettings  Resource = "settings"
)

// Valid reports whether res is one of the recognized resources.
func (res Resource) Valid() bool {
	switch res {
	case ResourceContent, ResourceUsers, ResourceAnalytics, ResourceSettings:
		return true
	}
	return false
}

// Action is an operation verb checked against a resource.
type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionPublish Action = "publish"
)

// Valid reports whether a is one of the recognized actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionPublish:
		return true
	}
	return false
}

// Permission grants a set of actions on a single resource.
//
// A user's permission list may contain more than one entry for the same
// resource; lookups consult only the first matching entry (first-match-wins).
type Permission struct {
	Resource Resource `bson:"resource" json:"resource"`
	Actions  []Action `bson:"actions" json:"actions"`
}

// Product entitlement tokens. ProductAll grants access to every product,
// including tokens introduced after this list was written.
const (
	ProductSoul    = "soul"
	ProductVoice   = "voice"
	ProductQurious = "qurious"
	ProductAll     = "all"
)
