// internal/app/system/authz/authz.go

// Package authz holds the authorization decision functions for ContentHub.
//
// Every permission and product-access check in the application flows through
// Allow and AllowProduct, so the "admin overrides all" rule is expressed in
// exactly one place. Decisions are default-closed: a user with no matching
// permission entry is denied.
//
// The functions are pure: they read only the passed-in user record and hold
// no state. Callers must not cache decisions beyond a single request, since
// role and permission changes take effect on the next fetch of the record.
package authz

import (
	"github.com/dalemusser/contenthub/internal/domain/models"
)

// Allow reports whether the user may perform the action on the resource.
//
// Admins are granted unconditionally. For everyone else the user's
// permission list is scanned for the first entry matching the resource and
// the action is looked up in that entry's action set. Duplicate entries for
// the same resource are tolerated; only the first one located is consulted
// (first-match-wins).
func Allow(u *models.User, resource models.Resource, action models.Action) bool {
	if u == nil {
		return false
	}
	if u.Role.IsAdmin() {
		return true
	}
	for _, p := range u.Permissions {
		if p.Resource != resource {
			continue
		}
		for _, a := range p.Actions {
			if a == action {
				return true
			}
		}
		// First matching resource entry decides; later duplicates are ignored.
		return false
	}
	return false
}

// AllowProduct reports whether the user may access the given product.
//
// Admins are granted unconditionally. The wildcard entitlement
// models.ProductAll grants every product token, including ones unknown to
// this build (union semantics, not intersection).
func AllowProduct(u *models.User, product string) bool {
	if u == nil {
		return false
	}
	if u.Role.IsAdmin() {
		return true
	}
	for _, p := range u.ProductAccess {
		if p == models.ProductAll || p == product {
			return true
		}
	}
	return false
}

// AllowAny reports whether the user may perform at least one of the actions
// on the resource. Used by handlers that accept several verbs on one route.
func AllowAny(u *models.User, resource models.Resource, actions ...models.Action) bool {
	for _, a := range actions {
		if Allow(u, resource, a) {
			return true
		}
	}
	return false
}
