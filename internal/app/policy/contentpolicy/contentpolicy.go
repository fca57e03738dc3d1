// Package contentpolicy provides authorization policies for content
// management.
//
// Authorization rules:
//   - Admins can do everything, including publish and archive
//   - Other roles act only through explicit permission grants on the
//     content resource
//   - Reading published content requires no account at all; drafts and
//     scheduled entries are visible only to users who can update content
//   - Product-scoped content (documentation, help) additionally requires
//     access to the owning product
package contentpolicy

import (
	"github.com/dalemusser/contenthub/internal/app/system/authz"
	"github.com/dalemusser/contenthub/internal/domain/models"
)

// CanCreate reports whether the user may create new content entries.
// New entries always start as drafts.
func CanCreate(u *models.User) bool {
	return authz.Allow(u, models.ResourceContent, models.ActionCreate)
}

// CanUpdate reports whether the user may modify the given entry.
// Product-scoped entries also require access to the owning product.
func CanUpdate(u *models.User, c *models.Content) bool {
	if !authz.Allow(u, models.ResourceContent, models.ActionUpdate) {
		return false
	}
	return hasProductScope(u, c)
}

// CanDelete reports whether the user may remove the given entry.
func CanDelete(u *models.User, c *models.Content) bool {
	if !authz.Allow(u, models.ResourceContent, models.ActionDelete) {
		return false
	}
	return hasProductScope(u, c)
}

// CanPublish reports whether the user may publish, schedule, or archive
// the given entry. Archiving is a lifecycle change and uses the same
// grant as publishing.
func CanPublish(u *models.User, c *models.Content) bool {
	if !authz.Allow(u, models.ResourceContent, models.ActionPublish) {
		return false
	}
	return hasProductScope(u, c)
}

// CanViewUnpublished reports whether the user may read entries that are
// not yet published (drafts and scheduled entries). Published and
// archived entries are readable without any grant.
func CanViewUnpublished(u *models.User, c *models.Content) bool {
	if !authz.Allow(u, models.ResourceContent, models.ActionUpdate) {
		return false
	}
	return hasProductScope(u, c)
}

func hasProductScope(u *models.User, c *models.Content) bool {
	if c == nil {
		return false
	}
	if c.Product == "" {
		return true
	}
	return authz.AllowProduct(u, c.Product)
}
