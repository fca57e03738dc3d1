package contentpolicy_test

import (
	"testing"

	"github.com/dalemusser/contenthub/internal/app/policy/contentpolicy"
	"github.com/dalemusser/contenthub/internal/domain/models"
)

func editor(actions ...models.Action) *models.User {
	return &models.User{
		Role: models.RoleEditor,
		Permissions: []models.Permission{
			{Resource: models.ResourceContent, Actions: actions},
		},
		ProductAccess: []string{models.ProductVoice},
		IsActive:      true,
	}
}

func blogEntry() *models.Content {
	return &models.Content{Type: models.ContentBlog, Slug: "post", Title: "Post"}
}

func docsEntry(product string) *models.Content {
	return &models.Content{
		Type:    models.ContentDocumentation,
		Slug:    "guide",
		Title:   "Guide",
		Product: product,
		DocType: models.DocTypeGuide,
	}
}

func TestCanCreate(t *testing.T) {
	if !contentpolicy.CanCreate(editor(models.ActionCreate)) {
		t.Error("expected create grant to allow creation")
	}
	if contentpolicy.CanCreate(editor(models.ActionRead)) {
		t.Error("expected missing create grant to deny creation")
	}
	if contentpolicy.CanCreate(nil) {
		t.Error("expected nil user to be denied")
	}
}

func TestCanCreate_Admin(t *testing.T) {
	admin := &models.User{Role: models.RoleAdmin, IsActive: true}
	if !contentpolicy.CanCreate(admin) {
		t.Error("expected admin to create without grants")
	}
}

func TestCanUpdate_ProductScope(t *testing.T) {
	u := editor(models.ActionUpdate)

	if !contentpolicy.CanUpdate(u, blogEntry()) {
		t.Error("expected update of unscoped entry to be allowed")
	}
	if !contentpolicy.CanUpdate(u, docsEntry(models.ProductVoice)) {
		t.Error("expected update of accessible product to be allowed")
	}
	if contentpolicy.CanUpdate(u, docsEntry(models.ProductSoul)) {
		t.Error("expected update of inaccessible product to be denied")
	}
}

func TestCanUpdate_AdminIgnoresProductScope(t *testing.T) {
	admin := &models.User{Role: models.RoleAdmin, IsActive: true}
	if !contentpolicy.CanUpdate(admin, docsEntry(models.ProductSoul)) {
		t.Error("expected admin to update any product")
	}
}

func TestCanUpdate_AllProducts(t *testing.T) {
	u := editor(models.ActionUpdate)
	u.ProductAccess = []string{models.ProductAll}
	if !contentpolicy.CanUpdate(u, docsEntry(models.ProductSoul)) {
		t.Error("expected wildcard product access to allow any product")
	}
}

func TestCanDelete(t *testing.T) {
	if !contentpolicy.CanDelete(editor(models.ActionDelete), blogEntry()) {
		t.Error("expected delete grant to allow deletion")
	}
	if contentpolicy.CanDelete(editor(models.ActionUpdate), blogEntry()) {
		t.Error("expected missing delete grant to deny deletion")
	}
}

func TestCanPublish(t *testing.T) {
	if !contentpolicy.CanPublish(editor(models.ActionPublish), blogEntry()) {
		t.Error("expected publish grant to allow publishing")
	}
	if contentpolicy.CanPublish(editor(models.ActionCreate, models.ActionUpdate), blogEntry()) {
		t.Error("expected missing publish grant to deny publishing")
	}
	if contentpolicy.CanPublish(editor(models.ActionPublish), docsEntry(models.ProductSoul)) {
		t.Error("expected inaccessible product to deny publishing")
	}
}

func TestCanViewUnpublished(t *testing.T) {
	if !contentpolicy.CanViewUnpublished(editor(models.ActionUpdate), blogEntry()) {
		t.Error("expected update grant to allow draft access")
	}
	if contentpolicy.CanViewUnpublished(editor(models.ActionRead), blogEntry()) {
		t.Error("expected read-only grant to deny draft access")
	}
	if contentpolicy.CanViewUnpublished(nil, blogEntry()) {
		t.Error("expected nil user to be denied draft access")
	}
}

func TestNilContent(t *testing.T) {
	u := editor(models.ActionUpdate, models.ActionDelete, models.ActionPublish)
	if contentpolicy.CanUpdate(u, nil) {
		t.Error("expected nil entry to be denied")
	}
	if contentpolicy.CanDelete(u, nil) {
		t.Error("expected nil entry to be denied")
	}
	if contentpolicy.CanPublish(u, nil) {
		t.Error("expected nil entry to be denied")
	}
}
