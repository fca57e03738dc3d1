package models_test

import (
	"encoding/json"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/contenthub/internal/domain/models"
)

func TestDisplayName_PrefersName(t *testing.T) {
	u := models.User{Name: "Ada Lovelace", Email: "ada@example.com"}
	if got := u.DisplayName(); got != "Ada Lovelace" {
		t.Errorf("DisplayName() = %q, want %q", got, "Ada Lovelace")
	}
}

func TestDisplayName_FallsBackToEmail(t *testing.T) {
	u := models.User{Email: "ada@example.com"}
	if got := u.DisplayName(); got != "ada@example.com" {
		t.Errorf("DisplayName() = %q, want %q", got, "ada@example.com")
	}
	if got := u.DisplayName(); got == "" {
		t.Error("DisplayName() must not be empty when email is set")
	}
}

func TestDefaultPreferences(t *testing.T) {
	p := models.DefaultPreferences()

	if p.Theme != "system" {
		t.Errorf("Theme = %q, want %q", p.Theme, "system")
	}
	if !p.Notifications.Email {
		t.Error("email notifications should default on")
	}
	if p.Notifications.Marketing {
		t.Error("marketing notifications should default off")
	}
	if !p.Editor.AutosaveEnabled {
		t.Error("autosave should default on")
	}
	if p.Editor.AutosaveInterval != 60 {
		t.Errorf("AutosaveInterval = %d, want 60", p.Editor.AutosaveInterval)
	}
}

func TestPublicView_StripsSecrets(t *testing.T) {
	u := models.User{
		ID:                     primitive.NewObjectID(),
		Name:                   "Ada Lovelace",
		Email:                  "ada@example.com",
		Role:                   models.RoleEditor,
		PasswordHash:           "$2a$12$notarealhashnotarealhashnotarealhash",
		ExternalAuthID:         "google:sub-123",
		PasswordResetToken:     "reset-digest",
		EmailVerificationToken: "verify-digest",
		IsActive:               true,
	}

	raw, err := json.Marshal(u.PublicView())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	body := strings.ToLower(string(raw))

	for _, secret := range []string{"password", "hash", "token", "notarealhash", "reset-digest", "verify-digest", "google:sub-123"} {
		if strings.Contains(body, secret) {
			t.Errorf("public view leaks %q: %s", secret, raw)
		}
	}
	if !strings.Contains(body, "ada@example.com") {
		t.Errorf("public view missing email: %s", raw)
	}
	if !strings.Contains(body, u.ID.Hex()) {
		t.Errorf("public view missing id: %s", raw)
	}
}
