// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an authenticable principal: role, explicit resource
// permissions, and product entitlements.
//
// Authentication takes one of two paths: a locally stored password hash, or
// an external identity-provider reference (ExternalAuthID). At least one must
// be present; the user store enforces this at write time.
//
// PasswordHash and the four token/expiry fields never leave the store
// boundary: they are tagged json:"-" so any outbound serialization strips
// them, and PublicView exists for handlers that want to be explicit.
type User struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Email  string             `bson:"email" json:"email"`
	Role   Role               `bson:"role" json:"role"`

	PasswordHash   string `bson:"password_hash,omitempty" json:"-"`
	ExternalAuthID string `bson:"external_auth_id,omitempty" json:"-"`

	Permissions   []Permission `bson:"permissions,omitempty" json:"permissions,omitempty"`
	ProductAccess []string     `bson:"product_access,omitempty" json:"product_access,omitempty"`

	IsActive        bool `bson:"is_active" json:"is_active"`
	IsEmailVerified bool `bson:"is_email_verified" json:"is_email_verified"`

	PasswordResetToken       string    `bson:"password_reset_token,omitempty" json:"-"`
	PasswordResetExpires     time.Time `bson:"password_reset_expires,omitempty" json:"-"`
	EmailVerificationToken   string    `bson:"email_verification_token,omitempty" json:"-"`
	EmailVerificationExpires time.Time `bson:"email_verification_expires,omitempty" json:"-"`

	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	LoginCount  int64      `bson:"login_count" json:"login_count"`

	Preferences Preferences `bson:"preferences" json:"preferences"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Preferences holds per-user UI and editor settings.
type Preferences struct {
	Theme         string                  `bson:"theme" json:"theme"` // "system" | "light" | "dark"
	Notifications NotificationPreferences `bson:"notifications" json:"notifications"`
	Editor        EditorPreferences       `bson:"editor" json:"editor"`
}

// NotificationPreferences toggles outbound notification channels.
type NotificationPreferences struct {
	Email     bool `bson:"email" json:"email"`
	Marketing bool `bson:"marketing" json:"marketing"`
}

// EditorPreferences configures the content editor.
type EditorPreferences struct {
	AutosaveEnabled  bool `bson:"autosave_enabled" json:"autosave_enabled"`
	AutosaveInterval int  `bson:"autosave_interval" json:"autosave_interval"` // seconds
}

// DefaultPreferences returns the documented preference defaults applied at
// registration.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme: "system",
		Notifications: NotificationPreferences{
			Email:     true,
			Marketing: false,
		},
		Editor: EditorPreferences{
			AutosaveEnabled:  true,
			AutosaveInterval: 60,
		},
	}
}

// DisplayName returns a non-empty human-readable label: the name when set,
// otherwise the email.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// HasLocalCredential reports whether the user authenticates with a password.
func (u *User) HasLocalCredential() bool { return u.PasswordHash != "" }

// HasExternalAuth reports whether the user authenticates through an external
// identity provider.
func (u *User) HasExternalAuth() bool { return u.ExternalAuthID != "" }

// PublicUser is the outbound representation of a User. It carries no secret
// or token material by construction.
type PublicUser struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Email           string       `json:"email"`
	Role            Role         `json:"role"`
	Permissions     []Permission `json:"permissions,omitempty"`
	ProductAccess   []string     `json:"product_access,omitempty"`
	IsActive        bool         `json:"is_active"`
	IsEmailVerified bool         `json:"is_email_verified"`
	LastLoginAt     *time.Time   `json:"last_login_at,omitempty"`
	LoginCount      int64        `json:"login_count"`
	Preferences     Preferences  `json:"preferences"`
	CreatedAt       time.Time    `json:"created_at"`
}

// PublicView strips secret and token fields for transmission outside the
// store boundary.
func (u *User) PublicView() PublicUser {
	return PublicUser{
		ID:              u.ID.Hex(),
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		Permissions:     u.Permissions,
		ProductAccess:   u.ProductAccess,
		IsActive:        u.IsActive,
		IsEmailVerified: u.IsEmailVerified,
		LastLoginAt:     u.LastLoginAt,
		LoginCount:      u.LoginCount,
		Preferences:     u.Preferences,
		CreatedAt:       u.CreatedAt,
	}
}
