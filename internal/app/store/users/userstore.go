package userstore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/contenthub/internal/app/system/credential"
	"github.com/dalemusser/contenthub/internal/app/system/normalize"
	"github.com/dalemusser/contenthub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxNameLength bounds the display name.
const MaxNameLength = 100

// Token lifetimes for the transient single-use tokens stored on the user
// record. Tokens are stored as SHA-256 digests; the raw value exists only in
// the email sent to the user.
const (
	ResetTokenTTL  = 1 * time.Hour
	VerifyTokenTTL = 24 * time.Hour
	tokenBytes     = 32
)

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an
	// email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned on authentication failure. It does
	// not distinguish unknown email from wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountDisabled is returned when authenticating a deactivated user.
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrTokenInvalid is returned when a reset/verification token does not
	// match or has expired.
	ErrTokenInvalid = errors.New("token is invalid or expired")
	// ErrValidation wraps all input-validation failures so handlers can
	// distinguish them from infrastructure faults with errors.Is.
	ErrValidation = errors.New("invalid user input")

	errMissingName  = fmt.Errorf("%w: name is required", ErrValidation)
	errNameTooLong  = fmt.Errorf("%w: name must be at most %d characters", ErrValidation, MaxNameLength)
	errMissingEmail = fmt.Errorf("%w: email is required", ErrValidation)
	errBadRole      = fmt.Errorf(`%w: role must be "admin"|"editor"|"author"|"contributor"|"reader"`, ErrValidation)
)

// Store persists user records in the "users" collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// EnsureIndexes creates the unique email index and the sparse unique index
// on external_auth_id (sparse so password-only accounts don't collide on
// the missing field).
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_users_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "external_auth_id", Value: 1}},
			Options: options.Index().SetName("idx_users_external_auth").SetUnique(true).SetSparse(true),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByExternalAuthID looks up a user by external identity-provider id.
func (s *Store) GetByExternalAuthID(ctx context.Context, externalID string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"external_auth_id": externalID}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// NewUser holds the inputs for creating a user. Exactly one auth path is
// required: Password for local accounts, ExternalAuthID for provider
// accounts.
type NewUser struct {
	Name           string
	Email          string
	Password       string
	ExternalAuthID string
	Role           models.Role
	Permissions    []models.Permission
	ProductAccess  []string
}

// Create inserts a new user after normalizing and validating fields. The
// password, when present, is hashed before the document is built; the
// plaintext is not retained.
func (s *Store) Create(ctx context.Context, nu NewUser) (*models.User, error) {
	name := normalize.Name(nu.Name)
	email := normalize.Email(nu.Email)

	if name == "" {
		return nil, errMissingName
	}
	if len(name) > MaxNameLength {
		return nil, errNameTooLong
	}
	if email == "" {
		return nil, errMissingEmail
	}
	if err := credential.ValidateAuthPaths(nu.Password, nu.ExternalAuthID); err != nil {
		return nil, err
	}

	role := nu.Role
	if role == "" {
		role = models.DefaultRole
	}
	if !role.Valid() {
		return nil, errBadRole
	}

	u := models.User{
		ID:             primitive.NewObjectID(),
		Name:           name,
		NameCI:         text.Fold(name),
		Email:          email,
		Role:           role,
		ExternalAuthID: nu.ExternalAuthID,
		Permissions:    nu.Permissions,
		ProductAccess:  nu.ProductAccess,
		IsActive:       true,
		Preferences:    models.DefaultPreferences(),
	}

	if nu.Password != "" {
		hash, err := credential.Hash(nu.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}

	// Provider accounts arrive with a verified email.
	if nu.ExternalAuthID != "" {
		u.IsEmailVerified = true
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &u, nil
}

// Authenticate verifies a local credential and, on success, bumps the login
// counters. Inactive accounts are rejected after the credential check so the
// response does not reveal which gate failed first.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.HasLocalCredential() {
		return nil, ErrInvalidCredentials
	}

	ok, err := credential.Verify(password, u.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}

	now := time.Now().UTC()
	_, err = s.c.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{
		"$set": bson.M{"last_login_at": now, "updated_at": now},
		"$inc": bson.M{"login_count": 1},
	})
	if err != nil {
		return nil, err
	}
	u.LastLoginAt = &now
	u.LoginCount++
	return u, nil
}

// ProfileUpdate holds the profile fields a user may change. It deliberately
// excludes the password so unrelated updates can never re-hash or clobber
// the stored credential.
type ProfileUpdate struct {
	Name        string
	Preferences *models.Preferences
}

// UpdateProfile applies a profile update. The stored password hash is
// untouched byte for byte.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if name := normalize.Name(upd.Name); name != "" {
		if len(name) > MaxNameLength {
			return errNameTooLong
		}
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if upd.Preferences != nil {
		set["preferences"] = *upd.Preferences
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ChangePassword re-hashes and stores a new password, clearing any pending
// reset token. This is the only profile mutation that touches the hash.
func (s *Store) ChangePassword(ctx context.Context, id primitive.ObjectID, newPassword string) error {
	hash, err := credential.Hash(newPassword)
	if err != nil {
		return err
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"password_hash": hash,
			"updated_at":    time.Now().UTC(),
		},
		"$unset": bson.M{
			"password_reset_token":   "",
			"password_reset_expires": "",
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetGrants replaces a user's role, permissions, and product access. Admin
// surface only; callers gate on authz.Allow(actor, users, update).
func (s *Store) SetGrants(ctx context.Context, id primitive.ObjectID, role models.Role, perms []models.Permission, products []string) error {
	if !role.Valid() {
		return errBadRole
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"role":           role,
			"permissions":    perms,
			"product_access": products,
			"updated_at":     time.Now().UTC(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkExternalAuth attaches an external identity to an existing account,
// e.g. after a provider login matches by email. The sparse unique index
// rejects linking an identity already claimed by another account.
func (s *Store) LinkExternalAuth(ctx context.Context, id primitive.ObjectID, externalID string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"external_auth_id": externalID, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return fmt.Errorf("external identity already linked to another account")
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate marks the record inactive. Records are never hard-deleted here;
// deletion policy belongs to an external collaborator.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IssuePasswordReset generates a single-use reset token, stores its digest
// with an expiry, and returns the raw token for delivery by email.
func (s *Store) IssuePasswordReset(ctx context.Context, email string) (string, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	raw := generateToken()
	_, err = s.c.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{
		"$set": bson.M{
			"password_reset_token":   digest(raw),
			"password_reset_expires": time.Now().UTC().Add(ResetTokenTTL),
			"updated_at":             time.Now().UTC(),
		},
	})
	if err != nil {
		return "", err
	}
	return raw, nil
}

// ConsumePasswordReset validates a reset token and sets the new password.
// The token is single use: it is cleared whether or not it had expired by
// the time the matching record was located.
func (s *Store) ConsumePasswordReset(ctx context.Context, rawToken, newPassword string) error {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{
		"password_reset_token":   digest(rawToken),
		"password_reset_expires": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrTokenInvalid
		}
		return err
	}
	return s.ChangePassword(ctx, u.ID, newPassword)
}

// IssueEmailVerification generates a single-use verification token for the
// user and returns the raw value for delivery.
func (s *Store) IssueEmailVerification(ctx context.Context, id primitive.ObjectID) (string, error) {
	raw := generateToken()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"email_verification_token":   digest(raw),
			"email_verification_expires": time.Now().UTC().Add(VerifyTokenTTL),
			"updated_at":                 time.Now().UTC(),
		},
	})
	if err != nil {
		return "", err
	}
	if res.MatchedCount == 0 {
		return "", ErrNotFound
	}
	return raw, nil
}

// ConsumeEmailVerification validates a verification token and marks the
// account's email verified, clearing the token.
func (s *Store) ConsumeEmailVerification(ctx context.Context, rawToken string) (*models.User, error) {
	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"email_verification_token":   digest(rawToken),
			"email_verification_expires": bson.M{"$gt": time.Now().UTC()},
		},
		bson.M{
			"$set": bson.M{"is_email_verified": true, "updated_at": time.Now().UTC()},
			"$unset": bson.M{
				"email_verification_token":   "",
				"email_verification_expires": "",
			},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	return &u, nil
}

// EmailExistsForOther checks if an email already exists for a user other
// than the given ID.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"email": normalize.Email(email),
		"_id":   bson.M{"$ne": excludeID},
	}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// generateToken returns a random hex token. Panics if the system's
// cryptographic random number generator fails.
func generateToken() string {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// digest returns the hex SHA-256 of a raw token. Only digests are persisted.
func digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
