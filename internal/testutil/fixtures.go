package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/contenthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user with the given role and returns it. The record
// has a throwaway bcrypt-shaped hash that is not verifiable; use the store's
// Create for authentication tests.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string, role models.Role) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		Email:        email,
		Role:         role,
		PasswordHash: "$2a$12$fixturefixturefixturefuJZHxQ9eWQhKe5FSxppYTAXo1lW1m9O",
		IsActive:     true,
		Preferences:  models.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("fixture user insert failed: %v", err)
	}
	return u
}

// CreateContent inserts a draft content item of the given type and returns it.
func (f *Fixtures) CreateContent(ctx context.Context, typ models.ContentType, slug, title string) models.Content {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Content{
		ID:      primitive.NewObjectID(),
		Type:    typ,
		Slug:    slug,
		Title:   title,
		TitleCI: text.Fold(title),
		Body:    "<p>fixture body</p>",
		Author:  "Fixture Author",
		Date:    now,
		Status:  models.StatusDraft,
	}
	if typ == models.ContentDocumentation || typ == models.ContentHelp {
		c.Product = models.ProductVoice
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := f.db.Collection("content").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("fixture content insert failed: %v", err)
	}
	return c
}
