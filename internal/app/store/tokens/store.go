// internal/app/store/tokens/store.go

// Package tokenstore manages bearer API tokens. Tokens are opaque random
// values handed to clients at login; only their SHA-256 digests are
// persisted, with a TTL index for automatic cleanup. A 401 from the API
// means the client's token no longer resolves and must be discarded.
package tokenstore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultTTL is the bearer token lifetime when the caller passes zero.
const DefaultTTL = 24 * time.Hour

const tokenBytes = 32

// ErrNotFound is returned when a token does not resolve (unknown, revoked,
// or expired).
var ErrNotFound = errors.New("token not found or expired")

// Token is a persisted bearer token record.
type Token struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Digest    string             `bson:"digest"`
	UserID    primitive.ObjectID `bson:"user_id"`
	SessionID string             `bson:"session_id"` // caller-session correlation id
	ExpiresAt time.Time          `bson:"expires_at"` // TTL index field
	CreatedAt time.Time          `bson:"created_at"`
	LastUsed  time.Time          `bson:"last_used"`
}

// Store manages bearer token records.
type Store struct {
	c   *mongo.Collection
	ttl time.Duration
}

// New creates a Store with the specified token lifetime. Zero or negative
// means DefaultTTL.
func New(db *mongo.Database, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{c: db.Collection("api_tokens"), ttl: ttl}
}

// EnsureIndexes creates the digest lookup index and the TTL index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "digest", Value: 1}},
			Options: options.Index().SetName("idx_tokens_digest").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_tokens_expires_ttl").SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_tokens_user"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Issue creates a token for the user and returns the raw value. The raw
// token exists only in the response to the client.
func (s *Store) Issue(ctx context.Context, userID primitive.ObjectID, sessionID string) (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	raw := hex.EncodeToString(b)

	now := time.Now().UTC()
	rec := Token{
		ID:        primitive.NewObjectID(),
		Digest:    digest(raw),
		UserID:    userID,
		SessionID: sessionID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
		LastUsed:  now,
	}
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return "", err
	}
	return raw, nil
}

// Resolve looks up a raw token and returns the owning user ID. Expired
// tokens do not resolve even before the TTL monitor removes them.
func (s *Store) Resolve(ctx context.Context, raw string) (primitive.ObjectID, error) {
	var rec Token
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"digest":     digest(raw),
			"expires_at": bson.M{"$gt": time.Now().UTC()},
		},
		bson.M{"$set": bson.M{"last_used": time.Now().UTC()}},
	).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return primitive.NilObjectID, ErrNotFound
		}
		return primitive.NilObjectID, err
	}
	return rec.UserID, nil
}

// Revoke deletes a single token (logout).
func (s *Store) Revoke(ctx context.Context, raw string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"digest": digest(raw)})
	return err
}

// RevokeAllForUser deletes every token belonging to a user, e.g. after a
// password change or deactivation.
func (s *Store) RevokeAllForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
