package tokenstore_test

import (
	"errors"
	"testing"
	"time"

	tokenstore "github.com/dalemusser/contenthub/internal/app/store/tokens"
	"github.com/dalemusser/contenthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_IssueAndResolve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tokenstore.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	raw, err := store.Issue(ctx, userID, "sid-1234")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if raw == "" {
		t.Fatal("expected a raw token")
	}

	// Only the digest is stored.
	var doc bson.M
	if err := db.Collection("api_tokens").FindOne(ctx, bson.M{}).Decode(&doc); err != nil {
		t.Fatalf("raw fetch failed: %v", err)
	}
	if doc["digest"] == raw {
		t.Error("token stored in plaintext")
	}

	got, err := store.Resolve(ctx, raw)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != userID {
		t.Error("Resolve returned wrong user")
	}
}

func TestStore_Resolve_Unknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tokenstore.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Resolve(ctx, "not-a-token"); !errors.Is(err, tokenstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Resolve_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tokenstore.New(db, time.Millisecond)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	raw, err := store.Issue(ctx, primitive.NewObjectID(), "sid-exp")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := store.Resolve(ctx, raw); !errors.Is(err, tokenstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound for expired token, got %v", err)
	}
}

func TestStore_Revoke(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tokenstore.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	raw, err := store.Issue(ctx, userID, "sid-rev")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := store.Revoke(ctx, raw); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := store.Resolve(ctx, raw); !errors.Is(err, tokenstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound after revoke, got %v", err)
	}
}

func TestStore_RevokeAllForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := tokenstore.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	for i := 0; i < 3; i++ {
		if _, err := store.Issue(ctx, userID, "sid-multi"); err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
	}

	n, err := store.RevokeAllForUser(ctx, userID)
	if err != nil {
		t.Fatalf("RevokeAllForUser failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 revoked, got %d", n)
	}
}
