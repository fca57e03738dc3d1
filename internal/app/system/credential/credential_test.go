package credential_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/contenthub/internal/app/system/credential"
)

func TestHashAndVerify_RoundTrip(t *testing.T) {
	hash, err := credential.Hash("correct horse battery")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatal("hash must not equal the plaintext")
	}

	ok, err := credential.Verify("correct horse battery", hash)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !ok {
		t.Error("expected match for the original secret")
	}

	ok, err = credential.Verify("correct horse batteryx", hash)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Error("expected mismatch for an altered secret")
	}
}

func TestHash_RejectsShortSecret(t *testing.T) {
	if _, err := credential.Hash("short"); !errors.Is(err, credential.ErrWeakSecret) {
		t.Errorf("expected ErrWeakSecret, got %v", err)
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	_, err := credential.Verify("whatever-secret", "not-a-bcrypt-hash")
	if !errors.Is(err, credential.ErrMalformedHash) {
		t.Errorf("expected ErrMalformedHash, got %v", err)
	}
}

func TestValidateAuthPaths(t *testing.T) {
	if err := credential.ValidateAuthPaths("", ""); !errors.Is(err, credential.ErrNoAuthPath) {
		t.Errorf("expected ErrNoAuthPath, got %v", err)
	}
	if err := credential.ValidateAuthPaths("secret-enough", ""); err != nil {
		t.Errorf("password-only should be valid, got %v", err)
	}
	if err := credential.ValidateAuthPaths("", "google-12345"); err != nil {
		t.Errorf("external-only should be valid, got %v", err)
	}
}
