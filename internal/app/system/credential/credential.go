// internal/app/system/credential/credential.go

// Package credential manages secret hashing on write and verification on
// read. Raw secrets pass through a slow salted bcrypt hash before they reach
// persistence; the plaintext is never retained afterwards.
package credential

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor applied to credentials. Matching hashes is
// constant-time with respect to the candidate; the cost makes brute force
// expensive.
const Cost = 12

// MinSecretLength is the minimum accepted plaintext length before hashing.
const MinSecretLength = 8

var (
	// ErrWeakSecret is returned when a plaintext secret is shorter than
	// MinSecretLength.
	ErrWeakSecret = errors.New("secret must be at least 8 characters")
	// ErrMalformedHash is returned when a stored hash is not a valid bcrypt
	// hash. This indicates a configuration or data problem, never a simple
	// mismatch.
	ErrMalformedHash = errors.New("stored credential hash is malformed")
	// ErrNoAuthPath is returned when a record has neither a local secret nor
	// an external identity-provider reference.
	ErrNoAuthPath = errors.New("either a password or an external auth id is required")
)

// Hash derives a one-way bcrypt hash from the plaintext secret. Callers
// must discard the plaintext after this returns.
func Hash(plain string) (string, error) {
	if len(plain) < MinSecretLength {
		return "", ErrWeakSecret
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), Cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify compares a candidate plaintext against a stored hash. A mismatch is
// reported as (false, nil); an error is returned only when the stored hash
// itself is unusable. Correct-format non-matches are indistinguishable in
// timing from matches.
func Verify(plain, storedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, ErrMalformedHash
	}
}

// ValidateAuthPaths enforces that a record carries at least one
// authentication path: a local password or an external provider id.
func ValidateAuthPaths(password, externalAuthID string) error {
	if strings.TrimSpace(password) == "" && strings.TrimSpace(externalAuthID) == "" {
		return ErrNoAuthPath
	}
	return nil
}
