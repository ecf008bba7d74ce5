package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// mustHash hashes a password with the minimum cost for fast tests.
func mustHash(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hashed)
}
