package service

import (
	"crypto/subtle"
	"fmt"

	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt work factor used for new hashes
const DefaultPasswordCost = 10

// PasswordHasher hashes and verifies admin panel passwords
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a new password hasher.
// A cost outside bcrypt bounds falls back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns a salted bcrypt hash of the plaintext password
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify compares a plaintext password with a stored value.
// Stored bcrypt hashes are compared by bcrypt; anything else is treated as a
// legacy plaintext password and compared in constant time.
// A malformed hash never matches.
func (h *PasswordHasher) Verify(plaintext, stored string) bool {
	record := models.ParsePasswordRecord(stored)
	switch record.Kind {
	case models.PasswordHashed:
		return bcrypt.CompareHashAndPassword([]byte(record.Value), []byte(plaintext)) == nil
	case models.PasswordLegacyPlaintext:
		if record.Value == "" {
			return false
		}
		return subtle.ConstantTimeCompare([]byte(record.Value), []byte(plaintext)) == 1
	default:
		return false
	}
}

// NeedsRehash reports whether a stored value should be replaced by a fresh hash
func (h *PasswordHasher) NeedsRehash(stored string) bool {
	return models.ParsePasswordRecord(stored).Kind != models.PasswordHashed
}
