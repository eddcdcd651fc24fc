package service

import "golang.org/x/crypto/bcrypt"

// bcrypt cost factor (10-14 recommended for production)
const DefaultBcryptCost = 12

// CredentialVerifier hashes and verifies passwords
type CredentialVerifier interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// BcryptVerifier is a CredentialVerifier backed by bcrypt
type BcryptVerifier struct {
	cost int
}

// NewBcryptVerifier creates a verifier. A cost outside bcrypt's bounds
// falls back to DefaultBcryptCost.
func NewBcryptVerifier(cost int) *BcryptVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptVerifier{cost: cost}
}

// Hash returns the bcrypt hash of plaintext
func (v *BcryptVerifier) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), v.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash
func (v *BcryptVerifier) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
