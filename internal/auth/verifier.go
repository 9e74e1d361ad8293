package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Verifier decides whether an email/password pair may log in.
type Verifier interface {
	Verify(email, password string) bool
}

// VerifierFunc adapts a plain function to Verifier.
type VerifierFunc func(email, password string) bool

func (f VerifierFunc) Verify(email, password string) bool { return f(email, password) }

// BcryptVerifier accepts a single configured account.
type BcryptVerifier struct {
	Email        string
	PasswordHash []byte
}

// NewBcryptVerifier hashes password when hash is empty.
func NewBcryptVerifier(email, hash, password string) (*BcryptVerifier, error) {
	if hash != "" {
		return &BcryptVerifier{Email: email, PasswordHash: []byte(hash)}, nil
	}
	if password == "" {
		return nil, fmt.Errorf("admin password or password hash required")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &BcryptVerifier{Email: email, PasswordHash: b}, nil
}

func (v *BcryptVerifier) Verify(email, password string) bool {
	if email != v.Email {
		return false
	}
	return bcrypt.CompareHashAndPassword(v.PasswordHash, []byte(password)) == nil
}
