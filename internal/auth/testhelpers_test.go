package auth

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	testEmail    = "admin@example.org"
	testPassword = "correct horse"
)

func testTokens() TokenService {
	return TokenService{Secret: []byte("test-secret"), Issuer: "microteca-test", Duration: time.Hour}
}

func testProvider() *LocalProvider {
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	v := &BcryptVerifier{Email: testEmail, PasswordHash: hash}
	return NewLocalProvider(v, testTokens(), User{Email: testEmail, Name: "Administrator"})
}
