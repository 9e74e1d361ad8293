package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	ErrCredentialsRequired = errors.New("email and password are required")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailRequired       = errors.New("email is required")
	ErrUnknownEmail        = errors.New("email not found")
)

const RoleAdmin = "admin"

// User is the profile kept alongside a session token.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Grant is what a successful login hands back.
type Grant struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Provider performs the credential check behind a Session.
type Provider interface {
	Authenticate(ctx context.Context, email, password string) (Grant, error)
	RequestReset(ctx context.Context, email string) (string, error)
}

// LocalProvider authenticates the single configured admin account and
// signs tokens for it. Revoke invalidates every token signed so far.
type LocalProvider struct {
	Verifier Verifier
	Tokens   TokenService
	Admin    User

	mu      sync.RWMutex
	version int
}

func NewLocalProvider(v Verifier, tokens TokenService, admin User) *LocalProvider {
	if admin.Role == "" {
		admin.Role = RoleAdmin
	}
	return &LocalProvider{Verifier: v, Tokens: tokens, Admin: admin}
}

func (p *LocalProvider) Authenticate(_ context.Context, email, password string) (Grant, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Grant{}, ErrCredentialsRequired
	}
	if !p.Verifier.Verify(email, password) {
		return Grant{}, ErrInvalidCredentials
	}

	user := p.Admin
	user.Email = email
	token, exp, err := p.Tokens.Sign(user, p.TokenVersion())
	if err != nil {
		return Grant{}, err
	}
	return Grant{Token: token, User: user, ExpiresAt: exp}, nil
}

// RequestReset only acknowledges the admin email; no mail is sent.
func (p *LocalProvider) RequestReset(_ context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrEmailRequired
	}
	if email != p.Admin.Email {
		return "", ErrUnknownEmail
	}
	return "password reset instructions sent to the email address", nil
}

func (p *LocalProvider) TokenVersion() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.version
}

func (p *LocalProvider) Revoke() {
	p.mu.Lock()
	p.version++
	p.mu.Unlock()
}
